package content

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/docmodel"
	"git.home.luguber.info/inful/docsite/internal/frontmatter"
	"git.home.luguber.info/inful/docsite/internal/markdown"
)

func writeFile(t *testing.T, root, rel, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
}

func page(id, title string, extra string) string {
	return "---\nid: " + id + "\ntitle: " + title + "\n" + extra + "---\n\n# " + title + "\n\nAbout " + title + ".\n"
}

func slugs(docs []*docmodel.DocumentNode) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Slug)
	}
	return out
}

func TestLoad_TiesOnPositionBreakOnID(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "c.md", page("c", "C", "sidebar_position: 2\n"))
	writeFile(t, root, "b.md", page("b", "B", "sidebar_position: 1\n"))
	writeFile(t, root, "a.md", page("a", "A", "sidebarPosition: 1\n"))

	s, err := Load(context.Background(), root, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"/b", "/a", "/c"}, slugs(s.Docs()))

	nav, err := s.Navigation("/b")
	require.NoError(t, err)
	assert.Nil(t, nav.Prev)
	require.NotNil(t, nav.Next)
	assert.Equal(t, "a", nav.Next.ID)

	nav, err = s.Navigation("/a")
	require.NoError(t, err)
	assert.Equal(t, "b", nav.Prev.ID)
	assert.Equal(t, "c", nav.Next.ID)

	nav, err = s.Navigation("/c")
	require.NoError(t, err)
	assert.Equal(t, "a", nav.Prev.ID)
	assert.Nil(t, nav.Next)
}

func TestLoad_PrefixesGroupsAndSlugs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "01-introduction.md", page("introduction", "Introduction", "slug: /\n"))
	writeFile(t, root, "02-CHANGELOG.md", page("changelog", "Changelog", "toc_max_heading_level: 2\n"))
	writeFile(t, root, "quick-start-guide.md", page("quick-start-guide", "Quick Start Guide", "sidebar_label: Quick Start\n"))
	writeFile(t, root, "06-help/01-FAQ.md", page("faq", "FAQ", ""))
	writeFile(t, root, "06-help/02-support.md", page("support", "Support", "slug: contact\n"))
	writeFile(t, root, "03-setup/install.md", page("install", "Install", ""))

	s, err := Load(context.Background(), root, Options{})
	require.NoError(t, err)

	groups := s.Sidebar()
	require.Len(t, groups, 3)
	assert.Equal(t, "", groups[0].Name)
	assert.Equal(t, "setup", groups[1].Name)
	assert.Equal(t, "Setup", groups[1].Label)
	assert.Equal(t, "help", groups[2].Name)
	assert.Equal(t, "Help", groups[2].Label)

	assert.Equal(t, []string{"/", "/changelog", "/quick-start-guide", "/setup/install", "/help/faq", "/help/contact"}, slugs(s.Docs()))

	faq, err := s.Get("/help/faq")
	require.NoError(t, err)
	assert.Equal(t, "help/faq", faq.ID)
	assert.Equal(t, 1, faq.Position)
	assert.Equal(t, "help", faq.Group)
	assert.Equal(t, "06-help/01-FAQ.md", faq.Source)
	assert.Equal(t, "About FAQ.", faq.Description)
	assert.NotEmpty(t, faq.Fingerprint)

	changelog, err := s.ByID("changelog")
	require.NoError(t, err)
	assert.Equal(t, 2, changelog.Position)
	assert.Equal(t, 2, changelog.TOCMaxLevel)
	assert.Equal(t, frontmatter.DefaultTOCMinLevel, changelog.TOCMinLevel)

	qs, err := s.Get("/quick-start-guide")
	require.NoError(t, err)
	assert.Equal(t, "Quick Start", qs.Label())
	assert.Equal(t, 3, qs.Position, "third page of the root directory")

	bySource, ok := s.BySource("06-help/02-support.md")
	require.True(t, ok)
	assert.Equal(t, "/help/contact", bySource.Slug)

	// Navigation crosses group boundaries by default.
	nav, err := s.Navigation("/setup/install")
	require.NoError(t, err)
	assert.Equal(t, "/quick-start-guide", nav.Prev.Slug)
	assert.Equal(t, "/help/faq", nav.Next.Slug)
}

func TestLoad_IsolateGroups(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "intro.md", page("intro", "Intro", ""))
	writeFile(t, root, "01-help/faq.md", page("faq", "FAQ", ""))

	s, err := Load(context.Background(), root, Options{IsolateGroups: true})
	require.NoError(t, err)

	nav, err := s.Navigation("/intro")
	require.NoError(t, err)
	assert.Nil(t, nav.Prev)
	assert.Nil(t, nav.Next)
}

func TestLoad_SlugsArePairwiseDistinct(t *testing.T) {
	root := t.TempDir()
	for i, name := range []string{"alpha", "beta", "gamma", "delta"} {
		writeFile(t, root, name+".md", page(name, name, ""))
		writeFile(t, root, fmt.Sprintf("%02d-%s-group/%s.md", i+1, name, name), page(name, name, ""))
	}
	s, err := Load(context.Background(), root, Options{})
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, d := range s.Docs() {
		assert.False(t, seen[d.Slug], "duplicate slug %s", d.Slug)
		seen[d.Slug] = true
	}
	assert.Len(t, seen, 8)
}

func TestLoad_Failures(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		sentinel error
		path     string
		line     int
	}{
		{
			name:     "slug collision",
			files:    map[string]string{"a.md": page("a", "A", "slug: /same\n"), "b.md": page("b", "B", "slug: /same\n")},
			sentinel: ErrSlugCollision,
			path:     "b.md",
		},
		{
			name:     "duplicate id",
			files:    map[string]string{"01-a.md": page("dup", "A", ""), "02-b.md": page("dup", "B", "slug: other\n")},
			sentinel: ErrDuplicateID,
			path:     "02-b.md",
		},
		{
			name:     "unterminated front matter",
			files:    map[string]string{"a.md": "---\nid: a\n"},
			sentinel: frontmatter.ErrMissingClosingDelimiter,
			path:     "a.md",
			line:     1,
		},
		{
			name:     "duplicate partial component",
			files:    map[string]string{"_x.md": "x\n", "sub/_x.md": "y\n"},
			sentinel: ErrDuplicateComponent,
			path:     "sub/_x.md",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			for rel, body := range tt.files {
				writeFile(t, root, rel, body)
			}
			s, err := Load(context.Background(), root, Options{})
			require.Nil(t, s)
			var le *LoadError
			require.ErrorAs(t, err, &le)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.path, le.Path)
			if tt.line > 0 {
				assert.Equal(t, tt.line, le.Line)
			}
		})
	}
}

func TestLoad_MissingTitleIsLoadError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "---\nid: a\n---\nbody\n")

	_, err := Load(context.Background(), root, Options{})
	var fe *frontmatter.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "title", fe.Field)
}

func TestLoad_BadFieldReportsFileLine(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "---\nid: a\ntitle: A\nsidebar_position: first\n---\nbody\n")

	_, err := Load(context.Background(), root, Options{})
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 4, le.Line)
}

func TestLoad_UnclosedAdmonitionIsLoadError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "---\nid: a\ntitle: A\n---\n\n:::note\nopen\n")

	_, err := Load(context.Background(), root, Options{})
	var le *LoadError
	require.ErrorAs(t, err, &le)
	var se *markdown.SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 6, le.Line)
}

func TestLoad_DraftsAndIgnoredDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", page("a", "A", ""))
	writeFile(t, root, "wip.md", page("wip", "WIP", "draft: true\n"))
	writeFile(t, root, "private/secret.md", page("secret", "Secret", ""))
	writeFile(t, root, "private/.docignore", "")
	writeFile(t, root, ".hidden/x.md", page("x", "X", ""))
	writeFile(t, root, "notes.txt", "not markdown")

	s, err := Load(context.Background(), root, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"/a"}, slugs(s.Docs()))

	s, err = Load(context.Background(), root, Options{IncludeDrafts: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/wip"}, slugs(s.Docs()))
}

func TestLoad_Partials(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", page("a", "A", "")+"\n<AccessingTagsPartial />\n")
	writeFile(t, root, "_accessing-tags.mdx", "Tags live under the **Ewon** provider.\n")
	writeFile(t, root, "06-help/_01-contact.md", "---\ncomponent: SupportContact\n---\nCall us.\n")

	s, err := Load(context.Background(), root, Options{})
	require.NoError(t, err)
	require.Len(t, s.Docs(), 1)

	partials := s.Partials()
	require.Len(t, partials, 2)
	assert.Equal(t, "SupportContact", partials[0].Component)
	assert.Equal(t, "06-help/_01-contact.md", partials[0].ID)
	assert.Equal(t, "AccessingTagsPartial", partials[1].Component)
	assert.True(t, partials[1].Partial)
	assert.Empty(t, partials[1].Slug)

	_, err = s.Get("")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetAndNavigation_NotFound(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", page("a", "A", ""))
	s, err := Load(context.Background(), root, Options{})
	require.NoError(t, err)

	_, err = s.Get("/missing")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "/missing")

	edge, err := s.Navigation("/missing")
	require.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, docmodel.NavigationEdge{}, edge)
}

func TestLoad_CanceledContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", page("a", "A", ""))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := Load(ctx, root, Options{})
	assert.Nil(t, s)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad_MissingDirectory(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope"), Options{})
	var le *LoadError
	require.ErrorAs(t, err, &le)
}

func TestStoreFingerprintIsStable(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", page("a", "A", ""))
	s1, err := Load(context.Background(), root, Options{})
	require.NoError(t, err)
	s2, err := Load(context.Background(), root, Options{})
	require.NoError(t, err)
	assert.Equal(t, s1.Fingerprint(), s2.Fingerprint())

	writeFile(t, root, "a.md", page("a", "A changed", ""))
	s3, err := Load(context.Background(), root, Options{})
	require.NoError(t, err)
	assert.NotEqual(t, s1.Fingerprint(), s3.Fingerprint())
}

func TestLoad_LastUpdateFromGit(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "docs/a.md", page("a", "A", ""))

	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("docs/a.md")
	require.NoError(t, err)
	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	_, err = wt.Commit("add docs", &git.CommitOptions{
		Author: &object.Signature{Name: "Docs Writer", Email: "docs@example.com", When: when},
	})
	require.NoError(t, err)

	s, err := Load(context.Background(), filepath.Join(root, "docs"), Options{LastUpdate: true})
	require.NoError(t, err)
	doc, err := s.Get("/a")
	require.NoError(t, err)
	assert.Equal(t, "Docs Writer", doc.LastUpdate.Author)
	assert.True(t, when.Equal(doc.LastUpdate.Time))
}
