package render

import (
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/docmodel"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// LinkResolver maps a link to a Markdown source onto the URL of the page
// generated from it.
type LinkResolver interface {
	// ResolveDocLink resolves target, a path relative to the source of from
	// (or to the content root when it starts with "/").
	ResolveDocLink(from *docmodel.DocumentNode, target string) (string, bool)
}

// SourceLookup finds documents by content relative source path.
type SourceLookup interface {
	BySource(rel string) (*docmodel.DocumentNode, bool)
}

// SourceLinkResolver resolves Markdown links through a content store.
type SourceLinkResolver struct {
	Docs SourceLookup
	// URLFor turns a slug into the URL written to the page.
	URLFor func(slug string) string
}

func (s SourceLinkResolver) ResolveDocLink(from *docmodel.DocumentNode, target string) (string, bool) {
	target, err := url.PathUnescape(target)
	if err != nil {
		return "", false
	}
	var rel string
	if strings.HasPrefix(target, "/") {
		rel = strings.TrimPrefix(path.Clean(target), "/")
	} else {
		base := ""
		if from != nil {
			base = path.Dir(from.Source)
		}
		rel = path.Clean(path.Join(base, target))
	}
	if strings.HasPrefix(rel, "../") {
		return "", false
	}
	doc, ok := s.Docs.BySource(rel)
	if !ok || doc.Partial {
		return "", false
	}
	if s.URLFor == nil {
		return doc.Slug, true
	}
	return s.URLFor(doc.Slug), true
}

func hasScheme(href string) bool {
	u, err := url.Parse(href)
	return err == nil && u.Scheme != ""
}

func isExternal(href string) bool {
	return strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://")
}

func isMarkdownPath(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	return ext == ".md" || ext == ".mdx" || ext == ".markdown"
}

// href applies site variables and rewrites links to Markdown sources.
func (ru *run) href(raw string) (string, error) {
	h := ru.r.vars.apply(raw)
	if h == "" || strings.HasPrefix(h, "#") || hasScheme(h) {
		return h, nil
	}
	target, fragment, hasFragment := strings.Cut(h, "#")
	target, _, _ = strings.Cut(target, "?")
	if !isMarkdownPath(target) {
		return h, nil
	}

	if ru.r.links != nil {
		if resolved, ok := ru.r.links.ResolveDocLink(ru.linkBase(), target); ok {
			if hasFragment {
				resolved += "#" + fragment
			}
			return resolved, nil
		}
	}

	switch ru.r.policy {
	case LinkPolicyIgnore:
	case LinkPolicyWarn:
		slog.Warn("Broken markdown link",
			logfields.DocID(ru.doc.ID),
			logfields.Location(fmt.Sprintf("%s:%d", ru.doc.Source, ru.line)),
			logfields.URL(raw))
	default:
		return "", fmt.Errorf("%w: %s", ErrBrokenMarkdownLink, raw)
	}
	return h, nil
}
