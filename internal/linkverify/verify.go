// Package linkverify checks the internal links of a written site: every
// link to a page or asset must resolve to a file in the output tree and
// every #fragment must name an anchor on the target page.
package linkverify

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// Reasons a link is broken.
const (
	ReasonMissingTarget = "missing target"
	ReasonMissingAnchor = "missing anchor"
	ReasonOutsideSite   = "outside site"
)

// BrokenLink is an internal link that does not resolve.
type BrokenLink struct {
	// Page is the output-relative path of the page containing the link.
	Page   string `json:"page"`
	Target string `json:"target"`
	Reason string `json:"reason"`
}

func (b BrokenLink) String() string {
	return fmt.Sprintf("%s -> %s (%s)", b.Page, b.Target, b.Reason)
}

// Result summarizes a verification run.
type Result struct {
	Pages  int          `json:"pages"`
	Links  int          `json:"links"`
	Broken []BrokenLink `json:"broken,omitempty"`
}

// Options configures Verify.
type Options struct {
	// BasePath is the URL path prefix of the site ("/IgnitionEwonConnector/").
	BasePath string
	// Policy decides whether broken links are an error.
	Policy config.LinkPolicy
}

// ErrBrokenLinks is wrapped by the error Verify returns under the throw policy.
var ErrBrokenLinks = stderrors.New("broken links")

// Verify checks every HTML file below dir.
func Verify(ctx context.Context, dir string, opts Options) (*Result, error) {
	base := "/" + strings.Trim(opts.BasePath, "/")
	if base != "/" {
		base += "/"
	}

	pages := map[string]*Page{}
	var order []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		page, err := Extract(f)
		if err != nil {
			return fmt.Errorf("%s: %w", rel, err)
		}
		rel = filepath.ToSlash(rel)
		pages[rel] = page
		order = append(order, rel)
		return nil
	})
	if err != nil {
		return nil, errors.FileSystemError("failed to read output").WithCause(err).
			WithContext("dir", dir).
			Build()
	}

	v := &verifier{dir: dir, base: base, pages: pages}
	res := &Result{Pages: len(order)}
	slices.Sort(order)
	for _, rel := range order {
		for _, link := range pages[rel].Links {
			if !shouldVerify(link.URL) {
				continue
			}
			res.Links++
			if reason := v.check(rel, link.URL); reason != "" {
				res.Broken = append(res.Broken, BrokenLink{Page: rel, Target: link.URL, Reason: reason})
			}
		}
	}

	if len(res.Broken) == 0 {
		return res, nil
	}
	switch opts.Policy {
	case config.LinkPolicyIgnore:
	case config.LinkPolicyWarn:
		for _, b := range res.Broken {
			slog.Warn("Broken link", logfields.Path(b.Page), logfields.URL(b.Target), "reason", b.Reason)
		}
	default:
		return res, errors.LinksError(fmt.Sprintf("%d broken links", len(res.Broken))).WithCause(ErrBrokenLinks).
			WithContext("first", res.Broken[0].String()).
			Build()
	}
	return res, nil
}

type verifier struct {
	dir   string
	base  string
	pages map[string]*Page
}

// pageURL is the URL path a file is served under.
func (v *verifier) pageURL(rel string) string {
	switch {
	case rel == "index.html":
		return v.base
	case strings.HasSuffix(rel, "/index.html"):
		return v.base + strings.TrimSuffix(rel, "index.html")
	default:
		return v.base + strings.TrimSuffix(rel, ".html")
	}
}

// check returns "" when link resolves, otherwise the reason it does not.
func (v *verifier) check(fromRel, link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ReasonMissingTarget
	}
	targetRel := fromRel
	if u.Path != "" {
		abs := u.Path
		if !strings.HasPrefix(abs, "/") {
			abs = path.Join(path.Dir(v.pageURL(fromRel)+"x"), abs)
		}
		if !strings.HasPrefix(abs+"/", v.base) {
			return ReasonOutsideSite
		}
		rel := strings.TrimPrefix(abs, strings.TrimSuffix(v.base, "/"))
		rel = strings.TrimPrefix(path.Clean("/"+rel), "/")
		found, ok := v.resolve(rel)
		if !ok {
			return ReasonMissingTarget
		}
		targetRel = found
	}
	if u.Fragment == "" {
		return ""
	}
	page, ok := v.pages[targetRel]
	if !ok {
		// Fragments into non-HTML assets are not checked.
		return ""
	}
	if _, ok := page.IDs[u.Fragment]; !ok {
		return ReasonMissingAnchor
	}
	return ""
}

// resolve maps a site-relative path onto a file in the output tree.
func (v *verifier) resolve(rel string) (string, bool) {
	candidates := []string{rel, rel + ".html", path.Join(rel, "index.html")}
	if rel == "" || rel == "." {
		candidates = []string{"index.html"}
	}
	for _, c := range candidates {
		if _, ok := v.pages[c]; ok {
			return c, true
		}
		if c == "" {
			continue
		}
		if info, err := os.Stat(filepath.Join(v.dir, filepath.FromSlash(c))); err == nil && !info.IsDir() {
			return c, true
		}
	}
	return "", false
}
