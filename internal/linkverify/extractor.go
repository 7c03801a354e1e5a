package linkverify

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Link is a reference found in a rendered page.
type Link struct {
	URL       string // as written
	Text      string // link text or alt text
	Tag       string // a, img, script, link, source
	Attribute string // href or src
}

// Page is what the extractor learns from one HTML document.
type Page struct {
	Links []Link
	// IDs holds every id attribute and every <a name>.
	IDs map[string]struct{}
}

// Extract parses an HTML document and collects its links and anchor targets.
func Extract(r io.Reader) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.ValidationError("failed to parse HTML").WithCause(err).Build()
	}
	page := &Page{IDs: make(map[string]struct{})}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			page.collect(n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return page, nil
}

func (p *Page) collect(n *html.Node) {
	if id := getAttr(n, "id"); id != "" {
		p.IDs[id] = struct{}{}
	}
	switch n.Data {
	case "a":
		if name := getAttr(n, "name"); name != "" {
			p.IDs[name] = struct{}{}
		}
		p.add(n, "href", extractText(n))
	case "link":
		p.add(n, "href", getAttr(n, "rel"))
	case "img":
		p.add(n, "src", getAttr(n, "alt"))
	case "script", "source", "video", "audio":
		p.add(n, "src", "")
	}
}

func (p *Page) add(n *html.Node, attr, text string) {
	if v := getAttr(n, attr); v != "" {
		p.Links = append(p.Links, Link{URL: v, Text: text, Tag: n.Data, Attribute: attr})
	}
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		text.WriteString(extractText(c))
	}
	return strings.TrimSpace(text.String())
}

// shouldVerify reports whether link points into the site.
func shouldVerify(link string) bool {
	if link == "" {
		return false
	}
	for _, prefix := range []string{"mailto:", "tel:", "javascript:", "data:"} {
		if strings.HasPrefix(link, prefix) {
			return false
		}
	}
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}
