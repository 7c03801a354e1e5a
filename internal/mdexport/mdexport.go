// Package mdexport turns rendered page HTML back into Markdown for the
// llms-full.txt export and the MCP document tools.
package mdexport

import (
	"fmt"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
)

// hashLink matches the permalink anchors appended to rendered headings.
var hashLink = regexp.MustCompile(`<a class="hash-link"[^>]*>#</a>`)

// Convert renders an HTML fragment as Markdown. When domain is set,
// root-relative links and images become absolute URLs on that domain.
func Convert(fragment, domain string) (string, error) {
	var opts []converter.ConvertOptionFunc
	if domain != "" {
		opts = append(opts, converter.WithDomain(domain))
	}
	md, err := htmltomarkdown.ConvertString(hashLink.ReplaceAllString(fragment, ""), opts...)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}

// Document is a page in Markdown with a leading title heading.
func Document(title, fragment, domain string) (string, error) {
	body, err := Convert(fragment, domain)
	if err != nil {
		return "", err
	}
	if body == "" {
		return "# " + title + "\n", nil
	}
	return "# " + title + "\n\n" + body + "\n", nil
}
