package render

import (
	"html"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/docmodel"
)

var admonitionTitles = map[string]string{
	"note":    "Note",
	"tip":     "Tip",
	"info":    "Info",
	"caution": "Caution",
	"warning": "Warning",
	"danger":  "Danger",
}

func (ru *run) writeBlocks(sb *strings.Builder, blocks []docmodel.Block) error {
	for _, b := range blocks {
		if err := ru.writeBlock(sb, b); err != nil {
			return err
		}
	}
	return nil
}

func (ru *run) writeBlock(sb *strings.Builder, b docmodel.Block) error {
	switch b.Kind {
	case docmodel.BlockHeading:
		return ru.writeHeading(sb, b)
	case docmodel.BlockParagraph:
		sb.WriteString("<p>")
		if err := ru.writeRuns(sb, b.Runs); err != nil {
			return err
		}
		sb.WriteString("</p>\n")
	case docmodel.BlockList:
		return ru.writeList(sb, b)
	case docmodel.BlockPartial:
		blocks, err := ru.expand(b)
		if err != nil {
			return err
		}
		if err := ru.writeBlocks(sb, blocks); err != nil {
			return err
		}
		ru.stack = ru.stack[:len(ru.stack)-1]
	case docmodel.BlockAdmonition:
		title := b.Title
		if title == "" {
			title = admonitionTitles[b.AdmonitionKind]
		}
		sb.WriteString(`<div class="admonition admonition-` + html.EscapeString(b.AdmonitionKind) + `">` + "\n")
		sb.WriteString(`<div class="admonition-heading">` + html.EscapeString(ru.r.vars.apply(title)) + "</div>\n")
		sb.WriteString(`<div class="admonition-content">` + "\n")
		if err := ru.writeBlocks(sb, b.Body); err != nil {
			return err
		}
		sb.WriteString("</div>\n</div>\n")
	case docmodel.BlockCode:
		sb.WriteString("<pre><code")
		if b.Language != "" {
			sb.WriteString(` class="language-` + html.EscapeString(b.Language) + `"`)
		}
		sb.WriteString(">" + html.EscapeString(b.Text) + "</code></pre>\n")
	case docmodel.BlockQuote:
		sb.WriteString("<blockquote>\n")
		if err := ru.writeBlocks(sb, b.Body); err != nil {
			return err
		}
		sb.WriteString("</blockquote>\n")
	case docmodel.BlockRule:
		sb.WriteString("<hr />\n")
	case docmodel.BlockHTML:
		sb.WriteString(b.Text)
		if !strings.HasSuffix(b.Text, "\n") {
			sb.WriteByte('\n')
		}
	}
	return nil
}

func (ru *run) writeHeading(sb *strings.Builder, b docmodel.Block) error {
	text := ru.r.vars.apply(docmodel.PlainText(b.Runs))
	var anchor string
	if b.AnchorID != "" {
		anchor = ru.slugger.Reserve(b.AnchorID)
	} else {
		anchor = ru.slugger.Slug(text)
	}
	ru.toc = append(ru.toc, docmodel.TOCEntry{Level: b.Level, Text: text, AnchorID: anchor})

	level := strconv.Itoa(b.Level)
	id := html.EscapeString(anchor)
	sb.WriteString("<h" + level + ` id="` + id + `">`)
	if err := ru.writeRuns(sb, b.Runs); err != nil {
		return err
	}
	sb.WriteString(`<a class="hash-link" href="#` + id + `" aria-label="Direct link to ` + html.EscapeString(text) + `">#</a>`)
	sb.WriteString("</h" + level + ">\n")
	return nil
}

func (ru *run) writeList(sb *strings.Builder, b docmodel.Block) error {
	tag := "ul"
	if b.Ordered {
		tag = "ol"
	}
	sb.WriteString("<" + tag)
	if b.Ordered && b.Start != 1 {
		sb.WriteString(` start="` + strconv.Itoa(b.Start) + `"`)
	}
	sb.WriteString(">\n")
	for _, item := range b.Items {
		sb.WriteString("<li>")
		if err := ru.writeBlocks(sb, item); err != nil {
			return err
		}
		sb.WriteString("</li>\n")
	}
	sb.WriteString("</" + tag + ">\n")
	return nil
}

func (ru *run) writeRuns(sb *strings.Builder, runs []docmodel.InlineRun) error {
	for _, r := range runs {
		if err := ru.writeRun(sb, r); err != nil {
			return err
		}
	}
	return nil
}

func (ru *run) writeRun(sb *strings.Builder, r docmodel.InlineRun) error {
	switch r.Kind {
	case docmodel.RunText:
		sb.WriteString(html.EscapeString(ru.r.vars.apply(r.Text)))
	case docmodel.RunCode:
		sb.WriteString("<code>" + html.EscapeString(r.Text) + "</code>")
	case docmodel.RunEmphasis:
		return ru.wrapRuns(sb, "em", r.Children)
	case docmodel.RunStrong:
		return ru.wrapRuns(sb, "strong", r.Children)
	case docmodel.RunStrike:
		return ru.wrapRuns(sb, "del", r.Children)
	case docmodel.RunLink:
		href, err := ru.href(r.Href)
		if err != nil {
			return err
		}
		sb.WriteString(`<a href="` + html.EscapeString(href) + `"`)
		if r.Title != "" {
			sb.WriteString(` title="` + html.EscapeString(r.Title) + `"`)
		}
		if isExternal(href) {
			sb.WriteString(` target="_blank" rel="noopener noreferrer"`)
		}
		sb.WriteString(">")
		if err := ru.writeRuns(sb, r.Children); err != nil {
			return err
		}
		sb.WriteString("</a>")
	case docmodel.RunImage:
		sb.WriteString(`<img src="` + html.EscapeString(ru.r.vars.apply(r.Href)) + `" alt="` + html.EscapeString(r.Text) + `"`)
		if r.Title != "" {
			sb.WriteString(` title="` + html.EscapeString(r.Title) + `"`)
		}
		sb.WriteString(" />")
	case docmodel.RunBreak:
		sb.WriteString("<br />\n")
	case docmodel.RunHTML:
		sb.WriteString(r.Text)
	}
	return nil
}

func (ru *run) wrapRuns(sb *strings.Builder, tag string, children []docmodel.InlineRun) error {
	sb.WriteString("<" + tag + ">")
	if err := ru.writeRuns(sb, children); err != nil {
		return err
	}
	sb.WriteString("</" + tag + ">")
	return nil
}
