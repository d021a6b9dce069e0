// internal/export/mdhtml.go
package export

import (
	"fmt"
	"regexp"
	"strings"
)

// The converter covers what generated curriculum text actually uses: fenced
// and inline code, ### headings, bold/italic, pipe tables, flat lists,
// horizontal rules and paragraphs. H1/H2 are handled by the segmenter.

var (
	reFence      = regexp.MustCompile("(?s)```(\\w*)\\n(.*?)```")
	reInlineCode = regexp.MustCompile("`([^`]+)`")
	reDocH1      = regexp.MustCompile(`(?m)^# (.+)$`)
	reDocH2      = regexp.MustCompile(`(?m)^## (.+)$`)
	reH3         = regexp.MustCompile(`(?m)^### (.+)$`)
	reBold       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reItalic     = regexp.MustCompile(`\*(.+?)\*`)
	reTable      = regexp.MustCompile(`\|(.+)\|\n\|[-| ]+\|\n((?:\|.+\|\n?)*)`)
	reUL         = regexp.MustCompile(`(?m)(?:^- .+$\n?)+`)
	reOL         = regexp.MustCompile(`(?m)(?:^\d+\. .+$\n?)+`)
	reOLItem     = regexp.MustCompile(`^\d+\. `)
	reHR         = regexp.MustCompile(`(?m)^---$`)
	reEmptyP     = regexp.MustCompile(`<p>\s*</p>`)
)

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// Placeholders keep code out of the inline transforms.
const (
	blockMark  = "\x00B"
	inlineMark = "\x00I"
)

// MarkdownToHTML converts a markdown fragment to HTML. Text is escaped, so
// raw HTML in the source renders literally.
func MarkdownToHTML(md string) string {
	return markdownToHTML(md, false)
}

// DocumentToHTML is MarkdownToHTML for a whole file, H1 and H2 included.
func DocumentToHTML(md string) string {
	return markdownToHTML(md, true)
}

func markdownToHTML(md string, headings bool) string {
	var blocks, inlines []string

	html := reFence.ReplaceAllStringFunc(md, func(m string) string {
		sub := reFence.FindStringSubmatch(m)
		lang := sub[1]
		if lang == "" {
			lang = "text"
		}
		blocks = append(blocks, fmt.Sprintf(`<pre><code class="lang-%s">%s</code></pre>`,
			lang, escapeHTML(strings.TrimRight(sub[2], " \t\r\n"))))
		return fmt.Sprintf("%s%d\x00", blockMark, len(blocks)-1)
	})

	html = reInlineCode.ReplaceAllStringFunc(html, func(m string) string {
		sub := reInlineCode.FindStringSubmatch(m)
		inlines = append(inlines, "<code>"+escapeHTML(sub[1])+"</code>")
		return fmt.Sprintf("%s%d\x00", inlineMark, len(inlines)-1)
	})

	html = escapeHTML(html)

	if headings {
		html = reDocH1.ReplaceAllString(html, "<h1>$1</h1>")
		html = reDocH2.ReplaceAllString(html, "<h2>$1</h2>")
	}
	html = reH3.ReplaceAllString(html, "<h3>$1</h3>")
	html = reBold.ReplaceAllString(html, "<strong>$1</strong>")
	html = reItalic.ReplaceAllString(html, "<em>$1</em>")
	html = reTable.ReplaceAllStringFunc(html, renderTable)
	html = reUL.ReplaceAllStringFunc(html, func(block string) string {
		return renderList("ul", block, func(line string) string { return strings.TrimPrefix(line, "- ") })
	})
	html = reOL.ReplaceAllStringFunc(html, func(block string) string {
		return renderList("ol", block, func(line string) string { return reOLItem.ReplaceAllString(line, "") })
	})
	html = reHR.ReplaceAllString(html, "<hr>")
	html = wrapParagraphs(html)
	html = reEmptyP.ReplaceAllString(html, "")

	for i, code := range inlines {
		html = strings.Replace(html, fmt.Sprintf("%s%d\x00", inlineMark, i), code, 1)
	}
	for i, code := range blocks {
		html = strings.Replace(html, fmt.Sprintf("%s%d\x00", blockMark, i), code, 1)
	}
	return html
}

func renderTable(m string) string {
	sub := reTable.FindStringSubmatch(m)

	var b strings.Builder
	b.WriteString("<table><thead><tr>")
	for _, h := range cells(sub[1]) {
		b.WriteString("<th>" + h + "</th>")
	}
	b.WriteString("</tr></thead><tbody>")
	for _, row := range strings.Split(strings.TrimSpace(sub[2]), "\n") {
		if strings.TrimSpace(row) == "" {
			continue
		}
		b.WriteString("<tr>")
		for _, c := range cells(row) {
			b.WriteString("<td>" + c + "</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	if strings.HasSuffix(m, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}

// cells splits a pipe row, dropping empty segments.
func cells(row string) []string {
	var out []string
	for _, c := range strings.Split(row, "|") {
		if c == "" {
			continue
		}
		out = append(out, strings.TrimSpace(c))
	}
	return out
}

func renderList(tag, block string, item func(string) string) string {
	var b strings.Builder
	b.WriteString("<" + tag + ">")
	for _, line := range strings.Split(strings.TrimSpace(block), "\n") {
		b.WriteString("<li>" + item(line) + "</li>")
	}
	b.WriteString("</" + tag + ">")
	if strings.HasSuffix(block, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}

var blockPrefixes = []string{"<h", "<l", "<u", "<o", "<t", "<p", "<li", "<pre", "<table", "<hr", blockMark}

func wrapParagraphs(html string) string {
	lines := strings.Split(html, "\n")
	for i, line := range lines {
		if line == "" || hasAnyPrefix(line, blockPrefixes) {
			continue
		}
		lines[i] = "<p>" + line + "</p>"
	}
	return strings.Join(lines, "\n")
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
