package format

import (
	"html/template"
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

var listItemRe = regexp.MustCompile(`^(\d+\.|[-*+])\s`)

// ToHTML renders model output written in markdown. Raw HTML in the input is
// dropped, so the result is safe to embed in the page.
func ToHTML(text string) template.HTML {
	text = normalizeMarkdownLists(PreprocessAssistantText(text))

	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.SkipHTML | html.HrefTargetBlank,
	})
	return template.HTML(markdown.ToHTML([]byte(text), p, renderer))
}

// normalizeMarkdownLists ensures list items have proper spacing for markdown parsing.
// Markdown requires a blank line before lists, but LLMs often forget this.
func normalizeMarkdownLists(text string) string {
	lines := strings.Split(text, "\n")
	result := make([]string, 0, len(lines))

	for i, line := range lines {
		if i > 0 && listItemRe.MatchString(strings.TrimSpace(line)) {
			prev := strings.TrimSpace(lines[i-1])
			if prev != "" && !listItemRe.MatchString(prev) {
				result = append(result, "")
			}
		}
		result = append(result, line)
	}

	return strings.Join(result, "\n")
}
