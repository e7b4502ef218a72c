package web

import (
	"bytes"
	stdhtml "html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		emoji.Emoji,
	),
	goldmark.WithRendererOptions(
		// Raw HTML stays escaped; no html.WithUnsafe().
		html.WithHardWraps(),
	),
)

var (
	explanationPolicy = bluemonday.UGCPolicy()
	plainTextPolicy   = bluemonday.StrictPolicy()
)

// renderMarkdownHTML renders an explanation for the results table. Output is
// sanitized because explanations come from an external service.
func renderMarkdownHTML(src string) template.HTML {
	src = strings.TrimSpace(src)
	if src == "" {
		return template.HTML("")
	}
	var b bytes.Buffer
	if err := markdownRenderer.Convert([]byte(src), &b); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(src) + "</pre>")
	}
	return template.HTML(explanationPolicy.SanitizeBytes(b.Bytes()))
}

// markdownPlainText is the text a reader sees once an explanation is
// rendered: markup and raw HTML are dropped and whitespace is collapsed. The
// table filters and sorts on this text.
func markdownPlainText(src string) string {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	var b bytes.Buffer
	if err := markdownRenderer.Convert([]byte(src), &b); err != nil {
		return src
	}
	text := stdhtml.UnescapeString(plainTextPolicy.Sanitize(b.String()))
	return strings.Join(strings.Fields(text), " ")
}
