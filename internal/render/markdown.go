// Package render turns assistant replies into HTML for the web widget.
package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(htmlrenderer.WithHardWraps()),
)

// HTML renders markdown to HTML. Raw HTML in the source is omitted.
func HTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// Plain escapes text for HTML without any markdown interpretation. User
// messages are shown verbatim.
func Plain(text string) string {
	return "<p>" + html.EscapeString(text) + "</p>"
}
