package library

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// md renders material bodies. GFM covers the tables and task lists that
// study guides tend to use; the default renderer still escapes raw HTML.
var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

func renderMarkdown(body string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(body), &buf); err != nil {
		return ""
	}
	return buf.String()
}
