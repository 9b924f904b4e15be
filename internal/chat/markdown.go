package chat

import (
	"bytes"

	"github.com/yuin/goldmark"
)

// md renders message bodies. The default renderer escapes raw HTML, so
// user-authored markdown cannot inject markup.
var md = goldmark.New()

// renderMarkdown converts a markdown body to HTML. On a renderer error the
// raw text is lost rather than emitted unescaped; callers get an empty
// string.
func renderMarkdown(body string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(body), &buf); err != nil {
		return ""
	}
	return buf.String()
}
