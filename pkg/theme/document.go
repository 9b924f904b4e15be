package theme

import (
	"fmt"
	"sort"
	"strings"
)

// Document is a Surface that records applied state, used to render the web
// shell on the server and to observe Apply in tests. The zero value is not
// usable; call NewDocument.
type Document struct {
	dark        bool
	colorScheme string
	vars        map[string]string
}

// NewDocument returns an empty render surface.
func NewDocument() *Document {
	return &Document{vars: make(map[string]string)}
}

// SetDark implements Surface.
func (d *Document) SetDark(dark bool) { d.dark = dark }

// SetVariable implements Surface. Names keep their leading "--".
func (d *Document) SetVariable(name, value string) { d.vars[name] = value }

// SetColorScheme implements Surface.
func (d *Document) SetColorScheme(scheme string) { d.colorScheme = scheme }

// Dark reports whether the dark marker is set.
func (d *Document) Dark() bool { return d.dark }

// ColorScheme returns the recorded color-scheme hint.
func (d *Document) ColorScheme() string { return d.colorScheme }

// Variable returns one recorded custom property.
func (d *Document) Variable(name string) (string, bool) {
	v, ok := d.vars[name]
	return v, ok
}

// VariableCount returns how many custom properties are recorded.
func (d *Document) VariableCount() int { return len(d.vars) }

// RootClass returns the class attribute value for the document root:
// "dark" or empty.
func (d *Document) RootClass() string {
	if d.dark {
		return "dark"
	}
	return ""
}

// StyleBlock renders the recorded variables and color-scheme as a :root
// rule, deterministic by variable name.
func (d *Document) StyleBlock() string {
	names := make([]string, 0, len(d.vars))
	for name := range d.vars {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(":root {\n")
	if d.colorScheme != "" {
		fmt.Fprintf(&b, "  color-scheme: %s;\n", d.colorScheme)
	}
	for _, name := range names {
		fmt.Fprintf(&b, "  %s: %s;\n", name, d.vars[name])
	}
	b.WriteString("}\n")
	return b.String()
}
