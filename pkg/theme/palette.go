package theme

import (
	"fmt"
	"strings"
)

// Role names one semantic color slot. Every palette defines a value for every
// role; renderers and custom-palette validation rely on the sets being
// identical across themes.
type Role string

const (
	RoleBackground            Role = "background"
	RoleForeground            Role = "foreground"
	RoleCard                  Role = "card"
	RoleCardForeground        Role = "card-foreground"
	RolePrimary               Role = "primary"
	RolePrimaryForeground     Role = "primary-foreground"
	RoleSecondary             Role = "secondary"
	RoleSecondaryForeground   Role = "secondary-foreground"
	RoleMuted                 Role = "muted"
	RoleMutedForeground       Role = "muted-foreground"
	RoleAccent                Role = "accent"
	RoleAccentForeground      Role = "accent-foreground"
	RoleDestructive           Role = "destructive"
	RoleDestructiveForeground Role = "destructive-foreground"
	RoleBorder                Role = "border"
	RoleInput                 Role = "input"
	RoleRing                  Role = "ring"
)

// Roles lists every role in render order.
func Roles() []Role {
	return []Role{
		RoleBackground, RoleForeground,
		RoleCard, RoleCardForeground,
		RolePrimary, RolePrimaryForeground,
		RoleSecondary, RoleSecondaryForeground,
		RoleMuted, RoleMutedForeground,
		RoleAccent, RoleAccentForeground,
		RoleDestructive, RoleDestructiveForeground,
		RoleBorder, RoleInput, RoleRing,
	}
}

// Palette maps every role to a CSS color value.
type Palette map[Role]string

// LightPalette is the built-in light appearance.
var LightPalette = Palette{
	RoleBackground:            "#ffffff",
	RoleForeground:            "#0f172a",
	RoleCard:                  "#ffffff",
	RoleCardForeground:        "#0f172a",
	RolePrimary:               "#4f46e5",
	RolePrimaryForeground:     "#ffffff",
	RoleSecondary:             "#f1f5f9",
	RoleSecondaryForeground:   "#0f172a",
	RoleMuted:                 "#f1f5f9",
	RoleMutedForeground:       "#475569",
	RoleAccent:                "#eef2ff",
	RoleAccentForeground:      "#3730a3",
	RoleDestructive:           "#dc2626",
	RoleDestructiveForeground: "#ffffff",
	RoleBorder:                "#e2e8f0",
	RoleInput:                 "#e2e8f0",
	RoleRing:                  "#4f46e5",
}

// DarkPalette is the built-in dark appearance.
var DarkPalette = Palette{
	RoleBackground:            "#0b1120",
	RoleForeground:            "#e2e8f0",
	RoleCard:                  "#131c31",
	RoleCardForeground:        "#e2e8f0",
	RolePrimary:               "#818cf8",
	RolePrimaryForeground:     "#1e1b4b",
	RoleSecondary:             "#1e293b",
	RoleSecondaryForeground:   "#e2e8f0",
	RoleMuted:                 "#1e293b",
	RoleMutedForeground:       "#94a3b8",
	RoleAccent:                "#312e81",
	RoleAccentForeground:      "#e0e7ff",
	RoleDestructive:           "#f87171",
	RoleDestructiveForeground: "#450a0a",
	RoleBorder:                "#1e293b",
	RoleInput:                 "#1e293b",
	RoleRing:                  "#818cf8",
}

// PaletteFor returns the built-in palette for a concrete theme.
func PaletteFor(t Theme) Palette {
	if t == Dark {
		return DarkPalette
	}
	return LightPalette
}

// Validate checks that a palette covers exactly the standard role set with
// parseable colors, and that every "-foreground" role reads at WCAG AA
// contrast (4.5:1) over its base role.
func (p Palette) Validate() error {
	want := Roles()
	if len(p) != len(want) {
		return fmt.Errorf("palette has %d roles, want %d", len(p), len(want))
	}
	for _, role := range want {
		value, ok := p[role]
		if !ok {
			return fmt.Errorf("palette missing role %q", role)
		}
		if _, parseable := parseHexColor(value); !parseable {
			return fmt.Errorf("role %q has unparseable color %q", role, value)
		}
	}
	pairs := [][2]Role{
		{RoleForeground, RoleBackground},
		{RoleCardForeground, RoleCard},
		{RolePrimaryForeground, RolePrimary},
		{RoleSecondaryForeground, RoleSecondary},
		{RoleMutedForeground, RoleMuted},
		{RoleAccentForeground, RoleAccent},
		{RoleDestructiveForeground, RoleDestructive},
	}
	for _, pair := range pairs {
		if !CheckContrast(p[pair[0]], p[pair[1]]) {
			return fmt.Errorf("role %q fails contrast against %q (%.2f:1, want %.1f:1)",
				pair[0], pair[1], ContrastRatio(p[pair[0]], p[pair[1]]), ContrastMin)
		}
	}
	return nil
}

// RenderCSS renders a palette as a :root rule with one custom property per
// role plus the color-scheme declaration, ready to serve as a stylesheet.
func RenderCSS(t Theme, p Palette) string {
	var b strings.Builder
	b.WriteString(":root {\n")
	fmt.Fprintf(&b, "  color-scheme: %s;\n", t)
	for _, role := range Roles() {
		if value, ok := p[role]; ok {
			fmt.Fprintf(&b, "  --%s: %s;\n", role, value)
		}
	}
	b.WriteString("}\n")
	return b.String()
}
