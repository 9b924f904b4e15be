package theme

import (
	"strings"
	"testing"
)

func TestBuiltinPalettesAreSymmetric(t *testing.T) {
	roles := Roles()
	for name, p := range map[string]Palette{"light": LightPalette, "dark": DarkPalette} {
		if len(p) != len(roles) {
			t.Errorf("%s palette has %d roles, want %d", name, len(p), len(roles))
		}
		for _, role := range roles {
			if _, ok := p[role]; !ok {
				t.Errorf("%s palette missing role %q", name, role)
			}
		}
	}
}

func TestBuiltinPalettesValidate(t *testing.T) {
	if err := LightPalette.Validate(); err != nil {
		t.Errorf("light palette: %v", err)
	}
	if err := DarkPalette.Validate(); err != nil {
		t.Errorf("dark palette: %v", err)
	}
}

func TestValidateRejectsBrokenPalettes(t *testing.T) {
	clone := func(p Palette) Palette {
		out := make(Palette, len(p))
		for k, v := range p {
			out[k] = v
		}
		return out
	}

	t.Run("missing_role", func(t *testing.T) {
		p := clone(LightPalette)
		delete(p, RoleRing)
		if err := p.Validate(); err == nil {
			t.Error("Validate() accepted a palette missing a role")
		}
	})

	t.Run("extra_role", func(t *testing.T) {
		p := clone(LightPalette)
		p["sparkle"] = "#ff00ff"
		if err := p.Validate(); err == nil {
			t.Error("Validate() accepted a palette with an extra role")
		}
	})

	t.Run("unparseable_color", func(t *testing.T) {
		p := clone(LightPalette)
		p[RoleBorder] = "rebeccapurple"
		if err := p.Validate(); err == nil {
			t.Error("Validate() accepted an unparseable color")
		}
	})

	t.Run("low_contrast", func(t *testing.T) {
		p := clone(LightPalette)
		p[RoleForeground] = "#fefefe" // near-white on white
		err := p.Validate()
		if err == nil {
			t.Fatal("Validate() accepted near-white foreground on white")
		}
		if !strings.Contains(err.Error(), "contrast") {
			t.Errorf("error mentions no contrast failure: %v", err)
		}
	})
}

func TestPaletteFor(t *testing.T) {
	if got := PaletteFor(Dark)[RoleBackground]; got != DarkPalette[RoleBackground] {
		t.Errorf("PaletteFor(dark) background = %q", got)
	}
	if got := PaletteFor(Light)[RoleBackground]; got != LightPalette[RoleBackground] {
		t.Errorf("PaletteFor(light) background = %q", got)
	}
}

func TestRenderCSS(t *testing.T) {
	css := RenderCSS(Dark, DarkPalette)

	if !strings.HasPrefix(css, ":root {") {
		t.Errorf("css does not open a :root rule:\n%s", css)
	}
	if !strings.Contains(css, "color-scheme: dark;") {
		t.Error("css missing color-scheme declaration")
	}
	for _, role := range Roles() {
		if !strings.Contains(css, "--"+string(role)+": ") {
			t.Errorf("css missing --%s", role)
		}
	}
	if strings.Count(css, "--") != len(Roles()) {
		t.Errorf("css declares %d variables, want %d", strings.Count(css, "--"), len(Roles()))
	}
}

func TestDocumentStyleBlockDeterministic(t *testing.T) {
	a := NewDocument()
	b := NewDocument()

	New(nil, nil, a).Apply(Dark)
	New(nil, nil, b).Apply(Dark)

	if a.StyleBlock() != b.StyleBlock() {
		t.Error("StyleBlock differs between identical applies")
	}
	if a.RootClass() != "dark" {
		t.Errorf("RootClass = %q, want dark", a.RootClass())
	}

	New(nil, nil, a).Apply(Light)
	if a.RootClass() != "" {
		t.Errorf("RootClass after light = %q, want empty", a.RootClass())
	}
}
