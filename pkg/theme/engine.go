package theme

import "sync"

// Engine resolves, applies, and persists appearance preferences through
// injected capability ports. Any port may be nil; a missing capability
// never panics or errors, it just narrows behavior: without Storage nothing
// persists, without a SystemSource the system theme reads as light, without
// a Surface Apply does nothing.
type Engine struct {
	storage Storage
	system  SystemSource
	surface Surface

	// paletteFor resolves the palette to apply for a theme. Defaults to the
	// built-ins; the appearance handler swaps in admin palettes here.
	paletteFor func(Theme) Palette
}

// New creates an Engine over the given ports. Any of them may be nil.
func New(storage Storage, system SystemSource, surface Surface) *Engine {
	return &Engine{
		storage:    storage,
		system:     system,
		surface:    surface,
		paletteFor: PaletteFor,
	}
}

// WithPalettes overrides palette lookup (for admin-defined palettes) and
// returns the engine for chaining. A nil fn restores the built-ins.
func (e *Engine) WithPalettes(fn func(Theme) Palette) *Engine {
	if fn == nil {
		fn = PaletteFor
	}
	e.paletteFor = fn
	return e
}

// SystemTheme reports the OS-level theme. Without a queryable system source
// it reports light.
func (e *Engine) SystemTheme() Theme {
	if e.system == nil {
		return Light
	}
	dark, ok := e.system.PrefersDark()
	if !ok {
		return Light
	}
	if dark {
		return Dark
	}
	return Light
}

// Resolve maps a preference to a concrete theme. Explicit preferences
// resolve to themselves regardless of the OS; "system" resolves to the
// current system theme.
func (e *Engine) Resolve(p Preference) Theme {
	switch p {
	case PreferenceLight:
		return Light
	case PreferenceDark:
		return Dark
	default:
		return e.SystemTheme()
	}
}

// Apply writes a theme to the surface: the dark marker, one custom property
// per palette role, and the color-scheme hint. Applying the same theme twice
// leaves the surface in the same state.
func (e *Engine) Apply(t Theme) {
	if e.surface == nil {
		return
	}
	e.surface.SetDark(t == Dark)
	p := e.paletteFor(t)
	for _, role := range Roles() {
		if value, ok := p[role]; ok {
			e.surface.SetVariable("--"+string(role), value)
		}
	}
	e.surface.SetColorScheme(string(t))
}

// Save persists the preference at StorageKey. Without storage it is a no-op.
func (e *Engine) Save(p Preference) {
	if e.storage == nil {
		return
	}
	e.storage.Set(StorageKey, string(p))
}

// Saved loads the persisted preference. Both an absent key and an
// unrecognized stored value report ok=false; the stored string is never
// coerced to a default.
func (e *Engine) Saved() (Preference, bool) {
	if e.storage == nil {
		return "", false
	}
	raw, ok := e.storage.Get(StorageKey)
	if !ok {
		return "", false
	}
	return ParsePreference(raw)
}

// Clear removes the persisted preference.
func (e *Engine) Clear() {
	if e.storage == nil {
		return
	}
	e.storage.Delete(StorageKey)
}

// Initialize applies the startup theme and returns it: a saved explicit
// preference wins, anything else (nothing saved, garbage saved, or saved
// "system") falls through to the current system theme. Synchronous, so a
// caller can run it before the first render.
func (e *Engine) Initialize() Theme {
	t := e.SystemTheme()
	if p, ok := e.Saved(); ok && p != PreferenceSystem {
		t = e.Resolve(p)
	}
	e.Apply(t)
	return t
}

// OnSystemChange registers fn to run when the OS theme changes. The returned
// cancel is idempotent. Without a system source fn never fires and the
// cancel is a no-op.
func (e *Engine) OnSystemChange(fn func(Theme)) (cancel func()) {
	if e.system == nil || fn == nil {
		return func() {}
	}
	stop := e.system.Watch(fn)
	var once sync.Once
	return func() { once.Do(stop) }
}
