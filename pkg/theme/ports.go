package theme

// Storage persists the raw preference string. Implementations report a
// missing key as ok=false rather than an error; writes that fail are
// swallowed by the implementation. The engine never distinguishes "no
// storage" from "storage that lost the value".
type Storage interface {
	Get(key string) (value string, ok bool)
	Set(key, value string)
	Delete(key string)
}

// SystemSource reports the host OS color-scheme preference.
type SystemSource interface {
	// PrefersDark reports whether the OS asks for dark. ok is false when
	// the preference cannot be queried at all (no media-query capability);
	// callers then fall back to light.
	PrefersDark() (dark, ok bool)

	// Watch registers fn to run whenever the OS preference changes and
	// returns a cancel func. Implementations that cannot observe changes
	// return a no-op cancel.
	Watch(fn func(Theme)) (cancel func())
}

// Surface is the render target a theme is applied to: the document root in
// a browser, an HTML template model on the server, a string builder in
// tests. All three setters must be idempotent.
type Surface interface {
	SetDark(dark bool)
	SetVariable(name, value string)
	SetColorScheme(scheme string)
}
