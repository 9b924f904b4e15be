// Package theme implements tri-state appearance preferences (light, dark,
// or follow-the-system) with palette resolution and fail-soft persistence.
//
// The package is deliberately free of HTTP, database, and terminal concerns:
// callers inject small capability ports (Storage, SystemSource, Surface) and
// an absent capability degrades silently instead of erroring. A request
// handler backs Storage with a cookie, the preview CLI backs it with a disk
// store, and tests back everything with in-memory fakes.
package theme

// Preference is what a person asked for: an explicit theme, or "system" to
// follow the host OS setting.
type Preference string

const (
	PreferenceLight  Preference = "light"
	PreferenceDark   Preference = "dark"
	PreferenceSystem Preference = "system"
)

// Theme is a concrete renderable appearance. Unlike Preference it is never
// "system"; resolution has already happened.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// StorageKey is the single key preferences are persisted under, shared by
// every Storage backend (cookie name, disk store key, ...).
const StorageKey = "studyhall_theme"

// ParsePreference maps a raw string to a Preference. Unrecognized input
// (including the empty string) returns ok=false; callers treat that the same
// as "nothing stored" rather than guessing.
func ParsePreference(s string) (Preference, bool) {
	switch Preference(s) {
	case PreferenceLight, PreferenceDark, PreferenceSystem:
		return Preference(s), true
	}
	return "", false
}

// Opposite returns the other concrete theme.
func (t Theme) Opposite() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}
