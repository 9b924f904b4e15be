package appearance

import "time"

// Config holds appearance module settings.
type Config struct {
	Enabled bool `mapstructure:"enabled"`

	// CookieMaxAge bounds how long a visitor's preference cookie lives.
	CookieMaxAge time.Duration `mapstructure:"cookie_max_age"`

	// CookieSecure marks the preference cookie Secure. Leave off for
	// plain-HTTP development setups.
	CookieSecure bool `mapstructure:"cookie_secure"`
}

// DefaultConfig returns the default appearance configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		CookieMaxAge: 365 * 24 * time.Hour,
	}
}
