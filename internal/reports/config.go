package reports

import "time"

// Config holds reports module configuration.
type Config struct {
	Enabled        bool          `mapstructure:"enabled"`
	DraftRetention time.Duration `mapstructure:"draft_retention"`
	Locale         string        `mapstructure:"locale"`
}

// DefaultConfig returns the default reports configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		DraftRetention: 90 * 24 * time.Hour,
		Locale:         "en",
	}
}
