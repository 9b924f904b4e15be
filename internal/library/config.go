package library

// Config holds library module settings.
type Config struct {
	Enabled bool `mapstructure:"enabled"`

	// MaxUploadBytes caps the size of a material body.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`

	// Locale selects the collation used for title sorting.
	Locale string `mapstructure:"locale"`
}

// DefaultConfig returns the default library configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		MaxUploadBytes: 10 << 20,
		Locale:         "en",
	}
}
