package roster

// Config holds roster module configuration.
type Config struct {
	Enabled                bool `mapstructure:"enabled"`
	MaxStudentsPerGuardian int  `mapstructure:"max_students_per_guardian"`
}

// DefaultConfig returns the default roster configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:                true,
		MaxStudentsPerGuardian: 10,
	}
}
