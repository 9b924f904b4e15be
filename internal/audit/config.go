package audit

import "time"

// Config holds audit module configuration.
type Config struct {
	Enabled             bool          `mapstructure:"enabled"`
	RetentionPeriod     time.Duration `mapstructure:"retention_period"`
	MaintenanceInterval time.Duration `mapstructure:"maintenance_interval"`
}

// DefaultConfig returns the default audit configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:             true,
		RetentionPeriod:     90 * 24 * time.Hour,
		MaintenanceInterval: time.Hour,
	}
}
