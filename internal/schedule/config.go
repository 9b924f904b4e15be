package schedule

import "time"

// Config holds schedule module configuration.
type Config struct {
	Enabled              bool          `mapstructure:"enabled"`
	DefaultLessonMinutes int           `mapstructure:"default_lesson_minutes"`
	MinCancelNotice      time.Duration `mapstructure:"min_cancel_notice"`
	ReminderLeadTime     time.Duration `mapstructure:"reminder_lead_time"`
}

// DefaultConfig returns the default schedule configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:              true,
		DefaultLessonMinutes: 60,
		MinCancelNotice:      24 * time.Hour,
		ReminderLeadTime:     time.Hour,
	}
}
