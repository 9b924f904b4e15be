package server

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the server configuration.
type Config struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	DataDir string `mapstructure:"data_dir"`
}

// Addr returns the listen address as host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.data_dir", "./data")
	v.SetDefault("server.demo_mode", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/studyhall.db")

	// Module defaults
	v.SetDefault("modules.roster.enabled", true)
	v.SetDefault("modules.roster.max_students_per_guardian", 10)
	v.SetDefault("modules.schedule.enabled", true)
	v.SetDefault("modules.schedule.default_lesson_minutes", 60)
	v.SetDefault("modules.schedule.min_cancel_notice", "24h")
	v.SetDefault("modules.schedule.reminder_lead_time", "1h")
	v.SetDefault("modules.reports.enabled", true)
	v.SetDefault("modules.reports.draft_retention", "2160h")
	v.SetDefault("modules.audit.enabled", true)
	v.SetDefault("modules.audit.retention_period", "2160h")
	v.SetDefault("modules.audit.maintenance_interval", "1h")
	v.SetDefault("modules.chat.enabled", true)
	v.SetDefault("modules.chat.max_message_length", 4000)
	v.SetDefault("modules.chat.history_page_size", 50)
	v.SetDefault("modules.library.enabled", true)
	v.SetDefault("modules.library.max_upload_bytes", 10485760)
	v.SetDefault("modules.library.locale", "en")
	v.SetDefault("modules.appearance.enabled", true)
	v.SetDefault("modules.appearance.cookie_max_age", "8760h")
	v.SetDefault("modules.notify.enabled", true)
	v.SetDefault("modules.notify.channel", "console")
	v.SetDefault("modules.notify.sendgrid.api_key", "")
	v.SetDefault("modules.notify.sendgrid.from_address", "")
	v.SetDefault("modules.notify.sendgrid.from_name", "StudyHall")
	v.SetDefault("modules.notify.webhook.url", "")
	v.SetDefault("modules.notify.webhook.secret", "")
	v.SetDefault("modules.notify.webhook.timeout", "10s")

	// Error reporting (disabled unless a token is configured)
	v.SetDefault("rollbar.token", "")
	v.SetDefault("rollbar.environment", "production")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("studyhall")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/studyhall")
	}

	// Environment variable support: SH_SERVER_PORT=9090
	v.SetEnvPrefix("SH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}

	return v, nil
}
