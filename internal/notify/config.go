package notify

import "time"

// Config holds notify module settings.
type Config struct {
	Enabled bool `mapstructure:"enabled"`

	// Channel selects the delivery backend: console, sendgrid, or webhook.
	Channel string `mapstructure:"channel"`

	SendGrid SendGridConfig `mapstructure:"sendgrid"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
}

// SendGridConfig configures the email channel.
type SendGridConfig struct {
	APIKey      string `mapstructure:"api_key"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
}

// WebhookConfig configures the webhook channel.
type WebhookConfig struct {
	URL     string        `mapstructure:"url"`
	Secret  string        `mapstructure:"secret"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DefaultConfig returns the default notify configuration.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Channel: "console",
		SendGrid: SendGridConfig{
			FromName: "StudyHall",
		},
		Webhook: WebhookConfig{
			Timeout: 10 * time.Second,
		},
	}
}
