package chat

// Config holds chat module configuration.
type Config struct {
	Enabled          bool `mapstructure:"enabled"`
	MaxMessageLength int  `mapstructure:"max_message_length"`
	HistoryPageSize  int  `mapstructure:"history_page_size"`
}

// DefaultConfig returns the default chat configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:          true,
		MaxMessageLength: 4000,
		HistoryPageSize:  50,
	}
}
