package notify

import (
	"context"

	"go.uber.org/zap"
)

// Notification is one outbound message addressed to a set of recipients.
type Notification struct {
	Topic      string      `json:"topic"`
	Subject    string      `json:"subject"`
	Body       string      `json:"body"`
	Recipients []Recipient `json:"recipients"`
}

// Channel delivers notifications. Implementations must be safe for
// concurrent use; the bus invokes handlers from multiple goroutines.
type Channel interface {
	Name() string
	Send(ctx context.Context, n Notification) error
}

// ConsoleChannel logs notifications instead of delivering them. The default
// for development and single-machine setups.
type ConsoleChannel struct {
	logger *zap.Logger
}

// NewConsoleChannel creates a console channel over the given logger.
func NewConsoleChannel(logger *zap.Logger) *ConsoleChannel {
	return &ConsoleChannel{logger: logger}
}

// Name implements Channel.
func (c *ConsoleChannel) Name() string { return "console" }

// Send implements Channel.
func (c *ConsoleChannel) Send(_ context.Context, n Notification) error {
	ids := make([]string, 0, len(n.Recipients))
	for _, r := range n.Recipients {
		ids = append(ids, r.UserID)
	}
	c.logger.Info("notification",
		zap.String("topic", n.Topic),
		zap.String("subject", n.Subject),
		zap.String("body", n.Body),
		zap.Strings("recipients", ids),
	)
	return nil
}
