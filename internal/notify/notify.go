// Package notify turns platform events into outbound notifications. One
// configured channel (console, SendGrid email, or webhook) receives a
// message per lesson or report event, addressed to the people involved.
package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/studyhallhq/studyhall/pkg/module"
)

// Compile-time interface check.
var _ module.Module = (*Module)(nil)

// Recipient is one addressable person.
type Recipient struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
}

// RecipientResolver turns a user ID into an addressable recipient. Wired in
// main over the account store.
type RecipientResolver interface {
	Recipient(ctx context.Context, userID string) (*Recipient, error)
}

// GuardianResolver lists the guardians of a student, so lesson and report
// notices reach parents too.
type GuardianResolver interface {
	GuardiansOfStudent(ctx context.Context, studentID string) ([]string, error)
}

// Module implements the notify feature module.
type Module struct {
	logger     *zap.Logger
	cfg        Config
	bus        module.EventBus
	channel    Channel
	recipients RecipientResolver
	guardians  GuardianResolver

	unsubs []func()
}

// New creates an uninitialized notify module.
func New() *Module {
	return &Module{}
}

// SetRecipientResolver wires the account lookup. Call before Start.
func (m *Module) SetRecipientResolver(r RecipientResolver) {
	m.recipients = r
}

// SetGuardianResolver wires the guardian lookup. Call before Start.
func (m *Module) SetGuardianResolver(g GuardianResolver) {
	m.guardians = g
}

// Info implements module.Module.
func (m *Module) Info() module.ModuleInfo {
	return module.ModuleInfo{
		Name:        "notify",
		Version:     "0.1.0",
		Description: "Outbound notifications for lesson and report events",
		APIVersion:  module.APIVersionCurrent,
	}
}

// Init implements module.Module.
func (m *Module) Init(ctx context.Context, deps module.Dependencies) error {
	m.logger = deps.Logger
	m.bus = deps.Bus

	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("unmarshal notify config: %w", err)
		}
	}

	return m.initChannel()
}

// initChannel builds the delivery backend named by the config.
func (m *Module) initChannel() error {
	switch m.cfg.Channel {
	case "", "console":
		m.channel = NewConsoleChannel(m.logger)
	case "sendgrid":
		if m.cfg.SendGrid.APIKey == "" || m.cfg.SendGrid.FromAddress == "" {
			return fmt.Errorf("sendgrid channel requires api_key and from_address")
		}
		m.channel = NewSendGridChannel(m.cfg.SendGrid)
	case "webhook":
		if m.cfg.Webhook.URL == "" {
			return fmt.Errorf("webhook channel requires url")
		}
		m.channel = NewWebhookChannel(m.cfg.Webhook)
	default:
		return fmt.Errorf("unknown notify channel %q", m.cfg.Channel)
	}
	return nil
}

// Start implements module.Module. Subscribes to the event topics that
// produce notifications.
func (m *Module) Start(ctx context.Context) error {
	if m.bus == nil {
		return nil
	}
	for _, topic := range []string{
		"schedule.lesson_created",
		"schedule.lesson_cancelled",
		"schedule.lesson_reminder",
		"reports.report_published",
	} {
		m.unsubs = append(m.unsubs, m.bus.Subscribe(topic, m.handleEvent))
	}
	return nil
}

// Stop implements module.Module.
func (m *Module) Stop(ctx context.Context) error {
	for _, unsub := range m.unsubs {
		unsub()
	}
	m.unsubs = nil
	return nil
}

// Health reports module health.
func (m *Module) Health() module.HealthStatus {
	if m.channel == nil {
		return module.HealthStatus{Status: "unhealthy", Message: "no channel configured"}
	}
	return module.HealthStatus{
		Status:  "healthy",
		Details: map[string]string{"channel": m.channel.Name()},
	}
}
