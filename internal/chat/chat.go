// Package chat provides threaded messaging: direct conversations, per-lesson
// threads, and forum topics, with markdown message bodies.
package chat

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/studyhallhq/studyhall/pkg/module"
)

// Compile-time interface checks.
var (
	_ module.Module       = (*Module)(nil)
	_ module.HTTPProvider = (*Module)(nil)
)

// Module implements the chat feature module.
type Module struct {
	logger *zap.Logger
	cfg    Config
	store  *ChatStore
	bus    module.EventBus
}

// New creates an uninitialized chat module.
func New() *Module {
	return &Module{}
}

// Info implements module.Module.
func (m *Module) Info() module.ModuleInfo {
	return module.ModuleInfo{
		Name:        "chat",
		Version:     "0.1.0",
		Description: "Direct, lesson, and forum messaging",
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
			return fmt.Errorf("unmarshal chat config: %w", err)
		}
	}
	if m.cfg.HistoryPageSize <= 0 {
		m.cfg.HistoryPageSize = 50
	}

	if deps.Store == nil {
		return fmt.Errorf("chat requires a store")
	}
	if err := deps.Store.Migrate(ctx, "chat", migrations()); err != nil {
		return fmt.Errorf("chat migrations: %w", err)
	}
	m.store = NewStore(deps.Store.DB())
	return nil
}

// Start implements module.Module.
func (m *Module) Start(ctx context.Context) error {
	return nil
}

// Stop implements module.Module.
func (m *Module) Stop(ctx context.Context) error {
	return nil
}

// Health reports module health.
func (m *Module) Health() module.HealthStatus {
	if m.store == nil {
		return module.HealthStatus{Status: "unhealthy", Message: "store not initialized"}
	}
	return module.HealthStatus{Status: "healthy"}
}

// Store exposes the chat store for cross-module wiring.
func (m *Module) Store() *ChatStore {
	return m.store
}

func (m *Module) publishEvent(ctx context.Context, topic string, payload any) {
	if m.bus == nil {
		return
	}
	m.bus.PublishAsync(ctx, module.Event{
		Topic:     topic,
		Source:    "chat",
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
