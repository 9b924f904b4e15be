// Package library manages learning materials: markdown documents with a
// subject and level, drafted by staff and published to the platform.
package library

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/studyhallhq/studyhall/pkg/module"
)

// Compile-time interface checks.
var (
	_ module.Module       = (*Module)(nil)
	_ module.HTTPProvider = (*Module)(nil)
)

// Module implements the library feature module.
type Module struct {
	logger   *zap.Logger
	cfg      Config
	store    *LibraryStore
	bus      module.EventBus
	collator language.Tag
}

// New creates an uninitialized library module.
func New() *Module {
	return &Module{}
}

// Info implements module.Module.
func (m *Module) Info() module.ModuleInfo {
	return module.ModuleInfo{
		Name:        "library",
		Version:     "0.1.0",
		Description: "Learning material authoring and publishing",
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
			return fmt.Errorf("unmarshal library config: %w", err)
		}
	}
	m.collator = language.Make(m.cfg.Locale)

	if deps.Store == nil {
		return fmt.Errorf("library requires a store")
	}
	if err := deps.Store.Migrate(ctx, "library", migrations()); err != nil {
		return fmt.Errorf("library migrations: %w", err)
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

// Store exposes the library store for cross-module wiring.
func (m *Module) Store() *LibraryStore {
	return m.store
}

func (m *Module) publishEvent(ctx context.Context, topic string, payload any) {
	if m.bus == nil {
		return
	}
	m.bus.PublishAsync(ctx, module.Event{
		Topic:     topic,
		Source:    "library",
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
