// Package roster manages the people side of the platform: per-account
// profiles, guardian links between parents and students, and tutor
// assignments. Other modules resolve relationships through adapters over
// this module's store.
package roster

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

// Module implements the roster feature module.
type Module struct {
	logger *zap.Logger
	cfg    Config
	store  *RosterStore
	bus    module.EventBus
}

// New creates an uninitialized roster module.
func New() *Module {
	return &Module{}
}

// Info implements module.Module.
func (m *Module) Info() module.ModuleInfo {
	return module.ModuleInfo{
		Name:        "roster",
		Version:     "0.1.0",
		Description: "Profiles, guardian links, and tutor assignments",
		Roles:       []string{"directory"},
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
			return fmt.Errorf("unmarshal roster config: %w", err)
		}
	}

	if deps.Store == nil {
		return fmt.Errorf("roster requires a store")
	}
	if err := deps.Store.Migrate(ctx, "roster", migrations()); err != nil {
		return fmt.Errorf("roster migrations: %w", err)
	}
	m.store = NewStore(deps.Store.DB())

	m.logger.Info("roster module initialized",
		zap.Int("max_students_per_guardian", m.cfg.MaxStudentsPerGuardian))
	return nil
}

// Start implements module.Module. The roster has no background work.
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

// Store exposes the roster store for adapters wired in main.
func (m *Module) Store() *RosterStore {
	return m.store
}

func (m *Module) publishEvent(ctx context.Context, topic string, payload any) {
	if m.bus == nil {
		return
	}
	m.bus.PublishAsync(ctx, module.Event{
		Topic:     topic,
		Source:    "roster",
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
