// Package audit records every event crossing the bus into a queryable,
// time-bounded audit trail.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studyhallhq/studyhall/pkg/module"
)

// Compile-time interface checks.
var (
	_ module.Module       = (*Module)(nil)
	_ module.HTTPProvider = (*Module)(nil)
)

// Module implements the audit feature module.
type Module struct {
	logger *zap.Logger
	cfg    Config
	store  *AuditStore
	bus    module.EventBus

	unsubscribe func()
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// New creates an uninitialized audit module.
func New() *Module {
	return &Module{}
}

// Info implements module.Module.
func (m *Module) Info() module.ModuleInfo {
	return module.ModuleInfo{
		Name:        "audit",
		Version:     "0.1.0",
		Description: "Persistent audit trail of all bus events",
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
			return fmt.Errorf("unmarshal audit config: %w", err)
		}
	}

	if deps.Store == nil {
		return fmt.Errorf("audit requires a store")
	}
	if err := deps.Store.Migrate(ctx, "audit", migrations()); err != nil {
		return fmt.Errorf("audit migrations: %w", err)
	}
	m.store = NewStore(deps.Store.DB())
	return nil
}

// Start implements module.Module. Taps the bus and starts the retention
// sweep.
func (m *Module) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(context.Background())
	if m.bus != nil {
		m.unsubscribe = m.bus.SubscribeAll(m.recordEvent)
	}
	if m.cfg.RetentionPeriod > 0 {
		m.startMaintenance()
	}
	m.logger.Info("audit trail started",
		zap.Duration("retention_period", m.cfg.RetentionPeriod))
	return nil
}

// Stop implements module.Module.
func (m *Module) Stop(ctx context.Context) error {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	return nil
}

// Health reports module health.
func (m *Module) Health() module.HealthStatus {
	if m.store == nil {
		return module.HealthStatus{Status: "unhealthy", Message: "store not initialized"}
	}
	return module.HealthStatus{Status: "healthy"}
}

// recordEvent persists one bus event as an audit entry. An unserializable
// payload is recorded with an empty detail rather than dropped.
func (m *Module) recordEvent(ctx context.Context, event module.Event) {
	detail := ""
	var fields map[string]any
	if event.Payload != nil {
		if raw, err := json.Marshal(event.Payload); err == nil {
			detail = string(raw)
			_ = json.Unmarshal(raw, &fields)
		}
	}

	entry := &Entry{
		ID:         uuid.NewString(),
		Time:       event.Timestamp,
		Actor:      extractActor(fields),
		Module:     event.Source,
		Action:     event.Topic,
		Entity:     extractEntity(fields),
		Detail:     detail,
		RecordedAt: time.Now().UTC(),
	}
	if entry.Time.IsZero() {
		entry.Time = entry.RecordedAt
	}

	if err := m.store.Insert(ctx, entry); err != nil {
		m.logger.Warn("failed to record audit entry",
			zap.String("topic", event.Topic), zap.Error(err))
	}
}

// extractActor pulls the acting user from conventional payload fields.
func extractActor(fields map[string]any) string {
	for _, key := range []string{"actor_id", "user_id", "tutor_id", "guardian_id"} {
		if v, ok := fields[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// extractEntity pulls the primary entity ID from conventional payload
// fields.
func extractEntity(fields map[string]any) string {
	for _, key := range []string{"lesson_id", "report_id", "message_id", "thread_id", "material_id", "link_id", "assignment_id", "user_id"} {
		if v, ok := fields[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func (m *Module) startMaintenance() {
	interval := m.cfg.MaintenanceInterval
	if interval <= 0 {
		interval = time.Hour
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.ctx.Done():
				return
			case <-ticker.C:
				m.runMaintenance()
			}
		}
	}()
}

func (m *Module) runMaintenance() {
	ctx, cancel := context.WithTimeout(m.ctx, 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-m.cfg.RetentionPeriod)
	n, err := m.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		m.logger.Warn("audit retention sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		m.logger.Info("pruned audit entries", zap.Int64("count", n))
	}
}
