// Package reports manages session reports written after lessons, the
// per-student summary builder, and per-user saved list views.
package reports

import (
	"context"
	"fmt"
	"sync"
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

// GuardianResolver reports which students a guardian account is linked to.
type GuardianResolver interface {
	StudentsOfGuardian(ctx context.Context, guardianID string) ([]string, error)
}

// NameResolver looks up display names for report lists and summaries.
// A missing profile resolves to an empty string.
type NameResolver interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

// LessonCounter supplies lesson attendance numbers for the summary
// builder. Wired in main with an adapter over the schedule store.
type LessonCounter interface {
	CountLessonsForStudent(ctx context.Context, studentID string, from, to time.Time) (held, cancelled int, err error)
}

// Module implements the reports feature module.
type Module struct {
	logger    *zap.Logger
	cfg       Config
	store     *ReportStore
	bus       module.EventBus
	guardians GuardianResolver
	names     NameResolver
	lessons   LessonCounter
	collator  language.Tag

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an uninitialized reports module.
func New() *Module {
	return &Module{}
}

// SetGuardianResolver wires the guardian lookup for parent visibility.
func (m *Module) SetGuardianResolver(r GuardianResolver) { m.guardians = r }

// SetNameResolver wires display-name lookups for lists and summaries.
func (m *Module) SetNameResolver(r NameResolver) { m.names = r }

// SetLessonCounter wires attendance numbers for the summary builder.
func (m *Module) SetLessonCounter(c LessonCounter) { m.lessons = c }

// Info implements module.Module.
func (m *Module) Info() module.ModuleInfo {
	return module.ModuleInfo{
		Name:        "reports",
		Version:     "0.1.0",
		Description: "Session reports, summaries, and saved views",
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
			return fmt.Errorf("unmarshal reports config: %w", err)
		}
	}
	m.collator = language.Make(m.cfg.Locale)

	if deps.Store == nil {
		return fmt.Errorf("reports requires a store")
	}
	if err := deps.Store.Migrate(ctx, "reports", migrations()); err != nil {
		return fmt.Errorf("reports migrations: %w", err)
	}
	m.store = NewStore(deps.Store.DB())

	m.logger.Info("reports module initialized",
		zap.Duration("draft_retention", m.cfg.DraftRetention),
		zap.String("locale", m.cfg.Locale))
	return nil
}

// Start implements module.Module. Launches the draft retention sweep.
func (m *Module) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(context.Background())
	if m.cfg.DraftRetention > 0 {
		m.startMaintenance()
	}
	return nil
}

// Stop implements module.Module.
func (m *Module) Stop(ctx context.Context) error {
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

// Store exposes the report store for cross-module wiring.
func (m *Module) Store() *ReportStore {
	return m.store
}

func (m *Module) startMaintenance() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(time.Hour)
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

// runMaintenance removes unpublished drafts older than the retention
// window. Published reports are never swept.
func (m *Module) runMaintenance() {
	ctx, cancel := context.WithTimeout(m.ctx, 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-m.cfg.DraftRetention)
	n, err := m.store.DeleteStaleDrafts(ctx, cutoff)
	if err != nil {
		m.logger.Warn("draft retention sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		m.logger.Info("removed stale draft reports", zap.Int64("count", n))
	}
}

func (m *Module) publishEvent(ctx context.Context, topic string, payload any) {
	if m.bus == nil {
		return
	}
	m.bus.PublishAsync(ctx, module.Event{
		Topic:     topic,
		Source:    "reports",
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

// displayName resolves a user's display name, falling back to the ID.
func (m *Module) displayName(ctx context.Context, userID string) string {
	if m.names == nil {
		return userID
	}
	name, err := m.names.DisplayName(ctx, userID)
	if err != nil || name == "" {
		return userID
	}
	return name
}
