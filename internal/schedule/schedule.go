// Package schedule manages lessons: booking, conflict detection, role-scoped
// calendar queries, and reminder events for upcoming lessons.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/studyhallhq/studyhall/pkg/module"
)

// Compile-time interface checks.
var (
	_ module.Module       = (*Module)(nil)
	_ module.HTTPProvider = (*Module)(nil)
)

// GuardianResolver reports which students a guardian account is linked to.
// Wired in main with an adapter over the roster store.
type GuardianResolver interface {
	StudentsOfGuardian(ctx context.Context, guardianID string) ([]string, error)
}

// Module implements the schedule feature module.
type Module struct {
	logger    *zap.Logger
	cfg       Config
	store     *ScheduleStore
	bus       module.EventBus
	guardians GuardianResolver

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an uninitialized schedule module.
func New() *Module {
	return &Module{}
}

// SetGuardianResolver wires the guardian lookup used for parent calendars.
// Must be called before Start.
func (m *Module) SetGuardianResolver(r GuardianResolver) {
	m.guardians = r
}

// Info implements module.Module.
func (m *Module) Info() module.ModuleInfo {
	return module.ModuleInfo{
		Name:        "schedule",
		Version:     "0.1.0",
		Description: "Lesson booking, calendars, and conflict detection",
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
			return fmt.Errorf("unmarshal schedule config: %w", err)
		}
	}
	if m.cfg.DefaultLessonMinutes <= 0 {
		m.cfg.DefaultLessonMinutes = 60
	}

	if deps.Store == nil {
		return fmt.Errorf("schedule requires a store")
	}
	if err := deps.Store.Migrate(ctx, "schedule", migrations()); err != nil {
		return fmt.Errorf("schedule migrations: %w", err)
	}
	m.store = NewStore(deps.Store.DB())

	m.logger.Info("schedule module initialized",
		zap.Int("default_lesson_minutes", m.cfg.DefaultLessonMinutes),
		zap.Duration("reminder_lead_time", m.cfg.ReminderLeadTime))
	return nil
}

// Start implements module.Module. Launches the reminder ticker.
func (m *Module) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(context.Background())
	if m.cfg.ReminderLeadTime > 0 {
		m.startReminders()
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

// Store exposes the schedule store for cross-module wiring.
func (m *Module) Store() *ScheduleStore {
	return m.store
}

// startReminders sweeps for lessons starting within the reminder lead time
// and publishes one reminder event per lesson.
func (m *Module) startReminders() {
	interval := m.cfg.ReminderLeadTime / 4
	if interval < time.Minute {
		interval = time.Minute
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
				m.runReminderSweep()
			}
		}
	}()
}

func (m *Module) runReminderSweep() {
	ctx, cancel := context.WithTimeout(m.ctx, 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(m.cfg.ReminderLeadTime)
	lessons, err := m.store.UpcomingUnreminded(ctx, cutoff)
	if err != nil {
		m.logger.Warn("reminder sweep failed", zap.Error(err))
		return
	}
	for i := range lessons {
		l := &lessons[i]
		if err := m.store.MarkReminded(ctx, l.ID); err != nil {
			m.logger.Warn("failed to mark lesson reminded", zap.String("lesson_id", l.ID), zap.Error(err))
			continue
		}
		m.publishEvent(ctx, TopicLessonReminder, LessonEvent{
			LessonID:  l.ID,
			TutorID:   l.TutorID,
			StudentID: l.StudentID,
			Subject:   l.Subject,
			StartsAt:  l.StartsAt,
		})
	}
	if len(lessons) > 0 {
		m.logger.Debug("published lesson reminders", zap.Int("count", len(lessons)))
	}
}

func (m *Module) publishEvent(ctx context.Context, topic string, payload any) {
	if m.bus == nil {
		return
	}
	m.bus.PublishAsync(ctx, module.Event{
		Topic:     topic,
		Source:    "schedule",
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
