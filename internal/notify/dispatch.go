package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/studyhallhq/studyhall/pkg/module"
)

// lessonEvent mirrors the schedule module's event payload. Decoded from
// JSON so notify stays decoupled from the producing package.
type lessonEvent struct {
	LessonID  string    `json:"lesson_id"`
	TutorID   string    `json:"tutor_id"`
	StudentID string    `json:"student_id"`
	Subject   string    `json:"subject"`
	StartsAt  time.Time `json:"starts_at"`
}

// reportEvent mirrors the reports module's event payload.
type reportEvent struct {
	ReportID  string `json:"report_id"`
	TutorID   string `json:"tutor_id"`
	StudentID string `json:"student_id"`
	Subject   string `json:"subject"`
}

const sendTimeout = 30 * time.Second

// handleEvent translates a bus event into a notification and sends it on
// the configured channel. Delivery failures are logged, never propagated;
// the producing module has already committed its change.
func (m *Module) handleEvent(ctx context.Context, event module.Event) {
	n, ok := m.build(ctx, event)
	if !ok || len(n.Recipients) == 0 {
		return
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	defer cancel()
	if err := m.channel.Send(sendCtx, n); err != nil {
		m.logger.Error("notification delivery failed",
			zap.String("topic", n.Topic),
			zap.String("channel", m.channel.Name()),
			zap.Error(err),
		)
	}
}

func (m *Module) build(ctx context.Context, event module.Event) (Notification, bool) {
	raw, err := json.Marshal(event.Payload)
	if err != nil {
		m.logger.Warn("unmarshalable event payload", zap.String("topic", event.Topic), zap.Error(err))
		return Notification{}, false
	}

	switch event.Topic {
	case "schedule.lesson_created", "schedule.lesson_cancelled", "schedule.lesson_reminder":
		var ev lessonEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return Notification{}, false
		}
		subject, body := lessonMessage(event.Topic, ev)
		return Notification{
			Topic:      event.Topic,
			Subject:    subject,
			Body:       body,
			Recipients: m.resolveWithGuardians(ctx, ev.StudentID, ev.TutorID, ev.StudentID),
		}, true

	case "reports.report_published":
		var ev reportEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return Notification{}, false
		}
		return Notification{
			Topic:      event.Topic,
			Subject:    fmt.Sprintf("New session report: %s", ev.Subject),
			Body:       fmt.Sprintf("A session report for %s has been published.", ev.Subject),
			Recipients: m.resolveWithGuardians(ctx, ev.StudentID, ev.StudentID),
		}, true
	}
	return Notification{}, false
}

func lessonMessage(topic string, ev lessonEvent) (subject, body string) {
	when := ev.StartsAt.Format("Mon, 2 Jan 2006 15:04 MST")
	switch topic {
	case "schedule.lesson_created":
		return fmt.Sprintf("Lesson scheduled: %s", ev.Subject),
			fmt.Sprintf("A %s lesson has been scheduled for %s.", ev.Subject, when)
	case "schedule.lesson_cancelled":
		return fmt.Sprintf("Lesson cancelled: %s", ev.Subject),
			fmt.Sprintf("The %s lesson on %s has been cancelled.", ev.Subject, when)
	default:
		return fmt.Sprintf("Upcoming lesson: %s", ev.Subject),
			fmt.Sprintf("Reminder: your %s lesson starts at %s.", ev.Subject, when)
	}
}

// resolveWithGuardians resolves the given user IDs plus the guardians of
// studentID, deduplicated.
func (m *Module) resolveWithGuardians(ctx context.Context, studentID string, userIDs ...string) []Recipient {
	ids := append([]string(nil), userIDs...)
	if m.guardians != nil && studentID != "" {
		guardianIDs, err := m.guardians.GuardiansOfStudent(ctx, studentID)
		if err != nil {
			m.logger.Warn("guardian lookup failed", zap.String("student_id", studentID), zap.Error(err))
		} else {
			ids = append(ids, guardianIDs...)
		}
	}

	seen := make(map[string]bool, len(ids))
	recipients := make([]Recipient, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		recipients = append(recipients, m.resolve(ctx, id))
	}
	return recipients
}

// resolve looks a user up through the resolver, degrading to a bare ID when
// no resolver is wired or the lookup fails.
func (m *Module) resolve(ctx context.Context, userID string) Recipient {
	if m.recipients == nil {
		return Recipient{UserID: userID, Name: userID}
	}
	r, err := m.recipients.Recipient(ctx, userID)
	if err != nil || r == nil {
		return Recipient{UserID: userID, Name: userID}
	}
	return *r
}
