package schedule

import "time"

// Event topics published by the schedule module.
const (
	TopicLessonCreated   = "schedule.lesson_created"
	TopicLessonUpdated   = "schedule.lesson_updated"
	TopicLessonCancelled = "schedule.lesson_cancelled"
	TopicLessonReminder  = "schedule.lesson_reminder"
)

// LessonEvent is the payload for all lesson topics.
type LessonEvent struct {
	LessonID  string    `json:"lesson_id"`
	TutorID   string    `json:"tutor_id"`
	StudentID string    `json:"student_id"`
	Subject   string    `json:"subject"`
	StartsAt  time.Time `json:"starts_at"`
}
