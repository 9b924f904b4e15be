package reports

// Event topics published by the reports module.
const (
	TopicReportPublished = "reports.report_published"
)

// ReportEvent is the payload for report topics.
type ReportEvent struct {
	ReportID  string `json:"report_id"`
	LessonID  string `json:"lesson_id,omitempty"`
	TutorID   string `json:"tutor_id"`
	StudentID string `json:"student_id"`
	Subject   string `json:"subject"`
	Rating    int    `json:"rating"`
}
