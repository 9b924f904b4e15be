package roster

// Event topics published by the roster module.
const (
	TopicProfileUpdated    = "roster.profile_updated"
	TopicGuardianLinked    = "roster.guardian_linked"
	TopicGuardianUnlinked  = "roster.guardian_unlinked"
	TopicAssignmentCreated = "roster.assignment_created"
	TopicAssignmentRemoved = "roster.assignment_removed"
)

// ProfileEvent is the payload for profile topics.
type ProfileEvent struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// GuardianEvent is the payload for guardian link topics.
type GuardianEvent struct {
	LinkID     string `json:"link_id"`
	GuardianID string `json:"guardian_id"`
	StudentID  string `json:"student_id"`
}

// AssignmentEvent is the payload for assignment topics.
type AssignmentEvent struct {
	AssignmentID string `json:"assignment_id"`
	TutorID      string `json:"tutor_id"`
	StudentID    string `json:"student_id"`
	Subject      string `json:"subject"`
}
