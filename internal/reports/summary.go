package reports

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"
)

// Summary aggregates one student's activity over a date range.
type Summary struct {
	StudentID        string           `json:"student_id"`
	StudentName      string           `json:"student_name"`
	From             time.Time        `json:"from"`
	To               time.Time        `json:"to"`
	LessonsHeld      int              `json:"lessons_held"`
	LessonsCancelled int              `json:"lessons_cancelled"`
	AttendanceRate   float64          `json:"attendance_rate"`
	ReportCount      int              `json:"report_count"`
	AverageRating    float64          `json:"average_rating"`
	Subjects         []SubjectSummary `json:"subjects"`
}

// SubjectSummary is the per-subject slice of a summary.
type SubjectSummary struct {
	Subject       string  `json:"subject"`
	Reports       int     `json:"reports"`
	AverageRating float64 `json:"average_rating"`
}

// BuildSummary aggregates published reports and lesson attendance for one
// student between from and to, inclusive.
func (m *Module) BuildSummary(ctx context.Context, studentID string, from, to time.Time) (*Summary, error) {
	all, err := m.store.ListReports(ctx, ListReportsParams{
		StudentIDs:    []string{studentID},
		PublishedOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list reports for summary: %w", err)
	}

	sum := &Summary{
		StudentID:   studentID,
		StudentName: m.displayName(ctx, studentID),
		From:        from,
		To:          to,
	}

	ratingTotal := 0
	rated := 0
	bySubject := make(map[string]*SubjectSummary)
	subjectRatings := make(map[string][2]int) // total, count
	for i := range all {
		r := &all[i]
		if r.HeldAt.Before(from) || r.HeldAt.After(to) {
			continue
		}
		sum.ReportCount++
		if r.Rating > 0 {
			ratingTotal += r.Rating
			rated++
		}
		ss := bySubject[r.Subject]
		if ss == nil {
			ss = &SubjectSummary{Subject: r.Subject}
			bySubject[r.Subject] = ss
		}
		ss.Reports++
		if r.Rating > 0 {
			t := subjectRatings[r.Subject]
			subjectRatings[r.Subject] = [2]int{t[0] + r.Rating, t[1] + 1}
		}
	}
	if rated > 0 {
		sum.AverageRating = round2(float64(ratingTotal) / float64(rated))
	}
	for subject, ss := range bySubject {
		if t := subjectRatings[subject]; t[1] > 0 {
			ss.AverageRating = round2(float64(t[0]) / float64(t[1]))
		}
		sum.Subjects = append(sum.Subjects, *ss)
	}
	sort.Slice(sum.Subjects, func(i, j int) bool {
		return sum.Subjects[i].Subject < sum.Subjects[j].Subject
	})

	if m.lessons != nil {
		held, cancelled, err := m.lessons.CountLessonsForStudent(ctx, studentID, from, to)
		if err != nil {
			return nil, fmt.Errorf("count lessons for summary: %w", err)
		}
		sum.LessonsHeld = held
		sum.LessonsCancelled = cancelled
		if held+cancelled > 0 {
			sum.AttendanceRate = round2(float64(held) / float64(held+cancelled))
		}
	}
	return sum, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
