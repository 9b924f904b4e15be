// Package overview serves the dashboard landing aggregate: the next
// lessons, latest messages, and latest reports for the caller, plus
// platform totals for admins. Sources are fetched concurrently.
package overview

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/studyhallhq/studyhall/internal/auth"
	"github.com/studyhallhq/studyhall/internal/chat"
	"github.com/studyhallhq/studyhall/internal/reports"
	"github.com/studyhallhq/studyhall/internal/schedule"
)

// LessonSource supplies lessons and lesson totals.
type LessonSource interface {
	ListLessons(ctx context.Context, p schedule.ListLessonsParams) ([]schedule.Lesson, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// MessageSource supplies recent messages across a user's threads.
type MessageSource interface {
	RecentMessagesForUser(ctx context.Context, userID string, limit int) ([]chat.Message, error)
}

// ReportSource supplies session reports.
type ReportSource interface {
	ListReports(ctx context.Context, p reports.ListReportsParams) ([]reports.Report, error)
}

// MaterialSource supplies library totals.
type MaterialSource interface {
	CountMaterials(ctx context.Context) (published, drafts int, err error)
}

// UserSource supplies account totals.
type UserSource interface {
	CountUsers(ctx context.Context) (int, error)
}

// GuardianSource lists a guardian's linked students.
type GuardianSource interface {
	StudentsOfGuardian(ctx context.Context, guardianID string) ([]string, error)
}

// Overview is the aggregate response.
type Overview struct {
	UpcomingLessons []schedule.Lesson `json:"upcoming_lessons"`
	RecentMessages  []chat.Message    `json:"recent_messages"`
	RecentReports   []reports.Report  `json:"recent_reports"`
	Stats           *PlatformStats    `json:"stats,omitempty"`
}

// PlatformStats is the admin-only totals block.
type PlatformStats struct {
	Users              int            `json:"users"`
	LessonsByStatus    map[string]int `json:"lessons_by_status"`
	PublishedMaterials int            `json:"published_materials"`
	DraftMaterials     int            `json:"draft_materials"`
}

const (
	upcomingWindow = 7 * 24 * time.Hour
	recentMessages = 10
	recentReports  = 5
)

// Handler serves the overview endpoint.
type Handler struct {
	logger    *zap.Logger
	lessons   LessonSource
	messages  MessageSource
	reports   ReportSource
	materials MaterialSource
	users     UserSource
	guardians GuardianSource
}

// New creates an overview handler. Any source may be nil; its section is
// then empty rather than an error.
func New(logger *zap.Logger, lessons LessonSource, messages MessageSource, reportSrc ReportSource, materials MaterialSource, users UserSource, guardians GuardianSource) *Handler {
	return &Handler{
		logger:    logger,
		lessons:   lessons,
		messages:  messages,
		reports:   reportSrc,
		materials: materials,
		users:     users,
		guardians: guardians,
	}
}

// RegisterRoutes registers the overview endpoint on the server mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/overview", h.handleOverview)
}

// handleOverview assembles the role-scoped aggregate.
//
//	@Summary		Dashboard overview
//	@Tags			overview
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200 {object} Overview
//	@Router			/overview [get]
func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		overviewWriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var (
		ov  Overview
		now = time.Now()
	)
	g, ctx := errgroup.WithContext(r.Context())

	g.Go(func() error {
		lessons, err := h.upcomingLessons(ctx, claims, now)
		if err != nil {
			return err
		}
		ov.UpcomingLessons = lessons
		return nil
	})

	g.Go(func() error {
		if h.messages == nil {
			return nil
		}
		msgs, err := h.messages.RecentMessagesForUser(ctx, claims.UserID, recentMessages)
		if err != nil {
			return err
		}
		ov.RecentMessages = msgs
		return nil
	})

	g.Go(func() error {
		reportList, err := h.recentReports(ctx, claims)
		if err != nil {
			return err
		}
		ov.RecentReports = reportList
		return nil
	})

	if auth.Role(claims.Role) == auth.RoleAdmin {
		g.Go(func() error {
			stats, err := h.platformStats(ctx)
			if err != nil {
				return err
			}
			ov.Stats = stats
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		h.logger.Warn("overview aggregation failed", zap.Error(err))
		overviewWriteError(w, http.StatusInternalServerError, "failed to build overview")
		return
	}

	if ov.UpcomingLessons == nil {
		ov.UpcomingLessons = []schedule.Lesson{}
	}
	if ov.RecentMessages == nil {
		ov.RecentMessages = []chat.Message{}
	}
	if ov.RecentReports == nil {
		ov.RecentReports = []reports.Report{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(ov)
}

// upcomingLessons lists scheduled lessons in the next week, scoped to what
// the caller may see.
func (h *Handler) upcomingLessons(ctx context.Context, claims *auth.Claims, now time.Time) ([]schedule.Lesson, error) {
	if h.lessons == nil {
		return nil, nil
	}
	params := schedule.ListLessonsParams{
		From:   now,
		To:     now.Add(upcomingWindow),
		Status: schedule.StatusScheduled,
	}
	switch auth.Role(claims.Role) {
	case auth.RoleAdmin, auth.RoleTeacher:
	case auth.RoleTutor:
		params.TutorID = claims.UserID
	case auth.RoleStudent:
		params.StudentIDs = []string{claims.UserID}
	case auth.RoleParent:
		students, err := h.linkedStudents(ctx, claims.UserID)
		if err != nil {
			return nil, err
		}
		if len(students) == 0 {
			return nil, nil
		}
		params.StudentIDs = students
	default:
		return nil, nil
	}
	return h.lessons.ListLessons(ctx, params)
}

// recentReports lists the latest reports visible to the caller.
func (h *Handler) recentReports(ctx context.Context, claims *auth.Claims) ([]reports.Report, error) {
	if h.reports == nil {
		return nil, nil
	}
	params := reports.ListReportsParams{}
	switch auth.Role(claims.Role) {
	case auth.RoleAdmin, auth.RoleTeacher:
	case auth.RoleTutor:
		params.TutorID = claims.UserID
	case auth.RoleStudent:
		params.StudentIDs = []string{claims.UserID}
		params.PublishedOnly = true
	case auth.RoleParent:
		students, err := h.linkedStudents(ctx, claims.UserID)
		if err != nil {
			return nil, err
		}
		if len(students) == 0 {
			return nil, nil
		}
		params.StudentIDs = students
		params.PublishedOnly = true
	default:
		return nil, nil
	}
	list, err := h.reports.ListReports(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(list) > recentReports {
		list = list[:recentReports]
	}
	return list, nil
}

func (h *Handler) linkedStudents(ctx context.Context, guardianID string) ([]string, error) {
	if h.guardians == nil {
		return nil, nil
	}
	return h.guardians.StudentsOfGuardian(ctx, guardianID)
}

func (h *Handler) platformStats(ctx context.Context) (*PlatformStats, error) {
	stats := &PlatformStats{LessonsByStatus: map[string]int{}}
	if h.users != nil {
		n, err := h.users.CountUsers(ctx)
		if err != nil {
			return nil, err
		}
		stats.Users = n
	}
	if h.lessons != nil {
		byStatus, err := h.lessons.CountByStatus(ctx)
		if err != nil {
			return nil, err
		}
		stats.LessonsByStatus = byStatus
	}
	if h.materials != nil {
		published, drafts, err := h.materials.CountMaterials(ctx)
		if err != nil {
			return nil, err
		}
		stats.PublishedMaterials = published
		stats.DraftMaterials = drafts
	}
	return stats, nil
}

func overviewWriteError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://studyhall.app/problems/overview-error",
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
