// Package seed populates a fresh database with demo data so every role
// has something to look at on first login. Fixtures live in an embedded
// YAML file; lesson and report times are stored as offsets from the
// seeding moment so the demo never goes stale.
package seed

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/studyhallhq/studyhall/internal/auth"
	"github.com/studyhallhq/studyhall/internal/chat"
	"github.com/studyhallhq/studyhall/internal/library"
	"github.com/studyhallhq/studyhall/internal/reports"
	"github.com/studyhallhq/studyhall/internal/roster"
	"github.com/studyhallhq/studyhall/internal/schedule"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

// Stores collects the store handles Demo writes through.
type Stores struct {
	Users    *auth.UserStore
	Roster   *roster.RosterStore
	Schedule *schedule.ScheduleStore
	Reports  *reports.ReportStore
	Chat     *chat.ChatStore
	Library  *library.LibraryStore
}

type fixtures struct {
	Users         []userFixture     `yaml:"users"`
	Profiles      []profileFixture  `yaml:"profiles"`
	GuardianLinks []guardianFixture `yaml:"guardian_links"`
	Assignments   []assignFixture   `yaml:"assignments"`
	Lessons       []lessonFixture   `yaml:"lessons"`
	Reports       []reportFixture   `yaml:"reports"`
	Threads       []threadFixture   `yaml:"threads"`
	Materials     []materialFixture `yaml:"materials"`
}

type userFixture struct {
	Username    string `yaml:"username"`
	Email       string `yaml:"email"`
	DisplayName string `yaml:"display_name"`
	Role        string `yaml:"role"`
	Password    string `yaml:"password"`
}

type profileFixture struct {
	User        string   `yaml:"user"`
	DisplayName string   `yaml:"display_name"`
	Subjects    []string `yaml:"subjects"`
	GradeLevel  string   `yaml:"grade_level"`
	Bio         string   `yaml:"bio"`
	Timezone    string   `yaml:"timezone"`
}

type guardianFixture struct {
	Guardian string `yaml:"guardian"`
	Student  string `yaml:"student"`
}

type assignFixture struct {
	Tutor   string `yaml:"tutor"`
	Student string `yaml:"student"`
	Subject string `yaml:"subject"`
}

type lessonFixture struct {
	Tutor    string `yaml:"tutor"`
	Student  string `yaml:"student"`
	Subject  string `yaml:"subject"`
	StartsIn string `yaml:"starts_in"`
	Duration string `yaml:"duration"`
	Location string `yaml:"location"`
	Status   string `yaml:"status"`
	Notes    string `yaml:"notes"`
}

type reportFixture struct {
	Tutor     string `yaml:"tutor"`
	Student   string `yaml:"student"`
	Subject   string `yaml:"subject"`
	HeldAgo   string `yaml:"held_ago"`
	Progress  string `yaml:"progress"`
	Rating    int    `yaml:"rating"`
	Homework  string `yaml:"homework"`
	Published bool   `yaml:"published"`
}

type threadFixture struct {
	Kind      string           `yaml:"kind"`
	Title     string           `yaml:"title"`
	CreatedBy string           `yaml:"created_by"`
	Members   []string         `yaml:"members"`
	Messages  []messageFixture `yaml:"messages"`
}

type messageFixture struct {
	Author string `yaml:"author"`
	Body   string `yaml:"body"`
}

type materialFixture struct {
	Title     string `yaml:"title"`
	Subject   string `yaml:"subject"`
	Level     string `yaml:"level"`
	Author    string `yaml:"author"`
	Published bool   `yaml:"published"`
	Body      string `yaml:"body"`
}

// Demo loads the embedded fixtures into the given stores. It is a no-op
// when the admin demo account already exists, so restarting with demo
// mode enabled never duplicates data.
func Demo(ctx context.Context, logger *zap.Logger, s Stores) error {
	var fx fixtures
	if err := yaml.Unmarshal(fixturesYAML, &fx); err != nil {
		return fmt.Errorf("parse fixtures: %w", err)
	}
	if len(fx.Users) == 0 {
		return errors.New("fixtures contain no users")
	}

	existing, err := s.Users.GetUserByUsername(ctx, fx.Users[0].Username)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check demo account: %w", err)
	}
	if existing != nil {
		logger.Debug("demo data already present, skipping seed")
		return nil
	}

	now := time.Now().UTC()

	ids := make(map[string]string, len(fx.Users))
	for _, u := range fx.Users {
		hash, err := auth.HashPassword(u.Password, 0)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.Username, err)
		}
		id := uuid.New().String()
		ids[u.Username] = id
		err = s.Users.CreateUser(ctx, &auth.User{
			ID:           id,
			Username:     u.Username,
			Email:        u.Email,
			DisplayName:  u.DisplayName,
			PasswordHash: hash,
			Role:         auth.Role(u.Role),
			CreatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
	}

	lookup := func(username string) (string, error) {
		id, ok := ids[username]
		if !ok {
			return "", fmt.Errorf("fixture references unknown user %q", username)
		}
		return id, nil
	}

	for _, p := range fx.Profiles {
		userID, err := lookup(p.User)
		if err != nil {
			return err
		}
		err = s.Roster.UpsertProfile(ctx, &roster.Profile{
			UserID:      userID,
			DisplayName: p.DisplayName,
			Subjects:    p.Subjects,
			GradeLevel:  p.GradeLevel,
			Bio:         p.Bio,
			Timezone:    p.Timezone,
			UpdatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("seed profile for %s: %w", p.User, err)
		}
	}

	for _, g := range fx.GuardianLinks {
		guardianID, err := lookup(g.Guardian)
		if err != nil {
			return err
		}
		studentID, err := lookup(g.Student)
		if err != nil {
			return err
		}
		err = s.Roster.InsertGuardianLink(ctx, &roster.GuardianLink{
			ID:         uuid.New().String(),
			GuardianID: guardianID,
			StudentID:  studentID,
			CreatedAt:  now,
		})
		if err != nil {
			return fmt.Errorf("seed guardian link %s/%s: %w", g.Guardian, g.Student, err)
		}
	}

	for _, a := range fx.Assignments {
		tutorID, err := lookup(a.Tutor)
		if err != nil {
			return err
		}
		studentID, err := lookup(a.Student)
		if err != nil {
			return err
		}
		err = s.Roster.InsertAssignment(ctx, &roster.Assignment{
			ID:        uuid.New().String(),
			TutorID:   tutorID,
			StudentID: studentID,
			Subject:   a.Subject,
			CreatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("seed assignment %s/%s: %w", a.Tutor, a.Student, err)
		}
	}

	for i, l := range fx.Lessons {
		tutorID, err := lookup(l.Tutor)
		if err != nil {
			return err
		}
		studentID, err := lookup(l.Student)
		if err != nil {
			return err
		}
		startsIn, err := time.ParseDuration(l.StartsIn)
		if err != nil {
			return fmt.Errorf("lesson %d: bad starts_in %q: %w", i, l.StartsIn, err)
		}
		length, err := time.ParseDuration(l.Duration)
		if err != nil {
			return fmt.Errorf("lesson %d: bad duration %q: %w", i, l.Duration, err)
		}
		starts := now.Add(startsIn)
		err = s.Schedule.InsertLesson(ctx, &schedule.Lesson{
			ID:        uuid.New().String(),
			TutorID:   tutorID,
			StudentID: studentID,
			Subject:   l.Subject,
			StartsAt:  starts,
			EndsAt:    starts.Add(length),
			Location:  l.Location,
			Status:    l.Status,
			Notes:     l.Notes,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("seed lesson %d: %w", i, err)
		}
	}

	for i, r := range fx.Reports {
		tutorID, err := lookup(r.Tutor)
		if err != nil {
			return err
		}
		studentID, err := lookup(r.Student)
		if err != nil {
			return err
		}
		heldAgo, err := time.ParseDuration(r.HeldAgo)
		if err != nil {
			return fmt.Errorf("report %d: bad held_ago %q: %w", i, r.HeldAgo, err)
		}
		err = s.Reports.InsertReport(ctx, &reports.Report{
			ID:        uuid.New().String(),
			TutorID:   tutorID,
			StudentID: studentID,
			Subject:   r.Subject,
			HeldAt:    now.Add(-heldAgo),
			Progress:  r.Progress,
			Rating:    r.Rating,
			Homework:  r.Homework,
			Published: r.Published,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("seed report %d: %w", i, err)
		}
	}

	for i, t := range fx.Threads {
		memberIDs := make([]string, 0, len(t.Members))
		for _, m := range t.Members {
			id, err := lookup(m)
			if err != nil {
				return err
			}
			memberIDs = append(memberIDs, id)
		}
		createdBy := t.CreatedBy
		if createdBy == "" && len(t.Members) > 0 {
			createdBy = t.Members[0]
		}
		creatorID, err := lookup(createdBy)
		if err != nil {
			return err
		}
		// Backdate the thread so seeded history sorts before anything
		// the demo user posts.
		created := now.Add(-time.Hour)
		thread := &chat.Thread{
			ID:        uuid.New().String(),
			Kind:      t.Kind,
			Title:     t.Title,
			CreatedBy: creatorID,
			CreatedAt: created,
		}
		if err := s.Chat.InsertThread(ctx, thread, memberIDs); err != nil {
			return fmt.Errorf("seed thread %d: %w", i, err)
		}
		for j, msg := range t.Messages {
			authorID, err := lookup(msg.Author)
			if err != nil {
				return err
			}
			err = s.Chat.InsertMessage(ctx, &chat.Message{
				ID:        uuid.New().String(),
				ThreadID:  thread.ID,
				AuthorID:  authorID,
				Body:      msg.Body,
				CreatedAt: created.Add(time.Duration(j+1) * time.Minute),
			})
			if err != nil {
				return fmt.Errorf("seed thread %d message %d: %w", i, j, err)
			}
		}
	}

	for i, m := range fx.Materials {
		authorID, err := lookup(m.Author)
		if err != nil {
			return err
		}
		err = s.Library.InsertMaterial(ctx, &library.Material{
			ID:        uuid.New().String(),
			Title:     m.Title,
			Subject:   m.Subject,
			Level:     m.Level,
			Body:      m.Body,
			Published: m.Published,
			AuthorID:  authorID,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("seed material %d: %w", i, err)
		}
	}

	logger.Info("demo data seeded",
		zap.Int("users", len(fx.Users)),
		zap.Int("lessons", len(fx.Lessons)),
		zap.Int("reports", len(fx.Reports)),
		zap.Int("threads", len(fx.Threads)),
		zap.Int("materials", len(fx.Materials)))
	return nil
}
