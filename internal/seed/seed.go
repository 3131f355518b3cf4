// Package seed loads demo teachers, classes and students into a record store.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appModels "github.com/swipeattend/backend/internal/app/models"
	appRepos "github.com/swipeattend/backend/internal/app/repositories"
	"github.com/swipeattend/backend/internal/pkg/apperrors"
	"github.com/swipeattend/backend/internal/pkg/auth"
)

// DemoPassword is the password of every demo teacher
const DemoPassword = "attend123"

type demoTeacher struct {
	name       string
	email      string
	department string
	classes    []demoClass
}

type demoClass struct {
	name    string
	subject string
	code    string
	section string
	room    string
}

var demoTeachers = []demoTeacher{
	{
		name: "Maria Lopez", email: "maria.lopez@school.test", department: "Computer Science",
		classes: []demoClass{
			{name: "Grade 10 Section A", subject: "Computer Science", code: "CS10A", section: "A", room: "101"},
			{name: "Grade 10 Section B", subject: "Computer Science", code: "CS10B", section: "B", room: "102"},
		},
	},
	{
		name: "Tomas Novak", email: "tomas.novak@school.test", department: "Mathematics",
		classes: []demoClass{
			{name: "Grade 9 Section A", subject: "Mathematics", code: "MATH9A", section: "A", room: "201"},
		},
	},
}

var demoStudents = []string{
	"Ada Byrne", "Ben Okafor", "Chloe Martin", "Dev Iyer", "Elif Demir",
	"Felix Wagner", "Grace Kim", "Hugo Silva", "Ines Duarte", "Jonas Berg",
}

// Result counts what a seed run created
type Result struct {
	Teachers int
	Classes  int
	Students int
}

// CreateDemoData inserts the demo data set. Records that already exist are
// left alone, so running it twice is harmless.
func CreateDemoData(ctx context.Context, repos *appRepos.Repositories, lgr zerolog.Logger) (Result, error) {
	var res Result
	var finalErr error

	hash, err := auth.HashPassword(DemoPassword)
	if err != nil {
		return res, fmt.Errorf("hash demo password: %w", err)
	}

	now := time.Now().UTC()
	for _, dt := range demoTeachers {
		teacher, created, err := ensureTeacher(ctx, repos, dt, hash, now)
		if err != nil {
			lgr.Error().Err(err).Str("email", dt.email).Msg("Error creating demo teacher")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		if created {
			res.Teachers++
		}

		for _, dc := range dt.classes {
			class, created, err := ensureClass(ctx, repos, teacher.ID, dc, now)
			if err != nil {
				lgr.Error().Err(err).Str("code", dc.code).Msg("Error creating demo class")
				finalErr = errors.Join(finalErr, err)
				continue
			}
			if created {
				res.Classes++
			}

			for i, name := range demoStudents {
				email := strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@student.test"
				student := &appModels.Student{
					ID:        uuid.NewString(),
					Name:      name,
					RollNo:    fmt.Sprintf("%03d", i+1),
					Email:     &email,
					ClassID:   class.ID,
					IsActive:  true,
					CreatedAt: now,
					UpdatedAt: now,
				}
				err := repos.Students.Create(ctx, student)
				switch {
				case err == nil:
					res.Students++
				case errors.Is(err, apperrors.ErrRollNumberExists):
				default:
					lgr.Error().Err(err).Str("classID", class.ID).Str("rollNo", student.RollNo).Msg("Error creating demo student")
					finalErr = errors.Join(finalErr, err)
				}
			}
		}
	}

	lgr.Info().
		Int("teachers", res.Teachers).
		Int("classes", res.Classes).
		Int("students", res.Students).
		Msg("Demo data seeded")
	return res, finalErr
}

func ensureTeacher(ctx context.Context, repos *appRepos.Repositories, dt demoTeacher, hash string, now time.Time) (*appModels.Teacher, bool, error) {
	existing, err := repos.Teachers.GetByEmail(ctx, dt.email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, apperrors.ErrResourceNotFound) {
		return nil, false, err
	}

	department := dt.department
	teacher := &appModels.Teacher{
		ID:           uuid.NewString(),
		Name:         dt.name,
		Email:        dt.email,
		PasswordHash: hash,
		Department:   &department,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repos.Teachers.Create(ctx, teacher); err != nil {
		return nil, false, err
	}
	return teacher, true, nil
}

func ensureClass(ctx context.Context, repos *appRepos.Repositories, teacherID string, dc demoClass, now time.Time) (*appModels.Class, bool, error) {
	owned, err := repos.Classes.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, false, err
	}
	for _, c := range owned {
		if c.Code != nil && *c.Code == dc.code {
			return c, false, nil
		}
	}

	code, room := dc.code, dc.room
	class := &appModels.Class{
		ID:         uuid.NewString(),
		Name:       dc.name,
		Subject:    dc.subject,
		Code:       &code,
		Section:    dc.section,
		RoomNumber: &room,
		TeacherID:  teacherID,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := repos.Classes.Create(ctx, class); err != nil {
		return nil, false, err
	}
	return class, true, nil
}
