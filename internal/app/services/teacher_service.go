package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/swipeattend/backend/internal/app/auth"
	"github.com/swipeattend/backend/internal/app/models"
	"github.com/swipeattend/backend/internal/app/repositories"
	"github.com/swipeattend/backend/internal/pkg/apperrors"
	"github.com/swipeattend/backend/internal/pkg/helpers"
	"github.com/swipeattend/backend/internal/pkg/validation"
)

// ClassSummary is a class together with its enrolment count
type ClassSummary struct {
	Class        *models.Class
	StudentCount int
}

// Dashboard totals the caller's classes and students
type Dashboard struct {
	TotalClasses  int
	TotalStudents int
	Classes       []ClassSummary
}

// NewClassInput describes a class to create
type NewClassInput struct {
	Name        string
	Subject     string
	Code        *string
	Section     string
	RoomNumber  *string
	Description *string
}

// NewStudentInput describes a student to enrol
type NewStudentInput struct {
	Name   string
	RollNo string
	Email  *string
	Phone  *string
}

// TeacherService manages the classes and rosters of a teacher
type TeacherService struct {
	classRepo   repositories.ClassRepository
	studentRepo repositories.StudentRepository
	guard       *auth.AccessGuard
	now         Clock
	newID       IDGenerator
	logger      zerolog.Logger
}

// NewTeacherService creates a new TeacherService
func NewTeacherService(repos *repositories.Repositories, guard *auth.AccessGuard, logger zerolog.Logger, opts ...Option) *TeacherService {
	o := buildOptions(opts)
	return &TeacherService{
		classRepo:   repos.Classes,
		studentRepo: repos.Students,
		guard:       guard,
		now:         o.now,
		newID:       o.newID,
		logger:      logger,
	}
}

// ListClasses returns the teacher's classes with student counts
func (s *TeacherService) ListClasses(ctx context.Context, teacherID string) ([]ClassSummary, error) {
	classes, err := s.classRepo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	out := make([]ClassSummary, 0, len(classes))
	for _, c := range classes {
		n, err := s.studentRepo.CountByClass(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, ClassSummary{Class: c, StudentCount: n})
	}
	return out, nil
}

// Dashboard returns class and student totals for the teacher
func (s *TeacherService) Dashboard(ctx context.Context, teacherID string) (*Dashboard, error) {
	classes, err := s.ListClasses(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{TotalClasses: len(classes), Classes: classes}
	for _, c := range classes {
		d.TotalStudents += c.StudentCount
	}
	return d, nil
}

// CreateClass creates a class owned by the teacher
func (s *TeacherService) CreateClass(ctx context.Context, teacherID string, in NewClassInput) (*models.Class, error) {
	name := strings.TrimSpace(in.Name)
	subject := strings.TrimSpace(in.Subject)
	if !validation.NewStringValidation(name).WithRequired(true).WithMaxLength(validation.NameMaxLength).Validate() {
		return nil, apperrors.NewValidationError("name", "name is required and must be at most 50 characters")
	}
	if !validation.NewStringValidation(subject).WithRequired(true).WithMaxLength(validation.SubjectMaxLength).Validate() {
		return nil, apperrors.NewValidationError("subject", "subject is required and must be at most 50 characters")
	}

	var code *string
	if c := helpers.OptionalString(in.Code); c != nil {
		normalized := validation.NormalizeClassCode(*c)
		if !validation.CompiledPatterns.ClassCode.MatchString(normalized) {
			return nil, apperrors.NewValidationError("code", "code must be 2-20 letters, digits or dashes")
		}
		code = &normalized
	}

	section := strings.TrimSpace(in.Section)
	if section == "" {
		section = models.DefaultSection
	}

	now := s.now()
	class := &models.Class{
		ID:          s.newID(),
		Name:        name,
		Subject:     subject,
		Code:        code,
		Section:     section,
		RoomNumber:  helpers.OptionalString(in.RoomNumber),
		Description: helpers.OptionalString(in.Description),
		TeacherID:   teacherID,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.classRepo.Create(ctx, class); err != nil {
		return nil, err
	}

	s.logger.Info().Str("teacherID", teacherID).Str("classID", class.ID).Msg("Class created")
	return class, nil
}

// ClassDetail returns a class with its roster. Unknown classes are not found,
// foreign classes are forbidden.
func (s *TeacherService) ClassDetail(ctx context.Context, teacherID, classID string) (*models.Class, []*models.Student, error) {
	class, err := s.guard.Inspect(ctx, teacherID, classID)
	if err != nil {
		return nil, nil, err
	}
	roster, err := s.studentRepo.ListByClass(ctx, class.ID)
	if err != nil {
		return nil, nil, err
	}
	return class, roster, nil
}

// Roster returns the students of a class in roster order
func (s *TeacherService) Roster(ctx context.Context, teacherID, classID string) ([]*models.Student, error) {
	_, roster, err := s.ClassDetail(ctx, teacherID, classID)
	return roster, err
}

// EnrollStudent adds a student to a class the teacher owns
func (s *TeacherService) EnrollStudent(ctx context.Context, teacherID, classID string, in NewStudentInput) (*models.Student, error) {
	name := strings.TrimSpace(in.Name)
	rollNo := strings.TrimSpace(in.RollNo)
	if !validation.NewStringValidation(name).WithRequired(true).WithMaxLength(validation.NameMaxLength).Validate() {
		return nil, apperrors.NewValidationError("name", "name is required and must be at most 50 characters")
	}
	if !validation.NewStringValidation(rollNo).WithRequired(true).WithMaxLength(validation.RollNoMaxLength).Validate() {
		return nil, apperrors.NewValidationError("rollNo", "rollNo is required and must be at most 20 characters")
	}

	var email *string
	if e := helpers.OptionalString(in.Email); e != nil {
		normalized := validation.NormalizeEmail(*e)
		if !validation.IsValidEmail(normalized) {
			return nil, apperrors.NewValidationError("email", "email is not a valid address")
		}
		email = &normalized
	}

	if _, err := s.guard.Authorize(ctx, teacherID, classID); err != nil {
		return nil, err
	}

	now := s.now()
	student := &models.Student{
		ID:        s.newID(),
		Name:      name,
		RollNo:    rollNo,
		Email:     email,
		Phone:     helpers.OptionalString(in.Phone),
		ClassID:   classID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.studentRepo.Create(ctx, student); err != nil {
		return nil, err
	}

	s.logger.Info().Str("classID", classID).Str("studentID", student.ID).Msg("Student enrolled")
	return student, nil
}
