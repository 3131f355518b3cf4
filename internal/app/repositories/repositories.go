package repositories

import (
	"context"
	"time"

	"github.com/swipeattend/backend/internal/app/models"
)

// TeacherRepository persists teachers
type TeacherRepository interface {
	Create(ctx context.Context, teacher *models.Teacher) error
	GetByID(ctx context.Context, id string) (*models.Teacher, error)
	GetByEmail(ctx context.Context, email string) (*models.Teacher, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context) ([]*models.Teacher, error)
}

// ClassRepository persists classes
type ClassRepository interface {
	Create(ctx context.Context, class *models.Class) error
	GetByID(ctx context.Context, id string) (*models.Class, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]*models.Class, error)
	List(ctx context.Context) ([]*models.Class, error)
	UpdateSessions(ctx context.Context, classID string, totalSessions int, lastAttendanceDate *time.Time) error
	Delete(ctx context.Context, id string) error
}

// StudentRepository persists students. Lists come back in roster order.
type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id string) (*models.Student, error)
	ListByClass(ctx context.Context, classID string) ([]*models.Student, error)
	CountByClass(ctx context.Context, classID string) (int, error)
	List(ctx context.Context) ([]*models.Student, error)
	UpdateStats(ctx context.Context, id string, stats models.AttendanceStats) error
	Delete(ctx context.Context, id string) error
}

// AttendanceRepository persists attendance marks. Create must fail with
// apperrors.ErrDuplicateMark when a mark for the same (student, class, date)
// already exists, whichever writer got there first.
type AttendanceRepository interface {
	Create(ctx context.Context, mark *models.AttendanceMark) error
	GetByID(ctx context.Context, id string) (*models.AttendanceMark, error)
	GetByKey(ctx context.Context, key models.MarkKey) (*models.AttendanceMark, error)
	// Update writes status, notes, editedAt and editedBy only.
	Update(ctx context.Context, mark *models.AttendanceMark) error
	// ListByStudent returns every mark of the student, scoped to classID when it is non-empty.
	ListByStudent(ctx context.Context, studentID, classID string) ([]*models.AttendanceMark, error)
	ListByClassDate(ctx context.Context, classID string, date time.Time) ([]*models.AttendanceMark, error)
	// RecentByStudent returns at most limit marks, newest date first.
	RecentByStudent(ctx context.Context, studentID string, limit int) ([]*models.AttendanceMark, error)
	// SessionSummary returns the number of distinct marked dates and the latest one.
	SessionSummary(ctx context.Context, classID string) (int, *time.Time, error)
}

// TokenRepository persists refresh tokens
type TokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	Get(ctx context.Context, token string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, token string, at time.Time) error
	RevokeAllForTeacher(ctx context.Context, teacherID string, at time.Time) error
	CleanupExpired(ctx context.Context, now time.Time) (int64, error)
}

// RemapCounts reports how many records a teacher remap touches
type RemapCounts struct {
	Classes     int64 `json:"classes"`
	MarksTaught int64 `json:"marksTaught"`
	MarksEdited int64 `json:"marksEdited"`
}

// Total is the sum of all touched records.
func (c RemapCounts) Total() int64 {
	return c.Classes + c.MarksTaught + c.MarksEdited
}

// TeacherRemapper moves class ownership and mark authorship from one teacher
// id to another in a single atomic unit. With dryRun it only counts.
type TeacherRemapper interface {
	RemapTeacher(ctx context.Context, fromID, toID string, dryRun bool) (RemapCounts, error)
}

// Repositories holds all the repository instances of one backend
type Repositories struct {
	Teachers   TeacherRepository
	Classes    ClassRepository
	Students   StudentRepository
	Attendance AttendanceRepository
	Tokens     TokenRepository
	Remapper   TeacherRemapper

	// Ping checks the backend is reachable
	Ping func(ctx context.Context) error
	// Close releases the backend connection
	Close func(ctx context.Context) error
}
