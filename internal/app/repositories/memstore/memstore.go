// Package memstore is an in-process record store used for local development
// and tests. It enforces the same uniqueness rules as the database backends.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/swipeattend/backend/internal/app/models"
	"github.com/swipeattend/backend/internal/app/repositories"
	"github.com/swipeattend/backend/internal/pkg/apperrors"
)

// Store holds every collection behind one lock
type Store struct {
	mu sync.RWMutex

	teachers map[string]models.Teacher
	classes  map[string]models.Class
	students map[string]models.Student
	marks    map[string]models.AttendanceMark
	markKeys map[models.MarkKey]string
	tokens   map[string]models.RefreshToken
}

// New creates an empty store
func New() *Store {
	return &Store{
		teachers: make(map[string]models.Teacher),
		classes:  make(map[string]models.Class),
		students: make(map[string]models.Student),
		marks:    make(map[string]models.AttendanceMark),
		markKeys: make(map[models.MarkKey]string),
		tokens:   make(map[string]models.RefreshToken),
	}
}

// NewRepositories wires a fresh store into the repository set
func NewRepositories() (*repositories.Repositories, *Store) {
	s := New()
	return s.Repositories(), s
}

// Repositories exposes the store through the repository interfaces
func (s *Store) Repositories() *repositories.Repositories {
	return &repositories.Repositories{
		Teachers:   &teacherRepo{s},
		Classes:    &classRepo{s},
		Students:   &studentRepo{s},
		Attendance: &attendanceRepo{s},
		Tokens:     &tokenRepo{s},
		Remapper:   &remapper{s},
		Ping:       func(ctx context.Context) error { return ctx.Err() },
		Close:      func(context.Context) error { return nil },
	}
}

// MarkCount returns the number of stored marks.
func (s *Store) MarkCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.marks)
}

func normalizeKey(k models.MarkKey) models.MarkKey {
	y, m, d := k.Date.Date()
	k.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return k
}

// --- teachers ---

type teacherRepo struct{ s *Store }

func (r *teacherRepo) Create(ctx context.Context, t *models.Teacher) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.teachers[t.ID]; ok {
		return apperrors.NewConflictError("teacher id already exists")
	}
	for _, existing := range r.s.teachers {
		if existing.Email == t.Email {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	r.s.teachers[t.ID] = *t
	return nil
}

func (r *teacherRepo) GetByID(ctx context.Context, id string) (*models.Teacher, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.teachers[id]
	if !ok {
		return nil, apperrors.ErrTeacherNotFound
	}
	return &t, nil
}

func (r *teacherRepo) GetByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, t := range r.s.teachers {
		if t.Email == email {
			out := t
			return &out, nil
		}
	}
	return nil, apperrors.ErrTeacherNotFound
}

func (r *teacherRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.teachers[id]
	if !ok {
		return apperrors.ErrTeacherNotFound
	}
	t.LastLoginAt = &at
	t.UpdatedAt = at
	r.s.teachers[id] = t
	return nil
}

func (r *teacherRepo) List(ctx context.Context) ([]*models.Teacher, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Teacher, 0, len(r.s.teachers))
	for _, t := range r.s.teachers {
		t := t
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- classes ---

type classRepo struct{ s *Store }

func (r *classRepo) Create(ctx context.Context, c *models.Class) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.classes[c.ID]; ok {
		return apperrors.NewConflictError("class id already exists")
	}
	if c.Code != nil {
		for _, existing := range r.s.classes {
			if existing.Code != nil && *existing.Code == *c.Code {
				return apperrors.ErrClassCodeExists
			}
		}
	}
	r.s.classes[c.ID] = *c
	return nil
}

func (r *classRepo) GetByID(ctx context.Context, id string) (*models.Class, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.classes[id]
	if !ok {
		return nil, apperrors.ErrClassNotFound
	}
	return &c, nil
}

func (r *classRepo) ListByTeacher(ctx context.Context, teacherID string) ([]*models.Class, error) {
	return r.list(ctx, func(c *models.Class) bool { return c.TeacherID == teacherID })
}

func (r *classRepo) List(ctx context.Context) ([]*models.Class, error) {
	return r.list(ctx, func(*models.Class) bool { return true })
}

func (r *classRepo) list(ctx context.Context, keep func(*models.Class) bool) ([]*models.Class, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Class, 0)
	for _, c := range r.s.classes {
		c := c
		if keep(&c) {
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *classRepo) UpdateSessions(ctx context.Context, classID string, total int, last *time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.classes[classID]
	if !ok {
		return apperrors.ErrClassNotFound
	}
	c.TotalSessions = total
	c.LastAttendanceDate = last
	r.s.classes[classID] = c
	return nil
}

func (r *classRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.classes[id]; !ok {
		return apperrors.ErrClassNotFound
	}
	delete(r.s.classes, id)
	return nil
}

// --- students ---

type studentRepo struct{ s *Store }

func (r *studentRepo) Create(ctx context.Context, st *models.Student) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.students[st.ID]; ok {
		return apperrors.NewConflictError("student id already exists")
	}
	for _, existing := range r.s.students {
		if existing.ClassID == st.ClassID && existing.RollNo == st.RollNo {
			return apperrors.ErrRollNumberExists
		}
	}
	r.s.students[st.ID] = *st
	return nil
}

func (r *studentRepo) GetByID(ctx context.Context, id string) (*models.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	st, ok := r.s.students[id]
	if !ok {
		return nil, apperrors.ErrStudentNotFound
	}
	return &st, nil
}

func (r *studentRepo) ListByClass(ctx context.Context, classID string) ([]*models.Student, error) {
	return r.list(ctx, func(st *models.Student) bool { return st.ClassID == classID })
}

func (r *studentRepo) CountByClass(ctx context.Context, classID string) (int, error) {
	students, err := r.ListByClass(ctx, classID)
	if err != nil {
		return 0, err
	}
	return len(students), nil
}

func (r *studentRepo) List(ctx context.Context) ([]*models.Student, error) {
	return r.list(ctx, func(*models.Student) bool { return true })
}

func (r *studentRepo) list(ctx context.Context, keep func(*models.Student) bool) ([]*models.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Student, 0)
	for _, st := range r.s.students {
		st := st
		if keep(&st) {
			out = append(out, &st)
		}
	}
	models.SortRoster(out)
	return out, nil
}

func (r *studentRepo) UpdateStats(ctx context.Context, id string, stats models.AttendanceStats) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	st, ok := r.s.students[id]
	if !ok {
		return apperrors.ErrStudentNotFound
	}
	st.AttendanceStats = stats
	r.s.students[id] = st
	return nil
}

func (r *studentRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.students[id]; !ok {
		return apperrors.ErrStudentNotFound
	}
	delete(r.s.students, id)
	return nil
}

// --- attendance ---

type attendanceRepo struct{ s *Store }

func (r *attendanceRepo) Create(ctx context.Context, m *models.AttendanceMark) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := normalizeKey(m.Key())
	if _, ok := r.s.markKeys[key]; ok {
		return apperrors.ErrDuplicateMark
	}
	if _, ok := r.s.marks[m.ID]; ok {
		return apperrors.NewConflictError("attendance mark id already exists")
	}
	r.s.marks[m.ID] = *m
	r.s.markKeys[key] = m.ID
	return nil
}

func (r *attendanceRepo) GetByID(ctx context.Context, id string) (*models.AttendanceMark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.marks[id]
	if !ok {
		return nil, apperrors.ErrMarkNotFound
	}
	return &m, nil
}

func (r *attendanceRepo) GetByKey(ctx context.Context, key models.MarkKey) (*models.AttendanceMark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.markKeys[normalizeKey(key)]
	if !ok {
		return nil, apperrors.ErrMarkNotFound
	}
	m := r.s.marks[id]
	return &m, nil
}

func (r *attendanceRepo) Update(ctx context.Context, m *models.AttendanceMark) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.marks[m.ID]
	if !ok {
		return apperrors.ErrMarkNotFound
	}
	stored.Status = m.Status
	stored.Notes = m.Notes
	stored.EditedAt = m.EditedAt
	stored.EditedBy = m.EditedBy
	r.s.marks[m.ID] = stored
	return nil
}

func (r *attendanceRepo) ListByStudent(ctx context.Context, studentID, classID string) ([]*models.AttendanceMark, error) {
	return r.list(ctx, func(m *models.AttendanceMark) bool {
		return m.StudentID == studentID && (classID == "" || m.ClassID == classID)
	})
}

func (r *attendanceRepo) ListByClassDate(ctx context.Context, classID string, date time.Time) ([]*models.AttendanceMark, error) {
	day := normalizeKey(models.MarkKey{Date: date}).Date
	return r.list(ctx, func(m *models.AttendanceMark) bool {
		return m.ClassID == classID && m.Date.Equal(day)
	})
}

func (r *attendanceRepo) RecentByStudent(ctx context.Context, studentID string, limit int) ([]*models.AttendanceMark, error) {
	marks, err := r.list(ctx, func(m *models.AttendanceMark) bool { return m.StudentID == studentID })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(marks, func(i, j int) bool {
		if !marks[i].Date.Equal(marks[j].Date) {
			return marks[i].Date.After(marks[j].Date)
		}
		return marks[i].MarkedAt.After(marks[j].MarkedAt)
	})
	if limit > 0 && len(marks) > limit {
		marks = marks[:limit]
	}
	return marks, nil
}

func (r *attendanceRepo) SessionSummary(ctx context.Context, classID string) (int, *time.Time, error) {
	marks, err := r.list(ctx, func(m *models.AttendanceMark) bool { return m.ClassID == classID })
	if err != nil {
		return 0, nil, err
	}
	days := make(map[time.Time]struct{})
	var last *time.Time
	for _, m := range marks {
		days[m.Date] = struct{}{}
		if last == nil || m.Date.After(*last) {
			d := m.Date
			last = &d
		}
	}
	return len(days), last, nil
}

func (r *attendanceRepo) list(ctx context.Context, keep func(*models.AttendanceMark) bool) ([]*models.AttendanceMark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.AttendanceMark, 0)
	for _, m := range r.s.marks {
		m := m
		if keep(&m) {
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// --- refresh tokens ---

type tokenRepo struct{ s *Store }

func (r *tokenRepo) Create(ctx context.Context, t *models.RefreshToken) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tokens[t.Token]; ok {
		return apperrors.ErrTokenInvalid
	}
	r.s.tokens[t.Token] = *t
	return nil
}

func (r *tokenRepo) Get(ctx context.Context, token string) (*models.RefreshToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tokens[token]
	if !ok {
		return nil, apperrors.ErrTokenNotFound
	}
	return &t, nil
}

func (r *tokenRepo) Revoke(ctx context.Context, token string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tokens[token]
	if !ok {
		return apperrors.ErrTokenNotFound
	}
	if t.RevokedAt == nil {
		t.RevokedAt = &at
		r.s.tokens[token] = t
	}
	return nil
}

func (r *tokenRepo) RevokeAllForTeacher(ctx context.Context, teacherID string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for k, t := range r.s.tokens {
		if t.TeacherID == teacherID && t.RevokedAt == nil {
			t.RevokedAt = &at
			r.s.tokens[k] = t
		}
	}
	return nil
}

func (r *tokenRepo) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for k, t := range r.s.tokens {
		if t.Purgeable(now) {
			delete(r.s.tokens, k)
			n++
		}
	}
	return n, nil
}

// --- maintenance ---

type remapper struct{ s *Store }

// RemapTeacher holds the write lock for the whole remap, which makes it atomic
// with respect to every other store call.
func (r *remapper) RemapTeacher(ctx context.Context, fromID, toID string, dryRun bool) (repositories.RemapCounts, error) {
	var counts repositories.RemapCounts
	if err := ctx.Err(); err != nil {
		return counts, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, c := range r.s.classes {
		if c.TeacherID != fromID {
			continue
		}
		counts.Classes++
		if !dryRun {
			c.TeacherID = toID
			r.s.classes[id] = c
		}
	}
	for id, m := range r.s.marks {
		changed := false
		if m.TeacherID == fromID {
			counts.MarksTaught++
			m.TeacherID = toID
			changed = true
		}
		if m.EditedBy != nil && *m.EditedBy == fromID {
			counts.MarksEdited++
			to := toID
			m.EditedBy = &to
			changed = true
		}
		if changed && !dryRun {
			r.s.marks[id] = m
		}
	}
	return counts, nil
}
