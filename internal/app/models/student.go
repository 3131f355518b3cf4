package models

import (
	"math"
	"sort"
	"time"
)

// AttendanceStats holds the denormalized tallies stored on a student
type AttendanceStats struct {
	TotalClasses int `json:"totalClasses" db:"total_classes" bson:"total_classes"`
	PresentCount int `json:"presentCount" db:"present_count" bson:"present_count"`
	AbsentCount  int `json:"absentCount" db:"absent_count" bson:"absent_count"`
	LateCount    int `json:"lateCount" db:"late_count" bson:"late_count"`
	ExcusedCount int `json:"excusedCount" db:"excused_count" bson:"excused_count"`
}

// Add tallies one status. EXCUSED does not count toward TotalClasses.
func (s *AttendanceStats) Add(status AttendanceStatus) {
	switch status {
	case StatusPresent:
		s.PresentCount++
	case StatusAbsent:
		s.AbsentCount++
	case StatusLate:
		s.LateCount++
	case StatusExcused:
		s.ExcusedCount++
		return
	default:
		return
	}
	s.TotalClasses++
}

// Percentage is present over total, rounded half away from zero.
func (s AttendanceStats) Percentage() int {
	total := s.TotalClasses
	if total < 1 {
		total = 1
	}
	return int(math.Round(float64(s.PresentCount) / float64(total) * 100))
}

// Student defines an enrolled student, scoped to a single class
type Student struct {
	ID              string          `json:"id" db:"id" bson:"_id"`
	Name            string          `json:"name" db:"name" bson:"name"`
	RollNo          string          `json:"rollNo" db:"roll_no" bson:"roll_no"`
	Email           *string         `json:"email,omitempty" db:"email" bson:"email,omitempty"`
	Phone           *string         `json:"phone,omitempty" db:"phone" bson:"phone,omitempty"`
	ClassID         string          `json:"classId" db:"class_id" bson:"class_id"`
	IsActive        bool            `json:"isActive" db:"is_active" bson:"is_active"`
	AttendanceStats AttendanceStats `json:"attendanceStats" db:"-" bson:"attendance_stats"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at" bson:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at" bson:"updated_at"`
}

// SortRoster orders students by roll number, then id.
func SortRoster(students []*Student) {
	sort.SliceStable(students, func(i, j int) bool {
		if students[i].RollNo != students[j].RollNo {
			return students[i].RollNo < students[j].RollNo
		}
		return students[i].ID < students[j].ID
	})
}
