package models

import "time"

// DefaultSection is used when a class is created without one
const DefaultSection = "A"

// Class defines a taught class owned by exactly one teacher
type Class struct {
	ID                 string     `json:"id" db:"id" bson:"_id"`
	Name               string     `json:"name" db:"name" bson:"name"`
	Subject            string     `json:"subject" db:"subject" bson:"subject"`
	Code               *string    `json:"code,omitempty" db:"code" bson:"code,omitempty"`
	Section            string     `json:"section" db:"section" bson:"section"`
	RoomNumber         *string    `json:"roomNumber,omitempty" db:"room_number" bson:"room_number,omitempty"`
	Description        *string    `json:"description,omitempty" db:"description" bson:"description,omitempty"`
	TeacherID          string     `json:"teacherId" db:"teacher_id" bson:"teacher_id"`
	IsActive           bool       `json:"isActive" db:"is_active" bson:"is_active"`
	TotalSessions      int        `json:"totalSessions" db:"total_sessions" bson:"total_sessions"`
	LastAttendanceDate *time.Time `json:"lastAttendanceDate,omitempty" db:"last_attendance_date" bson:"last_attendance_date,omitempty"`
	CreatedAt          time.Time  `json:"createdAt" db:"created_at" bson:"created_at"`
	UpdatedAt          time.Time  `json:"updatedAt" db:"updated_at" bson:"updated_at"`
}

// OwnedBy reports whether teacherID is the owning teacher.
func (c *Class) OwnedBy(teacherID string) bool {
	return c != nil && teacherID != "" && c.TeacherID == teacherID
}
