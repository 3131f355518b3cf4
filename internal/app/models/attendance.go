package models

import "time"

// AttendanceMark is the single record for one student, one class and one calendar day
type AttendanceMark struct {
	ID        string           `json:"id" db:"id" bson:"_id"`
	StudentID string           `json:"studentId" db:"student_id" bson:"student_id"`
	ClassID   string           `json:"classId" db:"class_id" bson:"class_id"`
	TeacherID string           `json:"teacherId" db:"teacher_id" bson:"teacher_id"`
	Date      time.Time        `json:"date" db:"date" bson:"date"`
	Status    AttendanceStatus `json:"status" db:"status" bson:"status"`
	Notes     *string          `json:"notes,omitempty" db:"notes" bson:"notes,omitempty"`
	MarkedBy  MarkedBy         `json:"markedBy" db:"marked_by" bson:"marked_by"`
	MarkedAt  time.Time        `json:"markedAt" db:"marked_at" bson:"marked_at"`
	EditedAt  *time.Time       `json:"editedAt,omitempty" db:"edited_at" bson:"edited_at,omitempty"`
	EditedBy  *string          `json:"editedBy,omitempty" db:"edited_by" bson:"edited_by,omitempty"`
}

// MarkKey identifies the unique (student, class, day) slot of a mark
type MarkKey struct {
	StudentID string
	ClassID   string
	Date      time.Time
}

// Key returns the uniqueness key of the mark.
func (m *AttendanceMark) Key() MarkKey {
	return MarkKey{StudentID: m.StudentID, ClassID: m.ClassID, Date: m.Date}
}
