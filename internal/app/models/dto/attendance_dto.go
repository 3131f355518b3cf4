package dto

import (
	"time"

	"github.com/swipeattend/backend/internal/app/models"
)

// --- Request DTOs ---

// MarkAttendanceRequest marks one student for one day
type MarkAttendanceRequest struct {
	StudentID string  `json:"studentId" binding:"required"`
	ClassID   string  `json:"classId" binding:"required"`
	Status    string  `json:"status" binding:"required,attendance_status" example:"PRESENT"`
	Date      string  `json:"date" binding:"required,calendar_day" example:"2024-01-01"`
	Notes     *string `json:"notes,omitempty" binding:"omitempty,max=500"`
}

// BatchEntry is one student line of a batch mark. Entries are validated one
// by one so a bad line is reported without rejecting the batch.
type BatchEntry struct {
	StudentID string  `json:"studentId"`
	Status    string  `json:"status" example:"PRESENT"`
	Notes     *string `json:"notes,omitempty"`
}

// BatchMarkRequest marks several students of one class for one day
type BatchMarkRequest struct {
	ClassID string       `json:"classId" binding:"required"`
	Date    string       `json:"date" binding:"required,calendar_day"`
	Entries []BatchEntry `json:"entries" binding:"required,min=1"`
}

// UpdateAttendanceRequest edits an existing mark
type UpdateAttendanceRequest struct {
	Status string  `json:"status" binding:"required,attendance_status"`
	Notes  *string `json:"notes,omitempty" binding:"omitempty,max=500"`
}

// --- Response DTOs ---

// AttendanceMarkResponse is the public view of a stored mark
type AttendanceMarkResponse struct {
	ID        string     `json:"id"`
	StudentID string     `json:"studentId"`
	ClassID   string     `json:"classId"`
	TeacherID string     `json:"teacherId"`
	Date      string     `json:"date" example:"2024-01-01"`
	Status    string     `json:"status"`
	Notes     *string    `json:"notes,omitempty"`
	MarkedBy  string     `json:"markedBy"`
	MarkedAt  time.Time  `json:"markedAt"`
	EditedAt  *time.Time `json:"editedAt,omitempty"`
	EditedBy  *string    `json:"editedBy,omitempty"`
}

// NewAttendanceMarkResponse maps a mark model
func NewAttendanceMarkResponse(m *models.AttendanceMark) AttendanceMarkResponse {
	return AttendanceMarkResponse{
		ID:        m.ID,
		StudentID: m.StudentID,
		ClassID:   m.ClassID,
		TeacherID: m.TeacherID,
		Date:      m.Date.UTC().Format("2006-01-02"),
		Status:    string(m.Status),
		Notes:     m.Notes,
		MarkedBy:  string(m.MarkedBy),
		MarkedAt:  m.MarkedAt,
		EditedAt:  m.EditedAt,
		EditedBy:  m.EditedBy,
	}
}

// MarkAttendanceResponse wraps a mark with whether it was newly created
type MarkAttendanceResponse struct {
	Mark    AttendanceMarkResponse `json:"mark"`
	Created bool                   `json:"created"`
}

// BatchFailure describes one rejected batch entry
type BatchFailure struct {
	Index     int       `json:"index"`
	StudentID string    `json:"studentId"`
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
}

// BatchMarkResponse summarizes a batch mark
type BatchMarkResponse struct {
	MarkedCount int            `json:"markedCount"`
	Failed      []BatchFailure `json:"failed"`
}

// ReportEntry is one roster line of a class report
type ReportEntry struct {
	StudentID   string     `json:"studentId"`
	StudentName string     `json:"studentName"`
	RollNo      string     `json:"rollNo"`
	Status      string     `json:"status"`
	MarkID      *string    `json:"markId"`
	MarkedAt    *time.Time `json:"markedAt"`
	Notes       *string    `json:"notes"`
}

// ClassReportResponse is the per-date class attendance sheet
type ClassReportResponse struct {
	ClassID       string        `json:"classId"`
	ClassName     string        `json:"className"`
	Date          string        `json:"date"`
	TotalStudents int           `json:"totalStudents"`
	Entries       []ReportEntry `json:"entries"`
}

// StudentAnalytics is one row of class analytics
type StudentAnalytics struct {
	StudentID    string `json:"studentId"`
	StudentName  string `json:"studentName"`
	RollNo       string `json:"rollNo"`
	TotalClasses int    `json:"totalClasses"`
	Present      int    `json:"present"`
	Absent       int    `json:"absent"`
	Late         int    `json:"late"`
	Excused      int    `json:"excused"`
	Percentage   int    `json:"percentage"`
	Band         string `json:"band"`
}

// ClassAnalyticsResponse lists students by attendance percentage
type ClassAnalyticsResponse struct {
	ClassID   string             `json:"classId"`
	ClassName string             `json:"className"`
	Analytics []StudentAnalytics `json:"analytics"`
}

// StudentHistoryResponse is a student with their most recent marks
type StudentHistoryResponse struct {
	Student StudentResponse          `json:"student"`
	History []AttendanceMarkResponse `json:"history"`
}
