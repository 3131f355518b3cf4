package dto

import (
	"time"

	"github.com/swipeattend/backend/internal/app/models"
)

// CreateClassRequest creates a class owned by the caller
type CreateClassRequest struct {
	Name        string  `json:"name" binding:"required,max=50" example:"Data Structures"`
	Subject     string  `json:"subject" binding:"required,max=50" example:"Computer Science"`
	Code        *string `json:"code,omitempty" binding:"omitempty,max=20" example:"CS201"`
	Section     string  `json:"section,omitempty" binding:"omitempty,max=10" example:"A"`
	RoomNumber  *string `json:"roomNumber,omitempty" binding:"omitempty,max=20"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=500"`
}

// ClassResponse is the public view of a class
type ClassResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Subject            string    `json:"subject"`
	Code               *string   `json:"code,omitempty"`
	Section            string    `json:"section"`
	RoomNumber         *string   `json:"roomNumber,omitempty"`
	Description        *string   `json:"description,omitempty"`
	TeacherID          string    `json:"teacherId"`
	IsActive           bool      `json:"isActive"`
	TotalSessions      int       `json:"totalSessions"`
	LastAttendanceDate *string   `json:"lastAttendanceDate,omitempty"`
	StudentCount       *int      `json:"studentCount,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

// NewClassResponse maps a class model
func NewClassResponse(c *models.Class) ClassResponse {
	resp := ClassResponse{
		ID:            c.ID,
		Name:          c.Name,
		Subject:       c.Subject,
		Code:          c.Code,
		Section:       c.Section,
		RoomNumber:    c.RoomNumber,
		Description:   c.Description,
		TeacherID:     c.TeacherID,
		IsActive:      c.IsActive,
		TotalSessions: c.TotalSessions,
		CreatedAt:     c.CreatedAt,
	}
	if c.LastAttendanceDate != nil {
		d := c.LastAttendanceDate.UTC().Format("2006-01-02")
		resp.LastAttendanceDate = &d
	}
	return resp
}

// ClassDetailResponse is a class with its roster
type ClassDetailResponse struct {
	Class    ClassResponse     `json:"class"`
	Students []StudentResponse `json:"students"`
}

// DashboardResponse summarizes the caller's classes
type DashboardResponse struct {
	TotalClasses  int             `json:"totalClasses"`
	TotalStudents int             `json:"totalStudents"`
	Classes       []ClassResponse `json:"classes"`
}
