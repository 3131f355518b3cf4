package dto

import (
	"time"

	"github.com/swipeattend/backend/internal/app/models"
)

// EnrollStudentRequest adds a student to a class roster
type EnrollStudentRequest struct {
	Name   string  `json:"name" binding:"required,max=50"`
	RollNo string  `json:"rollNo" binding:"required,max=20"`
	Email  *string `json:"email,omitempty" binding:"omitempty,email"`
	Phone  *string `json:"phone,omitempty" binding:"omitempty,max=20"`
}

// StudentResponse is the public view of a student with derived percentage
type StudentResponse struct {
	ID              string                 `json:"id"`
	Name            string                 `json:"name"`
	RollNo          string                 `json:"rollNo"`
	Email           *string                `json:"email,omitempty"`
	Phone           *string                `json:"phone,omitempty"`
	ClassID         string                 `json:"classId"`
	IsActive        bool                   `json:"isActive"`
	AttendanceStats models.AttendanceStats `json:"attendanceStats"`
	Percentage      int                    `json:"percentage"`
	CreatedAt       time.Time              `json:"createdAt"`
}

// NewStudentResponse maps a student model
func NewStudentResponse(s *models.Student) StudentResponse {
	return StudentResponse{
		ID:              s.ID,
		Name:            s.Name,
		RollNo:          s.RollNo,
		Email:           s.Email,
		Phone:           s.Phone,
		ClassID:         s.ClassID,
		IsActive:        s.IsActive,
		AttendanceStats: s.AttendanceStats,
		Percentage:      s.AttendanceStats.Percentage(),
		CreatedAt:       s.CreatedAt,
	}
}

// NewStudentResponses maps a roster
func NewStudentResponses(students []*models.Student) []StudentResponse {
	out := make([]StudentResponse, 0, len(students))
	for _, s := range students {
		out = append(out, NewStudentResponse(s))
	}
	return out
}
