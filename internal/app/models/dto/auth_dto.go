package dto

import (
	"time"

	"github.com/swipeattend/backend/internal/app/models"
)

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// GoogleLoginRequest carries a Google ID token obtained by the client
type GoogleLoginRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

// RefreshTokenRequest represents refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken           string `json:"accessToken"`
	TokenType             string `json:"tokenType" example:"Bearer"`
	ExpiresIn             int64  `json:"expiresIn"`
	RefreshToken          string `json:"refreshToken,omitempty"`
	RefreshTokenExpiresIn int64  `json:"refreshTokenExpiresIn,omitempty"`
}

// TeacherResponse is the public view of a teacher
type TeacherResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       *string    `json:"phone,omitempty"`
	Department  *string    `json:"department,omitempty"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// NewTeacherResponse maps a teacher model, dropping the password hash
func NewTeacherResponse(t *models.Teacher) TeacherResponse {
	return TeacherResponse{
		ID:          t.ID,
		Name:        t.Name,
		Email:       t.Email,
		Phone:       t.Phone,
		Department:  t.Department,
		IsActive:    t.IsActive,
		LastLoginAt: t.LastLoginAt,
	}
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token   TokenResponse   `json:"token"`
	Teacher TeacherResponse `json:"teacher"`
}

// MeResponse is the authenticated teacher profile with assigned classes
type MeResponse struct {
	Teacher TeacherResponse `json:"teacher"`
	Classes []ClassResponse `json:"classes"`
}

// VerifyTokenResponse confirms which teacher a token belongs to
type VerifyTokenResponse struct {
	Valid     bool   `json:"valid"`
	TeacherID string `json:"teacherId"`
	Email     string `json:"email"`
}
