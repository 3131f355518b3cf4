package models

import (
	"time"
)

// Teacher defines the teacher model based on the 'teachers' table
type Teacher struct {
	ID           string     `json:"id" db:"id" bson:"_id"`
	Name         string     `json:"name" db:"name" bson:"name"`
	Email        string     `json:"email" db:"email" bson:"email"`
	PasswordHash string     `json:"-" db:"password_hash" bson:"password_hash"`
	Phone        *string    `json:"phone,omitempty" db:"phone" bson:"phone,omitempty"`
	Department   *string    `json:"department,omitempty" db:"department" bson:"department,omitempty"`
	IsActive     bool       `json:"isActive" db:"is_active" bson:"is_active"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at" bson:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at" bson:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at" bson:"updated_at"`
}

// RefreshToken is an opaque, revocable credential issued alongside an access token
type RefreshToken struct {
	Token     string     `db:"token" bson:"_id"`
	TeacherID string     `db:"teacher_id" bson:"teacher_id"`
	ExpiresAt time.Time  `db:"expires_at" bson:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at" bson:"revoked_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" bson:"created_at"`
}

// Usable reports whether the token can still be exchanged at now.
func (t *RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// RevokedTokenRetention is how long revoked tokens are kept for auditing
const RevokedTokenRetention = 30 * 24 * time.Hour

// Purgeable reports whether token cleanup may delete the token at now:
// it has expired, or it was revoked and is older than the retention window.
func (t *RefreshToken) Purgeable(now time.Time) bool {
	if t.ExpiresAt.Before(now) {
		return true
	}
	return t.RevokedAt != nil && t.CreatedAt.Before(now.Add(-RevokedTokenRetention))
}
