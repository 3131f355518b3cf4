package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/swipeattend/backend/internal/app/models"
	"github.com/swipeattend/backend/internal/app/repositories"
	"github.com/swipeattend/backend/internal/pkg/apperrors"
	"github.com/swipeattend/backend/internal/pkg/auth"
	"github.com/swipeattend/backend/internal/pkg/validation"
)

// IdentityVerifier verifies third-party ID tokens
type IdentityVerifier interface {
	Verify(idToken string) (*auth.GoogleIdentity, error)
}

// AuthResult is an authenticated teacher together with freshly issued credentials
type AuthResult struct {
	Teacher *models.Teacher
	Tokens  *auth.TokenPair
}

// AuthService handles authentication operations
type AuthService struct {
	teacherRepo repositories.TeacherRepository
	classRepo   repositories.ClassRepository
	tokenRepo   repositories.TokenRepository
	jwtService  *auth.JWTService
	google      IdentityVerifier
	now         Clock
	logger      zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	repos *repositories.Repositories,
	jwtService *auth.JWTService,
	google IdentityVerifier,
	logger zerolog.Logger,
	opts ...Option,
) *AuthService {
	o := buildOptions(opts)
	return &AuthService{
		teacherRepo: repos.Teachers,
		classRepo:   repos.Classes,
		tokenRepo:   repos.Tokens,
		jwtService:  jwtService,
		google:      google,
		now:         o.now,
		logger:      logger,
	}
}

// Login authenticates a teacher by email and password
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = validation.NormalizeEmail(email)
	if !validation.IsValidEmail(email) {
		return nil, apperrors.ErrInvalidEmail
	}
	if password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	teacher, err := s.teacherRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(teacher.PasswordHash, password) {
		s.logger.Info().Str("teacherID", teacher.ID).Msg("Login rejected: wrong password")
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.signIn(ctx, teacher)
}

// GoogleLogin authenticates an existing teacher whose verified Google e-mail matches
func (s *AuthService) GoogleLogin(ctx context.Context, idToken string) (*AuthResult, error) {
	if s.google == nil {
		return nil, apperrors.NewBadRequestError("google sign-in is not configured")
	}

	identity, err := s.google.Verify(idToken)
	if err != nil {
		if errors.Is(err, auth.ErrGoogleNotConfigured) {
			return nil, apperrors.NewBadRequestError("google sign-in is not configured")
		}
		s.logger.Info().Err(err).Msg("Google ID token rejected")
		return nil, apperrors.ErrTokenInvalid
	}

	teacher, err := s.teacherRepo.GetByEmail(ctx, validation.NormalizeEmail(identity.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	return s.signIn(ctx, teacher)
}

// signIn checks the account is active, issues credentials and stamps the login
func (s *AuthService) signIn(ctx context.Context, teacher *models.Teacher) (*AuthResult, error) {
	if !teacher.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	tokens, err := s.issue(ctx, teacher)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.teacherRepo.UpdateLastLogin(ctx, teacher.ID, now); err != nil {
		s.logger.Warn().Err(err).Str("teacherID", teacher.ID).Msg("Failed to record last login")
	} else {
		teacher.LastLoginAt = &now
	}

	s.logger.Info().Str("teacherID", teacher.ID).Msg("Teacher signed in")
	return &AuthResult{Teacher: teacher, Tokens: tokens}, nil
}

// issue creates a token pair and stores the refresh half
func (s *AuthService) issue(ctx context.Context, teacher *models.Teacher) (*auth.TokenPair, error) {
	pair, err := s.jwtService.GenerateTokenPair(teacher.ID, teacher.Email)
	if err != nil {
		return nil, fmt.Errorf("token generation error: %w", err)
	}

	if err := s.tokenRepo.Create(ctx, &models.RefreshToken{
		Token:     pair.RefreshToken,
		TeacherID: teacher.ID,
		ExpiresAt: pair.RefreshExpiresAt,
		CreatedAt: s.now(),
	}); err != nil {
		return nil, fmt.Errorf("token saving error: %w", err)
	}
	return pair, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked so it cannot be replayed.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	stored, err := s.tokenRepo.Get(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if stored.RevokedAt != nil {
		// replay of a rotated token: cut every session of the teacher
		s.logger.Warn().Str("teacherID", stored.TeacherID).Msg("Revoked refresh token presented, revoking all sessions")
		if err := s.tokenRepo.RevokeAllForTeacher(ctx, stored.TeacherID, now); err != nil {
			s.logger.Error().Err(err).Str("teacherID", stored.TeacherID).Msg("Failed to revoke sessions")
		}
		return nil, apperrors.ErrTokenRevoked
	}
	if !stored.Usable(now) {
		return nil, apperrors.ErrTokenExpired
	}

	teacher, err := s.teacherRepo.GetByID(ctx, stored.TeacherID)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrTokenInvalid
		}
		return nil, err
	}
	if !teacher.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	if err := s.tokenRepo.Revoke(ctx, refreshToken, now); err != nil {
		return nil, fmt.Errorf("failed to revoke old token: %w", err)
	}

	tokens, err := s.issue(ctx, teacher)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Teacher: teacher, Tokens: tokens}, nil
}

// Logout revokes a refresh token belonging to the teacher
func (s *AuthService) Logout(ctx context.Context, teacherID, refreshToken string) error {
	stored, err := s.tokenRepo.Get(ctx, strings.TrimSpace(refreshToken))
	if err != nil {
		return err
	}
	if stored.TeacherID != teacherID {
		return apperrors.ErrTokenNotFound
	}
	return s.tokenRepo.Revoke(ctx, stored.Token, s.now())
}

// Me returns the teacher profile and assigned classes
func (s *AuthService) Me(ctx context.Context, teacherID string) (*models.Teacher, []*models.Class, error) {
	teacher, err := s.teacherRepo.GetByID(ctx, teacherID)
	if err != nil {
		return nil, nil, err
	}
	classes, err := s.classRepo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, nil, err
	}
	return teacher, classes, nil
}

// VerifyToken checks that an access token is valid and its teacher still active
func (s *AuthService) VerifyToken(ctx context.Context, accessToken string) (*auth.Claims, error) {
	claims, err := s.jwtService.ValidateAndExtractClaims(accessToken)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrTokenInvalid
	}

	teacher, err := s.teacherRepo.GetByID(ctx, claims.TeacherID)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrTokenInvalid
		}
		return nil, err
	}
	if !teacher.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}
	return claims, nil
}

// CleanupTokens removes expired and long-revoked refresh tokens
func (s *AuthService) CleanupTokens(ctx context.Context) (int64, error) {
	n, err := s.tokenRepo.CleanupExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int64("removed", n).Msg("Refresh tokens cleaned up")
	return n, nil
}
