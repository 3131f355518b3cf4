package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swipeattend/backend/internal/app/models"
	pkgauth "github.com/swipeattend/backend/internal/pkg/auth"
	"github.com/swipeattend/backend/internal/pkg/apperrors"
)

type stubVerifier struct {
	identity *pkgauth.GoogleIdentity
	err      error
}

func (s stubVerifier) Verify(string) (*pkgauth.GoogleIdentity, error) {
	return s.identity, s.err
}

type authFixture struct {
	*fixture
	svc *AuthService
	jwt *pkgauth.JWTService
}

func newAuthFixture(t *testing.T, google IdentityVerifier) *authFixture {
	t.Helper()
	f := newFixture(t)

	hash, err := pkgauth.HashPassword("secret-pass")
	require.NoError(t, err)
	require.NoError(t, f.repos.Teachers.Create(context.Background(), &models.Teacher{
		ID: "t3", Name: "Login Teacher", Email: "login@school.test", PasswordHash: hash, IsActive: true,
	}))
	require.NoError(t, f.repos.Teachers.Create(context.Background(), &models.Teacher{
		ID: "t4", Name: "Retired Teacher", Email: "retired@school.test", PasswordHash: hash, IsActive: false,
	}))

	jwt := pkgauth.NewJWTService(pkgauth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "test",
	})
	svc := NewAuthService(f.repos, jwt, google, zerolog.Nop())
	return &authFixture{fixture: f, svc: svc, jwt: jwt}
}

func TestLogin(t *testing.T) {
	af := newAuthFixture(t, nil)
	ctx := context.Background()

	res, err := af.svc.Login(ctx, " Login@School.test ", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, "t3", res.Teacher.ID)
	assert.NotNil(t, res.Teacher.LastLoginAt)
	assert.NotEmpty(t, res.Tokens.AccessToken)

	stored, err := af.repos.Tokens.Get(ctx, res.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "t3", stored.TeacherID)

	claims, err := af.svc.VerifyToken(ctx, res.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "t3", claims.TeacherID)

	_, err = af.svc.Login(ctx, "login@school.test", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = af.svc.Login(ctx, "nobody@school.test", "secret-pass")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = af.svc.Login(ctx, "retired@school.test", "secret-pass")
	assert.ErrorIs(t, err, apperrors.ErrAccountDisabled)

	_, err = af.svc.Login(ctx, "not an email", "secret-pass")
	assert.ErrorIs(t, err, apperrors.ErrInvalidEmail)
}

func TestRefresh_RotatesAndDetectsReplay(t *testing.T) {
	af := newAuthFixture(t, nil)
	ctx := context.Background()

	first, err := af.svc.Login(ctx, "login@school.test", "secret-pass")
	require.NoError(t, err)

	second, err := af.svc.Refresh(ctx, first.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.Tokens.RefreshToken, second.Tokens.RefreshToken)

	old, err := af.repos.Tokens.Get(ctx, first.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotNil(t, old.RevokedAt)

	// replaying the rotated token cuts every session
	_, err = af.svc.Refresh(ctx, first.Tokens.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	_, err = af.svc.Refresh(ctx, second.Tokens.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	_, err = af.svc.Refresh(ctx, "unknown")
	assert.ErrorIs(t, err, apperrors.ErrTokenNotFound)

	_, err = af.svc.Refresh(ctx, "  ")
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestLogout(t *testing.T) {
	af := newAuthFixture(t, nil)
	ctx := context.Background()

	res, err := af.svc.Login(ctx, "login@school.test", "secret-pass")
	require.NoError(t, err)

	err = af.svc.Logout(ctx, "t1", res.Tokens.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenNotFound, "another teacher cannot revoke the token")

	require.NoError(t, af.svc.Logout(ctx, "t3", res.Tokens.RefreshToken))
	_, err = af.svc.Refresh(ctx, res.Tokens.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)
}

func TestGoogleLogin(t *testing.T) {
	ctx := context.Background()

	af := newAuthFixture(t, stubVerifier{identity: &pkgauth.GoogleIdentity{Subject: "g-1", Email: "LOGIN@school.test"}})
	res, err := af.svc.GoogleLogin(ctx, "id-token")
	require.NoError(t, err)
	assert.Equal(t, "t3", res.Teacher.ID)

	unknown := newAuthFixture(t, stubVerifier{identity: &pkgauth.GoogleIdentity{Email: "stranger@gmail.test"}})
	_, err = unknown.svc.GoogleLogin(ctx, "id-token")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	rejected := newAuthFixture(t, stubVerifier{err: pkgauth.ErrInvalidToken})
	_, err = rejected.svc.GoogleLogin(ctx, "id-token")
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)

	unconfigured := newAuthFixture(t, pkgauth.NewGoogleVerifier(""))
	_, err = unconfigured.svc.GoogleLogin(ctx, "id-token")
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestMe(t *testing.T) {
	af := newAuthFixture(t, nil)

	teacher, classes, err := af.svc.Me(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", teacher.ID)
	require.Len(t, classes, 1)
	assert.Equal(t, "c1", classes[0].ID)
}

func TestVerifyToken_Rejections(t *testing.T) {
	af := newAuthFixture(t, nil)
	ctx := context.Background()

	_, err := af.svc.VerifyToken(ctx, "garbage")
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)

	pair, err := af.jwt.GenerateTokenPair("ghost", "ghost@school.test")
	require.NoError(t, err)
	_, err = af.svc.VerifyToken(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)

	pair, err = af.jwt.GenerateTokenPair("t4", "retired@school.test")
	require.NoError(t, err)
	_, err = af.svc.VerifyToken(ctx, pair.AccessToken)
	assert.True(t, errors.Is(err, apperrors.ErrAccountDisabled))
}

func TestCleanupTokens(t *testing.T) {
	af := newAuthFixture(t, nil)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, af.repos.Tokens.Create(ctx, &models.RefreshToken{
		Token: "expired", TeacherID: "t3", ExpiresAt: now.Add(-time.Hour), CreatedAt: now.Add(-48 * time.Hour),
	}))
	revokedAt := now.Add(-time.Hour)
	require.NoError(t, af.repos.Tokens.Create(ctx, &models.RefreshToken{
		Token: "recently-revoked", TeacherID: "t3", ExpiresAt: now.Add(time.Hour), RevokedAt: &revokedAt, CreatedAt: now.Add(-2 * time.Hour),
	}))
	require.NoError(t, af.repos.Tokens.Create(ctx, &models.RefreshToken{
		Token: "live", TeacherID: "t3", ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	}))

	n, err := af.svc.CleanupTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = af.repos.Tokens.Get(ctx, "recently-revoked")
	assert.NoError(t, err)
	_, err = af.repos.Tokens.Get(ctx, "live")
	assert.NoError(t, err)
}
