package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService(now time.Time) *JWTService {
	s := NewJWTService(JWTConfig{
		SecretKey:       "unit-test-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "swipeattend-test",
	})
	s.now = func() time.Time { return now }
	return s
}

func TestJWTService_RoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	s := newTestJWTService(now)

	pair, err := s.GenerateTokenPair("teacher-1", "a@school.test")
	require.NoError(t, err)
	assert.Equal(t, 3600, pair.ExpiresIn)
	assert.Equal(t, 86400, pair.RefreshExpiresIn)
	assert.Equal(t, now.Add(24*time.Hour), pair.RefreshExpiresAt)
	assert.NotEmpty(t, pair.RefreshToken)

	claims, err := s.ValidateAndExtractClaims(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "teacher-1", claims.TeacherID)
	assert.Equal(t, "a@school.test", claims.Email)
	assert.Equal(t, "swipeattend-test", claims.Issuer)
}

func TestJWTService_Expired(t *testing.T) {
	issued := time.Now().Add(-3 * time.Hour)
	pair, err := newTestJWTService(issued).GenerateTokenPair("teacher-1", "a@school.test")
	require.NoError(t, err)

	_, err = newTestJWTService(time.Now()).ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_WrongSecret(t *testing.T) {
	pair, err := newTestJWTService(time.Now()).GenerateTokenPair("teacher-1", "a@school.test")
	require.NoError(t, err)

	other := NewJWTService(JWTConfig{SecretKey: "another-secret", AccessTokenExp: time.Hour})
	_, err = other.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = other.ValidateAndExtractClaims("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{header: "Bearer abc.def", want: "abc.def"},
		{header: "raw-token", want: "raw-token"},
		{header: "Bearer   ", wantErr: true},
		{header: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ExtractBearerToken(tt.header)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidFormat, tt.header)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestPasswordHashing(t *testing.T) {
	cost := BcryptCost
	BcryptCost = 4
	t.Cleanup(func() { BcryptCost = cost })

	hash, err := HashPassword("attend123")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "attend123"))
	assert.False(t, CheckPassword(hash, "attend124"))
	assert.False(t, CheckPassword("", "attend123"))
}

func TestGoogleVerifier_NotConfigured(t *testing.T) {
	_, err := NewGoogleVerifier("  ").Verify("token")
	assert.ErrorIs(t, err, ErrGoogleNotConfigured)
}
