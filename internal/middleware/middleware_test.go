package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swipeattend/backend/internal/app/models/dto"
	"github.com/swipeattend/backend/internal/pkg/apperrors"
	"github.com/swipeattend/backend/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serveError(t *testing.T, err error) (*httptest.ResponseRecorder, dto.APIResponse) {
	t.Helper()
	router := gin.New()
	router.GET("/fail", func(c *gin.Context) { HandleAPIError(c, err) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

	var body dto.APIResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestHandleAPIError_Mapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   dto.ErrorCode
	}{
		{"validation", apperrors.ErrInvalidStatus, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"not owner", apperrors.ErrNotClassOwner, http.StatusForbidden, dto.ErrorCodeForbidden},
		{"unknown class", apperrors.ErrClassNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{"duplicate mark", apperrors.ErrDuplicateMark, http.StatusConflict, dto.ErrorCodeConflict},
		{"credentials", apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials},
		{"expired jwt", auth.ErrExpiredToken, http.StatusUnauthorized, dto.ErrorCodeExpiredToken},
		{"store down", fmt.Errorf("list marks: %w", apperrors.ErrStoreUnavailable), http.StatusServiceUnavailable, dto.ErrorCodeStoreUnavailable},
		{"deadline", context.DeadlineExceeded, http.StatusServiceUnavailable, dto.ErrorCodeStoreUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, dto.ErrorCodeInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := serveError(t, tt.err)
			assert.Equal(t, tt.status, w.Code)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.code, body.Error.Code)
			assert.False(t, body.Success)

			status, code := StatusFor(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestHandleAPIError_Messages(t *testing.T) {
	_, body := serveError(t, apperrors.NewValidationError("date", "date query parameter is required"))
	assert.Equal(t, "date query parameter is required", body.Error.Message)
	assert.Equal(t, "date", body.Error.Field)

	_, body = serveError(t, errors.New("pq: password authentication failed for user attendance"))
	assert.Equal(t, "Internal server error", body.Error.Message)

	_, body = serveError(t, apperrors.ErrStoreUnavailable)
	assert.Equal(t, "Service temporarily unavailable, please retry", body.Error.Message)

	assert.Equal(t, apperrors.ErrStudentNotEnrolled.Error(), PublicMessage(apperrors.ErrStudentNotEnrolled))
	assert.Equal(t, "Internal server error", PublicMessage(errors.New("secret detail")))
}

func TestHandleAPIError_ClientGone(t *testing.T) {
	w, _ := serveError(t, fmt.Errorf("get class: %w", context.Canceled))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Zero(t, w.Body.Len())
}

func newAuthRouter(jwtService *auth.JWTService) *gin.Engine {
	router := gin.New()
	router.Use(NewAuthMiddleware(jwtService).JWTAuth())
	router.GET("/whoami", func(c *gin.Context) {
		id, _ := CurrentTeacherID(c)
		c.String(http.StatusOK, id)
	})
	return router
}

func TestJWTAuth(t *testing.T) {
	jwtService := auth.NewJWTService(auth.JWTConfig{SecretKey: "middleware-secret", AccessTokenExp: time.Hour})
	pair, err := jwtService.GenerateTokenPair("teacher-7", "t7@school.test")
	require.NoError(t, err)
	router := newAuthRouter(jwtService)

	tests := []struct {
		name   string
		header string
		status int
		code   dto.ErrorCode
	}{
		{"missing", "", http.StatusUnauthorized, dto.ErrorCodeUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
		{"bare scheme", "Bearer ", http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			var body dto.APIResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "teacher-7", w.Body.String())
}

func TestRequestIDAndRecovery(t *testing.T) {
	router := gin.New()
	router.Use(RequestID(), Recovery(zerolog.Nop()), RequestLogger(zerolog.Nop()))
	router.GET("/panic", func(*gin.Context) { panic("kaboom") })
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
}

func TestRegisterValidators(t *testing.T) {
	require.NotPanics(t, RegisterValidators)
	require.NotPanics(t, RegisterValidators)

	type payload struct {
		Status string `json:"status" binding:"required,attendance_status"`
		Date   string `json:"date" binding:"required,calendar_day"`
	}

	router := gin.New()
	router.POST("/bind", func(c *gin.Context) {
		var p payload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		body   string
		status int
	}{
		{`{"status":"late","date":"2024-03-01"}`, http.StatusNoContent},
		{`{"status":"PRESENT","date":"2024-03-01T08:00:00+02:00"}`, http.StatusNoContent},
		{`{"status":"NOT_MARKED","date":"2024-03-01"}`, http.StatusBadRequest},
		{`{"status":"PRESENT","date":"03/01/2024"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader(tt.body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		assert.Equal(t, tt.status, w.Code, tt.body)
	}
}
