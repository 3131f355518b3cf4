package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/swipeattend/backend/internal/app/models/dto"
	"github.com/swipeattend/backend/internal/pkg/apperrors"
	"github.com/swipeattend/backend/internal/pkg/auth"
	"github.com/swipeattend/backend/internal/pkg/logger"
)

// errorMappings pairs an error kind with its HTTP status and code. Order matters:
// the first match wins.
var errorMappings = []struct {
	kind    error
	status  int
	code    dto.ErrorCode
	message string
}{
	{apperrors.ErrStoreUnavailable, http.StatusServiceUnavailable, dto.ErrorCodeStoreUnavailable, "Service temporarily unavailable, please retry"},
	{context.DeadlineExceeded, http.StatusServiceUnavailable, dto.ErrorCodeStoreUnavailable, "Service temporarily unavailable, please retry"},
	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"},
	{apperrors.ErrBadRequest, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Bad request"},
	{apperrors.ErrInvalidEmail, http.StatusBadRequest, dto.ErrorCodeInvalidEmail, "Invalid email"},
	{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"},
	{apperrors.ErrAccountDisabled, http.StatusForbidden, dto.ErrorCodeAccountDisabled, "Account is disabled"},
	{apperrors.ErrResourceNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"},
	{apperrors.ErrResourceAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Resource already exists"},
	{apperrors.ErrConflict, http.StatusConflict, dto.ErrorCodeConflict, "Conflict"},
	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid email or password"},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"},
	{auth.ErrExpiredToken, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"},
	{auth.ErrInvalidToken, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"},
	{auth.ErrInvalidFormat, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token format"},
	{apperrors.ErrTokenRevoked, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Token revoked"},
	{apperrors.ErrTokenNotFound, http.StatusUnauthorized, dto.ErrorCodeTokenNotFound, "Token not found"},
}

// HandleAPIError maps an error onto a status code and a structured error body.
// Only messages of application errors reach the client; anything else is
// logged and reported as an internal error.
func HandleAPIError(c *gin.Context, err error) {
	if errors.Is(err, context.Canceled) {
		// client went away, nobody reads the body
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}

	for _, m := range errorMappings {
		if !errors.Is(err, m.kind) {
			continue
		}

		detail := dto.NewErrorDetail(m.code, m.message)
		var ce *apperrors.CustomError
		if errors.As(err, &ce) {
			detail.Message = ce.Error()
			if field, ok := ce.Details["field"].(string); ok {
				detail.WithField(field)
			}
		}
		if m.status >= http.StatusInternalServerError {
			logger.Warn().Err(err).Str("path", c.FullPath()).Msg("Request failed on an unavailable store")
			detail.Message = m.message
		} else if m.status != http.StatusUnauthorized {
			detail.WithSeverity(dto.ErrorSeverityWarning)
		}

		c.AbortWithStatusJSON(m.status, dto.NewErrorResponse(detail))
		return
	}

	logger.Error().Err(err).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Msg("Unhandled error")
	c.AbortWithStatusJSON(http.StatusInternalServerError,
		dto.NewErrorResponse(dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")))
}

// StatusFor returns the HTTP status and error code HandleAPIError would use
func StatusFor(err error) (int, dto.ErrorCode) {
	for _, m := range errorMappings {
		if errors.Is(err, m.kind) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, dto.ErrorCodeInternalServer
}

// PublicMessage returns the client-safe text of err
func PublicMessage(err error) string {
	var ce *apperrors.CustomError
	if errors.As(err, &ce) {
		return ce.Error()
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.kind) {
			return m.message
		}
	}
	return "Internal server error"
}
