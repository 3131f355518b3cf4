package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	// Store errors
	ErrStoreUnavailable = errors.New("store unavailable")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrAccountDisabled    = errors.New("account is disabled")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrBadRequest       = errors.New("bad request")
)

// Domain errors. Each one unwraps to the generic kind it is reported as,
// so errors.Is works against both the specific and the generic sentinel.
var (
	ErrTeacherNotFound    = NewCustomError(ErrResourceNotFound, "teacher not found")
	ErrEmailAlreadyExists = NewCustomError(ErrConflict, "email already exists")
)

// Class and roster errors
var (
	ErrClassNotFound      = NewCustomError(ErrResourceNotFound, "class not found")
	ErrClassCodeExists    = NewCustomError(ErrConflict, "class code already exists")
	ErrRollNumberExists   = NewCustomError(ErrConflict, "roll number already exists in class")
	ErrStudentNotFound    = NewCustomError(ErrResourceNotFound, "student not found")
	ErrStudentNotEnrolled = NewCustomError(ErrValidationFailed, "student is not enrolled in class")
	ErrNotClassOwner      = NewCustomError(ErrPermissionDenied, "class is not owned by the acting teacher")
)

// Attendance errors
var (
	ErrMarkNotFound   = NewCustomError(ErrResourceNotFound, "attendance mark not found")
	ErrDuplicateMark  = NewCustomError(ErrConflict, "attendance was marked concurrently for this student and date, retry as an update")
	ErrFutureDate     = NewCustomError(ErrValidationFailed, "attendance date cannot be in the future")
	ErrInvalidStatus  = NewCustomError(ErrValidationFailed, "status must be one of PRESENT, ABSENT, LATE, EXCUSED")
	ErrInvalidDate    = NewCustomError(ErrValidationFailed, "date must be YYYY-MM-DD or an ISO-8601 timestamp")
	ErrNotesTooLong   = NewCustomError(ErrValidationFailed, "notes cannot exceed 500 characters")
	ErrNoMarksForUser = NewCustomError(ErrResourceNotFound, "no attendance records found")
)

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// NewValidationError creates a validation failure carrying the offending field
func NewValidationError(field, message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
		Details: map[string]interface{}{"field": field},
	}
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}
