package dberrors

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/swipeattend/backend/internal/pkg/apperrors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"deadline", context.DeadlineExceeded, apperrors.ErrStoreUnavailable},
		{"pg connect failure", &pgconn.ConnectError{Config: &pgconn.Config{}}, apperrors.ErrStoreUnavailable},
		{"network", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, apperrors.ErrStoreUnavailable},
		{"unique violation", &pgconn.PgError{Code: UniqueViolation, ConstraintName: "attendance_unique_day"}, apperrors.ErrConflict},
		{"no rows", pgx.ErrNoRows, apperrors.ErrResourceNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err, "load mark")
			assert.ErrorIs(t, got, tt.kind)
			assert.ErrorIs(t, got, tt.err)
			assert.Contains(t, got.Error(), "load mark")
		})
	}
}

func TestClassify_PassThrough(t *testing.T) {
	assert.NoError(t, Classify(nil, "noop"))
	assert.Equal(t, context.Canceled, Classify(context.Canceled, "load mark"))

	boom := errors.New("boom")
	got := Classify(boom, "load mark")
	assert.Equal(t, boom, got)
	assert.NotErrorIs(t, got, apperrors.ErrStoreUnavailable)
}

func TestIsDuplicateConstraintError(t *testing.T) {
	err := &pgconn.PgError{Code: UniqueViolation, ConstraintName: "classes_code_key"}
	assert.True(t, IsDuplicateConstraintError(err, "classes_code_key"))
	assert.False(t, IsDuplicateConstraintError(err, "teachers_email_key"))
	assert.False(t, IsDuplicateConstraintError(errors.New("other"), "classes_code_key"))
}
