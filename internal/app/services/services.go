// Package services holds the attendance business logic: the ledger, the
// statistics aggregator, authentication, class management and maintenance.
package services

import (
	"time"

	"github.com/google/uuid"
)

// Clock returns the current time. Tests pin it to a fixed instant.
type Clock func() time.Time

// IDGenerator issues identifiers for new records
type IDGenerator func() string

func systemClock() time.Time { return time.Now().UTC() }

func newUUID() string { return uuid.NewString() }

// Option customizes a service at construction
type Option func(*options)

type options struct {
	now   Clock
	newID IDGenerator
}

// WithClock overrides the time source
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.now = c
		}
	}
}

// WithIDGenerator overrides how record ids are issued
func WithIDGenerator(g IDGenerator) Option {
	return func(o *options) {
		if g != nil {
			o.newID = g
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: systemClock, newID: newUUID}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
