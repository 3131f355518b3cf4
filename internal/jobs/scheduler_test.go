package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_Add(t *testing.T) {
	s := NewScheduler(zerolog.Nop())
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Add("disabled", "", noop))
	assert.Equal(t, 0, s.Len())

	require.NoError(t, s.Add("hourly", "@hourly", noop))
	require.NoError(t, s.Add("fields", "*/5 * * * *", noop))
	assert.Equal(t, 2, s.Len())

	err := s.Add("broken", "every tuesday", noop)
	assert.Error(t, err)
	assert.Equal(t, 2, s.Len())
}

func TestScheduler_RunBoundsTask(t *testing.T) {
	s := NewScheduler(zerolog.Nop())
	s.runTimeout = 10 * time.Millisecond

	var sawDeadline atomic.Bool
	s.run("slow", func(ctx context.Context) error {
		<-ctx.Done()
		sawDeadline.Store(errors.Is(ctx.Err(), context.DeadlineExceeded))
		return ctx.Err()
	})
	assert.True(t, sawDeadline.Load())
}

func TestScheduler_StartRunsJobs(t *testing.T) {
	s := NewScheduler(zerolog.Nop())

	ran := make(chan struct{}, 1)
	require.NoError(t, s.Add("tick", "@every 1s", func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	}))

	s.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Stop(ctx)
	}()

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled job never ran")
	}
}

func TestScheduler_StopWithoutJobs(t *testing.T) {
	s := NewScheduler(zerolog.Nop())
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
