package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReconciler struct {
	calls atomic.Int32
	limit atomic.Int32
}

func (r *countingReconciler) ReconcileConversions(_ context.Context, limit int) (int, error) {
	r.calls.Add(1)
	r.limit.Store(int32(limit))
	return 2, nil
}

type failingPurger struct{}

func (failingPurger) PurgeExpired(context.Context) (int64, error) {
	return 0, errors.New("db down")
}

func TestRunNowWithoutDatabase(t *testing.T) {
	s := New(nil)
	details, err := s.RunNow(context.Background(), "adhoc", func(context.Context) (any, error) {
		return map[string]any{"ok": true}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, details)
}

func TestRunNowPropagatesError(t *testing.T) {
	s := New(nil)
	s.ScheduleNotificationPurge(failingPurger{}, time.Hour)
	require.Len(t, s.schedules, 1)

	details, err := s.RunNow(context.Background(), JobNotificationPurge, s.schedules[0].run)
	assert.EqualError(t, err, "db down")
	assert.Equal(t, map[string]any{"deleted": int64(0)}, details)
}

func TestEveryIgnoresDisabledInterval(t *testing.T) {
	s := New(nil)
	s.ScheduleConversionReconcile(&countingReconciler{}, 0)
	assert.Empty(t, s.schedules)
}

func TestScheduledJobRuns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &countingReconciler{}
	s := New(nil)
	s.ScheduleConversionReconcile(r, 10*time.Millisecond)
	s.Start(ctx)

	require.Eventually(t, func() bool { return r.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(reconcileBatch), r.limit.Load())
}

func TestEnqueueReportsFullQueue(t *testing.T) {
	s := New(nil)
	noop := func(context.Context) (any, error) { return nil, nil }
	for range queueSize {
		require.True(t, s.Enqueue("noop", noop))
	}
	assert.False(t, s.Enqueue("noop", noop))
}
