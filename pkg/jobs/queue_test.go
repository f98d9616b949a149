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

func TestQueueProcessesJobs(t *testing.T) {
	var processed int32
	done := make(chan struct{}, 3)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&processed, 1)
		done <- struct{}{}
		return nil
	}, QueueConfig{Workers: 2, BufferSize: 4})

	q.Start(context.Background())
	defer q.Stop()

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(Job{ID: "run-1", Type: "solve"}))
	}
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for jobs to finish")
		}
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&processed))
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("idle", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})

	err := q.Enqueue(Job{ID: "early"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not started")
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var attempts int32
	succeeded := make(chan struct{})
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) == 1 {
			return errors.New("transient")
		}
		close(succeeded)
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: 10 * time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "run-2", Type: "solve"}))

	select {
	case <-succeeded:
	case <-time.After(2 * time.Second):
		t.Fatal("job was never retried")
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestQueueDropsJobAfterMaxRetries(t *testing.T) {
	var attempts int32
	seen := make(chan struct{}, 4)
	q := NewQueue("drop", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&attempts, 1)
		seen <- struct{}{}
		return errors.New("permanent")
	}, QueueConfig{Workers: 1, MaxRetries: 1, RetryDelay: 5 * time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "run-3", Type: "solve"}))

	// Initial attempt plus one retry, then the job is dropped.
	for i := 0; i < 2; i++ {
		select {
		case <-seen:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for attempt")
		}
	}
	select {
	case <-seen:
		t.Fatal("job was retried past the cap")
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestQueueJobTimeoutDropsWithoutRetry(t *testing.T) {
	var attempts int32
	timedOut := make(chan struct{}, 2)
	q := NewQueue("slow", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&attempts, 1)
		<-ctx.Done()
		timedOut <- struct{}{}
		return ctx.Err()
	}, QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: 5 * time.Millisecond, JobTimeout: 20 * time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "run-slow", Type: "solve"}))

	select {
	case <-timedOut:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never observed the deadline")
	}
	// A retry, if one were scheduled, would land well within this window.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestQueueEnqueueFailsWhenFull(t *testing.T) {
	entered := make(chan struct{}, 4)
	release := make(chan struct{})
	q := NewQueue("full", func(ctx context.Context, job Job) error {
		entered <- struct{}{}
		<-release
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})

	q.Start(context.Background())
	defer q.Stop()
	defer close(release)

	require.NoError(t, q.Enqueue(Job{ID: "a"}))
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never picked up the first job")
	}
	require.NoError(t, q.Enqueue(Job{ID: "b"}))

	err := q.Enqueue(Job{ID: "c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "full")
}

func TestQueueStartAndStopAreIdempotent(t *testing.T) {
	q := NewQueue("idem", func(ctx context.Context, job Job) error { return nil }, QueueConfig{Workers: 1})

	q.Start(context.Background())
	q.Start(context.Background())
	q.Stop()
	q.Stop()

	err := q.Enqueue(Job{ID: "late"})
	require.Error(t, err)
}
