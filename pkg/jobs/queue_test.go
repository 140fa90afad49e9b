package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestQueueProcessesJobs(t *testing.T) {
	done := make(chan string, 2)
	q := NewQueue("test", func(_ context.Context, job Job) error {
		done <- job.ID
		return nil
	}, QueueConfig{Workers: 2})

	require.Error(t, q.Enqueue(Job{ID: "early"}))

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "a"}))
	require.NoError(t, q.Enqueue(Job{ID: "b"}))

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case id := <-done:
			seen[id] = true
		case <-time.After(time.Second):
			t.Fatal("job not processed")
		}
	}
	assert.True(t, seen["a"] && seen["b"])
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var attempts int32
	finished := make(chan int, 1)
	q := NewQueue("retry", func(_ context.Context, job Job) error {
		n := atomic.AddInt32(&attempts, 1)
		if n < 3 {
			return errors.New("transient")
		}
		finished <- job.Attempt
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: 5 * time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()
	require.NoError(t, q.Enqueue(Job{ID: "sweep"}))

	select {
	case attempt := <-finished:
		assert.Equal(t, 2, attempt)
	case <-time.After(2 * time.Second):
		t.Fatal("job never succeeded")
	}
}

func TestQueueStopCancelsPendingRetry(t *testing.T) {
	failed := make(chan struct{}, 1)
	q := NewQueue("stop", func(context.Context, Job) error {
		select {
		case failed <- struct{}{}:
		default:
		}
		return errors.New("always")
	}, QueueConfig{MaxRetries: 5, RetryDelay: time.Hour})

	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{ID: "x"}))
	<-failed
	q.Stop()
}

func TestQueueEverySchedulesJobs(t *testing.T) {
	ticks := make(chan Job, 4)
	q := NewQueue("schedule", func(_ context.Context, job Job) error {
		select {
		case ticks <- job:
		default:
		}
		return nil
	}, QueueConfig{})

	require.Error(t, q.Every(time.Millisecond, func(time.Time) Job { return Job{} }))

	q.Start(context.Background())
	defer q.Stop()
	require.Error(t, q.Every(0, func(time.Time) Job { return Job{} }))
	require.NoError(t, q.Every(5*time.Millisecond, func(at time.Time) Job {
		return Job{ID: at.String(), Type: "tick"}
	}))

	select {
	case job := <-ticks:
		assert.Equal(t, "tick", job.Type)
	case <-time.After(time.Second):
		t.Fatal("scheduled job never ran")
	}
}

func TestQueueTryEnqueueFull(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{}, 1)
	q := NewQueue("full", func(ctx context.Context, _ Job) error {
		started <- struct{}{}
		select {
		case <-block:
		case <-ctx.Done():
		}
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer q.Stop()
	defer close(block)

	require.NoError(t, q.TryEnqueue(Job{ID: "1"}))
	<-started
	require.NoError(t, q.TryEnqueue(Job{ID: "2"}))
	assert.Equal(t, 1, q.Pending())
	assert.ErrorIs(t, q.TryEnqueue(Job{ID: "3"}), ErrQueueFull)
}
