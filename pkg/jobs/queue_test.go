package jobs

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var calls int32
	handler := func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return fmt.Errorf("transient failure")
		}
		return nil
	}

	q := NewQueue("test", handler, QueueConfig{
		Workers:    1,
		MaxRetries: 5,
		RetryDelay: time.Millisecond,
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1", Type: "test"}))

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == 3
	}, 2*time.Second, 5*time.Millisecond)
}

func TestQueueAbandonsAfterRetryBudget(t *testing.T) {
	var calls int32
	handler := func(ctx context.Context, job Job) error {
		atomic.AddInt32(&calls, 1)
		return fmt.Errorf("permanent failure")
	}

	q := NewQueue("test", handler, QueueConfig{
		Workers:    1,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1", Type: "test"}))

	// First run plus two retries, then the job is dropped.
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == 3
	}, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQueueEnqueueBeforeStartFails(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	err := q.Enqueue(Job{ID: "job-1"})
	require.Error(t, err)
}

func TestQueueBackoffGrowsAndCaps(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, job Job) error { return nil }, QueueConfig{
		RetryDelay:    time.Second,
		MaxRetryDelay: 5 * time.Second,
	})

	assert.Equal(t, time.Second, q.backoff(1))
	assert.Equal(t, 2*time.Second, q.backoff(2))
	assert.Equal(t, 4*time.Second, q.backoff(3))
	assert.Equal(t, 5*time.Second, q.backoff(4))
	assert.Equal(t, 5*time.Second, q.backoff(10))
}
