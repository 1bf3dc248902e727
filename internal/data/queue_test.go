package data

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridpoint/meter-export/internal/core"
	"github.com/gridpoint/meter-export/internal/testutil"
)

func newTestQueue(t *testing.T, maxAttempts int) *RedisQueue {
	t.Helper()
	client := testutil.SetupTestRedis(t)

	key := fmt.Sprintf("meter-export:test:%s:%d", t.Name(), time.Now().UnixNano())
	t.Cleanup(func() {
		client.Del(context.Background(), key, key+":dead")
	})

	q, err := NewRedisQueue(client, QueueConfig{
		Key:            key,
		MaxAttempts:    maxAttempts,
		DequeueTimeout: time.Second,
	})
	require.NoError(t, err)
	return q
}

func TestRedisQueueEnqueueDequeue(t *testing.T) {
	q := newTestQueue(t, 3)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, "job-a"))
	require.NoError(t, q.Enqueue(ctx, "job-b"))

	first, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "job-a", first.JobID, "delivery order is FIFO")
	assert.Equal(t, 1, first.Attempt)

	second, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, "job-b", second.JobID)
}

func TestRedisQueueDequeueTimeout(t *testing.T) {
	q := newTestQueue(t, 3)

	task, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Nil(t, task, "an empty queue yields (nil, nil) after the block timeout")
}

func TestRedisQueueRetryIncrementsAttempt(t *testing.T) {
	q := newTestQueue(t, 3)
	ctx := context.Background()

	requeued, err := q.Retry(ctx, core.Task{JobID: "job-a", Attempt: 1})
	require.NoError(t, err)
	assert.True(t, requeued)

	task, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, "job-a", task.JobID)
	assert.Equal(t, 2, task.Attempt)
}

func TestRedisQueueRetryDeadLettersExhaustedTask(t *testing.T) {
	q := newTestQueue(t, 2)
	ctx := context.Background()

	requeued, err := q.Retry(ctx, core.Task{JobID: "job-a", Attempt: 2})
	require.NoError(t, err)
	assert.False(t, requeued)

	// Nothing redelivered on the main key.
	task, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Nil(t, task)

	// The envelope landed on the dead-letter list instead.
	n, err := q.client.LLen(ctx, q.deadKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRedisQueueHealth(t *testing.T) {
	q := newTestQueue(t, 3)
	require.NoError(t, q.Health(context.Background()))
}

func TestNewRedisQueueValidation(t *testing.T) {
	client := testutil.SetupTestRedis(t)

	_, err := NewRedisQueue(nil, QueueConfig{Key: "k"})
	require.Error(t, err)

	_, err = NewRedisQueue(client, QueueConfig{})
	require.Error(t, err)

	q, err := NewRedisQueue(client, QueueConfig{Key: "k", MaxAttempts: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, q.maxAttempts, "max attempts floor is 1")
}

func TestRedisQueueEnqueueRequiresJobID(t *testing.T) {
	q := newTestQueue(t, 3)
	require.Error(t, q.Enqueue(context.Background(), ""))
}
