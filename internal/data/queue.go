package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gridpoint/meter-export/internal/core"
)

// QueueConfig holds configuration for the Redis task queue.
type QueueConfig struct {
	// Key is the Redis list key tasks are delivered on.
	Key string
	// MaxAttempts bounds transport-level redelivery; exhausted tasks are
	// dead-lettered on Key + ":dead".
	MaxAttempts int
	// DequeueTimeout is the BRPOP block duration per Dequeue call.
	DequeueTimeout time.Duration
	Logger         *slog.Logger
}

// RedisQueue implements the TaskQueue port over a Redis list.
//
// Delivery is at-least-once: a consumer crash between BRPOP and the terminal
// job update loses the in-flight envelope to the transport but the job record
// remains observable (stuck IN_PROGRESS), and duplicate redeliveries are
// harmless because the worker is idempotent.
type RedisQueue struct {
	client      redis.UniversalClient
	key         string
	deadKey     string
	maxAttempts int
	timeout     time.Duration
	logger      *slog.Logger
}

var _ core.TaskQueue = (*RedisQueue)(nil)

// NewRedisQueue creates a new RedisQueue with the given client and configuration.
func NewRedisQueue(client redis.UniversalClient, cfg QueueConfig) (*RedisQueue, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if cfg.Key == "" {
		return nil, errors.New("queue key is required")
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.DequeueTimeout <= 0 {
		cfg.DequeueTimeout = 5 * time.Second
	}

	return &RedisQueue{
		client:      client,
		key:         cfg.Key,
		deadKey:     cfg.Key + ":dead",
		maxAttempts: cfg.MaxAttempts,
		timeout:     cfg.DequeueTimeout,
		logger:      cfg.Logger,
	}, nil
}

// Enqueue schedules processing for a job id as attempt 1.
func (q *RedisQueue) Enqueue(ctx context.Context, jobID string) error {
	if jobID == "" {
		return errors.New("job id is required")
	}
	return q.push(ctx, core.Task{JobID: jobID, Attempt: 1})
}

// Dequeue blocks up to the configured timeout for the next task.
// Returns (nil, nil) when nothing arrived in time so callers can re-check
// for shutdown between waits.
func (q *RedisQueue) Dequeue(ctx context.Context) (*core.Task, error) {
	vals, err := q.client.BRPop(ctx, q.timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("brpop %s: %w", q.key, err)
	}
	// BRPOP returns [key, value].
	if len(vals) != 2 {
		return nil, fmt.Errorf("brpop %s: unexpected reply length %d", q.key, len(vals))
	}

	var task core.Task
	if err := json.Unmarshal([]byte(vals[1]), &task); err != nil {
		return nil, fmt.Errorf("decode task envelope: %w", err)
	}
	if task.Attempt < 1 {
		task.Attempt = 1
	}
	return &task, nil
}

// Retry redelivers a failed task with an incremented attempt counter, or
// dead-letters it once attempts are exhausted. The boolean reports whether
// the task was requeued.
func (q *RedisQueue) Retry(ctx context.Context, task core.Task) (bool, error) {
	if task.Attempt >= q.maxAttempts {
		payload, err := json.Marshal(task)
		if err != nil {
			return false, fmt.Errorf("encode dead-letter envelope: %w", err)
		}
		if err := q.client.LPush(ctx, q.deadKey, payload).Err(); err != nil {
			return false, fmt.Errorf("lpush %s: %w", q.deadKey, err)
		}
		if q.logger != nil {
			q.logger.WarnContext(ctx, "task dead-lettered",
				"job_id", task.JobID,
				"attempts", task.Attempt,
			)
		}
		return false, nil
	}

	task.Attempt++
	if err := q.push(ctx, task); err != nil {
		return false, err
	}
	return true, nil
}

// Health checks the Redis connection.
func (q *RedisQueue) Health(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

func (q *RedisQueue) push(ctx context.Context, task core.Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode task envelope: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("lpush %s: %w", q.key, err)
	}
	return nil
}
