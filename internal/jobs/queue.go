// Package jobs is a minimal redis-backed job queue. Jobs are file ids pushed
// onto a list; the worker pops them and runs the checksum pass. When redis
// is disabled the producer falls back to processing synchronously.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"meritboard/internal/config"
)

var ErrQueueDisabled = errors.New("job queue is disabled")

// Queue pushes and pops file processing jobs
type Queue struct {
	client *redis.Client
	key    string
}

// NewQueue creates a queue from the redis configuration. With redis disabled
// it returns a queue whose Enqueue always reports ErrQueueDisabled.
func NewQueue(cfg *config.RedisConfig, key string) *Queue {
	if !cfg.Enabled {
		return &Queue{key: key}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Queue{client: client, key: key}
}

// Enabled reports whether a redis client is attached
func (q *Queue) Enabled() bool {
	return q.client != nil
}

// Enqueue pushes a file id onto the queue
func (q *Queue) Enqueue(ctx context.Context, fileID string) error {
	if q.client == nil {
		return ErrQueueDisabled
	}
	return q.client.RPush(ctx, q.key, fileID).Err()
}

// Dequeue blocks up to timeout for the next file id. An empty string with a
// nil error means the timeout elapsed.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	if q.client == nil {
		return "", ErrQueueDisabled
	}
	res, err := q.client.BLPop(ctx, timeout, q.key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	// BLPOP returns [key, value]
	if len(res) != 2 {
		return "", nil
	}
	return res[1], nil
}

// Close releases the redis connection
func (q *Queue) Close() error {
	if q.client == nil {
		return nil
	}
	return q.client.Close()
}
