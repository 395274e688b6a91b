package proctor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
)

// queueKey is the redis list the recorder drains.
const queueKey = "proctor:cheat_events"

// RedisQueue pushes proctoring observations onto a redis list so request
// handlers never wait on the database for them.
type RedisQueue struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisQueue(client *redis.Client, logger *slog.Logger) *RedisQueue {
	return &RedisQueue{client: client, logger: logger}
}

func (q *RedisQueue) Enqueue(ctx context.Context, event *models.CheatEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal cheat event: %w", err)
	}
	if err := q.client.LPush(ctx, queueKey, payload).Err(); err != nil {
		return fmt.Errorf("enqueue cheat event: %w", err)
	}
	return nil
}

// MemoryQueue is an in-process sink for tests and broker-less local runs.
type MemoryQueue struct {
	mu     sync.Mutex
	events []*models.CheatEvent
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

func (q *MemoryQueue) Enqueue(_ context.Context, event *models.CheatEvent) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, event)
	return nil
}

func (q *MemoryQueue) Events() []*models.CheatEvent {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*models.CheatEvent(nil), q.events...)
}
