package proctor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/repositories"
)

const (
	defaultBatchSize  = 50
	defaultFlushEvery = 5 * time.Second
	popTimeout        = time.Second
)

// Recorder drains the cheat-event queue and persists events in batches. One
// recorder per process is enough; redis BLPOP distributes safely if more
// than one runs.
type Recorder struct {
	client *redis.Client
	repo   repositories.CheatEventRepository
	logger *slog.Logger

	batchSize  int
	flushEvery time.Duration
}

func NewRecorder(client *redis.Client, repo repositories.CheatEventRepository, logger *slog.Logger) *Recorder {
	return &Recorder{
		client:     client,
		repo:       repo,
		logger:     logger,
		batchSize:  defaultBatchSize,
		flushEvery: defaultFlushEvery,
	}
}

// Run blocks until the context is cancelled, flushing whatever is buffered
// on the way out.
func (r *Recorder) Run(ctx context.Context) {
	r.logger.Info("cheat event recorder started",
		"batch_size", r.batchSize,
		"flush_every", r.flushEvery)

	batch := make([]*models.CheatEvent, 0, r.batchSize)
	lastFlush := time.Now()

	for {
		select {
		case <-ctx.Done():
			r.flush(batch)
			r.logger.Info("cheat event recorder stopped")
			return
		default:
		}

		res, err := r.client.BLPop(ctx, popTimeout, queueKey).Result()
		switch {
		case errors.Is(err, redis.Nil):
			// queue idle, fall through to the flush check
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			r.flush(batch)
			return
		case err != nil:
			r.logger.Error("cheat queue pop failed", "error", err)
			time.Sleep(time.Second)
		default:
			if event := decodeEvent(res[1], r.logger); event != nil {
				batch = append(batch, event)
			}
		}

		if len(batch) >= r.batchSize || (len(batch) > 0 && time.Since(lastFlush) >= r.flushEvery) {
			r.flush(batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}
	}
}

func (r *Recorder) flush(batch []*models.CheatEvent) {
	if len(batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := r.repo.CreateBatch(ctx, batch); err != nil {
		r.logger.Error("failed to persist cheat events",
			"count", len(batch),
			"error", err)
		return
	}
	r.logger.Debug("cheat events persisted", "count", len(batch))
}

func decodeEvent(raw string, logger *slog.Logger) *models.CheatEvent {
	var event models.CheatEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		logger.Warn("dropping undecodable cheat event", "error", err)
		return nil
	}
	return &event
}
