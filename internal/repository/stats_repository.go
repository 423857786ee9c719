package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Hack-Ray/slink/internal/models"
)

const (
	clickQueueKey      = "url_stats"
	deadLetterQueueKey = "url_stats:failed"
)

// StatsRepository очередь событий кликов и дневные счётчики поверх Redis.
// Очередь url_stats — FIFO-ish список JSON событий, счётчики — hash
// url:stats:{code}:daily с полями YYYYMMDD.
type StatsRepository interface {
	EnqueueClick(ctx context.Context, event *models.ClickEvent) error
	PendingClicks(ctx context.Context, limit int64) ([]string, error)
	RemoveClick(ctx context.Context, rawPayload string) error
	PushDeadLetter(ctx context.Context, event *models.DeadLetterEvent) error
	DeadLetters(ctx context.Context) ([]models.DeadLetterEvent, error)
	IncrDailyCounter(ctx context.Context, code, day string, n int64) (int64, error)
	DailyCounters(ctx context.Context, code string) (map[string]int64, error)
}

type statsRepository struct {
	redis *RedisDB
}

func NewStatsRepository(redis *RedisDB) StatsRepository {
	return &statsRepository{redis: redis}
}

func (r *statsRepository) EnqueueClick(ctx context.Context, event *models.ClickEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal click event: %w", err)
	}

	if err := r.redis.Client.LPush(ctx, clickQueueKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue click event: %w", err)
	}

	return nil
}

func (r *statsRepository) PendingClicks(ctx context.Context, limit int64) ([]string, error) {
	payloads, err := r.redis.Client.LRange(ctx, clickQueueKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to range click queue: %w", err)
	}
	return payloads, nil
}

func (r *statsRepository) RemoveClick(ctx context.Context, rawPayload string) error {
	if err := r.redis.Client.LRem(ctx, clickQueueKey, 1, rawPayload).Err(); err != nil {
		return fmt.Errorf("failed to remove click event: %w", err)
	}
	return nil
}

func (r *statsRepository) PushDeadLetter(ctx context.Context, event *models.DeadLetterEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter: %w", err)
	}

	if err := r.redis.Client.LPush(ctx, deadLetterQueueKey, data).Err(); err != nil {
		return fmt.Errorf("failed to push dead letter: %w", err)
	}

	return nil
}

func (r *statsRepository) DeadLetters(ctx context.Context) ([]models.DeadLetterEvent, error) {
	payloads, err := r.redis.Client.LRange(ctx, deadLetterQueueKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to range dead letter queue: %w", err)
	}

	events := make([]models.DeadLetterEvent, 0, len(payloads))
	for _, payload := range payloads {
		var event models.DeadLetterEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			continue
		}
		events = append(events, event)
	}

	return events, nil
}

func (r *statsRepository) IncrDailyCounter(ctx context.Context, code, day string, n int64) (int64, error) {
	value, err := r.redis.Client.HIncrBy(ctx, r.dailyKey(code), day, n).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment daily counter: %w", err)
	}
	return value, nil
}

func (r *statsRepository) DailyCounters(ctx context.Context, code string) (map[string]int64, error) {
	raw, err := r.redis.Client.HGetAll(ctx, r.dailyKey(code)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get daily counters: %w", err)
	}

	counters := make(map[string]int64, len(raw))
	for day, value := range raw {
		count, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		counters[day] = count
	}

	return counters, nil
}

func (r *statsRepository) dailyKey(code string) string {
	return "url:stats:" + code + ":daily"
}
