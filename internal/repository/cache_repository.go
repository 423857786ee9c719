package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Hack-Ray/slink/internal/models"
	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

// CacheRepository быстрый слой url:{code} -> {original_url, expires_at}.
// TTL — подсказка вытеснения, а не механизм корректности: запись никогда
// не живёт дольше остатка жизни самой ссылки (TTL обрезается по expires_at).
type CacheRepository interface {
	Get(ctx context.Context, code string) (*models.CacheEntry, error)
	Set(ctx context.Context, code, originalURL string, expiresAt time.Time) error
}

type cacheRepository struct {
	redis *RedisDB
	ttl   time.Duration
}

func NewCacheRepository(redis *RedisDB, ttl time.Duration) CacheRepository {
	return &cacheRepository{redis: redis, ttl: ttl}
}

func (r *cacheRepository) Get(ctx context.Context, code string) (*models.CacheEntry, error) {
	data, err := r.redis.Client.Get(ctx, r.key(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}

	return &entry, nil
}

func (r *cacheRepository) Set(ctx context.Context, code, originalURL string, expiresAt time.Time) error {
	entry := models.CacheEntry{
		OriginalURL: originalURL,
		ExpiresAt:   expiresAt,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	ttl := r.ttl
	if remaining := time.Until(expiresAt); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return nil // запись уже просрочена, кэшировать нечего
	}

	return r.redis.Client.Set(ctx, r.key(code), data, ttl).Err()
}

func (r *cacheRepository) key(code string) string {
	return "url:" + code
}
