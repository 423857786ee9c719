package models

import (
	"time"
)

type ShortURL struct {
	ID          int64     `json:"id"`
	ShortCode   string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	IsActive    bool      `json:"is_active"`
	ClickCount  int64     `json:"click_count"` // Денормализованный счётчик, не источник правды для статистики
}

// CacheEntry значение ключа url:{code} в Redis
type CacheEntry struct {
	OriginalURL string    `json:"original_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}
