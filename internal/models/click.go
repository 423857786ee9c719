package models

import (
	"time"
)

// ClickEvent событие перехода по короткой ссылке.
// Timestamp — время самого события, не время постановки в очередь.
type ClickEvent struct {
	ShortCode string    `json:"short_code"`
	Timestamp time.Time `json:"timestamp"`
}

// DeadLetterEvent необработанное событие из очереди url_stats.
// Если payload не распарсился, он сохраняется как есть в Payload.
type DeadLetterEvent struct {
	ShortCode string `json:"short_code,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   string `json:"payload,omitempty"`
	Error     string `json:"error"`
	Processed bool   `json:"processed"`
}

type DailyClicks struct {
	Date   string `json:"date"` // YYYYMMDD
	Clicks int64  `json:"clicks"`
}

type URLStats struct {
	ShortCode string        `json:"short_code"`
	Clicks    []DailyClicks `json:"clicks"`
}
