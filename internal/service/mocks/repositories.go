package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Hack-Ray/slink/internal/models"
	"github.com/Hack-Ray/slink/internal/repository"
)

// MockURLRepository implements repository.URLRepository for testing
type MockURLRepository struct {
	mu     sync.RWMutex
	urls   map[string]*models.ShortURL // short_code -> url
	nextID int64

	CreateErr error // when set, Create fails with this error
}

func NewMockURLRepository() *MockURLRepository {
	return &MockURLRepository{
		urls:   make(map[string]*models.ShortURL),
		nextID: 1,
	}
}

func (m *MockURLRepository) GetByOriginalURL(ctx context.Context, originalURL string) (*models.ShortURL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, url := range m.urls {
		if url.OriginalURL == originalURL && m.active(url) {
			return url, nil
		}
	}
	return nil, repository.ErrURLNotFound
}

func (m *MockURLRepository) GetByShortCode(ctx context.Context, code string) (*models.ShortURL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	url, exists := m.urls[code]
	if !exists || !m.active(url) {
		return nil, repository.ErrURLNotFound
	}
	return url, nil
}

func (m *MockURLRepository) Create(ctx context.Context, originalURL, code string, ttlDays int) (*models.ShortURL, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return nil, m.CreateErr
	}

	if _, exists := m.urls[code]; exists {
		return nil, repository.ErrCodeExists
	}

	url := &models.ShortURL{
		ID:          m.nextID,
		ShortCode:   code,
		OriginalURL: originalURL,
		CreatedAt:   time.Now().UTC(),
		ExpiresAt:   time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
		IsActive:    true,
	}
	m.nextID++
	m.urls[code] = url
	return url, nil
}

func (m *MockURLRepository) IncrementClickCount(ctx context.Context, code string, n int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	url, exists := m.urls[code]
	if !exists {
		return repository.ErrURLNotFound
	}
	url.ClickCount += n
	return nil
}

// Expire forces a record past its expiry
func (m *MockURLRepository) Expire(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if url, exists := m.urls[code]; exists {
		url.ExpiresAt = time.Now().UTC().Add(-time.Hour)
	}
}

func (m *MockURLRepository) active(url *models.ShortURL) bool {
	return url.IsActive && url.ExpiresAt.After(time.Now().UTC())
}

// MockCacheRepository implements repository.CacheRepository for testing
type MockCacheRepository struct {
	mu      sync.RWMutex
	entries map[string]*models.CacheEntry

	GetCalls int // cache lookups, to assert hit/miss paths
	SetCalls int
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		entries: make(map[string]*models.CacheEntry),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, code string) (*models.CacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetCalls++
	entry, exists := m.entries[code]
	if !exists {
		return nil, repository.ErrCacheMiss
	}
	return entry, nil
}

func (m *MockCacheRepository) Set(ctx context.Context, code, originalURL string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SetCalls++
	m.entries[code] = &models.CacheEntry{
		OriginalURL: originalURL,
		ExpiresAt:   expiresAt,
	}
	return nil
}

// Evict drops a cached entry, simulating TTL expiry
func (m *MockCacheRepository) Evict(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, code)
}

// MockStatsRepository implements repository.StatsRepository for testing.
// The queue is a slice of raw payloads, counters live in a nested map.
type MockStatsRepository struct {
	mu          sync.RWMutex
	queue       []string
	deadLetters []models.DeadLetterEvent
	counters    map[string]map[string]int64 // code -> day -> count

	enqueueErr error
	pendingErr error
	incrErr    error
}

func NewMockStatsRepository() *MockStatsRepository {
	return &MockStatsRepository{
		counters: make(map[string]map[string]int64),
	}
}

func (m *MockStatsRepository) EnqueueClick(ctx context.Context, event *models.ClickEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.enqueueErr != nil {
		return m.enqueueErr
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	m.queue = append(m.queue, string(data))
	return nil
}

// EnqueueRaw puts an arbitrary payload on the queue, bypassing marshalling
func (m *MockStatsRepository) EnqueueRaw(payload string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, payload)
}

func (m *MockStatsRepository) PendingClicks(ctx context.Context, limit int64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.pendingErr != nil {
		return nil, m.pendingErr
	}

	n := int64(len(m.queue))
	if n > limit {
		n = limit
	}
	batch := make([]string, n)
	copy(batch, m.queue[:n])
	return batch, nil
}

func (m *MockStatsRepository) RemoveClick(ctx context.Context, rawPayload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, payload := range m.queue {
		if payload == rawPayload {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *MockStatsRepository) PushDeadLetter(ctx context.Context, event *models.DeadLetterEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deadLetters = append(m.deadLetters, *event)
	return nil
}

func (m *MockStatsRepository) DeadLetters(ctx context.Context) ([]models.DeadLetterEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	letters := make([]models.DeadLetterEvent, len(m.deadLetters))
	copy(letters, m.deadLetters)
	return letters, nil
}

func (m *MockStatsRepository) IncrDailyCounter(ctx context.Context, code, day string, n int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.incrErr != nil {
		return 0, m.incrErr
	}

	if m.counters[code] == nil {
		m.counters[code] = make(map[string]int64)
	}
	m.counters[code][day] += n
	return m.counters[code][day], nil
}

func (m *MockStatsRepository) DailyCounters(ctx context.Context, code string) (map[string]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counters := make(map[string]int64, len(m.counters[code]))
	for day, count := range m.counters[code] {
		counters[day] = count
	}
	return counters, nil
}

// QueueLen returns the number of pending payloads
func (m *MockStatsRepository) QueueLen() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.queue)
}

// Failure injection, safe for use while the worker is running

func (m *MockStatsRepository) SetEnqueueErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enqueueErr = err
}

func (m *MockStatsRepository) SetPendingErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendingErr = err
}

func (m *MockStatsRepository) SetIncrErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incrErr = err
}
