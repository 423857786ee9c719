package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Hack-Ray/slink/internal/config"
	"github.com/Hack-Ray/slink/internal/generator"
	"github.com/Hack-Ray/slink/internal/service"
	"github.com/Hack-Ray/slink/internal/service/mocks"
	"github.com/Hack-Ray/slink/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	service   service.ShortenerService
	urlRepo   *mocks.MockURLRepository
	cacheRepo *mocks.MockCacheRepository
	statsRepo *mocks.MockStatsRepository
}

// setupTestService создаёт тестовое окружение с моковыми репозиториями.
// Валидатор настоящий (без API ключа — только проверка формата).
func setupTestService(t *testing.T, gen generator.ShortCodeGenerator) *testEnv {
	t.Helper()

	urlRepo := mocks.NewMockURLRepository()
	cacheRepo := mocks.NewMockCacheRepository()
	statsRepo := mocks.NewMockStatsRepository()
	logger := zap.NewNop()

	if gen == nil {
		var err error
		gen, err = generator.NewHashBasedGenerator("test-salt")
		require.NoError(t, err)
	}

	urlValidator := validator.NewURLValidator(validatorConfig())
	statsReader := service.NewStatsReader(statsRepo, 7)

	svc := service.NewShortenerService(
		urlRepo, cacheRepo, statsRepo, statsReader,
		gen, urlValidator, logger, 30,
	)

	return &testEnv{
		service:   svc,
		urlRepo:   urlRepo,
		cacheRepo: cacheRepo,
		statsRepo: statsRepo,
	}
}

// validatorConfig конфиг валидатора без Safe Browsing ключа
func validatorConfig() config.SafeBrowsingConfig {
	return config.SafeBrowsingConfig{
		Timeout: time.Second,
	}
}

// fixedGenerator всегда возвращает один и тот же код — для проверки коллизий
type fixedGenerator struct {
	code string
}

func (g *fixedGenerator) Generate(string) (string, error) {
	return g.code, nil
}

// TestShortenerService_CreateShortURL_Success проверяет успешное создание ссылки
func TestShortenerService_CreateShortURL_Success(t *testing.T) {
	env := setupTestService(t, nil)
	ctx := context.Background()

	url, err := env.service.CreateShortURL(ctx, "https://example.com/test")

	require.NoError(t, err)
	assert.NotEmpty(t, url.ShortCode)
	assert.Equal(t, "https://example.com/test", url.OriginalURL)
	assert.True(t, url.ExpiresAt.After(time.Now()))
}

// TestShortenerService_CreateShortURL_Idempotent проверяет, что повторное
// создание для того же URL возвращает тот же код
func TestShortenerService_CreateShortURL_Idempotent(t *testing.T) {
	env := setupTestService(t, nil)
	ctx := context.Background()

	first, err := env.service.CreateShortURL(ctx, "https://example.com/same")
	require.NoError(t, err)

	second, err := env.service.CreateShortURL(ctx, "https://example.com/same")
	require.NoError(t, err)

	assert.Equal(t, first.ShortCode, second.ShortCode)
	assert.Equal(t, first.ID, second.ID)
}

// TestShortenerService_CreateShortURL_InvalidURL проверяет отклонение невалидных URL
func TestShortenerService_CreateShortURL_InvalidURL(t *testing.T) {
	env := setupTestService(t, nil)
	ctx := context.Background()

	invalidURLs := []string{
		"not-a-url",
		"ftp://example.com",
		"",
		"example.com",
		"https://",
	}

	for _, rawURL := range invalidURLs {
		url, err := env.service.CreateShortURL(ctx, rawURL)

		assert.Error(t, err, "URL должен быть невалидным: %s", rawURL)
		assert.ErrorIs(t, err, validator.ErrInvalidURL)
		assert.Nil(t, url)
	}
}

// TestShortenerService_CreateShortURL_Collision проверяет, что занятый код
// с другим URL даёт ошибку коллизии, а не перезапись чужого маппинга
func TestShortenerService_CreateShortURL_Collision(t *testing.T) {
	env := setupTestService(t, &fixedGenerator{code: "clash1"})
	ctx := context.Background()

	first, err := env.service.CreateShortURL(ctx, "https://example.com/one")
	require.NoError(t, err)
	require.Equal(t, "clash1", first.ShortCode)

	url, err := env.service.CreateShortURL(ctx, "https://example.com/two")

	assert.ErrorIs(t, err, service.ErrCodeCollision)
	assert.Nil(t, url)

	// Исходный маппинг не тронут
	kept, err := env.urlRepo.GetByShortCode(ctx, "clash1")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/one", kept.OriginalURL)
}

// TestShortenerService_CreateShortURL_WarmsCache проверяет прогрев кэша при создании
func TestShortenerService_CreateShortURL_WarmsCache(t *testing.T) {
	env := setupTestService(t, nil)
	ctx := context.Background()

	url, err := env.service.CreateShortURL(ctx, "https://example.com/cached")
	require.NoError(t, err)

	entry, err := env.cacheRepo.Get(ctx, url.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, url.OriginalURL, entry.OriginalURL)
}

// TestShortenerService_ResolveShortURL_FromCache проверяет резолв из кэша
func TestShortenerService_ResolveShortURL_FromCache(t *testing.T) {
	env := setupTestService(t, nil)
	ctx := context.Background()

	created, err := env.service.CreateShortURL(ctx, "https://example.com/hit")
	require.NoError(t, err)

	resolved, err := env.service.ResolveShortURL(ctx, created.ShortCode)

	require.NoError(t, err)
	assert.Equal(t, "https://example.com/hit", resolved)
	// Успешный резолв ставит событие клика в очередь
	assert.Equal(t, 1, env.statsRepo.QueueLen())
}

// TestShortenerService_ResolveShortURL_CacheMiss проверяет фолбэк в базу
// с репопуляцией кэша
func TestShortenerService_ResolveShortURL_CacheMiss(t *testing.T) {
	env := setupTestService(t, nil)
	ctx := context.Background()

	created, err := env.service.CreateShortURL(ctx, "https://example.com/miss")
	require.NoError(t, err)

	// Симулируем вытеснение по TTL
	env.cacheRepo.Evict(created.ShortCode)

	resolved, err := env.service.ResolveShortURL(ctx, created.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/miss", resolved)

	// Кэш репопулирован из базы
	entry, err := env.cacheRepo.Get(ctx, created.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/miss", entry.OriginalURL)
}

// TestShortenerService_ResolveShortURL_NotFound проверяет резолв несуществующего кода
func TestShortenerService_ResolveShortURL_NotFound(t *testing.T) {
	env := setupTestService(t, nil)
	ctx := context.Background()

	resolved, err := env.service.ResolveShortURL(ctx, "doesnotexist")

	assert.Error(t, err)
	assert.Empty(t, resolved)
	// Неуспешный резолв клик не ставит
	assert.Equal(t, 0, env.statsRepo.QueueLen())
}

// TestShortenerService_ResolveShortURL_Expired проверяет, что просроченная
// запись неотличима от несуществующей
func TestShortenerService_ResolveShortURL_Expired(t *testing.T) {
	env := setupTestService(t, nil)
	ctx := context.Background()

	created, err := env.service.CreateShortURL(ctx, "https://example.com/expired")
	require.NoError(t, err)

	env.urlRepo.Expire(created.ShortCode)
	env.cacheRepo.Evict(created.ShortCode)

	_, err = env.service.ResolveShortURL(ctx, created.ShortCode)
	assert.Error(t, err)
}

// TestShortenerService_ResolveShortURL_EnqueueFailure проверяет, что отказ
// очереди статистики не ломает резолв: URL всё равно возвращается
func TestShortenerService_ResolveShortURL_EnqueueFailure(t *testing.T) {
	env := setupTestService(t, nil)
	ctx := context.Background()

	created, err := env.service.CreateShortURL(ctx, "https://example.com/degraded")
	require.NoError(t, err)

	env.statsRepo.SetEnqueueErr(errors.New("redis down"))

	resolved, err := env.service.ResolveShortURL(ctx, created.ShortCode)

	require.NoError(t, err)
	assert.Equal(t, "https://example.com/degraded", resolved)
}

// TestShortenerService_GetURLStats_NotFound проверяет статистику несуществующего кода
func TestShortenerService_GetURLStats_NotFound(t *testing.T) {
	env := setupTestService(t, nil)
	ctx := context.Background()

	stats, err := env.service.GetURLStats(ctx, "doesnotexist")

	assert.Error(t, err)
	assert.Nil(t, stats)
}

// TestShortenerService_GetURLStats_Window проверяет полноту окна статистики:
// ровно 7 дней, пропущенные дни заполнены нулями
func TestShortenerService_GetURLStats_Window(t *testing.T) {
	env := setupTestService(t, nil)
	ctx := context.Background()

	created, err := env.service.CreateShortURL(ctx, "https://example.com/stats")
	require.NoError(t, err)

	today := time.Now().UTC().Format("20060102")
	_, err = env.statsRepo.IncrDailyCounter(ctx, created.ShortCode, today, 3)
	require.NoError(t, err)

	stats, err := env.service.GetURLStats(ctx, created.ShortCode)
	require.NoError(t, err)

	require.Len(t, stats.Clicks, 7)
	assert.Equal(t, created.ShortCode, stats.ShortCode)

	var total int64
	for _, day := range stats.Clicks {
		assert.GreaterOrEqual(t, day.Clicks, int64(0))
		total += day.Clicks
	}
	assert.Equal(t, int64(3), total)
	// Сегодняшний день — последний элемент серии
	assert.Equal(t, today, stats.Clicks[6].Date)
	assert.Equal(t, int64(3), stats.Clicks[6].Clicks)
}
