package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Hack-Ray/slink/internal/generator"
	"github.com/Hack-Ray/slink/internal/models"
	"github.com/Hack-Ray/slink/internal/repository"
	"github.com/Hack-Ray/slink/internal/validator"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Ошибки сервиса
var ErrCodeCollision = errors.New("сгенерированный код занят другим URL")

// Параметры retry постановки клика в очередь
const (
	enqueueMaxRetries  = 3
	enqueueMaxElapsed  = 30 * time.Second
	enqueueInitialWait = 100 * time.Millisecond
)

// ShortenerService интерфейс движка резолва коротких ссылок
type ShortenerService interface {
	CreateShortURL(ctx context.Context, originalURL string) (*models.ShortURL, error)
	ResolveShortURL(ctx context.Context, code string) (string, error)
	GetURLStats(ctx context.Context, code string) (*models.URLStats, error)
}

type shortenerService struct {
	urlRepo     repository.URLRepository
	cacheRepo   repository.CacheRepository
	statsRepo   repository.StatsRepository
	statsReader *StatsReader
	generator   generator.ShortCodeGenerator
	validator   validator.URLValidator
	logger      *zap.Logger
	expiresDays int
}

func NewShortenerService(
	urlRepo repository.URLRepository,
	cacheRepo repository.CacheRepository,
	statsRepo repository.StatsRepository,
	statsReader *StatsReader,
	gen generator.ShortCodeGenerator,
	urlValidator validator.URLValidator,
	logger *zap.Logger,
	expiresDays int,
) ShortenerService {
	return &shortenerService{
		urlRepo:     urlRepo,
		cacheRepo:   cacheRepo,
		statsRepo:   statsRepo,
		statsReader: statsReader,
		generator:   gen,
		validator:   urlValidator,
		logger:      logger,
		expiresDays: expiresDays,
	}
}

// CreateShortURL создаёт короткую ссылку. Идемпотентно: для URL с живой
// записью возвращается существующий код. Гонка check-then-create между
// конкурентными запросами допустима — два активных кода на один URL не
// ломают резолв, оба указывают на тот же URL.
func (s *shortenerService) CreateShortURL(ctx context.Context, originalURL string) (*models.ShortURL, error) {
	if err := s.validator.Validate(ctx, originalURL); err != nil {
		return nil, err
	}

	existing, err := s.urlRepo.GetByOriginalURL(ctx, originalURL)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrURLNotFound) {
		return nil, err
	}

	code, err := s.generator.Generate(originalURL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate short code: %w", err)
	}

	// Генератору не доверяем: код проверяется по хранилищу до записи.
	// Чужой маппинг никогда не перезаписывается.
	occupied, err := s.urlRepo.GetByShortCode(ctx, code)
	if err == nil {
		if occupied.OriginalURL != originalURL {
			return nil, ErrCodeCollision
		}
		return occupied, nil
	}
	if !errors.Is(err, repository.ErrURLNotFound) {
		return nil, err
	}

	url, err := s.urlRepo.Create(ctx, originalURL, code, s.expiresDays)
	if err != nil {
		if errors.Is(err, repository.ErrCodeExists) {
			// Код успел занять конкурент (или просроченная запись держит
			// уникальный индекс) — для вызывающего это коллизия
			return nil, ErrCodeCollision
		}
		return nil, err
	}

	// Прогрев кэша, ошибка не прерывает создание
	if err := s.cacheRepo.Set(ctx, url.ShortCode, url.OriginalURL, url.ExpiresAt); err != nil {
		s.logger.Warn("Failed to warm cache on create",
			zap.String("short_code", url.ShortCode),
			zap.Error(err),
		)
	}

	return url, nil
}

// ResolveShortURL резолвит код в оригинальный URL по схеме cache-aside:
// сначала кэш, на промахе — база с репопуляцией кэша. Каждый успешный
// резолв ставит событие клика в очередь статистики.
func (s *shortenerService) ResolveShortURL(ctx context.Context, code string) (string, error) {
	entry, err := s.cacheRepo.Get(ctx, code)
	if err == nil {
		s.enqueueClick(ctx, code)
		return entry.OriginalURL, nil
	}
	if !errors.Is(err, repository.ErrCacheMiss) {
		// Кэш недоступен — идём в базу, это деградация скорости, не отказ
		s.logger.Warn("Cache lookup failed", zap.String("short_code", code), zap.Error(err))
	}

	url, err := s.urlRepo.GetByShortCode(ctx, code)
	if err != nil {
		return "", err
	}

	if err := s.cacheRepo.Set(ctx, code, url.OriginalURL, url.ExpiresAt); err != nil {
		s.logger.Warn("Failed to repopulate cache",
			zap.String("short_code", code),
			zap.Error(err),
		)
	}

	s.enqueueClick(ctx, code)

	return url.OriginalURL, nil
}

// GetURLStats возвращает дневную серию кликов. Существование записи
// проверяется по базе, сами счётчики читает StatsReader.
func (s *shortenerService) GetURLStats(ctx context.Context, code string) (*models.URLStats, error) {
	if _, err := s.urlRepo.GetByShortCode(ctx, code); err != nil {
		return nil, err
	}

	return s.statsReader.Read(ctx, code)
}

// enqueueClick ставит событие клика в очередь с экспоненциальным retry.
// Ошибка логируется и глотается: резолв обязан вернуть URL даже если
// статистика не записалась.
func (s *shortenerService) enqueueClick(ctx context.Context, code string) {
	event := &models.ClickEvent{
		ShortCode: code,
		Timestamp: time.Now().UTC(),
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = enqueueInitialWait
	policy.MaxElapsedTime = enqueueMaxElapsed

	operation := func() error {
		return s.statsRepo.EnqueueClick(ctx, event)
	}

	err := backoff.Retry(
		operation,
		backoff.WithContext(backoff.WithMaxRetries(policy, enqueueMaxRetries), ctx),
	)
	if err != nil {
		s.logger.Warn("Failed to enqueue click event",
			zap.String("short_code", code),
			zap.Error(err),
		)
	}
}
