package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Hack-Ray/slink/internal/config"
	"github.com/Hack-Ray/slink/internal/generator"
	"github.com/Hack-Ray/slink/internal/handler"
	"github.com/Hack-Ray/slink/internal/middleware"
	"github.com/Hack-Ray/slink/internal/repository"
	"github.com/Hack-Ray/slink/internal/service"
	"github.com/Hack-Ray/slink/internal/validator"
	"go.uber.org/zap"
)

func main() {
	// Загрузка конфига
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Подключение к БД (postgres) + миграции
	db, err := repository.NewPostgresDB(cfg.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	if err := repository.Migrate(repository.DSN(cfg.DB), logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Подключение к Redis
	redis, err := repository.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redis.Close()
	logger.Info("Connected to Redis")

	// Инициализация репозиториев
	urlRepo := repository.NewURLRepository(db)
	cacheRepo := repository.NewCacheRepository(redis, cfg.Cache.URLTTL)
	statsRepo := repository.NewStatsRepository(redis)

	// Генератор кодов и валидатор URL
	codeGen, err := generator.NewHashBasedGenerator(cfg.App.SecretKey)
	if err != nil {
		logger.Fatal("Failed to init code generator", zap.Error(err))
	}
	urlValidator := validator.NewURLValidator(cfg.SafeBrowsing)

	// Инициализация сервиса
	statsReader := service.NewStatsReader(statsRepo, cfg.Stats.WindowDays)
	shortenerService := service.NewShortenerService(
		urlRepo,
		cacheRepo,
		statsRepo,
		statsReader,
		codeGen,
		urlValidator,
		logger,
		cfg.Stats.ExpiresDays,
	)

	// Фоновый воркер агрегации кликов
	statsWorker := service.NewStatsWorker(
		statsRepo,
		urlRepo,
		logger,
		cfg.Stats.BatchSize,
		cfg.Stats.PollInterval,
		cfg.Stats.ErrorBackoff,
	)
	statsWorker.Start()

	// Инициализация middleware
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.BurstSize,
		CleanupInterval:   time.Minute,
	})

	// Настройка роутера
	router := handler.NewRouter(shortenerService, rateLimiter, cfg.App.BaseURL, logger)

	// Запуск сервера
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск в горутине
	go func() {
		logger.Info("Server starting", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Воркер останавливается после сервера: новые клики уже не приходят,
	// текущий батч дорабатывается
	statsWorker.Stop()

	logger.Info("Server exited")
}
