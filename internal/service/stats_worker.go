package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Hack-Ray/slink/internal/models"
	"github.com/Hack-Ray/slink/internal/repository"
	"go.uber.org/zap"
)

const dayBucketFormat = "20060102" // YYYYMMDD, UTC

// StatsWorker фоновый агрегатор кликов: единственный поток на процесс,
// батчами вычерпывает очередь url_stats и инкрементирует дневные счётчики.
// Необработанные события уходят в dead-letter список, не теряются.
type StatsWorker struct {
	statsRepo    repository.StatsRepository
	urlRepo      repository.URLRepository
	logger       *zap.Logger
	batchSize    int64
	pollInterval time.Duration // Пауза при пустой очереди
	errorBackoff time.Duration // Пауза после ошибки выборки батча
	wg           sync.WaitGroup
	ctx          context.Context
	cancel       context.CancelFunc
}

func NewStatsWorker(
	statsRepo repository.StatsRepository,
	urlRepo repository.URLRepository,
	logger *zap.Logger,
	batchSize int,
	pollInterval, errorBackoff time.Duration,
) *StatsWorker {
	return &StatsWorker{
		statsRepo:    statsRepo,
		urlRepo:      urlRepo,
		logger:       logger,
		batchSize:    int64(batchSize),
		pollInterval: pollInterval,
		errorBackoff: errorBackoff,
	}
}

// Start запускает цикл агрегации
func (w *StatsWorker) Start() {
	w.ctx, w.cancel = context.WithCancel(context.Background())

	w.logger.Info("Запуск воркера агрегации кликов",
		zap.Int64("batch_size", w.batchSize),
		zap.Duration("poll_interval", w.pollInterval),
	)

	w.wg.Add(1)
	go w.run()
}

// Stop сигналит воркеру остановиться и ждёт завершения текущего батча.
// Событие никогда не бросается полуобработанным: оно либо агрегировано,
// либо в dead-letter, либо осталось нетронутым в очереди.
func (w *StatsWorker) Stop() {
	w.logger.Info("Остановка воркера агрегации...")
	w.cancel()
	w.wg.Wait()
	w.logger.Info("Воркер агрегации остановлен")
}

// run основной цикл: Idle -> Draining-Batch -> Idle | BackingOff.
// Сигнал остановки проверяется в начале каждой итерации, начатый батч
// всегда дорабатывается до конца.
func (w *StatsWorker) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		processed, err := w.drainBatch()
		switch {
		case err != nil:
			w.logger.Error("Ошибка выборки батча кликов", zap.Error(err))
			if !w.sleep(w.errorBackoff) {
				return
			}
		case processed == 0:
			if !w.sleep(w.pollInterval) {
				return
			}
		}
	}
}

// drainBatch выбирает до batchSize событий и обрабатывает каждое.
// Ошибка возвращается только для выборки целого батча; ошибки отдельных
// событий разруливаются через dead-letter и цикл не роняют.
func (w *StatsWorker) drainBatch() (int, error) {
	// Батч дорабатывается даже после сигнала остановки,
	// поэтому фоновый контекст, а не w.ctx
	ctx := context.Background()

	payloads, err := w.statsRepo.PendingClicks(ctx, w.batchSize)
	if err != nil {
		return 0, err
	}
	if len(payloads) == 0 {
		return 0, nil
	}

	// Суммарные инкременты по кодам для денормализованного click_count
	totals := make(map[string]int64)

	for _, payload := range payloads {
		if code, ok := w.processClick(ctx, payload); ok {
			totals[code]++
		}
	}

	for code, n := range totals {
		// Счётчик в записи — best-effort, расхождение с дневной
		// статистикой допустимо
		if err := w.urlRepo.IncrementClickCount(ctx, code, n); err != nil {
			w.logger.Warn("Не удалось обновить click_count",
				zap.String("short_code", code),
				zap.Int64("delta", n),
				zap.Error(err),
			)
		}
	}

	return len(payloads), nil
}

// processClick обрабатывает одно событие. После попытки событие всегда
// удаляется из очереди: успех — счётчик инкрементирован, неуспех —
// событие с причиной уходит в dead-letter.
func (w *StatsWorker) processClick(ctx context.Context, payload string) (string, bool) {
	var event models.ClickEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		w.logger.Error("Невалидное событие клика", zap.Error(err))
		w.discard(ctx, payload, &models.DeadLetterEvent{
			Payload:   payload,
			Error:     err.Error(),
			Processed: false,
		})
		return "", false
	}

	day := event.Timestamp.UTC().Format(dayBucketFormat)

	if _, err := w.statsRepo.IncrDailyCounter(ctx, event.ShortCode, day, 1); err != nil {
		w.logger.Error("Не удалось обработать клик",
			zap.String("short_code", event.ShortCode),
			zap.Error(err),
		)
		w.discard(ctx, payload, &models.DeadLetterEvent{
			ShortCode: event.ShortCode,
			Timestamp: event.Timestamp.Format(time.RFC3339Nano),
			Error:     err.Error(),
			Processed: false,
		})
		return "", false
	}

	if err := w.statsRepo.RemoveClick(ctx, payload); err != nil {
		// Событие обработано, но осталось в очереди: возможен двойной
		// счёт при следующем проходе. Лучше, чем потерять инкремент.
		w.logger.Warn("Не удалось удалить обработанное событие", zap.Error(err))
	}

	return event.ShortCode, true
}

// discard убирает событие из очереди и кладёт его в dead-letter
func (w *StatsWorker) discard(ctx context.Context, payload string, letter *models.DeadLetterEvent) {
	if err := w.statsRepo.RemoveClick(ctx, payload); err != nil {
		w.logger.Warn("Не удалось удалить событие из очереди", zap.Error(err))
	}
	if err := w.statsRepo.PushDeadLetter(ctx, letter); err != nil {
		w.logger.Error("Не удалось записать dead-letter", zap.Error(err))
	}
}

// sleep ждёт d или до сигнала остановки; false — пора выходить
func (w *StatsWorker) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-w.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// StatsReader собирает дневную серию кликов из счётчиков воркера.
// Читает только агрегаты, очередь не трогает.
type StatsReader struct {
	statsRepo  repository.StatsRepository
	windowDays int
}

func NewStatsReader(statsRepo repository.StatsRepository, windowDays int) *StatsReader {
	return &StatsReader{
		statsRepo:  statsRepo,
		windowDays: windowDays,
	}
}

// Read возвращает непрерывную серию ровно windowDays дней (включая
// сегодняшний, UTC), от старых к новым; дни без кликов заполняются нулями.
func (r *StatsReader) Read(ctx context.Context, code string) (*models.URLStats, error) {
	counters, err := r.statsRepo.DailyCounters(ctx, code)
	if err != nil {
		return nil, err
	}

	today := time.Now().UTC()
	clicks := make([]models.DailyClicks, 0, r.windowDays)

	for i := r.windowDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i).Format(dayBucketFormat)
		clicks = append(clicks, models.DailyClicks{
			Date:   day,
			Clicks: counters[day],
		})
	}

	return &models.URLStats{
		ShortCode: code,
		Clicks:    clicks,
	}, nil
}
