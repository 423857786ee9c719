package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Hack-Ray/slink/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrURLNotFound = errors.New("short url not found")
	ErrCodeExists  = errors.New("short code already exists")
)

// URLRepository контракт хранилища канонических записей коротких ссылок.
// Методы Get* возвращают только активные и непросроченные записи.
type URLRepository interface {
	GetByOriginalURL(ctx context.Context, originalURL string) (*models.ShortURL, error)
	GetByShortCode(ctx context.Context, code string) (*models.ShortURL, error)
	Create(ctx context.Context, originalURL, code string, ttlDays int) (*models.ShortURL, error)
	IncrementClickCount(ctx context.Context, code string, n int64) error
}

type urlRepository struct {
	db *PostgresDB
}

func NewURLRepository(db *PostgresDB) URLRepository {
	return &urlRepository{db: db}
}

func (r *urlRepository) GetByOriginalURL(ctx context.Context, originalURL string) (*models.ShortURL, error) {
	query := `
		SELECT id, short_code, original_url, created_at, expires_at, is_active, click_count
		FROM short_urls
		WHERE original_url = $1 AND is_active AND expires_at > NOW()
		ORDER BY id
		LIMIT 1
	`

	return r.scanOne(ctx, query, originalURL)
}

func (r *urlRepository) GetByShortCode(ctx context.Context, code string) (*models.ShortURL, error) {
	query := `
		SELECT id, short_code, original_url, created_at, expires_at, is_active, click_count
		FROM short_urls
		WHERE short_code = $1 AND is_active AND expires_at > NOW()
	`

	return r.scanOne(ctx, query, code)
}

func (r *urlRepository) Create(ctx context.Context, originalURL, code string, ttlDays int) (*models.ShortURL, error) {
	query := `
		INSERT INTO short_urls (short_code, original_url, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, short_code, original_url, created_at, expires_at, is_active, click_count
	`

	expiresAt := time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour)

	url := &models.ShortURL{}
	err := r.db.Pool.QueryRow(ctx, query, code, originalURL, expiresAt).Scan(
		&url.ID,
		&url.ShortCode,
		&url.OriginalURL,
		&url.CreatedAt,
		&url.ExpiresAt,
		&url.IsActive,
		&url.ClickCount,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCodeExists
		}
		return nil, fmt.Errorf("failed to create short url: %w", err)
	}

	return url, nil
}

func (r *urlRepository) IncrementClickCount(ctx context.Context, code string, n int64) error {
	query := `UPDATE short_urls SET click_count = click_count + $2 WHERE short_code = $1`

	result, err := r.db.Pool.Exec(ctx, query, code, n)
	if err != nil {
		return fmt.Errorf("failed to increment click count: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrURLNotFound
	}

	return nil
}

func (r *urlRepository) scanOne(ctx context.Context, query string, arg any) (*models.ShortURL, error) {
	url := &models.ShortURL{}
	err := r.db.Pool.QueryRow(ctx, query, arg).Scan(
		&url.ID,
		&url.ShortCode,
		&url.OriginalURL,
		&url.CreatedAt,
		&url.ExpiresAt,
		&url.IsActive,
		&url.ClickCount,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrURLNotFound
		}
		return nil, fmt.Errorf("failed to get short url: %w", err)
	}

	return url, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
