package validator_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Hack-Ray/slink/internal/config"
	"github.com/Hack-Ray/slink/internal/validator"
	"github.com/stretchr/testify/assert"
)

// TestURLValidator_Format проверяет валидацию формата URL
func TestURLValidator_Format(t *testing.T) {
	v := validator.NewURLValidator(config.SafeBrowsingConfig{Timeout: time.Second})
	ctx := context.Background()

	validURLs := []string{
		"https://example.com",
		"http://example.com/path",
		"https://sub.example.com/path?query=value",
	}
	for _, url := range validURLs {
		assert.NoError(t, v.Validate(ctx, url), "URL должен быть валидным: %s", url)
	}

	invalidURLs := []string{
		"not-a-url",
		"ftp://example.com",
		"",
		"example.com",
		"https://",
		"://missing-scheme",
	}
	for _, url := range invalidURLs {
		err := v.Validate(ctx, url)
		assert.ErrorIs(t, err, validator.ErrInvalidURL, "URL должен быть невалидным: %s", url)
	}
}

// safeBrowsingStub поднимает тестовый сервер Safe Browsing API
func safeBrowsingStub(t *testing.T, handler http.HandlerFunc) config.SafeBrowsingConfig {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return config.SafeBrowsingConfig{
		APIKey:   "test-key",
		Endpoint: srv.URL,
		Timeout:  time.Second,
	}
}

// TestURLValidator_SafeBrowsing_Clean проверяет пропуск чистого URL
func TestURLValidator_SafeBrowsing_Clean(t *testing.T) {
	cfg := safeBrowsingStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`)) // нет matches — URL чист
	})

	v := validator.NewURLValidator(cfg)
	assert.NoError(t, v.Validate(context.Background(), "https://example.com"))
}

// TestURLValidator_SafeBrowsing_Threat проверяет блокировку помеченного URL
func TestURLValidator_SafeBrowsing_Threat(t *testing.T) {
	cfg := safeBrowsingStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"matches":[{"threatType":"MALWARE"}]}`))
	})

	v := validator.NewURLValidator(cfg)
	err := v.Validate(context.Background(), "https://malware.example.com")

	assert.ErrorIs(t, err, validator.ErrUnsafeURL)
}

// TestURLValidator_SafeBrowsing_Unavailable проверяет fail closed:
// отказ сервиса — это ошибка создания, а не молчаливый пропуск
func TestURLValidator_SafeBrowsing_Unavailable(t *testing.T) {
	cfg := safeBrowsingStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	v := validator.NewURLValidator(cfg)
	err := v.Validate(context.Background(), "https://example.com")

	assert.ErrorIs(t, err, validator.ErrSafeBrowsingUnavailable)
}

// TestURLValidator_SafeBrowsing_Timeout проверяет, что зависший сервис
// не вешает создание ссылки
func TestURLValidator_SafeBrowsing_Timeout(t *testing.T) {
	cfg := safeBrowsingStub(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	cfg.Timeout = 50 * time.Millisecond

	v := validator.NewURLValidator(cfg)
	err := v.Validate(context.Background(), "https://example.com")

	assert.ErrorIs(t, err, validator.ErrSafeBrowsingUnavailable)
}
