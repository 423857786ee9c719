package validator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Hack-Ray/slink/internal/config"
)

// Ошибки валидации
var (
	ErrInvalidURL              = errors.New("невалидный URL")
	ErrUnsafeURL               = errors.New("URL помечен Safe Browsing как небезопасный")
	ErrSafeBrowsingUnavailable = errors.New("сервис Safe Browsing недоступен")
)

// URLValidator проверяет формат и безопасность URL перед созданием ссылки
type URLValidator interface {
	Validate(ctx context.Context, rawURL string) error
}

type urlValidator struct {
	cfg    config.SafeBrowsingConfig
	client *http.Client
}

func NewURLValidator(cfg config.SafeBrowsingConfig) URLValidator {
	return &urlValidator{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Validate проверяет формат URL и, если задан API ключ, прогоняет его
// через Google Safe Browsing. Недоступность внешнего сервиса — это отказ
// создания (fail closed), а не молчаливый пропуск.
func (v *urlValidator) Validate(ctx context.Context, rawURL string) error {
	if err := validateFormat(rawURL); err != nil {
		return err
	}

	if v.cfg.APIKey == "" {
		return nil
	}

	return v.checkSafeBrowsing(ctx, rawURL)
}

func validateFormat(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ErrInvalidURL
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ErrInvalidURL
	}

	if parsed.Host == "" {
		return ErrInvalidURL
	}

	return nil
}

type threatMatchesRequest struct {
	Client     clientInfo `json:"client"`
	ThreatInfo threatInfo `json:"threatInfo"`
}

type clientInfo struct {
	ClientID      string `json:"clientId"`
	ClientVersion string `json:"clientVersion"`
}

type threatInfo struct {
	ThreatTypes      []string      `json:"threatTypes"`
	PlatformTypes    []string      `json:"platformTypes"`
	ThreatEntryTypes []string      `json:"threatEntryTypes"`
	ThreatEntries    []threatEntry `json:"threatEntries"`
}

type threatEntry struct {
	URL string `json:"url"`
}

type threatMatchesResponse struct {
	Matches []json.RawMessage `json:"matches"`
}

func (v *urlValidator) checkSafeBrowsing(ctx context.Context, rawURL string) error {
	payload := threatMatchesRequest{
		Client: clientInfo{
			ClientID:      "slink",
			ClientVersion: "1.0.0",
		},
		ThreatInfo: threatInfo{
			ThreatTypes: []string{
				"MALWARE",
				"SOCIAL_ENGINEERING",
				"UNWANTED_SOFTWARE",
				"POTENTIALLY_HARMFUL_APPLICATION",
			},
			PlatformTypes:    []string{"ANY_PLATFORM"},
			ThreatEntryTypes: []string{"URL"},
			ThreatEntries:    []threatEntry{{URL: rawURL}},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal threat request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		v.cfg.Endpoint+"?key="+url.QueryEscape(v.cfg.APIKey),
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("failed to build threat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSafeBrowsingUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrSafeBrowsingUnavailable, resp.StatusCode)
	}

	var result threatMatchesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("%w: %v", ErrSafeBrowsingUnavailable, err)
	}

	if len(result.Matches) > 0 {
		return ErrUnsafeURL
	}

	return nil
}
