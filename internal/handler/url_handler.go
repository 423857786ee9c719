package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/Hack-Ray/slink/internal/repository"
	"github.com/Hack-Ray/slink/internal/service"
	"github.com/Hack-Ray/slink/internal/validator"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type URLHandler struct {
	service service.ShortenerService
	baseURL string
	logger  *zap.Logger
}

func NewURLHandler(service service.ShortenerService, baseURL string, logger *zap.Logger) *URLHandler {
	return &URLHandler{
		service: service,
		baseURL: baseURL,
		logger:  logger,
	}
}

type CreateURLRequest struct {
	OriginalURL string `json:"original_url" binding:"required"`
}

type CreateURLResponse struct {
	ShortCode   string    `json:"short_code"`
	ShortURL    string    `json:"short_url"`
	OriginalURL string    `json:"original_url"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type ResolveURLResponse struct {
	OriginalURL string `json:"original_url"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// CreateShortURL обрабатывает POST /api/shorten
func (h *URLHandler) CreateShortURL(c *gin.Context) {
	var req CreateURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	url, err := h.service.CreateShortURL(c.Request.Context(), req.OriginalURL)
	if err != nil {
		h.handleCreateError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreateURLResponse{
		ShortCode:   url.ShortCode,
		ShortURL:    h.baseURL + "/" + url.ShortCode,
		OriginalURL: url.OriginalURL,
		CreatedAt:   url.CreatedAt,
		ExpiresAt:   url.ExpiresAt,
	})
}

// ResolveShortURL обрабатывает GET /api/resolve/:code
func (h *URLHandler) ResolveShortURL(c *gin.Context) {
	code := c.Param("code")

	originalURL, err := h.service.ResolveShortURL(c.Request.Context(), code)
	if err != nil {
		h.handleResolveError(c, code, err)
		return
	}

	c.JSON(http.StatusOK, ResolveURLResponse{OriginalURL: originalURL})
}

// Redirect обрабатывает GET /:code
func (h *URLHandler) Redirect(c *gin.Context) {
	code := c.Param("code")

	originalURL, err := h.service.ResolveShortURL(c.Request.Context(), code)
	if err != nil {
		h.handleResolveError(c, code, err)
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, originalURL)
}

// GetStats обрабатывает GET /api/stats/:code
func (h *URLHandler) GetStats(c *gin.Context) {
	code := c.Param("code")

	stats, err := h.service.GetURLStats(c.Request.Context(), code)
	if err != nil {
		h.handleResolveError(c, code, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *URLHandler) handleCreateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, validator.ErrInvalidURL):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_url",
			Message: "Invalid URL format",
		})
	case errors.Is(err, validator.ErrUnsafeURL):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "unsafe_url",
			Message: "URL flagged by Safe Browsing",
		})
	case errors.Is(err, validator.ErrSafeBrowsingUnavailable):
		h.logger.Error("Safe Browsing check failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "validation_unavailable",
			Message: "URL safety check is temporarily unavailable",
		})
	case errors.Is(err, service.ErrCodeCollision):
		h.logger.Error("Short code collision", zap.Error(err))
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "code_collision",
			Message: "Generated code is already taken, try again",
		})
	default:
		h.logger.Error("Failed to create short url", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to create short url",
		})
	}
}

func (h *URLHandler) handleResolveError(c *gin.Context, code string, err error) {
	if errors.Is(err, repository.ErrURLNotFound) {
		h.logger.Warn("Short url not found", zap.String("code", code))
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Short URL not found or expired",
		})
		return
	}

	h.logger.Error("Failed to resolve short url", zap.String("code", code), zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "Failed to resolve short url",
	})
}
