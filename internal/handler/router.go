package handler

import (
	"net/http"

	"github.com/Hack-Ray/slink/internal/middleware"
	"github.com/Hack-Ray/slink/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(
	shortenerService service.ShortenerService,
	rateLimiter *middleware.RateLimiter,
	baseURL string,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// Middleware для логгирования
	router.Use(func(c *gin.Context) {
		logger.Info("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
		)
		c.Next()
	})

	// Rate limiting для всех запросов
	router.Use(rateLimiter.Middleware())

	urlHandler := NewURLHandler(shortenerService, baseURL, logger)

	api := router.Group("/api")
	{
		api.GET("/health", HealthCheck)
		api.POST("/shorten", urlHandler.CreateShortURL)
		api.GET("/resolve/:code", urlHandler.ResolveShortURL)
		api.GET("/stats/:code", urlHandler.GetStats)
	}

	// Редирект (корневой путь)
	router.GET("/:code", urlHandler.Redirect)

	return router
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "slink",
	})
}
