package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"PolicyScanner/internal/domain"
	"PolicyScanner/internal/ports"
	"PolicyScanner/internal/usecase"
)

// Handler exposes the HTTP API over the analyzer and discovery use cases.
type Handler struct {
	analyzer  *usecase.Analyzer
	discovery *usecase.Discovery
	cache     ports.AnalysisCache
	provider  string
	logger    *slog.Logger
}

// New builds the HTTP handler.
func New(analyzer *usecase.Analyzer, disc *usecase.Discovery, cache ports.AnalysisCache, provider string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		analyzer:  analyzer,
		discovery: disc,
		cache:     cache,
		provider:  provider,
		logger:    logger,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/discover_policy", h.DiscoverPolicy)
	r.POST("/analyze", h.Analyze)
}

// RequestLogger logs method, path, status, and duration for every request.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

type analyzeRequest struct {
	PolicyText string `json:"policy_text"`
	URL        string `json:"url"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	CacheSize int    `json:"cache_size"`
	Provider  string `json:"provider"`
}

// Analyze scores a policy document, serving repeats from the cache.
func (h *Handler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	result, err := h.analyzer.Analyze(c.Request.Context(), req.PolicyText, strings.TrimSpace(req.URL))
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("analysis failed", "url", req.URL, "error", err)
		} else {
			h.logger.Warn("analysis rejected", "url", req.URL, "error", err)
		}
		c.JSON(status, gin.H{"detail": publicDetail(err)})
		return
	}

	c.JSON(http.StatusOK, result)
}

// DiscoverPolicy resolves a site to its policy document address.
func (h *Handler) DiscoverPolicy(c *gin.Context) {
	site := c.Query("url")
	if site == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "url is required"})
		return
	}

	policyURL, found := h.discovery.Find(c.Request.Context(), site)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"detail": "privacy policy not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"policy_url": policyURL})
}

// Health reports service status with cache and evaluator details.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		CacheSize: h.cache.Size(),
		Provider:  h.provider,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRemoteUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// publicDetail keeps upstream payloads out of client-facing errors.
func publicDetail(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return err.Error()
	case errors.Is(err, domain.ErrRemoteUnavailable):
		return "evaluator unavailable, retry later"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "evaluator returned an unusable response"
	default:
		return "failed to analyze policy"
	}
}
