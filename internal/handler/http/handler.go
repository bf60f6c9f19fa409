package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/maestro-tips/internal/auth"
	"github.com/cypherlabdev/maestro-tips/internal/metrics"
	"github.com/cypherlabdev/maestro-tips/internal/models"
	"github.com/cypherlabdev/maestro-tips/internal/service"
)

// Pinger reports backend reachability for /ready
type Pinger interface {
	Ping(ctx context.Context) error
	Name() string
}

// LiveFeed serves the websocket endpoint
type LiveFeed interface {
	ServeWS(ctx context.Context) http.HandlerFunc
}

// Deps are the collaborators the HTTP layer routes to
type Deps struct {
	Tips     *service.TipService
	Stats    *service.StatsService
	News     *service.NewsService
	Messages *service.MessageService
	Advisor  *service.AdvisorService
	Backend  Pinger
	Verifier auth.Verifier
	LiveFeed LiveFeed        // optional
	Metrics  *metrics.Metrics // optional
	Gatherer prometheus.Gatherer
}

// Handler handles HTTP requests for tips, stats, news and messages
type Handler struct {
	deps   Deps
	logger zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(deps Deps, logger zerolog.Logger) *Handler {
	return &Handler{
		deps:   deps,
		logger: logger.With().Str("component", "http_handler").Logger(),
	}
}

// Router builds the gin engine. ctx bounds websocket sessions.
func (h *Handler) Router(ctx context.Context, corsOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.accessLog(), h.deps.Metrics.Middleware(), corsMiddleware(corsOrigins))
	r.Use(auth.Authenticate(h.deps.Verifier, h.logger))

	r.GET("/health", h.health)
	r.GET("/ready", h.ready)
	if h.deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.deps.Gatherer, promhttp.HandlerOpts{})))
	}
	if h.deps.LiveFeed != nil {
		r.GET("/ws", gin.WrapF(h.deps.LiveFeed.ServeWS(ctx)))
	}

	tips := r.Group("/tips")
	tips.GET("", h.listTips)
	tips.POST("", h.createTip)
	tips.GET("/:id", h.getTip)
	tips.DELETE("/:id", h.deleteTip)
	tips.POST("/:id/vote", h.voteOnTip)
	tips.POST("/:id/settle", h.settleTip)
	tips.POST("/:id/ai-check", h.checkResult)
	tips.GET("/:id/suggestion", h.getSuggestion)

	r.GET("/stats", h.globalStats)
	r.GET("/stats/board", h.statsBoard)
	r.GET("/stats/:category", h.categoryStats)

	r.GET("/news", h.listNews)
	r.POST("/news", h.createNews)
	r.DELETE("/news/:id", h.deleteNews)

	messages := r.Group("/messages", auth.RequireUser())
	messages.GET("", h.listMessages)
	messages.POST("", h.sendMessage)
	messages.POST("/:id/reply", h.replyToMessage)

	r.POST("/ai/analysis", h.draftAnalysis)

	return r
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.deps.Backend.Ping(ctx); err != nil {
		h.logger.Warn().Err(err).Str("backend", h.deps.Backend.Name()).Msg("readiness check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "backend": h.deps.Backend.Name()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "backend": h.deps.Backend.Name()})
}

// fail writes the error response matching err's classification
func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	} else {
		h.logger.Debug().Err(err).Str("path", c.FullPath()).Msg("request rejected")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// badRequest rejects an undecodable body
func (h *Handler) badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrBackendUnavailable), errors.Is(err, models.ErrAIUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// accessLog writes one line per request
func (h *Handler) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		h.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}

	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
		config.AllowCredentials = true
	}
	return cors.New(config)
}
