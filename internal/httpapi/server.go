// Package httpapi serves health, metrics, on-demand prediction and fault event endpoints.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/config"
	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/metrics"
	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/models"
	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/storage"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// Engine classifies waveform windows
type Engine interface {
	Predict(w models.WaveformWindow) (models.PredictionResult, error)
	Ready() bool
	Mode() string
}

// EventRepository reads and updates persisted fault events
type EventRepository interface {
	ListRecent(ctx context.Context, feederID string, limit int) ([]models.FaultEvent, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// LastEventReader returns the latest broadcast event of a feeder
type LastEventReader interface {
	LastEvent(ctx context.Context, feederID string) (models.FaultEvent, bool, error)
}

// Server wraps the gin router and its http.Server
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	engine     Engine
	events     EventRepository
	lastEvents LastEventReader
	logger     zerolog.Logger
}

// NewServer builds the router. events and lastEvents may be nil; their routes then answer 503.
func NewServer(cfg config.HTTPConfig, engine Engine, events EventRepository, lastEvents LastEventReader, logger zerolog.Logger) *Server {
	s := &Server{
		router:     gin.New(),
		engine:     engine,
		events:     events,
		lastEvents: lastEvents,
		logger:     logger.With().Str("component", "http").Logger(),
	}
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.health)
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := s.router.Group("/v1")
	{
		v1.POST("/predict", s.predict)
		v1.GET("/events", s.listEvents)
		v1.POST("/events/:id/status", s.updateEventStatus)
		v1.GET("/feeders/:id/last-event", s.lastEvent)
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"mode":   s.engine.Mode(),
		"ready":  s.engine.Ready(),
	})
}

func (s *Server) predict(c *gin.Context) {
	var window models.WaveformWindow
	if err := c.ShouldBindJSON(&window); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.engine.Predict(window)
	if err != nil {
		metrics.InvalidWindow()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	metrics.ObservePrediction(string(result.FaultType), string(result.Severity), result.Strategy, result.DetectionTimeMs)

	c.JSON(http.StatusOK, result)
}

func (s *Server) listEvents(c *gin.Context) {
	if s.events == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event store not configured"})
		return
	}

	limit := defaultEventLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxEventLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}

	events, err := s.events.ListRecent(c.Request.Context(), c.Query("feeder"), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("list events failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list events failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) updateEventStatus(c *gin.Context) {
	if s.events == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event store not configured"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := s.events.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "status": req.Status})
	case errors.Is(err, storage.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, pgx.ErrNoRows):
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
	default:
		s.logger.Error().Err(err).Str("event_id", c.Param("id")).Msg("update event status failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
	}
}

func (s *Server) lastEvent(c *gin.Context) {
	if s.lastEvents == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "broadcast not configured"})
		return
	}

	event, ok, err := s.lastEvents.LastEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.logger.Error().Err(err).Str("feeder_id", c.Param("id")).Msg("last event lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no recent fault on feeder"})
		return
	}
	c.JSON(http.StatusOK, event)
}
