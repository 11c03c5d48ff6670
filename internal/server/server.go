// Package server serves the web dashboard: the HTML page, live updates over
// server-sent events, a JSON API, health and metrics.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"insights-dashboard/internal/dashboard"
	apperrors "insights-dashboard/internal/errors"
	"insights-dashboard/internal/logging"
	"insights-dashboard/internal/mapper"
	"insights-dashboard/internal/metrics"
	"insights-dashboard/internal/models"
	"insights-dashboard/internal/render"
	"insights-dashboard/internal/stream"
)

// EventsPath is the server-sent events endpoint.
const EventsPath = "/events"

// Config holds server settings.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration
	// Heartbeat is the interval of keep-alive events on idle streams.
	Heartbeat time.Duration
	// Limit caps the limit query parameter of the API.
	Limit int
}

// Server is the web dashboard.
type Server struct {
	cfg      Config
	hub      *stream.Hub
	renderer *render.Renderer
	html     *render.HTML
	engine   *gin.Engine
	logger   zerolog.Logger
}

// New creates a server reading dashboard state from hub.
func New(cfg Config, hub *stream.Hub, renderer *render.Renderer, html *render.HTML, logger zerolog.Logger) *Server {
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = 25 * time.Second
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 20
	}

	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		cfg:      cfg,
		hub:      hub,
		renderer: renderer,
		html:     html,
		engine:   gin.New(),
		logger:   logging.WithComponent(logger, "server"),
	}
	s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.Use(gin.Recovery(), s.requestLogger())

	s.engine.GET("/", s.handlePage)
	s.engine.GET(EventsPath, s.handleEvents)
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api/insights")
	{
		api.GET("/recent", s.handleRecent)
		api.GET("/:id/recommendations/:index/context", s.handleContext)
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("Dashboard listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info().Msg("Shutting down dashboard")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// state returns the latest published state, or Loading before the first.
func (s *Server) state() dashboard.State {
	if st, ok := s.hub.Latest(); ok {
		return st
	}
	return dashboard.State{Phase: dashboard.PhaseLoading}
}

func (s *Server) handlePage(c *gin.Context) {
	root := s.renderer.Render(s.state())
	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := s.html.Page(c.Writer, root, EventsPath); err != nil {
		s.logger.Error().Err(err).Msg("Rendering page failed")
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	st := s.state()
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"phase":       st.Phase.String(),
		"version":     st.Version,
		"viewers":     s.hub.SubscriberCount(),
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"last_update": formatTime(st.UpdatedAt),
	})
}

func (s *Server) handleRecent(c *gin.Context) {
	limit := s.cfg.Limit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > s.cfg.Limit {
			verr := apperrors.NewValidationError("limit", raw, "must be between 1 and "+strconv.Itoa(s.cfg.Limit))
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": verr.Error()})
			return
		}
		limit = n
	}

	st := s.state()
	switch st.Phase {
	case dashboard.PhaseLoading:
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})
		return
	case dashboard.PhaseError:
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": st.ErrorMessage()})
		return
	}

	records := st.Records
	if len(records) > limit {
		records = records[:limit]
	}
	insights := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		doc := mapper.Unmap(rec)
		if rec.ID != "" {
			doc["id"] = rec.ID
		}
		insights = append(insights, doc)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"insights":  insights,
		"count":     len(insights),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleContext(c *gin.Context) {
	rec, ok := s.recommendation(c.Param("id"), c.Param("index"))
	if !ok {
		c.String(http.StatusNotFound, apperrors.ErrNotFound.Error())
		return
	}
	c.String(http.StatusOK, render.RecommendationContext(rec))
}

func (s *Server) recommendation(id, index string) (models.Recommendation, bool) {
	rec, ok := s.state().Find(id)
	if !ok {
		return models.Recommendation{}, false
	}
	body, ok := rec.Structured()
	if !ok {
		return models.Recommendation{}, false
	}
	i, err := strconv.Atoi(index)
	if err != nil || i < 0 || i >= len(body.Recommendations) {
		return models.Recommendation{}, false
	}
	return body.Recommendations[i], true
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		if route != EventsPath {
			metrics.RecordRequest(route, strconv.Itoa(status), elapsed.Seconds())
		}
		logging.LogRequest(s.logger, c.Request.Method, c.Request.URL.Path, status, elapsed)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
