package server

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"insights-dashboard/internal/metrics"
)

// handleEvents streams the rendered dashboard as "state" events, one per
// state change. The first event is the current state.
func (s *Server) handleEvents(c *gin.Context) {
	id, states := s.hub.Subscribe("")
	metrics.ViewerConnected()
	logger := s.logger.With().Str("viewer", id).Logger()
	logger.Debug().Msg("Viewer connected")

	defer func() {
		s.hub.Unsubscribe(id)
		metrics.ViewerDisconnected()
		logger.Debug().Msg("Viewer disconnected")
	}()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(s.cfg.Heartbeat)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case st, ok := <-states:
			if !ok {
				return false
			}
			fragment, err := s.html.FragmentString(s.renderer.Render(st))
			if err != nil {
				logger.Error().Err(err).Msg("Rendering fragment failed")
				return false
			}
			c.SSEvent("state", fragment)
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
}
