package adminapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/senaite/astm-go/internal/astm/instrument"
)

type healthHandler struct {
	tracker *SessionTracker
}

// Health handles GET /health.
// @Summary      Health check
// @Description  Returns server status and the number of tracked sessions
// @Tags         health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /health [get]
func (h *healthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Sessions:  h.tracker.Count(),
		Timestamp: time.Now(),
	})
}

type instrumentsHandler struct {
	registry *instrument.Registry
}

// ListInstruments handles GET /api/v1/instruments.
// @Summary      List instrument catalogue entries
// @Description  Returns each registered instrument's name and header pattern
// @Tags         instruments
// @Produce      json
// @Success      200  {object}  ListInstrumentsResponse
// @Router       /api/v1/instruments [get]
func (h *instrumentsHandler) ListInstruments(c *gin.Context) {
	entries := h.registry.Entries()
	out := make([]InstrumentResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, InstrumentResponse{Name: e.Name, HeaderRX: e.HeaderRX.String()})
	}
	c.JSON(http.StatusOK, ListInstrumentsResponse{Instruments: out, Count: len(out)})
}

type sessionsHandler struct {
	tracker *SessionTracker
}

// ListSessions handles GET /api/v1/sessions.
// @Summary      List active link sessions
// @Description  Returns each connection currently tracked by the server
// @Tags         sessions
// @Produce      json
// @Success      200  {object}  ListSessionsResponse
// @Router       /api/v1/sessions [get]
func (h *sessionsHandler) ListSessions(c *gin.Context) {
	sessions := h.tracker.List()
	c.JSON(http.StatusOK, ListSessionsResponse{Sessions: sessions, Count: len(sessions)})
}
