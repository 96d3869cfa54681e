// Package adminapi exposes the operator-facing HTTP surface named in
// SPEC_FULL.md's admin/metrics section: health, a read-only view of the
// instrument catalogue, a read-only view of in-flight link sessions, and
// a Prometheus /metrics endpoint. Grounded on urmzd-homai/pkg/api's
// Gin router/middleware/handler layering.
package adminapi

import "time"

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is returned from GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Sessions  int       `json:"sessions"`
	Timestamp time.Time `json:"timestamp"`
}

// InstrumentResponse describes one entry in the instrument catalogue.
type InstrumentResponse struct {
	Name     string `json:"name"`
	HeaderRX string `json:"header_rx"`
}

// ListInstrumentsResponse is returned from GET /api/v1/instruments.
type ListInstrumentsResponse struct {
	Instruments []InstrumentResponse `json:"instruments"`
	Count       int                  `json:"count"`
}

// SessionResponse describes one tracked connection.
type SessionResponse struct {
	RemoteAddr    string    `json:"remote_addr"`
	State         string    `json:"state"`
	BytesReceived int64     `json:"bytes_received"`
	Transfers     int64     `json:"transfers"`
	ConnectedAt   time.Time `json:"connected_at"`
	LastActivity  time.Time `json:"last_activity"`
}

// ListSessionsResponse is returned from GET /api/v1/sessions.
type ListSessionsResponse struct {
	Sessions []SessionResponse `json:"sessions"`
	Count    int               `json:"count"`
}
