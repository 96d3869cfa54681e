package adminapi

import (
	"sort"
	"sync"
	"time"
)

// sessionEntry tracks one connection's observed activity.
type sessionEntry struct {
	state         string
	bytesReceived int64
	transfers     int64
	connectedAt   time.Time
	lastActivity  time.Time
}

// SessionTracker records in-flight ASTM link connections for the admin
// API and the Prometheus collector. It is safe for concurrent use,
// following the mutex-protected-map discipline of
// runZeroInc-sockstats/pkg/exporter's TCPInfoCollector.
type SessionTracker struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	now      func() time.Time
}

// NewSessionTracker returns an empty SessionTracker.
func NewSessionTracker() *SessionTracker {
	return &SessionTracker{
		sessions: make(map[string]*sessionEntry),
		now:      time.Now,
	}
}

// Connected registers a new connection.
func (t *SessionTracker) Connected(remoteAddr string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.sessions[remoteAddr] = &sessionEntry{
		state:        "idle",
		connectedAt:  now,
		lastActivity: now,
	}
}

// Activity records a state transition and bytes read from remoteAddr.
func (t *SessionTracker) Activity(remoteAddr, state string, bytesRead int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.sessions[remoteAddr]
	if !ok {
		return
	}
	e.state = state
	e.bytesReceived += int64(bytesRead)
	e.lastActivity = t.now()
}

// TransferCompleted increments the completed-transfer counter for remoteAddr.
func (t *SessionTracker) TransferCompleted(remoteAddr string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.sessions[remoteAddr]; ok {
		e.transfers++
		e.lastActivity = t.now()
	}
}

// Disconnected removes remoteAddr from the tracker.
func (t *SessionTracker) Disconnected(remoteAddr string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, remoteAddr)
}

// Count returns the number of tracked sessions.
func (t *SessionTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// List returns a snapshot of all tracked sessions, ordered by remote address.
func (t *SessionTracker) List() []SessionResponse {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]SessionResponse, 0, len(t.sessions))
	for addr, e := range t.sessions {
		out = append(out, SessionResponse{
			RemoteAddr:    addr,
			State:         e.state,
			BytesReceived: e.bytesReceived,
			Transfers:     e.transfers,
			ConnectedAt:   e.connectedAt,
			LastActivity:  e.lastActivity,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RemoteAddr < out[j].RemoteAddr })
	return out
}

// totals sums bytes received and completed transfers over the tracked
// sessions for the Prometheus collector, without building List's snapshot.
func (t *SessionTracker) totals() (bytesReceived, transfers int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.sessions {
		bytesReceived += e.bytesReceived
		transfers += e.transfers
	}
	return
}
