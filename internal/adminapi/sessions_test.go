package adminapi

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTrackerLifecycle(t *testing.T) {
	tr := NewSessionTracker()
	assert.Equal(t, 0, tr.Count())

	tr.Connected("127.0.0.1:5000")
	assert.Equal(t, 1, tr.Count())

	tr.Activity("127.0.0.1:5000", "transfer", 42)
	tr.TransferCompleted("127.0.0.1:5000")

	sessions := tr.List()
	require.Len(t, sessions, 1)
	assert.Equal(t, "127.0.0.1:5000", sessions[0].RemoteAddr)
	assert.Equal(t, "transfer", sessions[0].State)
	assert.EqualValues(t, 42, sessions[0].BytesReceived)
	assert.EqualValues(t, 1, sessions[0].Transfers)

	tr.Disconnected("127.0.0.1:5000")
	assert.Equal(t, 0, tr.Count())
}

func TestSessionTrackerActivityOnUnknownAddrIsNoop(t *testing.T) {
	tr := NewSessionTracker()
	tr.Activity("127.0.0.1:5000", "transfer", 42)
	assert.Equal(t, 0, tr.Count())
}

func TestSessionTrackerListIsSortedByAddr(t *testing.T) {
	tr := NewSessionTracker()
	tr.Connected("127.0.0.1:5002")
	tr.Connected("127.0.0.1:5001")

	sessions := tr.List()
	require.Len(t, sessions, 2)
	assert.Equal(t, "127.0.0.1:5001", sessions[0].RemoteAddr)
	assert.Equal(t, "127.0.0.1:5002", sessions[1].RemoteAddr)
}

func TestSessionCollectorReportsGauges(t *testing.T) {
	tr := NewSessionTracker()
	tr.Connected("127.0.0.1:5000")
	tr.Activity("127.0.0.1:5000", "transfer", 100)
	tr.TransferCompleted("127.0.0.1:5000")

	collector := NewSessionCollector(tr)

	expected := `
		# HELP astm_sessions_active Number of currently open ASTM link sessions.
		# TYPE astm_sessions_active gauge
		astm_sessions_active 1
	`
	err := testutil.CollectAndCompare(collector, strings.NewReader(expected), "astm_sessions_active")
	require.NoError(t, err)
}
