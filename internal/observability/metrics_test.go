package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/tickets", "GET", 200, time.Millisecond)
	m.RecordRequest("/api/tickets", "GET", 200, time.Millisecond)
	m.RecordError("/api/tickets", "POST", "VALIDATION_FAILED")
	m.RecordUpstream("GET", "/v1/tickets", 200, 10*time.Millisecond)
	m.RecordUpstream("GET", "/v1/tickets", 200, 30*time.Millisecond)

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/api/tickets|GET|200"])
	assert.Equal(t, int64(1), snap.Errors["/api/tickets|POST|VALIDATION_FAILED"])
	require.Len(t, snap.Upstream, 1)
	assert.Equal(t, int64(2), snap.Upstream[0].Count)
	assert.InDelta(t, 20.0, snap.Upstream[0].AvgMillis, 0.001)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, 0)
	m.RecordError("/", "GET", "X")
	m.RecordUpstream("GET", "/", 200, 0)
	assert.Empty(t, m.Snapshot().Upstream)
}
