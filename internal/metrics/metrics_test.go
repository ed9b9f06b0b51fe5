package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Sent()
	m.SendError()
	m.Received()
	m.Dropped("overflow")
	m.ParseError("love")
	m.AckTimeout()
	m.WorkerAbandoned()
	m.Activated("focus")
	m.Finished("focus")
	m.Idle()
}

func TestFinishedLeavesNewerMood(t *testing.T) {
	m := New()
	m.Activated("energy")
	m.Finished("energy")
	assert.Equal(t, 0, testutil.CollectAndCount(m.ActiveMood))

	m.Activated("love")
	m.Finished("energy")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveMood.WithLabelValues("love")))
}

func TestCountersAndHandler(t *testing.T) {
	m := New()
	m.Sent()
	m.Sent()
	m.ParseError("healing")
	m.Activated("love")
	m.Activated("relief")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LinesSent))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ParseErrors.WithLabelValues("healing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveMood.WithLabelValues("relief")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveMood.WithLabelValues("love")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "moodlight_link_lines_sent_total 2"))
}
