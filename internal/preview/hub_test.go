package preview

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dial connects a client and reads the topology greeting.
func dial(t *testing.T, h *Hub) (*websocket.Conn, Topology) {
	t.Helper()
	srv := httptest.NewServer(h.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var top Topology
	require.NoError(t, conn.ReadJSON(&top))
	require.Eventually(t, func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		return len(h.clients) == 1
	}, time.Second, time.Millisecond)
	return conn, top
}

func TestFramesReachClients(t *testing.T) {
	h := NewHub(Topology{Node: "driver", Strips: map[string]int{"A": 8, "B": 12}}, nil, zerolog.Nop())
	defer h.Close()
	conn, top := dial(t, h)
	assert.Equal(t, 12, top.Strips["B"])

	h.Observe("A", []byte{255, 0, 0})
	var f frame
	conn.SetReadDeadline(time.Now().Add(time.Second))
	require.NoError(t, conn.ReadJSON(&f))
	assert.Equal(t, "A", f.Strip)
	assert.Equal(t, []byte{255, 0, 0}, f.RGB)
	assert.InDelta(t, 0.020, f.Amps, 1e-9)
}

func TestObserveDoesNotWaitOnClients(t *testing.T) {
	h := NewHub(Topology{Node: "driver", Strips: map[string]int{"A": 8}}, nil, zerolog.Nop())
	defer h.Close()
	conn, _ := dial(t, h)

	// a write in progress holds writeMu; commits must not queue behind it
	h.writeMu.Lock()
	begin := time.Now()
	for i := 0; i < 4*FrameQueue; i++ {
		h.Observe("A", []byte{byte(i), 0, 0})
	}
	elapsed := time.Since(begin)
	h.writeMu.Unlock()

	assert.Less(t, elapsed, 100*time.Millisecond)
	assert.Greater(t, h.dropped.Load(), uint64(0))

	var f frame
	conn.SetReadDeadline(time.Now().Add(time.Second))
	require.NoError(t, conn.ReadJSON(&f), "queued frames still go out once the writer is free")
	assert.Equal(t, "A", f.Strip)
}

func TestObserveAfterClose(t *testing.T) {
	h := NewHub(Topology{Node: "driver"}, nil, zerolog.Nop())
	h.Close()
	h.Close()
	for i := 0; i < 2*FrameQueue; i++ {
		h.Observe("A", []byte{1, 2, 3})
	}
}

func TestHealth(t *testing.T) {
	h := NewHub(Topology{Node: "follower"}, func() string { return "love" }, zerolog.Nop())
	defer h.Close()
	h.Observe("C", []byte{255, 255, 255})

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest("GET", "/health", nil))

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "follower", body["node"])
	assert.Equal(t, "love", body["mood"])
	assert.Equal(t, 1.0, body["frame_id"])
	assert.InDelta(t, 0.060, body["amps"], 1e-9)
}
