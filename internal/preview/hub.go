// Package preview streams committed strip frames to websocket clients so an
// installation can be watched without the hardware.
package preview

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Topology describes the strips a node owns.
type Topology struct {
	Node   string         `json:"node"`
	Strips map[string]int `json:"strips"`
}

type frame struct {
	T       int64  `json:"t"`
	FrameID uint64 `json:"frame_id"`
	Strip   string `json:"strip"`
	RGB     []byte `json:"rgb"`
	// Amps is a rough draw estimate at 20mA per channel full-scale.
	Amps float64 `json:"amps"`
}

// FrameQueue is how many encoded frames wait for the sender before new ones
// are dropped.
const FrameQueue = 64

const writeWait = 200 * time.Millisecond

type Hub struct {
	// writeMu serializes websocket writes; gorilla allows one writer.
	writeMu   sync.Mutex
	mu        sync.RWMutex
	topology  Topology
	status    func() string
	logger    zerolog.Logger
	frameID   uint64
	startTime time.Time
	clients   map[*websocket.Conn]bool
	last      map[string][]byte

	frames    chan []byte
	dropped   atomic.Uint64
	done      chan struct{}
	closeOnce sync.Once
}

func NewHub(top Topology, status func() string, logger zerolog.Logger) *Hub {
	h := &Hub{
		topology:  top,
		status:    status,
		logger:    logger.With().Str("component", "preview").Logger(),
		startTime: time.Now(),
		clients:   map[*websocket.Conn]bool{},
		last:      map[string][]byte{},
		frames:    make(chan []byte, FrameQueue),
		done:      make(chan struct{}),
	}
	go h.send()
	return h
}

// Observe is a strip observer. It records the frame and queues it for the
// clients without waiting on the network; a full queue drops the frame.
func (h *Hub) Observe(name string, rgb []byte) {
	h.mu.Lock()
	h.frameID++
	h.last[name] = rgb
	b, _ := json.Marshal(frame{
		T:       time.Now().UnixNano(),
		FrameID: h.frameID,
		Strip:   name,
		RGB:     rgb,
		Amps:    estimateCurrent(rgb),
	})
	h.mu.Unlock()

	select {
	case <-h.done:
	case h.frames <- b:
	default:
		if n := h.dropped.Add(1); n%FrameQueue == 1 {
			h.logger.Debug().Uint64("dropped", n).Msg("preview queue full, dropping frames")
		}
	}
}

func (h *Hub) send() {
	for {
		select {
		case <-h.done:
			return
		case b := <-h.frames:
			h.broadcast(b)
		}
	}
}

func (h *Hub) broadcast(b []byte) {
	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	if len(clients) == 0 {
		return
	}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	for _, c := range clients {
		c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			h.logger.Debug().Err(err).Msg("write frame")
		}
	}
}

// Handler serves /ws and /health.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.HandleFramesWS)
	mux.HandleFunc("/health", h.HandleHealth)
	return mux
}

func (h *Hub) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	top, _ := json.Marshal(h.topology)
	h.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, top)
	h.writeMu.Unlock()
	if err != nil {
		conn.Close()
		return
	}
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var amps float64
	for _, rgb := range h.last {
		amps += estimateCurrent(rgb)
	}
	mood := ""
	if h.status != nil {
		mood = h.status()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"node":     h.topology.Node,
		"mood":     mood,
		"frame_id": h.frameID,
		"uptime_s": time.Since(h.startTime).Seconds(),
		"amps":     amps,
		"dropped":  h.dropped.Load(),
	})
}

// Close stops the sender and disconnects every client.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.Close()
		delete(h.clients, c)
	}
}

func estimateCurrent(rgb []byte) float64 {
	var sum float64
	for _, v := range rgb {
		sum += float64(v)
	}
	return sum / 255.0 * 0.020
}
