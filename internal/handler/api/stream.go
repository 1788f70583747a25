package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"CommodSim/internal/domain/models"
	"CommodSim/internal/service/metrics"
	applogger "CommodSim/pkg/logger"
)

const (
	pingInterval = 45 * time.Second
	readTimeout  = 90 * time.Second
	writeTimeout = 10 * time.Second
	clientBuffer = 64
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin:       func(*http.Request) bool { return true },
	EnableCompression: true,
}

// StreamMessage is what the dashboard receives on /ws.
type StreamMessage struct {
	Type string           `json:"type"`
	Data *models.Snapshot `json:"data,omitempty"`
	Text string           `json:"text,omitempty"`
}

type controlMessage struct {
	Type   string `json:"type"`
	Action string `json:"action"`
}

type streamClient struct {
	conn   *websocket.Conn
	out    chan StreamMessage
	done   chan struct{}
	paused atomic.Bool
}

// send never blocks; a slow client just misses ticks.
func (c *streamClient) send(m StreamMessage) bool {
	select {
	case c.out <- m:
		return true
	default:
		return false
	}
}

// SnapshotSource is what the stream needs from the simulator.
type SnapshotSource interface {
	Latest() (*models.Snapshot, bool)
	Subscribe(fn func(*models.Snapshot))
}

// StreamHandler fans post-tick snapshots out to websocket clients.
type StreamHandler struct {
	src SnapshotSource
	log *applogger.Logger

	mu      sync.RWMutex
	clients map[*streamClient]struct{}
	dropped atomic.Int64
}

func NewStreamHandler(src SnapshotSource, log *applogger.Logger) *StreamHandler {
	metrics.Register()
	h := &StreamHandler{
		src:     src,
		log:     log.Named("stream"),
		clients: make(map[*streamClient]struct{}),
	}
	src.Subscribe(h.Broadcast)
	return h
}

func (h *StreamHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.Serve)
}

// Broadcast queues s for every unpaused client.
func (h *StreamHandler) Broadcast(s *models.Snapshot) {
	msg := StreamMessage{Type: "snapshot", Data: s}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.paused.Load() {
			continue
		}
		if !c.send(msg) {
			h.dropped.Add(1)
		}
	}
}

// Clients returns the number of connected clients.
func (h *StreamHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *StreamHandler) add(c *streamClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	metrics.StreamClients.Inc()
}

func (h *StreamHandler) remove(c *streamClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	metrics.StreamClients.Dec()
}

func (h *StreamHandler) Serve(c echo.Context) error {
	conn, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", applogger.Error(err))
		return nil
	}
	defer conn.Close()

	cl := &streamClient{conn: conn, out: make(chan StreamMessage, clientBuffer), done: make(chan struct{})}
	h.add(cl)
	defer h.remove(cl)
	defer close(cl.done)

	go h.writeLoop(cl)

	if snap, ok := h.src.Latest(); ok {
		cl.send(StreamMessage{Type: "snapshot", Data: snap})
	}
	h.log.Debug("stream client connected", applogger.String("remote", c.RealIP()))

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if mt != websocket.TextMessage {
			continue
		}
		var ctrl controlMessage
		if err := json.Unmarshal(data, &ctrl); err != nil || ctrl.Type != "control" {
			continue
		}
		switch strings.ToLower(ctrl.Action) {
		case "pause":
			cl.paused.Store(true)
			cl.send(StreamMessage{Type: "status", Text: "paused"})
		case "resume":
			cl.paused.Store(false)
			cl.send(StreamMessage{Type: "status", Text: "resumed"})
		}
	}
	h.log.Debug("stream client disconnected", applogger.String("remote", c.RealIP()))
	return nil
}

func (h *StreamHandler) writeLoop(cl *streamClient) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case m := <-cl.out:
			// replaces the deadline inherited from the http server
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := cl.conn.WriteJSON(m); err != nil {
				h.log.Debug("stream write failed", applogger.Error(err))
				_ = cl.conn.Close()
				return
			}
		case <-ping.C:
			_ = cl.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
		case <-cl.done:
			return
		}
	}
}

// Dropped counts snapshots skipped because a client's queue was full.
func (h *StreamHandler) Dropped() int64 { return h.dropped.Load() }
