package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"careline/internal/domain"
)

const monitorSendBuffer = 16

// MonitorFeed broadcasts pipeline events to connected console clients over
// websockets. It is the pipeline's ports.EventSink.
type MonitorFeed struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[string]*monitorConn
}

type monitorConn struct {
	conn *websocket.Conn
	send chan []byte
}

type wsMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func NewMonitorFeed(logger *slog.Logger) *MonitorFeed {
	if logger == nil {
		logger = slog.Default()
	}
	return &MonitorFeed{
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[string]*monitorConn),
	}
}

// ServeWS upgrades one console connection and streams events to it until the
// client disconnects. The initial snapshot is pushed immediately so a client
// joining mid-session renders current state without waiting for a change.
func (f *MonitorFeed) ServeWS(c echo.Context, initial domain.Snapshot) error {
	ws, err := f.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	id := uuid.NewString()
	mc := &monitorConn{conn: ws, send: make(chan []byte, monitorSendBuffer)}

	if payload, err := json.Marshal(wsMessage{Type: "snapshot", Data: initial}); err == nil {
		mc.send <- payload
	}

	f.mu.Lock()
	f.conns[id] = mc
	f.mu.Unlock()

	go f.writeLoop(id, mc)

	// Inbound messages are discarded; the read loop only detects disconnect.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	f.drop(id)
	return nil
}

// SnapshotUpdated implements ports.EventSink.
func (f *MonitorFeed) SnapshotUpdated(snapshot domain.Snapshot) {
	f.broadcast("snapshot", snapshot)
}

// SessionStateChanged implements ports.EventSink.
func (f *MonitorFeed) SessionStateChanged(recording bool, reason domain.StateReason) {
	f.broadcast("state", map[string]any{
		"recording": recording,
		"reason":    reason,
	})
}

// SessionError implements ports.EventSink.
func (f *MonitorFeed) SessionError(code domain.ErrorCode, detail string) {
	f.broadcast("error", map[string]string{
		"code":   string(code),
		"detail": detail,
	})
}

func (f *MonitorFeed) broadcast(kind string, data any) {
	payload, err := json.Marshal(wsMessage{Type: kind, Data: data})
	if err != nil {
		f.logger.Warn("failed to encode monitor message", "type", kind, "error", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for id, mc := range f.conns {
		select {
		case mc.send <- payload:
		default:
			// Slow consumer: drop the connection rather than block the pipeline.
			close(mc.send)
			delete(f.conns, id)
		}
	}
}

func (f *MonitorFeed) writeLoop(id string, mc *monitorConn) {
	for payload := range mc.send {
		if err := mc.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			break
		}
	}
	f.drop(id)
	_ = mc.conn.Close()
}

func (f *MonitorFeed) drop(id string) {
	f.mu.Lock()
	mc, ok := f.conns[id]
	if ok {
		delete(f.conns, id)
		close(mc.send)
	}
	f.mu.Unlock()

	if ok {
		_ = mc.conn.Close()
	}
}
