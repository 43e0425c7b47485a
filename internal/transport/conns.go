// Package transport provides the WebSocket edge of the pipeline: signal
// ingestion per session, intervention delivery back to that session, and
// the monitor subscription endpoint. Clients own reconnection (exponential
// backoff in the browser snippet); a dropped connection loses only the
// delivery channel, never the session's pipeline state.
package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const writeTimeout = 5 * time.Second

// sessionConn wraps a connection with a write lock: the session worker and
// the read loop's pong replies may write concurrently.
type sessionConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *sessionConn) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Write(ctx, websocket.MessageText, data)
}

// ConnManager tracks the single live connection owning each session.
type ConnManager struct {
	mu     sync.RWMutex
	active map[string]*sessionConn
}

// NewConnManager creates an empty connection manager.
func NewConnManager() *ConnManager {
	return &ConnManager{active: make(map[string]*sessionConn)}
}

// Register adds a connection for a session, replacing (and closing) any
// previous one: a session has at most one live delivery channel.
func (m *ConnManager) Register(sessionID string, conn *websocket.Conn) *sessionConn {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.active[sessionID]; ok && existing.conn != conn {
		_ = existing.conn.Close(websocket.StatusNormalClosure, "session replaced")
	}
	sc := &sessionConn{conn: conn}
	m.active[sessionID] = sc
	slog.Info("session connection registered", "session_id", sessionID)
	return sc
}

// Unregister removes the connection for a session if it is still the
// registered one.
func (m *ConnManager) Unregister(sessionID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, ok := m.active[sessionID]; ok && current.conn == conn {
		delete(m.active, sessionID)
		slog.Info("session connection unregistered", "session_id", sessionID)
	}
}

// Send delivers v to the session's live connection. Returns false when no
// connection exists or the write fails; either way the event is gone,
// which is the intended best-effort contract.
func (m *ConnManager) Send(sessionID string, v any) bool {
	m.mu.RLock()
	sc, ok := m.active[sessionID]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	if err := sc.writeJSON(v); err != nil {
		slog.Debug("session write failed", "session_id", sessionID, "error", err)
		return false
	}
	return true
}

// CloseSession closes and forgets the session's connection, e.g. when the
// session is evicted.
func (m *ConnManager) CloseSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sc, ok := m.active[sessionID]; ok {
		_ = sc.conn.Close(websocket.StatusNormalClosure, "session closed")
		delete(m.active, sessionID)
		slog.Info("session connection closed", "session_id", sessionID)
	}
}

// ActiveCount returns the number of live session connections.
func (m *ConnManager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.active)
}
