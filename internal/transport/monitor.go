package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/sentientiq/pulse/internal/dispatch"
)

const subscribeTimeout = 10 * time.Second

// MonitorHandler serves the monitoring WebSocket. A monitor opens the
// socket, sends one subscribe frame, and then receives a stream of
// matching events until it disconnects.
type MonitorHandler struct {
	hub           *dispatch.Hub
	allowedOrigin string
	isDev         bool
}

// NewMonitorHandler creates the monitor-side WebSocket handler.
func NewMonitorHandler(hub *dispatch.Hub, allowedOrigin string, isDev bool) *MonitorHandler {
	return &MonitorHandler{hub: hub, allowedOrigin: allowedOrigin, isDev: isDev}
}

// ServeHTTP implements http.Handler for the monitor upgrade.
func (h *MonitorHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !checkOrigin(r, h.allowedOrigin, h.isDev) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("failed to accept monitor websocket", "error", err, "ip", r.RemoteAddr)
		return
	}
	defer func() {
		_ = ws.Close(websocket.StatusNormalClosure, "monitor ended")
	}()

	sc := &sessionConn{conn: ws}
	ctx := r.Context()

	subjects, err := h.awaitSubscribe(ctx, ws)
	if err != nil {
		slog.Debug("monitor subscribe failed", "error", err, "ip", r.RemoteAddr)
		_ = sc.writeJSON(serverFrame{Type: "error", Error: err.Error()})
		return
	}

	sub := h.hub.Subscribe(subjects...)
	defer h.hub.Unsubscribe(sub)

	for _, subject := range subjects {
		if err := sc.writeJSON(serverFrame{Type: "subscribed", Subject: subject}); err != nil {
			slog.Debug("failed to confirm subscription", "error", err)
			return
		}
	}
	slog.Info("monitor subscribed", "subjects", subjects, "ip", r.RemoteAddr)

	done := make(chan struct{})
	go h.readLoop(ctx, ws, sc, done)

	for {
		select {
		case frame, ok := <-sub.C():
			if !ok {
				return
			}
			if err := sc.writeJSON(serverFrame{Type: "message", Subject: frame.Subject, Data: frame.Data}); err != nil {
				slog.Debug("monitor write failed", "error", err)
				return
			}
		case <-done:
			slog.Info("monitor disconnected", "ip", r.RemoteAddr)
			return
		case <-ctx.Done():
			return
		}
	}
}

// awaitSubscribe reads the initial subscribe frame. The protocol requires
// it before anything else flows; a monitor that sends nothing is dropped
// after subscribeTimeout.
func (h *MonitorHandler) awaitSubscribe(ctx context.Context, ws *websocket.Conn) ([]string, error) {
	readCtx, cancel := context.WithTimeout(ctx, subscribeTimeout)
	defer cancel()

	_, message, err := ws.Read(readCtx)
	if err != nil {
		return nil, fmt.Errorf("reading subscribe frame: %w", err)
	}

	var frame subscribeFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		return nil, fmt.Errorf("parsing subscribe frame: %w", err)
	}
	if frame.Type != "subscribe" {
		return nil, fmt.Errorf("expected subscribe frame, got %q", frame.Type)
	}

	subjects := frame.Subjects
	if frame.Subject != "" {
		subjects = append(subjects, frame.Subject)
	}
	if len(subjects) == 0 {
		return nil, errors.New("subscribe frame names no subject")
	}
	return subjects, nil
}

// readLoop drains the monitor's inbound side so pings and close frames are
// processed; monitors have nothing else to say after subscribing.
func (h *MonitorHandler) readLoop(ctx context.Context, ws *websocket.Conn, sc *sessionConn, done chan<- struct{}) {
	defer close(done)
	for {
		_, message, err := ws.Read(ctx)
		if err != nil {
			return
		}
		var frame clientFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			continue
		}
		if frame.Type == "ping" {
			_ = sc.writeJSON(serverFrame{Type: "pong"})
		}
	}
}
