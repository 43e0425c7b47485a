package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/sentientiq/pulse/internal/domain"
	"github.com/sentientiq/pulse/internal/session"
)

// TelemetryHandler upgrades client connections and feeds their signals
// into the session registry.
type TelemetryHandler struct {
	registry      *session.Registry
	conns         *ConnManager
	allowedOrigin string
	isDev         bool
}

// NewTelemetryHandler creates the session-side WebSocket handler.
func NewTelemetryHandler(registry *session.Registry, conns *ConnManager, allowedOrigin string, isDev bool) *TelemetryHandler {
	return &TelemetryHandler{
		registry:      registry,
		conns:         conns,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// ServeHTTP implements http.Handler for the WebSocket upgrade.
func (h *TelemetryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	tenantID := tenantFrom(r)
	if sessionID == "" {
		http.Error(w, "session query parameter required", http.StatusBadRequest)
		return
	}
	slog.Info("telemetry connection request", "session_id", sessionID, "tenant_id", tenantID, "ip", r.RemoteAddr)

	if !checkOrigin(r, h.allowedOrigin, h.isDev) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("failed to accept websocket", "error", err, "session_id", sessionID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("failed to close websocket", "error", closeErr, "session_id", sessionID)
		}
	}()

	sc := h.conns.Register(sessionID, ws)
	defer h.conns.Unregister(sessionID, ws)

	h.readLoop(r, ws, sc, sessionID, tenantID)
	slog.Info("telemetry connection ended", "session_id", sessionID)
}

func (h *TelemetryHandler) readLoop(r *http.Request, ws *websocket.Conn, sc *sessionConn, sessionID, tenantID string) {
	ctx := r.Context()
	for {
		_, message, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("websocket closed by client", "session_id", sessionID)
			} else {
				slog.Warn("websocket read error", "error", err, "session_id", sessionID)
			}
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			slog.Debug("discarding unparseable frame", "session_id", sessionID, "error", err)
			continue
		}

		switch frame.Type {
		case "telemetry":
			for _, ev := range frame.Events {
				h.ingest(ev, sessionID, tenantID)
			}
		case "ping":
			if err := sc.writeJSON(serverFrame{Type: "pong"}); err != nil {
				slog.Debug("failed to send pong", "session_id", sessionID, "error", err)
			}
		case "":
			if frame.SignalType != "" {
				h.ingest(frame.ingestEvent, sessionID, tenantID)
			}
		default:
			slog.Debug("ignoring unknown frame type", "session_id", sessionID, "type", frame.Type)
		}
	}
}

// ingest converts a wire event into a domain signal. Connection-level
// identifiers fill in whatever the event omits; the registry discards
// anything still malformed.
func (h *TelemetryHandler) ingest(ev ingestEvent, sessionID, tenantID string) {
	if ev.SessionID == "" {
		ev.SessionID = sessionID
	}
	if ev.TenantID == "" {
		ev.TenantID = tenantID
	}
	observedAt := time.Now()
	if ev.Timestamp > 0 {
		observedAt = time.UnixMilli(ev.Timestamp)
	}
	h.registry.Ingest(domain.Signal{
		SessionID:  ev.SessionID,
		TenantID:   ev.TenantID,
		Type:       ev.SignalType,
		ObservedAt: observedAt,
		Payload:    ev.Payload,
	})
}

// tenantFrom resolves the tenant from the query string or header. The
// pipeline trusts the identifier as-is; authentication is handled upstream.
func tenantFrom(r *http.Request) string {
	if t := r.URL.Query().Get("tenant"); t != "" {
		return t
	}
	if t := r.Header.Get("X-Tenant-ID"); t != "" {
		return t
	}
	return "default"
}

func checkOrigin(r *http.Request, allowedOrigin string, isDev bool) bool {
	if isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || allowedOrigin == "*" {
		return true
	}
	if origin == allowedOrigin {
		return true
	}
	slog.Warn("websocket origin rejected", "origin", origin, "allowed", allowedOrigin)
	return false
}
