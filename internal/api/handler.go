// Package api provides the HTTP handlers for the pipeline's REST surface.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/sentientiq/pulse/internal/dispatch"
	"github.com/sentientiq/pulse/internal/session"
	"github.com/sentientiq/pulse/internal/store"
	"github.com/sentientiq/pulse/internal/transport"
)

// Handler provides common handler utilities.
type Handler struct {
	registry *session.Registry
	hub      *dispatch.Hub
	conns    *transport.ConnManager
	sink     store.Sink
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(registry *session.Registry, hub *dispatch.Hub, conns *transport.ConnManager, sink store.Sink) *Handler {
	return &Handler{
		registry: registry,
		hub:      hub,
		conns:    conns,
		sink:     sink,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// Health reports liveness and whether the analytics store is reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := h.sink.Ping(r.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	JSON(w, code, map[string]string{"status": status})
}

type statsResponse struct {
	ActiveSessions     int   `json:"activeSessions"`
	LiveConnections    int   `json:"liveConnections"`
	Monitors           int   `json:"monitors"`
	EmotionEvents      int64 `json:"emotionEvents"`
	InterventionEvents int64 `json:"interventionEvents"`
}

// Stats returns pipeline counters for dashboards.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	emotions, interventions, err := h.sink.EventCounts(r.Context())
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to read event counts")
		return
	}
	JSON(w, http.StatusOK, statsResponse{
		ActiveSessions:     h.registry.ActiveSessions(),
		LiveConnections:    h.conns.ActiveCount(),
		Monitors:           h.hub.SubscriberCount(),
		EmotionEvents:      emotions,
		InterventionEvents: interventions,
	})
}
