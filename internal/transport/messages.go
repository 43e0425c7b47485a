package transport

import "encoding/json"

// clientFrame is the envelope for everything a client sends. A frame with
// Type "telemetry" batches events; a frame with SignalType set and no Type
// is a single bare signal (the browser snippet sends both shapes).
type clientFrame struct {
	Type    string        `json:"type,omitempty"`
	Events  []ingestEvent `json:"events,omitempty"`
	Subject string        `json:"subject,omitempty"`

	// Bare signal fields, promoted when the frame has no envelope type.
	ingestEvent
}

// ingestEvent is one signal observation on the wire.
type ingestEvent struct {
	SessionID  string          `json:"sessionId,omitempty"`
	TenantID   string          `json:"tenantId,omitempty"`
	SignalType string          `json:"signalType,omitempty"`
	Timestamp  int64           `json:"timestamp,omitempty"` // epoch millis
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// subscribeFrame is the first frame on a monitor socket. Either Subject
// or Subjects may be used; both together are additive.
type subscribeFrame struct {
	Type     string   `json:"type"`
	Subject  string   `json:"subject,omitempty"`
	Subjects []string `json:"subjects,omitempty"`
}

// serverFrame is the envelope for server-to-client messages on both the
// session and monitor sockets.
type serverFrame struct {
	Type    string `json:"type"`
	Subject string `json:"subject,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}
