package model

// StatusEvent is pushed to WebSocket subscribers of a session. Binding
// events carry a platform; session transitions leave it empty.
type StatusEvent struct {
	SessionID string   `json:"session_id"`
	Platform  Platform `json:"platform,omitempty"`
	Status    string   `json:"status"`
	URL       string   `json:"url,omitempty"`
	Error     string   `json:"error,omitempty"`
}
