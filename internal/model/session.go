package model

import "time"

// Session is the API view of a broadcast session (not GORM entity).
type Session struct {
	ID          string        `json:"id"`
	TenantID    string        `json:"tenant_id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Thumbnail   string        `json:"thumbnail,omitempty"`
	Status      SessionStatus `json:"status"`
	StartAt     time.Time     `json:"start_at"`
	EndAt       *time.Time    `json:"end_at,omitempty"`
	Bindings    []Binding     `json:"bindings"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Binding is the API view of one platform's participation in a session.
type Binding struct {
	Platform   Platform      `json:"platform"`
	ExternalID string        `json:"external_id,omitempty"`
	URL        string        `json:"url,omitempty"`
	Status     BindingStatus `json:"status"`
	Error      string        `json:"error,omitempty"`
	Settings   JSONMap       `json:"settings,omitempty"`
}

// PlatformLink is the member-facing view of one binding, returned by
// GET /sessions/:id/platforms. Partial failure stays visible per platform.
type PlatformLink struct {
	Platform Platform      `json:"platform"`
	URL      string        `json:"url,omitempty"`
	Status   BindingStatus `json:"status"`
	Error    string        `json:"error,omitempty"`
}

// PlatformSelection is one requested platform in CreateSessionRequest.
type PlatformSelection struct {
	Platform Platform `json:"platform" binding:"required"`
	Settings JSONMap  `json:"settings,omitempty"`
}

// CreateSessionRequest is the request body for POST /sessions.
type CreateSessionRequest struct {
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description"`
	Thumbnail   string              `json:"thumbnail"`
	StartAt     time.Time           `json:"start_at" binding:"required"`
	EndAt       *time.Time          `json:"end_at"`
	Platforms   []PlatformSelection `json:"platforms"`
}

// UpdateSessionRequest is the request body for PATCH /sessions/:id.
// Nil pointers mean "leave unchanged".
type UpdateSessionRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Thumbnail   *string    `json:"thumbnail"`
	StartAt     *time.Time `json:"start_at"`
	EndAt       *time.Time `json:"end_at"`
}

// ConnectRequest is the request body for POST /connections.
type ConnectRequest struct {
	Platform    Platform          `json:"platform" binding:"required"`
	Credentials map[string]string `json:"credentials" binding:"required"`
	ExpiresAt   *time.Time        `json:"expires_at"`
}

// ConnectionView is the API view of a platform connection. Credentials are
// never included.
type ConnectionView struct {
	Platform    Platform         `json:"platform"`
	Status      ConnectionStatus `json:"status"`
	ExpiresAt   *time.Time       `json:"expires_at,omitempty"`
	LastError   string           `json:"last_error,omitempty"`
	LastErrorAt *time.Time       `json:"last_error_at,omitempty"`
}
