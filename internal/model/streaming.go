package model

// Platform identifies a third-party streaming/meeting vendor.
type Platform string

const (
	PlatformRestream  Platform = "RESTREAM"
	PlatformZoom      Platform = "ZOOM"
	PlatformTeams     Platform = "TEAMS"
	PlatformJitsi     Platform = "JITSI"
	PlatformInstagram Platform = "INSTAGRAM"
	PlatformYouTube   Platform = "YOUTUBE"
	PlatformFacebook  Platform = "FACEBOOK"
)

// AllPlatforms lists every supported platform.
var AllPlatforms = []Platform{
	PlatformRestream,
	PlatformZoom,
	PlatformTeams,
	PlatformJitsi,
	PlatformInstagram,
	PlatformYouTube,
	PlatformFacebook,
}

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	for _, known := range AllPlatforms {
		if p == known {
			return true
		}
	}
	return false
}

// ConnectionStatus represents the state of a tenant's platform connection.
type ConnectionStatus string

const (
	ConnectionConnected    ConnectionStatus = "CONNECTED"
	ConnectionDisconnected ConnectionStatus = "DISCONNECTED"
	ConnectionExpired      ConnectionStatus = "EXPIRED"
	ConnectionError        ConnectionStatus = "ERROR"
)

// SessionStatus represents the overall broadcast session state.
// Transitions are monotonic: SCHEDULED -> LIVE -> ENDED.
type SessionStatus string

const (
	SessionScheduled SessionStatus = "SCHEDULED"
	SessionLive      SessionStatus = "LIVE"
	SessionEnded     SessionStatus = "ENDED"
)

// BindingStatus represents one platform's state within a session.
// FAILED and ENDED are terminal.
type BindingStatus string

const (
	BindingPending BindingStatus = "PENDING"
	BindingLive    BindingStatus = "LIVE"
	BindingFailed  BindingStatus = "FAILED"
	BindingEnded   BindingStatus = "ENDED"
)

// Credentials is a decrypted credential map handed to platform clients.
// Values are never logged or echoed back in API responses.
type Credentials map[string]string
