package platform

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/psds-microservice/broadcast-service/internal/errs"
	"github.com/psds-microservice/broadcast-service/internal/model"
)

// DefaultJitsiServerURL is the public Jitsi Meet instance.
const DefaultJitsiServerURL = "https://meet.jit.si"

var jitsiRoomCleanup = regexp.MustCompile(`[^a-z0-9]+`)

// JitsiClient provisions ephemeral Jitsi rooms. Rooms exist only as URLs,
// so the whole lifecycle is local: no network calls at all.
type JitsiClient struct {
	baseClient
	serverURL string
}

// NewJitsiClient creates a Jitsi client targeting serverURL (the public
// instance when empty).
func NewJitsiClient(httpc *http.Client, serverURL string) *JitsiClient {
	if serverURL == "" {
		serverURL = DefaultJitsiServerURL
	}
	return &JitsiClient{baseClient: newBaseClient(httpc), serverURL: strings.TrimRight(serverURL, "/")}
}

func (c *JitsiClient) Platform() model.Platform { return model.PlatformJitsi }

// Authenticate requires an API key but performs no verification call.
func (c *JitsiClient) Authenticate(ctx context.Context, creds model.Credentials) error {
	if creds["apiKey"] == "" {
		return &errs.AuthenticationError{Platform: string(model.PlatformJitsi), Reason: "API key is required"}
	}
	c.creds = creds
	return nil
}

// CreateLivestream derives a unique room name from the title.
func (c *JitsiClient) CreateLivestream(ctx context.Context, spec CreateSpec) (Provision, error) {
	room := roomName(spec.Title)
	return Provision{ExternalID: room, URL: c.serverURL + "/" + room}, nil
}

// UpdateLivestream is a no-op success: room names are immutable.
func (c *JitsiClient) UpdateLivestream(ctx context.Context, externalID string, patch UpdatePatch) error {
	return nil
}

// StartBroadcasting is a no-op success: rooms open when the first
// participant joins.
func (c *JitsiClient) StartBroadcasting(ctx context.Context, externalID string) error {
	return nil
}

// StopBroadcasting is a no-op success: rooms close when everyone leaves.
func (c *JitsiClient) StopBroadcasting(ctx context.Context, externalID string) error {
	return nil
}

// DeleteLivestream is a no-op success: rooms are ephemeral.
func (c *JitsiClient) DeleteLivestream(ctx context.Context, externalID string) error {
	return nil
}

// roomName slugs the title and appends a random suffix for uniqueness.
func roomName(title string) string {
	slug := jitsiRoomCleanup.ReplaceAllString(strings.ToLower(title), "-")
	slug = strings.Trim(slug, "-")
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	if slug == "" {
		return suffix
	}
	return slug + "-" + suffix
}
