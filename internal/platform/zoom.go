package platform

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/psds-microservice/broadcast-service/internal/errs"
	"github.com/psds-microservice/broadcast-service/internal/model"
)

const zoomAPIBase = "https://api.zoom.us/v2"

// ZoomClient models livestream sessions as Zoom scheduled meetings.
type ZoomClient struct {
	baseClient
	baseURL string
}

// NewZoomClient creates an unauthenticated Zoom client.
func NewZoomClient(httpc *http.Client) *ZoomClient {
	return &ZoomClient{baseClient: newBaseClient(httpc), baseURL: zoomAPIBase}
}

func (c *ZoomClient) Platform() model.Platform { return model.PlatformZoom }

// Authenticate verifies the token against the current user.
func (c *ZoomClient) Authenticate(ctx context.Context, creds model.Credentials) error {
	if creds["accessToken"] == "" {
		return &errs.AuthenticationError{Platform: string(model.PlatformZoom), Reason: "access token is required"}
	}
	c.creds = creds
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/users/me", nil, c.bearer(), nil); err != nil {
		return &errs.AuthenticationError{Platform: string(model.PlatformZoom), Reason: err.Error()}
	}
	return nil
}

type zoomMeeting struct {
	ID      int64  `json:"id"`
	JoinURL string `json:"join_url"`
}

// CreateLivestream creates a scheduled meeting; the join URL is the
// member-facing link.
func (c *ZoomClient) CreateLivestream(ctx context.Context, spec CreateSpec) (Provision, error) {
	payload := map[string]interface{}{
		"topic":      spec.Title,
		"type":       2, // scheduled meeting
		"start_time": startOrNow(spec.StartAt).UTC().Format(time.RFC3339),
		"duration":   60,
		"settings": map[string]interface{}{
			"host_video":        true,
			"participant_video": true,
			"join_before_host":  true,
			"waiting_room":      false,
		},
	}
	var meeting zoomMeeting
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/users/me/meetings", payload, c.bearer(), &meeting); err != nil {
		return Provision{}, err
	}
	return Provision{ExternalID: strconv.FormatInt(meeting.ID, 10), URL: meeting.JoinURL}, nil
}

// UpdateLivestream renames the meeting topic; nothing else maps.
func (c *ZoomClient) UpdateLivestream(ctx context.Context, externalID string, patch UpdatePatch) error {
	if patch.Title == "" {
		return nil
	}
	payload := map[string]interface{}{"topic": patch.Title}
	return c.doJSON(ctx, http.MethodPatch, c.baseURL+"/meetings/"+externalID, payload, c.bearer(), nil)
}

// StartBroadcasting is a no-op success: Zoom meetings start when the host
// joins.
func (c *ZoomClient) StartBroadcasting(ctx context.Context, externalID string) error {
	return nil
}

// StopBroadcasting ends the meeting.
func (c *ZoomClient) StopBroadcasting(ctx context.Context, externalID string) error {
	payload := map[string]interface{}{"action": "end"}
	return c.doJSON(ctx, http.MethodPut, c.baseURL+"/meetings/"+externalID+"/status", payload, c.bearer(), nil)
}

// DeleteLivestream removes the meeting.
func (c *ZoomClient) DeleteLivestream(ctx context.Context, externalID string) error {
	return c.doJSON(ctx, http.MethodDelete, c.baseURL+"/meetings/"+externalID, nil, c.bearer(), nil)
}
