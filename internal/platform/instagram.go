package platform

import (
	"context"
	"net/http"

	"github.com/psds-microservice/broadcast-service/internal/errs"
	"github.com/psds-microservice/broadcast-service/internal/model"
)

// InstagramClient manages Instagram Live videos through the Graph API on a
// connected Instagram user id.
type InstagramClient struct {
	baseClient
	baseURL string
}

// NewInstagramClient creates an unauthenticated Instagram client.
func NewInstagramClient(httpc *http.Client) *InstagramClient {
	return &InstagramClient{baseClient: newBaseClient(httpc), baseURL: facebookAPIBase}
}

func (c *InstagramClient) Platform() model.Platform { return model.PlatformInstagram }

func (c *InstagramClient) userID() string {
	if id := c.creds["instagramUserId"]; id != "" {
		return id
	}
	return c.creds["igUserId"]
}

// Authenticate verifies the token against the Instagram user profile.
func (c *InstagramClient) Authenticate(ctx context.Context, creds model.Credentials) error {
	if creds["accessToken"] == "" {
		return &errs.AuthenticationError{Platform: string(model.PlatformInstagram), Reason: "access token is required"}
	}
	if creds["instagramUserId"] == "" && creds["igUserId"] == "" {
		return &errs.AuthenticationError{Platform: string(model.PlatformInstagram), Reason: "user ID is required"}
	}
	c.creds = creds
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/"+c.userID()+"?fields=id,username", nil, c.bearer(), nil); err != nil {
		return &errs.AuthenticationError{Platform: string(model.PlatformInstagram), Reason: err.Error()}
	}
	return nil
}

type instagramLiveVideo struct {
	ID           string `json:"id"`
	BroadcastURL string `json:"broadcast_url"`
}

// CreateLivestream schedules an Instagram Live video.
func (c *InstagramClient) CreateLivestream(ctx context.Context, spec CreateSpec) (Provision, error) {
	payload := map[string]interface{}{
		"title":              orElse(settingString(spec.Settings, "title"), spec.Title),
		"description":        orElse(settingString(spec.Settings, "description"), spec.Description),
		"planned_start_time": startOrNow(spec.StartAt).Unix(),
	}
	var video instagramLiveVideo
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/"+c.userID()+"/live_videos", payload, c.bearer(), &video); err != nil {
		return Provision{}, err
	}
	url := video.BroadcastURL
	if url == "" {
		url = "https://instagram.com/" + c.userID()
	}
	return Provision{ExternalID: video.ID, URL: url}, nil
}

// UpdateLivestream updates live video metadata; an empty patch is a no-op.
func (c *InstagramClient) UpdateLivestream(ctx context.Context, externalID string, patch UpdatePatch) error {
	payload := map[string]interface{}{}
	if patch.Title != "" {
		payload["title"] = patch.Title
	}
	if patch.Description != "" {
		payload["description"] = patch.Description
	}
	if patch.StartAt != nil {
		payload["planned_start_time"] = patch.StartAt.Unix()
	}
	if len(payload) == 0 {
		return nil
	}
	return c.doJSON(ctx, http.MethodPost, c.baseURL+"/"+externalID, payload, c.bearer(), nil)
}

// StartBroadcasting starts the broadcast.
func (c *InstagramClient) StartBroadcasting(ctx context.Context, externalID string) error {
	return c.doJSON(ctx, http.MethodPost, c.baseURL+"/"+externalID+"/start", map[string]interface{}{}, c.bearer(), nil)
}

// StopBroadcasting ends the broadcast.
func (c *InstagramClient) StopBroadcasting(ctx context.Context, externalID string) error {
	return c.doJSON(ctx, http.MethodPost, c.baseURL+"/"+externalID+"/end_live_video", map[string]interface{}{}, c.bearer(), nil)
}

// DeleteLivestream removes the live video.
func (c *InstagramClient) DeleteLivestream(ctx context.Context, externalID string) error {
	return c.doJSON(ctx, http.MethodDelete, c.baseURL+"/"+externalID, nil, c.bearer(), nil)
}
