package platform

import (
	"context"
	"net/http"
	"time"

	"github.com/psds-microservice/broadcast-service/internal/errs"
	"github.com/psds-microservice/broadcast-service/internal/model"
)

const facebookAPIBase = "https://graph.facebook.com/v19.0"

// FacebookClient manages page-scoped Facebook Live videos.
type FacebookClient struct {
	baseClient
	baseURL string
}

// NewFacebookClient creates an unauthenticated Facebook client.
func NewFacebookClient(httpc *http.Client) *FacebookClient {
	return &FacebookClient{baseClient: newBaseClient(httpc), baseURL: facebookAPIBase}
}

func (c *FacebookClient) Platform() model.Platform { return model.PlatformFacebook }

// Authenticate verifies access to the configured page.
func (c *FacebookClient) Authenticate(ctx context.Context, creds model.Credentials) error {
	if creds["accessToken"] == "" {
		return &errs.AuthenticationError{Platform: string(model.PlatformFacebook), Reason: "access token is required"}
	}
	if creds["pageId"] == "" {
		return &errs.AuthenticationError{Platform: string(model.PlatformFacebook), Reason: "pageId is required"}
	}
	c.creds = creds
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/"+creds["pageId"]+"?fields=id", nil, c.bearer(), nil); err != nil {
		return &errs.AuthenticationError{Platform: string(model.PlatformFacebook), Reason: err.Error()}
	}
	return nil
}

type facebookLiveVideo struct {
	ID           string `json:"id"`
	PermalinkURL string `json:"permalink_url"`
}

// CreateLivestream creates a scheduled live video on the page.
func (c *FacebookClient) CreateLivestream(ctx context.Context, spec CreateSpec) (Provision, error) {
	published := true
	if v, ok := spec.Settings["published"].(bool); ok {
		published = v
	}
	payload := map[string]interface{}{
		"title":              orElse(settingString(spec.Settings, "title"), spec.Title),
		"description":        orElse(settingString(spec.Settings, "description"), spec.Description),
		"status":             "SCHEDULED_UNPUBLISHED",
		"planned_start_time": startOrNow(spec.StartAt).UTC().Format(time.RFC3339),
		"published":          published,
	}
	var video facebookLiveVideo
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/"+c.creds["pageId"]+"/live_videos", payload, c.bearer(), &video); err != nil {
		return Provision{}, err
	}
	url := video.PermalinkURL
	if url == "" {
		url = "https://www.facebook.com/" + c.creds["pageId"] + "/videos/" + video.ID
	}
	return Provision{ExternalID: video.ID, URL: url}, nil
}

// UpdateLivestream updates live video metadata. An empty patch is a no-op
// success.
func (c *FacebookClient) UpdateLivestream(ctx context.Context, externalID string, patch UpdatePatch) error {
	payload := map[string]interface{}{}
	if patch.Title != "" {
		payload["title"] = patch.Title
	}
	if patch.Description != "" {
		payload["description"] = patch.Description
	}
	if patch.StartAt != nil {
		payload["planned_start_time"] = patch.StartAt.UTC().Format(time.RFC3339)
	}
	if len(payload) == 0 {
		return nil
	}
	return c.doJSON(ctx, http.MethodPost, c.baseURL+"/"+externalID, payload, c.bearer(), nil)
}

// StartBroadcasting flips the live video to LIVE_NOW.
func (c *FacebookClient) StartBroadcasting(ctx context.Context, externalID string) error {
	return c.doJSON(ctx, http.MethodPost, c.baseURL+"/"+externalID, map[string]interface{}{"status": "LIVE_NOW"}, c.bearer(), nil)
}

// StopBroadcasting ends the live video.
func (c *FacebookClient) StopBroadcasting(ctx context.Context, externalID string) error {
	return c.doJSON(ctx, http.MethodPost, c.baseURL+"/"+externalID, map[string]interface{}{"status": "ENDED"}, c.bearer(), nil)
}

// DeleteLivestream removes the live video.
func (c *FacebookClient) DeleteLivestream(ctx context.Context, externalID string) error {
	return c.doJSON(ctx, http.MethodDelete, c.baseURL+"/"+externalID, nil, c.bearer(), nil)
}
