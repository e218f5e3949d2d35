package platform

import (
	"context"
	"net/http"

	"github.com/psds-microservice/broadcast-service/internal/errs"
	"github.com/psds-microservice/broadcast-service/internal/model"
)

const restreamAPIBase = "https://api.restream.io/v2"

// RestreamClient relays one broadcast to many destinations through the
// Restream channel API.
type RestreamClient struct {
	baseClient
	baseURL string
}

// NewRestreamClient creates an unauthenticated Restream client.
func NewRestreamClient(httpc *http.Client) *RestreamClient {
	return &RestreamClient{baseClient: newBaseClient(httpc), baseURL: restreamAPIBase}
}

func (c *RestreamClient) Platform() model.Platform { return model.PlatformRestream }

// Authenticate verifies the token against the current user.
func (c *RestreamClient) Authenticate(ctx context.Context, creds model.Credentials) error {
	if creds["accessToken"] == "" {
		return &errs.AuthenticationError{Platform: string(model.PlatformRestream), Reason: "access token is required"}
	}
	c.creds = creds
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/user", nil, c.bearer(), nil); err != nil {
		return &errs.AuthenticationError{Platform: string(model.PlatformRestream), Reason: err.Error()}
	}
	return nil
}

type restreamChannel struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateLivestream creates a Restream channel.
func (c *RestreamClient) CreateLivestream(ctx context.Context, spec CreateSpec) (Provision, error) {
	payload := map[string]interface{}{
		"title":       spec.Title,
		"description": spec.Description,
		"thumbnail":   spec.Thumbnail,
	}
	var channel restreamChannel
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/channels", payload, c.bearer(), &channel); err != nil {
		return Provision{}, err
	}
	url := channel.URL
	if url == "" {
		url = "https://restream.io/channel/" + channel.ID
	}
	return Provision{ExternalID: channel.ID, URL: url}, nil
}

// UpdateLivestream patches channel metadata.
func (c *RestreamClient) UpdateLivestream(ctx context.Context, externalID string, patch UpdatePatch) error {
	payload := map[string]interface{}{}
	if patch.Title != "" {
		payload["title"] = patch.Title
	}
	if patch.Description != "" {
		payload["description"] = patch.Description
	}
	if patch.Thumbnail != "" {
		payload["thumbnail"] = patch.Thumbnail
	}
	if len(payload) == 0 {
		return nil
	}
	return c.doJSON(ctx, http.MethodPatch, c.baseURL+"/channels/"+externalID, payload, c.bearer(), nil)
}

// StartBroadcasting starts the channel.
func (c *RestreamClient) StartBroadcasting(ctx context.Context, externalID string) error {
	return c.doJSON(ctx, http.MethodPost, c.baseURL+"/channels/"+externalID+"/start", map[string]interface{}{}, c.bearer(), nil)
}

// StopBroadcasting stops the channel.
func (c *RestreamClient) StopBroadcasting(ctx context.Context, externalID string) error {
	return c.doJSON(ctx, http.MethodPost, c.baseURL+"/channels/"+externalID+"/stop", map[string]interface{}{}, c.bearer(), nil)
}

// DeleteLivestream removes the channel.
func (c *RestreamClient) DeleteLivestream(ctx context.Context, externalID string) error {
	return c.doJSON(ctx, http.MethodDelete, c.baseURL+"/channels/"+externalID, nil, c.bearer(), nil)
}
