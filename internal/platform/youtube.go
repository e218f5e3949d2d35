package platform

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/psds-microservice/broadcast-service/internal/errs"
	"github.com/psds-microservice/broadcast-service/internal/model"
)

const youtubeAPIBase = "https://www.googleapis.com/youtube/v3"

// YouTubeClient drives the YouTube Live Streaming API. Going live on
// YouTube needs three steps — broadcast insert, stream insert, bind — all
// performed inside CreateLivestream so the contract stays uniform.
type YouTubeClient struct {
	baseClient
	baseURL string
}

// NewYouTubeClient creates an unauthenticated YouTube client.
func NewYouTubeClient(httpc *http.Client) *YouTubeClient {
	return &YouTubeClient{baseClient: newBaseClient(httpc), baseURL: youtubeAPIBase}
}

func (c *YouTubeClient) Platform() model.Platform { return model.PlatformYouTube }

// Authenticate verifies the OAuth token by fetching the caller's channel.
func (c *YouTubeClient) Authenticate(ctx context.Context, creds model.Credentials) error {
	if creds["accessToken"] == "" {
		return &errs.AuthenticationError{Platform: string(model.PlatformYouTube), Reason: "OAuth access token is required"}
	}
	c.creds = creds
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/channels?part=id&mine=true", nil, c.bearer(), nil); err != nil {
		return &errs.AuthenticationError{Platform: string(model.PlatformYouTube), Reason: err.Error()}
	}
	return nil
}

type youtubeResource struct {
	ID string `json:"id"`
}

// CreateLivestream provisions a broadcast, provisions an ingest stream, and
// binds them.
func (c *YouTubeClient) CreateLivestream(ctx context.Context, spec CreateSpec) (Provision, error) {
	title := orElse(settingString(spec.Settings, "title"), spec.Title)
	description := orElse(settingString(spec.Settings, "description"), spec.Description)
	privacy := orElse(settingString(spec.Settings, "privacyStatus"), "public")
	resolution := orElse(settingString(spec.Settings, "resolution"), "variable")

	broadcastPayload := map[string]interface{}{
		"snippet": map[string]interface{}{
			"title":              title,
			"description":        description,
			"scheduledStartTime": startOrNow(spec.StartAt).UTC().Format(time.RFC3339),
		},
		"status": map[string]interface{}{
			"privacyStatus": privacy,
		},
		"contentDetails": map[string]interface{}{
			"enableAutoStart": true,
			"enableAutoStop":  true,
		},
	}
	var broadcast youtubeResource
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/liveBroadcasts?part=snippet,contentDetails,status", broadcastPayload, c.bearer(), &broadcast); err != nil {
		return Provision{}, err
	}

	streamPayload := map[string]interface{}{
		"snippet": map[string]interface{}{
			"title":       title + " Stream",
			"description": description,
		},
		"cdn": map[string]interface{}{
			"frameRate":     "variable",
			"ingestionType": "rtmp",
			"resolution":    resolution,
		},
	}
	var stream youtubeResource
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/liveStreams?part=snippet,cdn,contentDetails", streamPayload, c.bearer(), &stream); err != nil {
		return Provision{}, err
	}

	bindURL := fmt.Sprintf("%s/liveBroadcasts/bind?id=%s&part=id&streamId=%s", c.baseURL, broadcast.ID, stream.ID)
	if err := c.doJSON(ctx, http.MethodPost, bindURL, map[string]interface{}{}, c.bearer(), nil); err != nil {
		return Provision{}, err
	}

	return Provision{
		ExternalID: broadcast.ID,
		URL:        "https://www.youtube.com/watch?v=" + broadcast.ID,
	}, nil
}

// UpdateLivestream updates the broadcast snippet.
func (c *YouTubeClient) UpdateLivestream(ctx context.Context, externalID string, patch UpdatePatch) error {
	snippet := map[string]interface{}{}
	if patch.Title != "" {
		snippet["title"] = patch.Title
	}
	if patch.Description != "" {
		snippet["description"] = patch.Description
	}
	if patch.StartAt != nil {
		snippet["scheduledStartTime"] = patch.StartAt.UTC().Format(time.RFC3339)
	}
	payload := map[string]interface{}{"id": externalID, "snippet": snippet}
	return c.doJSON(ctx, http.MethodPut, c.baseURL+"/liveBroadcasts?part=snippet", payload, c.bearer(), nil)
}

// StartBroadcasting transitions the broadcast to live.
func (c *YouTubeClient) StartBroadcasting(ctx context.Context, externalID string) error {
	url := fmt.Sprintf("%s/liveBroadcasts/transition?broadcastStatus=live&id=%s&part=status", c.baseURL, externalID)
	return c.doJSON(ctx, http.MethodPost, url, map[string]interface{}{}, c.bearer(), nil)
}

// StopBroadcasting transitions the broadcast to complete.
func (c *YouTubeClient) StopBroadcasting(ctx context.Context, externalID string) error {
	url := fmt.Sprintf("%s/liveBroadcasts/transition?broadcastStatus=complete&id=%s&part=status", c.baseURL, externalID)
	return c.doJSON(ctx, http.MethodPost, url, map[string]interface{}{}, c.bearer(), nil)
}

// DeleteLivestream removes the broadcast.
func (c *YouTubeClient) DeleteLivestream(ctx context.Context, externalID string) error {
	return c.doJSON(ctx, http.MethodDelete, c.baseURL+"/liveBroadcasts?id="+externalID, nil, c.bearer(), nil)
}
