package platform

import (
	"context"
	"net/http"
	"time"

	"github.com/psds-microservice/broadcast-service/internal/errs"
	"github.com/psds-microservice/broadcast-service/internal/model"
)

const teamsAPIBase = "https://graph.microsoft.com/v1.0"

// TeamsClient models sessions as Microsoft Graph online meetings.
type TeamsClient struct {
	baseClient
	baseURL string
}

// NewTeamsClient creates an unauthenticated Teams client.
func NewTeamsClient(httpc *http.Client) *TeamsClient {
	return &TeamsClient{baseClient: newBaseClient(httpc), baseURL: teamsAPIBase}
}

func (c *TeamsClient) Platform() model.Platform { return model.PlatformTeams }

// Authenticate verifies the token against the current Graph user.
func (c *TeamsClient) Authenticate(ctx context.Context, creds model.Credentials) error {
	if creds["accessToken"] == "" {
		return &errs.AuthenticationError{Platform: string(model.PlatformTeams), Reason: "access token is required"}
	}
	c.creds = creds
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/me", nil, c.bearer(), nil); err != nil {
		return &errs.AuthenticationError{Platform: string(model.PlatformTeams), Reason: err.Error()}
	}
	return nil
}

type teamsMeeting struct {
	ID         string `json:"id"`
	JoinWebURL string `json:"joinWebUrl"`
}

// CreateLivestream creates an online meeting; the join URL is the
// member-facing link.
func (c *TeamsClient) CreateLivestream(ctx context.Context, spec CreateSpec) (Provision, error) {
	start := startOrNow(spec.StartAt)
	end := start.Add(time.Hour)
	if spec.Settings != nil {
		if mins, ok := spec.Settings["durationMinutes"].(float64); ok && mins > 0 {
			end = start.Add(time.Duration(mins) * time.Minute)
		}
	}
	payload := map[string]interface{}{
		"subject":       spec.Title,
		"startDateTime": start.UTC().Format(time.RFC3339),
		"endDateTime":   end.UTC().Format(time.RFC3339),
		"participants":  map[string]interface{}{"attendees": []interface{}{}},
	}
	var meeting teamsMeeting
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/me/onlineMeetings", payload, c.bearer(), &meeting); err != nil {
		return Provision{}, err
	}
	return Provision{ExternalID: meeting.ID, URL: meeting.JoinWebURL}, nil
}

// UpdateLivestream renames the meeting subject; nothing else maps.
func (c *TeamsClient) UpdateLivestream(ctx context.Context, externalID string, patch UpdatePatch) error {
	if patch.Title == "" {
		return nil
	}
	payload := map[string]interface{}{"subject": patch.Title}
	return c.doJSON(ctx, http.MethodPatch, c.baseURL+"/me/onlineMeetings/"+externalID, payload, c.bearer(), nil)
}

// StartBroadcasting is a no-op success: Teams meetings start when the
// organizer joins.
func (c *TeamsClient) StartBroadcasting(ctx context.Context, externalID string) error {
	return nil
}

// StopBroadcasting ends the meeting.
func (c *TeamsClient) StopBroadcasting(ctx context.Context, externalID string) error {
	return c.doJSON(ctx, http.MethodPost, c.baseURL+"/me/onlineMeetings/"+externalID+"/end", map[string]interface{}{}, c.bearer(), nil)
}

// DeleteLivestream removes the meeting.
func (c *TeamsClient) DeleteLivestream(ctx context.Context, externalID string) error {
	return c.doJSON(ctx, http.MethodDelete, c.baseURL+"/me/onlineMeetings/"+externalID, nil, c.bearer(), nil)
}
