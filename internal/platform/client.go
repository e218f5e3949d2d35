// Package platform normalizes every vendor's livestream/meeting API to one
// capability contract. Clients hold authenticated credentials in-instance,
// never retry, and never enforce timeouts; the orchestrator bounds each
// call with its context.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/psds-microservice/broadcast-service/internal/model"
)

// CreateSpec describes a livestream to provision on a vendor.
type CreateSpec struct {
	Title       string
	Description string
	Thumbnail   string
	StartAt     time.Time
	Settings    model.JSONMap
}

// UpdatePatch carries metadata changes for an existing livestream. Empty
// fields are left unchanged; vendors with nothing to update treat the call
// as a no-op success.
type UpdatePatch struct {
	Title       string
	Description string
	Thumbnail   string
	StartAt     *time.Time
	Settings    model.JSONMap
}

// Provision is the stable result of CreateLivestream: the vendor's handle
// plus a member-facing URL.
type Provision struct {
	ExternalID string
	URL        string
}

// Client is the uniform contract every vendor implementation satisfies.
type Client interface {
	Platform() model.Platform
	Authenticate(ctx context.Context, creds model.Credentials) error
	CreateLivestream(ctx context.Context, spec CreateSpec) (Provision, error)
	UpdateLivestream(ctx context.Context, externalID string, patch UpdatePatch) error
	StartBroadcasting(ctx context.Context, externalID string) error
	StopBroadcasting(ctx context.Context, externalID string) error
	DeleteLivestream(ctx context.Context, externalID string) error
}

// baseClient carries the HTTP plumbing and retained credentials shared by
// vendor clients. Credentials are never logged and never re-exposed.
type baseClient struct {
	httpc *http.Client
	creds model.Credentials
}

func newBaseClient(httpc *http.Client) baseClient {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return baseClient{httpc: httpc}
}

func (b *baseClient) bearer() map[string]string {
	return map[string]string{"Authorization": "Bearer " + b.creds["accessToken"]}
}

// doJSON issues a JSON request and decodes the response into out (when
// non-nil). Non-2xx responses become errors carrying the status and a body
// snippet.
func (b *baseClient) doJSON(ctx context.Context, method, url string, body interface{}, headers map[string]string, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := b.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("api request failed: %s: %s", resp.Status, bytes.TrimSpace(snippet))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// settingString reads a string override from per-platform settings.
func settingString(settings model.JSONMap, key string) string {
	if settings == nil {
		return ""
	}
	if v, ok := settings[key].(string); ok {
		return v
	}
	return ""
}

// orElse returns primary unless empty.
func orElse(primary, fallback string) string {
	if primary != "" {
		return primary
	}
	return fallback
}

// startOrNow defaults an unset scheduled start to the current time.
func startOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
