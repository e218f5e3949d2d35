package platform

import (
	"fmt"
	"net/http"

	"github.com/psds-microservice/broadcast-service/internal/model"
)

// Factory constructs unauthenticated vendor clients. Authentication and
// caching belong to the registry.
type Factory struct {
	httpc          *http.Client
	jitsiServerURL string
}

// NewFactory creates a client factory sharing one HTTP client across
// vendors.
func NewFactory(httpc *http.Client, jitsiServerURL string) *Factory {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &Factory{httpc: httpc, jitsiServerURL: jitsiServerURL}
}

// New returns a fresh client for the platform.
func (f *Factory) New(p model.Platform) (Client, error) {
	switch p {
	case model.PlatformRestream:
		return NewRestreamClient(f.httpc), nil
	case model.PlatformZoom:
		return NewZoomClient(f.httpc), nil
	case model.PlatformTeams:
		return NewTeamsClient(f.httpc), nil
	case model.PlatformJitsi:
		return NewJitsiClient(f.httpc, f.jitsiServerURL), nil
	case model.PlatformInstagram:
		return NewInstagramClient(f.httpc), nil
	case model.PlatformYouTube:
		return NewYouTubeClient(f.httpc), nil
	case model.PlatformFacebook:
		return NewFacebookClient(f.httpc), nil
	default:
		return nil, fmt.Errorf("unknown platform: %s", p)
	}
}
