package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/psds-microservice/broadcast-service/internal/errs"
	"github.com/psds-microservice/broadcast-service/internal/model"
	"github.com/psds-microservice/broadcast-service/internal/platform"
)

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]*model.BroadcastSession
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: map[string]*model.BroadcastSession{}}
}

func (m *memSessions) Create(_ context.Context, ent *model.BroadcastSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ent
	cp.Bindings = append([]model.PlatformBinding(nil), ent.Bindings...)
	m.sessions[ent.ID] = &cp
	return nil
}

func (m *memSessions) Get(_ context.Context, tenantID, sessionID string) (*model.BroadcastSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ent, ok := m.sessions[sessionID]
	if !ok || ent.TenantID != tenantID {
		return nil, errs.ErrSessionNotFound
	}
	cp := *ent
	cp.Bindings = append([]model.PlatformBinding(nil), ent.Bindings...)
	return &cp, nil
}

func (m *memSessions) List(_ context.Context, tenantID string) ([]model.BroadcastSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.BroadcastSession
	for _, ent := range m.sessions {
		if ent.TenantID == tenantID {
			out = append(out, *ent)
		}
	}
	return out, nil
}

func (m *memSessions) UpdateFields(_ context.Context, sessionID string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ent, ok := m.sessions[sessionID]
	if !ok {
		return errs.ErrSessionNotFound
	}
	if v, ok := fields["title"]; ok {
		ent.Title = v.(string)
	}
	if v, ok := fields["status"]; ok {
		ent.Status = v.(string)
	}
	if v, ok := fields["end_at"]; ok {
		t := v.(time.Time)
		ent.EndAt = &t
	}
	return nil
}

func (m *memSessions) SetStatus(_ context.Context, sessionID string, status model.SessionStatus, endAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ent, ok := m.sessions[sessionID]
	if !ok {
		return errs.ErrSessionNotFound
	}
	ent.Status = string(status)
	if endAt != nil {
		ent.EndAt = endAt
	}
	return nil
}

func (m *memSessions) Delete(_ context.Context, tenantID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ent, ok := m.sessions[sessionID]
	if !ok || ent.TenantID != tenantID {
		return errs.ErrSessionNotFound
	}
	delete(m.sessions, sessionID)
	return nil
}

func (m *memSessions) UpdateBinding(_ context.Context, bindingID string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ent := range m.sessions {
		for i := range ent.Bindings {
			if ent.Bindings[i].ID != bindingID {
				continue
			}
			b := &ent.Bindings[i]
			if v, ok := fields["status"]; ok {
				b.Status = v.(string)
			}
			if v, ok := fields["error"]; ok {
				b.Error = v.(string)
			}
			if v, ok := fields["external_id"]; ok {
				b.ExternalID = v.(string)
			}
			if v, ok := fields["url"]; ok {
				b.URL = v.(string)
			}
			return nil
		}
	}
	return errs.ErrSessionNotFound
}

// stubClient scripts one platform's behavior and counts remote calls.
type stubClient struct {
	platform  model.Platform
	createErr error
	startErr  error
	stopErr   error
	updateErr error
	deleteErr error

	mu    sync.Mutex
	calls []string
}

func (c *stubClient) record(op string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, op)
}

func (c *stubClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func (c *stubClient) Platform() model.Platform { return c.platform }

func (c *stubClient) Authenticate(context.Context, model.Credentials) error { return nil }

func (c *stubClient) CreateLivestream(_ context.Context, _ platform.CreateSpec) (platform.Provision, error) {
	c.record("create")
	if c.createErr != nil {
		return platform.Provision{}, c.createErr
	}
	return platform.Provision{
		ExternalID: string(c.platform) + "-ext",
		URL:        "https://" + string(c.platform) + ".example/watch",
	}, nil
}

func (c *stubClient) UpdateLivestream(_ context.Context, _ string, _ platform.UpdatePatch) error {
	c.record("update")
	return c.updateErr
}

func (c *stubClient) StartBroadcasting(_ context.Context, _ string) error {
	c.record("start")
	return c.startErr
}

func (c *stubClient) StopBroadcasting(_ context.Context, _ string) error {
	c.record("stop")
	return c.stopErr
}

func (c *stubClient) DeleteLivestream(_ context.Context, _ string) error {
	c.record("delete")
	return c.deleteErr
}

// stubClients maps platforms to scripted clients; absent platforms
// behave as not connected.
type stubClients struct {
	clients map[model.Platform]*stubClient
}

func (s *stubClients) Get(_ context.Context, _ string, p model.Platform) (platform.Client, error) {
	c, ok := s.clients[p]
	if !ok {
		return nil, errs.ErrNotConnected
	}
	return c, nil
}

type recordingHub struct {
	mu     sync.Mutex
	events []model.StatusEvent
	closed []string
}

func (h *recordingHub) Publish(_ string, evt model.StatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, evt)
}

func (h *recordingHub) CloseSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = append(h.closed, sessionID)
}

func (h *recordingHub) closedSessions() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.closed...)
}

type fixture struct {
	orch    *Orchestrator
	store   *memSessions
	clients *stubClients
	hub     *recordingHub
}

func newFixture(strict bool, clients map[model.Platform]*stubClient) *fixture {
	store := newMemSessions()
	src := &stubClients{clients: clients}
	hub := &recordingHub{}
	return &fixture{
		orch:    NewOrchestrator(store, src, hub, zap.NewNop(), time.Second, strict),
		store:   store,
		clients: src,
		hub:     hub,
	}
}

func createReq(platforms ...model.Platform) model.CreateSessionRequest {
	req := model.CreateSessionRequest{
		Title:   "Sunday Service",
		StartAt: time.Date(2024, 6, 2, 10, 0, 0, 0, time.UTC),
	}
	for _, p := range platforms {
		req.Platforms = append(req.Platforms, model.PlatformSelection{Platform: p})
	}
	return req
}

func bindingFor(t *testing.T, sess *model.Session, p model.Platform) model.Binding {
	t.Helper()
	for _, b := range sess.Bindings {
		if b.Platform == p {
			return b
		}
	}
	t.Fatalf("no binding for %s", p)
	return model.Binding{}
}

func TestCreateSession_RequiresPlatforms(t *testing.T) {
	f := newFixture(false, nil)

	_, err := f.orch.CreateSession(context.Background(), "t1", createReq())
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = f.orch.CreateSession(context.Background(), "t1", createReq("TWITCH"))
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = f.orch.CreateSession(context.Background(), "t1",
		createReq(model.PlatformZoom, model.PlatformZoom))
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestCreateSession_DisconnectedPlatformFailsWithoutRemoteCall(t *testing.T) {
	yt := &stubClient{platform: model.PlatformYouTube}
	f := newFixture(false, map[model.Platform]*stubClient{model.PlatformYouTube: yt})

	sess, err := f.orch.CreateSession(context.Background(), "t1",
		createReq(model.PlatformYouTube, model.PlatformFacebook))
	require.NoError(t, err)
	assert.Equal(t, model.SessionScheduled, sess.Status)

	ytb := bindingFor(t, sess, model.PlatformYouTube)
	assert.Equal(t, model.BindingPending, ytb.Status)
	assert.Equal(t, "YOUTUBE-ext", ytb.ExternalID)
	assert.NotEmpty(t, ytb.URL)

	fb := bindingFor(t, sess, model.PlatformFacebook)
	assert.Equal(t, model.BindingFailed, fb.Status)
	assert.Contains(t, fb.Error, "not connected")
	assert.Empty(t, fb.ExternalID)
}

func TestCreateSession_ProvisionFailureIsolated(t *testing.T) {
	yt := &stubClient{platform: model.PlatformYouTube, createErr: errors.New("quota exceeded")}
	zm := &stubClient{platform: model.PlatformZoom}
	f := newFixture(false, map[model.Platform]*stubClient{
		model.PlatformYouTube: yt,
		model.PlatformZoom:    zm,
	})

	sess, err := f.orch.CreateSession(context.Background(), "t1",
		createReq(model.PlatformYouTube, model.PlatformZoom))
	require.NoError(t, err, "sibling failure must not abort the session")

	ytb := bindingFor(t, sess, model.PlatformYouTube)
	assert.Equal(t, model.BindingFailed, ytb.Status)
	assert.Contains(t, ytb.Error, "quota exceeded")

	zmb := bindingFor(t, sess, model.PlatformZoom)
	assert.Equal(t, model.BindingPending, zmb.Status)
	assert.Equal(t, "ZOOM-ext", zmb.ExternalID)
}

func TestStartBroadcasting_ReprovisionsMissingExternalID(t *testing.T) {
	yt := &stubClient{platform: model.PlatformYouTube, createErr: errors.New("down")}
	f := newFixture(false, map[model.Platform]*stubClient{model.PlatformYouTube: yt})

	created, err := f.orch.CreateSession(context.Background(), "t1", createReq(model.PlatformYouTube))
	require.NoError(t, err)
	require.Equal(t, model.BindingFailed, bindingFor(t, created, model.PlatformYouTube).Status)

	yt.createErr = nil
	started, err := f.orch.StartBroadcasting(context.Background(), "t1", created.ID)
	require.NoError(t, err)

	b := bindingFor(t, started, model.PlatformYouTube)
	assert.Equal(t, model.BindingLive, b.Status)
	assert.Equal(t, "YOUTUBE-ext", b.ExternalID)
	assert.Equal(t, []string{"create", "create", "start"}, yt.calls)
}

func TestStartBroadcasting_AllFailuresStillLiveByDefault(t *testing.T) {
	yt := &stubClient{platform: model.PlatformYouTube, startErr: errors.New("transition rejected")}
	f := newFixture(false, map[model.Platform]*stubClient{model.PlatformYouTube: yt})

	created, err := f.orch.CreateSession(context.Background(), "t1", createReq(model.PlatformYouTube))
	require.NoError(t, err)

	started, err := f.orch.StartBroadcasting(context.Background(), "t1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionLive, started.Status)

	b := bindingFor(t, started, model.PlatformYouTube)
	assert.Equal(t, model.BindingFailed, b.Status)
	assert.Contains(t, b.Error, "transition rejected")
}

func TestStartBroadcasting_StrictModeLeavesScheduled(t *testing.T) {
	yt := &stubClient{platform: model.PlatformYouTube, startErr: errors.New("transition rejected")}
	f := newFixture(true, map[model.Platform]*stubClient{model.PlatformYouTube: yt})

	created, err := f.orch.CreateSession(context.Background(), "t1", createReq(model.PlatformYouTube))
	require.NoError(t, err)

	started, err := f.orch.StartBroadcasting(context.Background(), "t1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionScheduled, started.Status)
}

func TestStartBroadcasting_StrictModeGoesLiveWithOneSuccess(t *testing.T) {
	yt := &stubClient{platform: model.PlatformYouTube, startErr: errors.New("down")}
	zm := &stubClient{platform: model.PlatformZoom}
	f := newFixture(true, map[model.Platform]*stubClient{
		model.PlatformYouTube: yt,
		model.PlatformZoom:    zm,
	})

	created, err := f.orch.CreateSession(context.Background(), "t1",
		createReq(model.PlatformYouTube, model.PlatformZoom))
	require.NoError(t, err)

	started, err := f.orch.StartBroadcasting(context.Background(), "t1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionLive, started.Status)
	assert.Equal(t, model.BindingLive, bindingFor(t, started, model.PlatformZoom).Status)
	assert.Equal(t, model.BindingFailed, bindingFor(t, started, model.PlatformYouTube).Status)
}

func TestStopBroadcasting_StampsEndEvenWhenStopsFail(t *testing.T) {
	yt := &stubClient{platform: model.PlatformYouTube, stopErr: errors.New("gone")}
	f := newFixture(false, map[model.Platform]*stubClient{model.PlatformYouTube: yt})

	created, err := f.orch.CreateSession(context.Background(), "t1", createReq(model.PlatformYouTube))
	require.NoError(t, err)
	_, err = f.orch.StartBroadcasting(context.Background(), "t1", created.ID)
	require.NoError(t, err)

	stopped, err := f.orch.StopBroadcasting(context.Background(), "t1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionEnded, stopped.Status)
	require.NotNil(t, stopped.EndAt)

	b := bindingFor(t, stopped, model.PlatformYouTube)
	assert.Equal(t, model.BindingFailed, b.Status)
	assert.Contains(t, b.Error, "gone")
}

func TestStopBroadcasting_SkipsUnprovisionedBindings(t *testing.T) {
	zm := &stubClient{platform: model.PlatformZoom}
	f := newFixture(false, map[model.Platform]*stubClient{model.PlatformZoom: zm})

	created, err := f.orch.CreateSession(context.Background(), "t1",
		createReq(model.PlatformZoom, model.PlatformTeams))
	require.NoError(t, err)

	stopped, err := f.orch.StopBroadcasting(context.Background(), "t1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BindingEnded, bindingFor(t, stopped, model.PlatformZoom).Status)
	// TEAMS never provisioned, so no stop was attempted against it.
	assert.Equal(t, model.BindingFailed, bindingFor(t, stopped, model.PlatformTeams).Status)
	assert.Equal(t, []string{"create", "stop"}, zm.calls)
}

func TestUpdateSession_LocalUpdateSurvivesRemoteFailure(t *testing.T) {
	yt := &stubClient{platform: model.PlatformYouTube, updateErr: errors.New("bad request")}
	f := newFixture(false, map[model.Platform]*stubClient{model.PlatformYouTube: yt})

	created, err := f.orch.CreateSession(context.Background(), "t1", createReq(model.PlatformYouTube))
	require.NoError(t, err)

	title := "Renamed"
	updated, err := f.orch.UpdateSession(context.Background(), "t1", created.ID,
		model.UpdateSessionRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)

	b := bindingFor(t, updated, model.PlatformYouTube)
	assert.Contains(t, b.Error, "bad request")
	assert.Equal(t, model.BindingPending, b.Status, "metadata failure must not flip binding status")

	stored, err := f.orch.GetSession(context.Background(), "t1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Title)
}

func TestDeleteSession_RemovesLocalDespiteRemoteFailure(t *testing.T) {
	yt := &stubClient{platform: model.PlatformYouTube, deleteErr: errors.New("forbidden")}
	f := newFixture(false, map[model.Platform]*stubClient{model.PlatformYouTube: yt})

	created, err := f.orch.CreateSession(context.Background(), "t1", createReq(model.PlatformYouTube))
	require.NoError(t, err)

	require.NoError(t, f.orch.DeleteSession(context.Background(), "t1", created.ID))

	_, err = f.orch.GetSession(context.Background(), "t1", created.ID)
	require.ErrorIs(t, err, errs.ErrSessionNotFound)
	assert.Equal(t, []string{created.ID}, f.hub.closedSessions())
}

func TestPlatformLinks_PureRead(t *testing.T) {
	yt := &stubClient{platform: model.PlatformYouTube}
	f := newFixture(false, map[model.Platform]*stubClient{model.PlatformYouTube: yt})

	created, err := f.orch.CreateSession(context.Background(), "t1",
		createReq(model.PlatformYouTube, model.PlatformInstagram))
	require.NoError(t, err)
	callsAfterCreate := yt.callCount()

	for i := 0; i < 3; i++ {
		links, err := f.orch.PlatformLinks(context.Background(), "t1", created.ID)
		require.NoError(t, err)
		require.Len(t, links, 2)
	}
	assert.Equal(t, callsAfterCreate, yt.callCount(), "platform links must not touch the vendor")
}

func TestStatusNeverRewinds(t *testing.T) {
	zm := &stubClient{platform: model.PlatformZoom}
	f := newFixture(false, map[model.Platform]*stubClient{model.PlatformZoom: zm})

	created, err := f.orch.CreateSession(context.Background(), "t1", createReq(model.PlatformZoom))
	require.NoError(t, err)
	_, err = f.orch.StopBroadcasting(context.Background(), "t1", created.ID)
	require.NoError(t, err)

	started, err := f.orch.StartBroadcasting(context.Background(), "t1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionEnded, started.Status, "ended session must not rewind to LIVE")
}

func TestSessionScopedToTenant(t *testing.T) {
	zm := &stubClient{platform: model.PlatformZoom}
	f := newFixture(false, map[model.Platform]*stubClient{model.PlatformZoom: zm})

	created, err := f.orch.CreateSession(context.Background(), "t1", createReq(model.PlatformZoom))
	require.NoError(t, err)

	_, err = f.orch.GetSession(context.Background(), "t2", created.ID)
	require.ErrorIs(t, err, errs.ErrSessionNotFound)
	_, err = f.orch.StartBroadcasting(context.Background(), "t2", created.ID)
	require.ErrorIs(t, err, errs.ErrSessionNotFound)
}
