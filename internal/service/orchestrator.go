package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/psds-microservice/broadcast-service/internal/errs"
	"github.com/psds-microservice/broadcast-service/internal/model"
	"github.com/psds-microservice/broadcast-service/internal/platform"
)

// SessionStore persists sessions and bindings.
type SessionStore interface {
	Create(ctx context.Context, ent *model.BroadcastSession) error
	Get(ctx context.Context, tenantID, sessionID string) (*model.BroadcastSession, error)
	List(ctx context.Context, tenantID string) ([]model.BroadcastSession, error)
	UpdateFields(ctx context.Context, sessionID string, fields map[string]interface{}) error
	SetStatus(ctx context.Context, sessionID string, status model.SessionStatus, endAt *time.Time) error
	Delete(ctx context.Context, tenantID, sessionID string) error
	UpdateBinding(ctx context.Context, bindingID string, fields map[string]interface{}) error
}

// ClientSource yields an authenticated vendor client for a tenant.
type ClientSource interface {
	Get(ctx context.Context, tenantID string, p model.Platform) (platform.Client, error)
}

// Notifier pushes status events to session subscribers.
type Notifier interface {
	Publish(sessionID string, evt model.StatusEvent)
	CloseSession(sessionID string)
}

// Orchestrator manages broadcast session lifecycle across platforms.
// Every remote operation fans out one goroutine per binding; each
// goroutine is the single writer of its binding, and the WaitGroup join
// is the only synchronization point. A failed platform never aborts its
// siblings.
type Orchestrator struct {
	sessions    SessionStore
	clients     ClientSource
	hub         Notifier
	log         *zap.Logger
	callTimeout time.Duration
	strictStart bool
}

// NewOrchestrator creates the session orchestrator. callTimeout bounds
// each remote platform call; strictStart gates the start transition on
// at least one live binding instead of flipping unconditionally.
func NewOrchestrator(sessions SessionStore, clients ClientSource, hub Notifier, log *zap.Logger, callTimeout time.Duration, strictStart bool) *Orchestrator {
	if callTimeout <= 0 {
		callTimeout = 15 * time.Second
	}
	return &Orchestrator{
		sessions:    sessions,
		clients:     clients,
		hub:         hub,
		log:         log,
		callTimeout: callTimeout,
		strictStart: strictStart,
	}
}

// CreateSession stores the session with one binding per requested
// platform, then provisions all platforms concurrently. It returns
// after every platform settles; per-platform failures are recorded on
// the bindings, never escalated.
func (o *Orchestrator) CreateSession(ctx context.Context, tenantID string, req model.CreateSessionRequest) (*model.Session, error) {
	if len(req.Platforms) == 0 {
		return nil, errs.Validation("at least one platform is required")
	}
	seen := make(map[model.Platform]bool, len(req.Platforms))
	for _, sel := range req.Platforms {
		if !sel.Platform.Valid() {
			return nil, errs.Validation("unknown platform %q", sel.Platform)
		}
		if seen[sel.Platform] {
			return nil, errs.Validation("platform %s requested twice", sel.Platform)
		}
		seen[sel.Platform] = true
	}

	ent := &model.BroadcastSession{
		ID:          uuid.New().String(),
		TenantID:    tenantID,
		Title:       req.Title,
		Description: req.Description,
		Thumbnail:   req.Thumbnail,
		Status:      string(model.SessionScheduled),
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
	}
	for _, sel := range req.Platforms {
		ent.Bindings = append(ent.Bindings, model.PlatformBinding{
			ID:        uuid.New().String(),
			SessionID: ent.ID,
			Platform:  string(sel.Platform),
			Status:    string(model.BindingPending),
			Settings:  sel.Settings,
		})
	}
	if err := o.sessions.Create(ctx, ent); err != nil {
		return nil, err
	}

	o.fanOut(ent.Bindings, func(b *model.PlatformBinding) {
		o.provision(ctx, ent, b)
	})
	return entityToSession(ent), nil
}

// GetSession returns one session with its bindings.
func (o *Orchestrator) GetSession(ctx context.Context, tenantID, sessionID string) (*model.Session, error) {
	ent, err := o.sessions.Get(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	return entityToSession(ent), nil
}

// ListSessions returns the tenant's sessions, optionally filtered by status.
func (o *Orchestrator) ListSessions(ctx context.Context, tenantID string, status model.SessionStatus) ([]model.Session, error) {
	ents, err := o.sessions.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Session, 0, len(ents))
	for i := range ents {
		if status != "" && ents[i].Status != string(status) {
			continue
		}
		out = append(out, *entityToSession(&ents[i]))
	}
	return out, nil
}

// StartBroadcasting re-provisions bindings that have no external handle,
// then starts every provisioned binding concurrently. The session flips
// to LIVE after fan-in; with strictStart enabled the flip requires at
// least one live binding.
func (o *Orchestrator) StartBroadcasting(ctx context.Context, tenantID, sessionID string) (*model.Session, error) {
	ent, err := o.sessions.Get(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	o.fanOut(ent.Bindings, func(b *model.PlatformBinding) {
		if b.ExternalID == "" {
			if !o.provision(ctx, ent, b) {
				return
			}
		}
		client, err := o.clients.Get(ctx, ent.TenantID, model.Platform(b.Platform))
		if err != nil {
			o.failBinding(ctx, ent.ID, b, err)
			return
		}
		cctx, cancel := context.WithTimeout(ctx, o.callTimeout)
		err = client.StartBroadcasting(cctx, b.ExternalID)
		cancel()
		if err != nil {
			o.failBinding(ctx, ent.ID, b, &errs.BroadcastControlError{Platform: b.Platform, Operation: "start", Err: err})
			return
		}
		o.setBinding(ctx, ent.ID, b, model.BindingLive)
	})

	// SCHEDULED -> LIVE -> ENDED is monotonic; starting an ended session
	// re-runs the fan-out but never rewinds the session status.
	if ent.Status == string(model.SessionScheduled) &&
		(!o.strictStart || anyBindingLive(ent.Bindings)) {
		if err := o.sessions.SetStatus(ctx, ent.ID, model.SessionLive, nil); err != nil {
			return nil, err
		}
		ent.Status = string(model.SessionLive)
		o.publishSession(ent.ID, model.SessionLive)
	}
	return entityToSession(ent), nil
}

// StopBroadcasting stops every binding that holds an external handle.
// The session is marked ENDED and end_at stamped regardless of remote
// outcomes; stop is best-effort, not transactional.
func (o *Orchestrator) StopBroadcasting(ctx context.Context, tenantID, sessionID string) (*model.Session, error) {
	ent, err := o.sessions.Get(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	o.fanOut(ent.Bindings, func(b *model.PlatformBinding) {
		if b.ExternalID == "" {
			return
		}
		client, err := o.clients.Get(ctx, ent.TenantID, model.Platform(b.Platform))
		if err != nil {
			o.failBinding(ctx, ent.ID, b, err)
			return
		}
		cctx, cancel := context.WithTimeout(ctx, o.callTimeout)
		err = client.StopBroadcasting(cctx, b.ExternalID)
		cancel()
		if err != nil {
			o.failBinding(ctx, ent.ID, b, &errs.BroadcastControlError{Platform: b.Platform, Operation: "stop", Err: err})
			return
		}
		o.setBinding(ctx, ent.ID, b, model.BindingEnded)
	})

	if ent.Status != string(model.SessionEnded) {
		now := time.Now()
		if err := o.sessions.SetStatus(ctx, ent.ID, model.SessionEnded, &now); err != nil {
			return nil, err
		}
		ent.Status = string(model.SessionEnded)
		ent.EndAt = &now
		o.publishSession(ent.ID, model.SessionEnded)
	}
	return entityToSession(ent), nil
}

// UpdateSession patches the local record, then pushes metadata changes
// to every provisioned platform. A remote update failure is recorded on
// its binding; the local update stands either way.
func (o *Orchestrator) UpdateSession(ctx context.Context, tenantID, sessionID string, req model.UpdateSessionRequest) (*model.Session, error) {
	ent, err := o.sessions.Get(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Title != nil {
		fields["title"] = *req.Title
		ent.Title = *req.Title
	}
	if req.Description != nil {
		fields["description"] = *req.Description
		ent.Description = *req.Description
	}
	if req.Thumbnail != nil {
		fields["thumbnail"] = *req.Thumbnail
		ent.Thumbnail = *req.Thumbnail
	}
	if req.StartAt != nil {
		fields["start_at"] = *req.StartAt
		ent.StartAt = *req.StartAt
	}
	if req.EndAt != nil {
		fields["end_at"] = *req.EndAt
		ent.EndAt = req.EndAt
	}
	if len(fields) > 0 {
		if err := o.sessions.UpdateFields(ctx, ent.ID, fields); err != nil {
			return nil, err
		}
	}

	patch := platform.UpdatePatch{
		Title:       ent.Title,
		Description: ent.Description,
		Thumbnail:   ent.Thumbnail,
		StartAt:     req.StartAt,
	}
	o.fanOut(ent.Bindings, func(b *model.PlatformBinding) {
		if b.ExternalID == "" {
			return
		}
		client, err := o.clients.Get(ctx, ent.TenantID, model.Platform(b.Platform))
		if err != nil {
			o.recordBindingError(ctx, ent.ID, b, err)
			return
		}
		cctx, cancel := context.WithTimeout(ctx, o.callTimeout)
		err = client.UpdateLivestream(cctx, b.ExternalID, patch)
		cancel()
		if err != nil {
			o.recordBindingError(ctx, ent.ID, b, &errs.BroadcastControlError{Platform: b.Platform, Operation: "update", Err: err})
		}
	})
	return entityToSession(ent), nil
}

// DeleteSession tears down remote livestreams best-effort, then removes
// the local session and bindings regardless of remote outcomes, and
// disconnects status subscribers.
func (o *Orchestrator) DeleteSession(ctx context.Context, tenantID, sessionID string) error {
	ent, err := o.sessions.Get(ctx, tenantID, sessionID)
	if err != nil {
		return err
	}

	o.fanOut(ent.Bindings, func(b *model.PlatformBinding) {
		if b.ExternalID == "" {
			return
		}
		client, err := o.clients.Get(ctx, ent.TenantID, model.Platform(b.Platform))
		if err != nil {
			o.log.Warn("delete livestream skipped",
				zap.String("session_id", ent.ID),
				zap.String("platform", b.Platform),
				zap.Error(err))
			return
		}
		cctx, cancel := context.WithTimeout(ctx, o.callTimeout)
		err = client.DeleteLivestream(cctx, b.ExternalID)
		cancel()
		if err != nil {
			o.log.Warn("delete livestream failed",
				zap.String("session_id", ent.ID),
				zap.String("platform", b.Platform),
				zap.Error(err))
		}
	})

	if err := o.sessions.Delete(ctx, tenantID, sessionID); err != nil {
		return err
	}
	o.hub.CloseSession(sessionID)
	return nil
}

// PlatformLinks returns the member-facing link per binding. Pure read,
// no remote calls.
func (o *Orchestrator) PlatformLinks(ctx context.Context, tenantID, sessionID string) ([]model.PlatformLink, error) {
	ent, err := o.sessions.Get(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	links := make([]model.PlatformLink, 0, len(ent.Bindings))
	for _, b := range ent.Bindings {
		links = append(links, model.PlatformLink{
			Platform: model.Platform(b.Platform),
			URL:      b.URL,
			Status:   model.BindingStatus(b.Status),
			Error:    b.Error,
		})
	}
	return links, nil
}

// provision creates the remote livestream for one binding. Returns true
// when the binding holds a usable external handle afterwards.
func (o *Orchestrator) provision(ctx context.Context, sess *model.BroadcastSession, b *model.PlatformBinding) bool {
	client, err := o.clients.Get(ctx, sess.TenantID, model.Platform(b.Platform))
	if err != nil {
		o.failBinding(ctx, sess.ID, b, err)
		return false
	}
	cctx, cancel := context.WithTimeout(ctx, o.callTimeout)
	prov, err := client.CreateLivestream(cctx, platform.CreateSpec{
		Title:       sess.Title,
		Description: sess.Description,
		Thumbnail:   sess.Thumbnail,
		StartAt:     sess.StartAt,
		Settings:    b.Settings,
	})
	cancel()
	if err != nil {
		o.failBinding(ctx, sess.ID, b, &errs.ProvisioningError{Platform: b.Platform, Err: err})
		return false
	}

	b.ExternalID = prov.ExternalID
	b.URL = prov.URL
	b.Status = string(model.BindingPending)
	b.Error = ""
	if err := o.sessions.UpdateBinding(ctx, b.ID, map[string]interface{}{
		"external_id": b.ExternalID,
		"url":         b.URL,
		"status":      b.Status,
		"error":       "",
	}); err != nil {
		o.log.Error("binding update failed", zap.String("binding_id", b.ID), zap.Error(err))
	}
	o.hub.Publish(sess.ID, model.StatusEvent{
		SessionID: sess.ID,
		Platform:  model.Platform(b.Platform),
		Status:    b.Status,
		URL:       b.URL,
	})
	return true
}

func (o *Orchestrator) setBinding(ctx context.Context, sessionID string, b *model.PlatformBinding, status model.BindingStatus) {
	b.Status = string(status)
	b.Error = ""
	if err := o.sessions.UpdateBinding(ctx, b.ID, map[string]interface{}{
		"status": b.Status,
		"error":  "",
	}); err != nil {
		o.log.Error("binding update failed", zap.String("binding_id", b.ID), zap.Error(err))
	}
	o.hub.Publish(sessionID, model.StatusEvent{
		SessionID: sessionID,
		Platform:  model.Platform(b.Platform),
		Status:    b.Status,
		URL:       b.URL,
	})
}

func (o *Orchestrator) failBinding(ctx context.Context, sessionID string, b *model.PlatformBinding, cause error) {
	b.Status = string(model.BindingFailed)
	b.Error = cause.Error()
	if err := o.sessions.UpdateBinding(ctx, b.ID, map[string]interface{}{
		"status": b.Status,
		"error":  b.Error,
	}); err != nil {
		o.log.Error("binding update failed", zap.String("binding_id", b.ID), zap.Error(err))
	}
	o.log.Warn("platform operation failed",
		zap.String("session_id", sessionID),
		zap.String("platform", b.Platform),
		zap.Error(cause))
	o.hub.Publish(sessionID, model.StatusEvent{
		SessionID: sessionID,
		Platform:  model.Platform(b.Platform),
		Status:    b.Status,
		Error:     b.Error,
	})
}

// recordBindingError keeps the binding status but surfaces the error,
// used for metadata pushes where a live stream should stay LIVE.
func (o *Orchestrator) recordBindingError(ctx context.Context, sessionID string, b *model.PlatformBinding, cause error) {
	b.Error = cause.Error()
	if err := o.sessions.UpdateBinding(ctx, b.ID, map[string]interface{}{
		"error": b.Error,
	}); err != nil {
		o.log.Error("binding update failed", zap.String("binding_id", b.ID), zap.Error(err))
	}
	o.hub.Publish(sessionID, model.StatusEvent{
		SessionID: sessionID,
		Platform:  model.Platform(b.Platform),
		Status:    b.Status,
		URL:       b.URL,
		Error:     b.Error,
	})
}

func (o *Orchestrator) publishSession(sessionID string, status model.SessionStatus) {
	o.hub.Publish(sessionID, model.StatusEvent{
		SessionID: sessionID,
		Status:    string(status),
	})
}

// fanOut runs fn once per binding, one goroutine each, and waits for
// all of them. fn is the single writer of its binding.
func (o *Orchestrator) fanOut(bindings []model.PlatformBinding, fn func(b *model.PlatformBinding)) {
	var wg sync.WaitGroup
	for i := range bindings {
		wg.Add(1)
		go func(b *model.PlatformBinding) {
			defer wg.Done()
			fn(b)
		}(&bindings[i])
	}
	wg.Wait()
}

func anyBindingLive(bindings []model.PlatformBinding) bool {
	for _, b := range bindings {
		if b.Status == string(model.BindingLive) {
			return true
		}
	}
	return false
}

func entityToSession(ent *model.BroadcastSession) *model.Session {
	sess := &model.Session{
		ID:          ent.ID,
		TenantID:    ent.TenantID,
		Title:       ent.Title,
		Description: ent.Description,
		Thumbnail:   ent.Thumbnail,
		Status:      model.SessionStatus(ent.Status),
		StartAt:     ent.StartAt,
		EndAt:       ent.EndAt,
		CreatedAt:   ent.CreatedAt,
	}
	for _, b := range ent.Bindings {
		sess.Bindings = append(sess.Bindings, model.Binding{
			Platform:   model.Platform(b.Platform),
			ExternalID: b.ExternalID,
			URL:        b.URL,
			Status:     model.BindingStatus(b.Status),
			Error:      b.Error,
			Settings:   b.Settings,
		})
	}
	return sess
}
