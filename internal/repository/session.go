package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/psds-microservice/broadcast-service/internal/errs"
	"github.com/psds-microservice/broadcast-service/internal/model"
)

// Sessions persists broadcast sessions and their platform bindings.
type Sessions struct {
	db *gorm.DB
}

// NewSessions creates a session repository.
func NewSessions(db *gorm.DB) *Sessions {
	return &Sessions{db: db}
}

// Create inserts the session together with its bindings.
func (r *Sessions) Create(ctx context.Context, ent *model.BroadcastSession) error {
	return r.db.WithContext(ctx).Create(ent).Error
}

// Get returns a tenant's session with bindings preloaded.
func (r *Sessions) Get(ctx context.Context, tenantID, sessionID string) (*model.BroadcastSession, error) {
	var ent model.BroadcastSession
	err := r.db.WithContext(ctx).
		Preload("Bindings").
		Where("id = ? AND tenant_id = ?", sessionID, tenantID).
		First(&ent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrSessionNotFound
		}
		return nil, err
	}
	return &ent, nil
}

// List returns a tenant's sessions, newest start first.
func (r *Sessions) List(ctx context.Context, tenantID string) ([]model.BroadcastSession, error) {
	var ents []model.BroadcastSession
	err := r.db.WithContext(ctx).
		Preload("Bindings").
		Where("tenant_id = ?", tenantID).
		Order("start_at DESC").
		Find(&ents).Error
	return ents, err
}

// UpdateFields applies a partial update to the session row.
func (r *Sessions) UpdateFields(ctx context.Context, sessionID string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.BroadcastSession{}).
		Where("id = ?", sessionID).
		Updates(fields).Error
}

// SetStatus transitions the session and optionally stamps end_at.
func (r *Sessions) SetStatus(ctx context.Context, sessionID string, status model.SessionStatus, endAt *time.Time) error {
	fields := map[string]interface{}{"status": string(status)}
	if endAt != nil {
		fields["end_at"] = *endAt
	}
	return r.UpdateFields(ctx, sessionID, fields)
}

// Delete removes a tenant's session and its bindings.
func (r *Sessions) Delete(ctx context.Context, tenantID, sessionID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND tenant_id = ?", sessionID, tenantID).
			Delete(&model.BroadcastSession{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.ErrSessionNotFound
		}
		return tx.Where("session_id = ?", sessionID).
			Delete(&model.PlatformBinding{}).Error
	})
}

// UpdateBinding applies a partial update to one binding row.
func (r *Sessions) UpdateBinding(ctx context.Context, bindingID string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.PlatformBinding{}).
		Where("id = ?", bindingID).
		Updates(fields).Error
}
