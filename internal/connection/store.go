// Package connection holds per-tenant platform credentials and their
// connection status. The orchestrator and registry consume it read-only
// through the Store interface.
package connection

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/psds-microservice/broadcast-service/internal/errs"
	"github.com/psds-microservice/broadcast-service/internal/model"
)

// Store is the read-side contract consumed by the registry and orchestrator.
type Store interface {
	// Status reports the connection state; a missing row is DISCONNECTED.
	Status(ctx context.Context, tenantID string, p model.Platform) (model.ConnectionStatus, error)
	// DecryptedCredentials returns the credential map. It fails unless the
	// connection status is CONNECTED.
	DecryptedCredentials(ctx context.Context, tenantID string, p model.Platform) (model.Credentials, error)
}

// Service is the gorm-backed connection store with the write side used by
// the connections API.
type Service struct {
	db     *gorm.DB
	cipher Cipher
}

// NewService creates a connection service.
func NewService(db *gorm.DB, cipher Cipher) *Service {
	return &Service{db: db, cipher: cipher}
}

// Status implements Store.
func (s *Service) Status(ctx context.Context, tenantID string, p model.Platform) (model.ConnectionStatus, error) {
	var ent model.PlatformConnection
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND platform = ?", tenantID, string(p)).
		First(&ent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.ConnectionDisconnected, nil
	}
	if err != nil {
		return model.ConnectionError, err
	}
	return model.ConnectionStatus(ent.Status), nil
}

// DecryptedCredentials implements Store.
func (s *Service) DecryptedCredentials(ctx context.Context, tenantID string, p model.Platform) (model.Credentials, error) {
	var ent model.PlatformConnection
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND platform = ?", tenantID, string(p)).
		First(&ent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrNotConnected
	}
	if err != nil {
		return nil, err
	}
	if model.ConnectionStatus(ent.Status) != model.ConnectionConnected {
		return nil, errs.ErrNotConnected
	}
	raw, err := s.cipher.Decrypt(ent.Credentials)
	if err != nil {
		return nil, err
	}
	var creds model.Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, err
	}
	return creds, nil
}

// Connect validates, encrypts and upserts credentials, marking the
// connection CONNECTED and clearing any previous error.
func (s *Service) Connect(ctx context.Context, tenantID string, p model.Platform, creds model.Credentials, expiresAt *time.Time) error {
	if !hasAnyCredential(creds) {
		return errs.Validation("at least one credential field is required")
	}
	raw, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	blob, err := s.cipher.Encrypt(raw)
	if err != nil {
		return err
	}

	var ent model.PlatformConnection
	err = s.db.WithContext(ctx).
		Where("tenant_id = ? AND platform = ?", tenantID, string(p)).
		First(&ent).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		ent = model.PlatformConnection{
			TenantID:    tenantID,
			Platform:    string(p),
			Status:      string(model.ConnectionConnected),
			Credentials: blob,
			ExpiresAt:   expiresAt,
		}
		return s.db.WithContext(ctx).Create(&ent).Error
	case err != nil:
		return err
	default:
		return s.db.WithContext(ctx).Model(&ent).Updates(map[string]interface{}{
			"credentials":   blob,
			"status":        string(model.ConnectionConnected),
			"expires_at":    expiresAt,
			"last_error":    nil,
			"last_error_at": nil,
		}).Error
	}
}

// Disconnect deletes the connection row. Registry eviction is the caller's
// responsibility.
func (s *Service) Disconnect(ctx context.Context, tenantID string, p model.Platform) error {
	res := s.db.WithContext(ctx).
		Where("tenant_id = ? AND platform = ?", tenantID, string(p)).
		Delete(&model.PlatformConnection{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrConnectionNotFound
	}
	return nil
}

// MarkError records a connection-level failure (expired token, revoked
// grant) without dropping the stored credentials.
func (s *Service) MarkError(ctx context.Context, tenantID string, p model.Platform, status model.ConnectionStatus, reason string) error {
	now := time.Now()
	return s.db.WithContext(ctx).Model(&model.PlatformConnection{}).
		Where("tenant_id = ? AND platform = ?", tenantID, string(p)).
		Updates(map[string]interface{}{
			"status":        string(status),
			"last_error":    reason,
			"last_error_at": now,
		}).Error
}

// List returns every connection for the tenant, credentials omitted.
func (s *Service) List(ctx context.Context, tenantID string) ([]model.ConnectionView, error) {
	var ents []model.PlatformConnection
	if err := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Find(&ents).Error; err != nil {
		return nil, err
	}
	out := make([]model.ConnectionView, 0, len(ents))
	for _, ent := range ents {
		view := model.ConnectionView{
			Platform:    model.Platform(ent.Platform),
			Status:      model.ConnectionStatus(ent.Status),
			ExpiresAt:   ent.ExpiresAt,
			LastErrorAt: ent.LastErrorAt,
		}
		if ent.LastError != nil {
			view.LastError = *ent.LastError
		}
		out = append(out, view)
	}
	return out, nil
}

func hasAnyCredential(creds model.Credentials) bool {
	for _, v := range creds {
		if v != "" {
			return true
		}
	}
	return false
}
