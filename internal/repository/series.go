package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/psds-microservice/broadcast-service/internal/errs"
	"github.com/psds-microservice/broadcast-service/internal/model"
)

// Series persists meeting series definitions. Occurrences are never
// stored; they are expanded on read.
type Series struct {
	db *gorm.DB
}

// NewSeries creates a meeting series repository.
func NewSeries(db *gorm.DB) *Series {
	return &Series{db: db}
}

// Create inserts a series.
func (r *Series) Create(ctx context.Context, ent *model.MeetingSeries) error {
	return r.db.WithContext(ctx).Create(ent).Error
}

// Get returns a tenant's series by ID.
func (r *Series) Get(ctx context.Context, tenantID, seriesID string) (*model.MeetingSeries, error) {
	var ent model.MeetingSeries
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", seriesID, tenantID).
		First(&ent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrSeriesNotFound
		}
		return nil, err
	}
	return &ent, nil
}

// List returns a tenant's series, optionally scoped to one branch.
func (r *Series) List(ctx context.Context, tenantID string, branchID *string) ([]model.MeetingSeries, error) {
	q := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if branchID != nil {
		q = q.Where("branch_id = ?", *branchID)
	}
	var ents []model.MeetingSeries
	err := q.Order("start_at ASC").Find(&ents).Error
	return ents, err
}

// Save writes back a fully loaded series.
func (r *Series) Save(ctx context.Context, ent *model.MeetingSeries) error {
	return r.db.WithContext(ctx).Save(ent).Error
}

// Delete removes a tenant's series.
func (r *Series) Delete(ctx context.Context, tenantID, seriesID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", seriesID, tenantID).
		Delete(&model.MeetingSeries{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrSeriesNotFound
	}
	return nil
}
