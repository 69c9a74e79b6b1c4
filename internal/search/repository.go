package search

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openbid/auction-platform/internal/model"
)

// Repository persists the denormalized search read model.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs the repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get fetches one record.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*model.SearchRecord, error) {
	var rec model.SearchRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// Upsert writes a record unless the stored copy is already newer, guarding
// against out-of-order redelivery.
func (r *Repository) Upsert(ctx context.Context, rec *model.SearchRecord) error {
	existing, err := r.Get(ctx, rec.ID)
	if err == nil && !existing.LastSynced.Before(rec.LastSynced) {
		return nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(rec).Error
}

// Delete removes a record. Missing rows are fine (redelivered delete).
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.SearchRecord{}, "id = ?", id).Error
}

// Watermark returns the newest LastSynced in the table, the starting point
// for the catch-up pull. Zero time when the table is empty.
func (r *Repository) Watermark(ctx context.Context) (time.Time, error) {
	var rec model.SearchRecord
	err := r.db.WithContext(ctx).Order("last_synced DESC").First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return rec.LastSynced, nil
}

// Query filters and pages the read model.
type Query struct {
	Term     string
	Seller   string
	Winner   string
	OrderBy  string // "make", "new", "endingSoon"
	Page     int
	PageSize int
}

// Search runs a query. The term matches make, model or color, case-folded.
func (r *Repository) Search(ctx context.Context, q Query) ([]model.SearchRecord, int64, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 20 {
		q.PageSize = 10
	}

	db := r.db.WithContext(ctx).Model(&model.SearchRecord{})
	if q.Term != "" {
		like := "%" + strings.ToLower(q.Term) + "%"
		db = db.Where("LOWER(make) LIKE ? OR LOWER(model) LIKE ? OR LOWER(color) LIKE ?", like, like, like)
	}
	if q.Seller != "" {
		db = db.Where("seller = ?", q.Seller)
	}
	if q.Winner != "" {
		db = db.Where("winner = ?", q.Winner)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch q.OrderBy {
	case "new":
		db = db.Order("last_synced DESC")
	case "endingSoon":
		db = db.Order("end_at ASC")
	default:
		db = db.Order("make ASC")
	}

	var recs []model.SearchRecord
	err := db.Offset((q.Page - 1) * q.PageSize).Limit(q.PageSize).Find(&recs).Error
	return recs, total, err
}
