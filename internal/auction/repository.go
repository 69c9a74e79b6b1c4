package auction

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openbid/auction-platform/internal/model"
)

// ErrNotFound is returned when an auction does not exist.
var ErrNotFound = errors.New("auction not found")

// ErrVersionConflict means another writer updated the row first.
var ErrVersionConflict = errors.New("auction version conflict")

// Repository is the auction store's persistence layer.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs the repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB returns the underlying handle with the request context attached.
func (r *Repository) DB(ctx context.Context) *gorm.DB { return r.db.WithContext(ctx) }

// Get fetches one auction.
func (r *Repository) Get(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Auction, error) {
	var a model.Auction
	if err := tx.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Create inserts a new auction.
func (r *Repository) Create(ctx context.Context, tx *gorm.DB, a *model.Auction) error {
	return tx.WithContext(ctx).Create(a).Error
}

// Save persists item-field changes on an existing auction.
func (r *Repository) Save(ctx context.Context, tx *gorm.DB, a *model.Auction) error {
	return tx.WithContext(ctx).Save(a).Error
}

// Delete removes an auction.
func (r *Repository) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return tx.WithContext(ctx).Delete(&model.Auction{}, "id = ?", id).Error
}

// ApplyFinished writes the terminal state with an optimistic version check so
// a concurrent writer cannot interleave. The status guard in the service
// layer keeps the transition forward-only.
func (r *Repository) ApplyFinished(ctx context.Context, tx *gorm.DB, a *model.Auction, oldVersion uint64) error {
	res := tx.WithContext(ctx).Model(&model.Auction{}).
		Where("id = ? AND version = ?", a.ID, oldVersion).
		Updates(map[string]interface{}{
			"status":      a.Status,
			"winner":      a.Winner,
			"sold_amount": a.SoldAmount,
			"version":     oldVersion + 1,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

// ListUpdatedSince returns auctions touched after the watermark, oldest
// first. A zero time returns everything.
func (r *Repository) ListUpdatedSince(ctx context.Context, since time.Time) ([]model.Auction, error) {
	var auctions []model.Auction
	q := r.db.WithContext(ctx).Order("updated_at")
	if !since.IsZero() {
		q = q.Where("updated_at > ?", since)
	}
	err := q.Find(&auctions).Error
	return auctions, err
}

// ListEndedLive returns live auctions whose end time has passed, for the
// deadline scanner.
func (r *Repository) ListEndedLive(ctx context.Context, now time.Time, limit int) ([]model.Auction, error) {
	var auctions []model.Auction
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_at <= ?", model.StatusLive, now).
		Order("end_at").Limit(limit).Find(&auctions).Error
	return auctions, err
}
