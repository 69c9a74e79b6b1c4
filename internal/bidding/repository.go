package bidding

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openbid/auction-platform/internal/model"
)

// ErrReplicaConflict means the replica row changed under a compare-and-swap
// write; the caller re-reads and retries.
var ErrReplicaConflict = errors.New("auction replica version conflict")

// Repository persists bids and the bidding-side auction replicas.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs the repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB returns the underlying handle with the request context attached.
func (r *Repository) DB(ctx context.Context) *gorm.DB { return r.db.WithContext(ctx) }

// GetReplica reads the local copy of an auction.
func (r *Repository) GetReplica(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.AuctionReplica, error) {
	var rep model.AuctionReplica
	if err := tx.WithContext(ctx).Where("id = ?", id).First(&rep).Error; err != nil {
		return nil, err
	}
	return &rep, nil
}

// UpsertReplica writes a replica row, keeping the newest sync wins rule:
// an existing row with a later SyncedAt is left alone.
func (r *Repository) UpsertReplica(ctx context.Context, tx *gorm.DB, rep *model.AuctionReplica) error {
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"seller":        rep.Seller,
			"reserve_price": rep.ReservePrice,
			"end_at":        rep.EndAt,
			"status":        rep.Status,
			"synced_at":     rep.SyncedAt,
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Lt{Column: clause.Column{Table: "auction_replica", Name: "synced_at"}, Value: rep.SyncedAt},
		}},
	}).Create(rep).Error
}

// DeleteReplica removes the local copy.
func (r *Repository) DeleteReplica(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return tx.WithContext(ctx).Delete(&model.AuctionReplica{}, "id = ?", id).Error
}

// CreateBid appends a bid. Bids are never updated.
func (r *Repository) CreateBid(ctx context.Context, tx *gorm.DB, b *model.Bid) error {
	return tx.WithContext(ctx).Create(b).Error
}

// HighBid returns the current high bid for an auction: highest amount wins,
// ties broken by earliest bid time. Only accepted bids qualify.
func (r *Repository) HighBid(ctx context.Context, tx *gorm.DB, auctionID uuid.UUID) (*model.Bid, error) {
	var b model.Bid
	err := tx.WithContext(ctx).
		Where("auction_id = ? AND status IN ?", auctionID,
			[]model.BidStatus{model.BidAccepted, model.BidAcceptedBelowReserve}).
		Order("amount DESC").Order("bid_time ASC").
		First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBids returns all bids for an auction, newest first.
func (r *Repository) ListBids(ctx context.Context, auctionID uuid.UUID) ([]model.Bid, error) {
	var bids []model.Bid
	err := r.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order("bid_time DESC").Find(&bids).Error
	return bids, err
}

// SetHighBid installs a new high bid on the replica row with an optimistic
// version check. Two concurrent winners cannot both succeed: the loser sees
// zero rows affected and retries against fresh state.
func (r *Repository) SetHighBid(ctx context.Context, tx *gorm.DB, auctionID uuid.UUID, bid *model.Bid, oldVersion uint64) error {
	res := tx.WithContext(ctx).Model(&model.AuctionReplica{}).
		Where("id = ? AND version = ?", auctionID, oldVersion).
		Updates(map[string]interface{}{
			"high_bid_id":     bid.ID,
			"high_bid_amount": bid.Amount,
			"version":         oldVersion + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrReplicaConflict
	}
	return nil
}

// MarkReplicaFinished writes the terminal status on the replica.
func (r *Repository) MarkReplicaFinished(ctx context.Context, tx *gorm.DB, id uuid.UUID, status model.AuctionStatus) error {
	return tx.WithContext(ctx).Model(&model.AuctionReplica{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "synced_at": time.Now().UTC()}).Error
}
