package bidding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/openbid/auction-platform/internal/client"
	"github.com/openbid/auction-platform/internal/model"
)

// ErrAuctionNotFound means no view of the auction could be obtained, locally
// or from the auction service. Bidding is refused for the moment.
var ErrAuctionNotFound = errors.New("cannot accept bids on this auction at this time")

// AuctionFetcher is the synchronous fallback lookup.
type AuctionFetcher interface {
	GetAuction(ctx context.Context, id uuid.UUID) (*model.Auction, error)
}

// SnapshotResolver supplies the evaluator a best-effort current view of an
// auction: redis cache, then the local replica, then one bounded-timeout call
// to the auction service. The fallback is never retried inline.
type SnapshotResolver struct {
	repo     *Repository
	rdb      *redis.Client
	fetcher  AuctionFetcher
	cacheTTL time.Duration
	log      *zap.SugaredLogger
}

// NewSnapshotResolver constructs a resolver. rdb may be nil to disable the
// cache layer.
func NewSnapshotResolver(repo *Repository, rdb *redis.Client, fetcher AuctionFetcher, cacheTTL time.Duration, log *zap.SugaredLogger) *SnapshotResolver {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &SnapshotResolver{repo: repo, rdb: rdb, fetcher: fetcher, cacheTTL: cacheTTL, log: log}
}

// Resolve returns the auction snapshot or ErrAuctionNotFound.
func (sr *SnapshotResolver) Resolve(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	if snap, ok := sr.fromCache(ctx, id); ok {
		return snap, nil
	}

	rep, err := sr.repo.GetReplica(ctx, sr.repo.DB(ctx), id)
	if err == nil {
		snap := Snapshot{
			ID:           rep.ID,
			Seller:       rep.Seller,
			ReservePrice: rep.ReservePrice,
			EndAt:        rep.EndAt,
			Status:       rep.Status,
		}
		sr.cache(ctx, snap)
		return snap, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Snapshot{}, err
	}

	// Replica missing: one synchronous lookup against the source of truth.
	// Any failure, including timeout, reads as not-found to the caller.
	a, err := sr.fetcher.GetAuction(ctx, id)
	if err != nil {
		if !errors.Is(err, client.ErrNotFound) {
			sr.log.Warnf("fallback lookup for %s: %v", id, err)
		}
		return Snapshot{}, ErrAuctionNotFound
	}

	rep = &model.AuctionReplica{
		ID:           a.ID,
		Seller:       a.Seller,
		ReservePrice: a.ReservePrice,
		EndAt:        a.EndAt,
		Status:       a.Status,
		SyncedAt:     time.Now().UTC(),
	}
	if err := sr.repo.UpsertReplica(ctx, sr.repo.DB(ctx), rep); err != nil {
		sr.log.Warnf("store fetched replica %s: %v", id, err)
	}

	snap := Snapshot{
		ID:           a.ID,
		Seller:       a.Seller,
		ReservePrice: a.ReservePrice,
		EndAt:        a.EndAt,
		Status:       a.Status,
	}
	sr.cache(ctx, snap)
	return snap, nil
}

// Invalidate drops the cached snapshot, called when replica state changes.
func (sr *SnapshotResolver) Invalidate(ctx context.Context, id uuid.UUID) {
	if sr.rdb == nil {
		return
	}
	if err := sr.rdb.Del(ctx, snapshotKey(id)).Err(); err != nil {
		sr.log.Warnf("invalidate snapshot %s: %v", id, err)
	}
}

func (sr *SnapshotResolver) fromCache(ctx context.Context, id uuid.UUID) (Snapshot, bool) {
	if sr.rdb == nil {
		return Snapshot{}, false
	}
	raw, err := sr.rdb.Get(ctx, snapshotKey(id)).Result()
	if err != nil {
		return Snapshot{}, false
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return Snapshot{}, false
	}
	return snap, true
}

func (sr *SnapshotResolver) cache(ctx context.Context, snap Snapshot) {
	if sr.rdb == nil {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := sr.rdb.Set(ctx, snapshotKey(snap.ID), string(data), sr.cacheTTL).Err(); err != nil {
		sr.log.Warnf("cache snapshot %s: %v", snap.ID, err)
	}
}

func snapshotKey(id uuid.UUID) string { return fmt.Sprintf("auction:%s", id) }
