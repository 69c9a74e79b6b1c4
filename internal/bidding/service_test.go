package bidding

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/openbid/auction-platform/internal/client"
	"github.com/openbid/auction-platform/internal/logger"
	"github.com/openbid/auction-platform/internal/model"
)

type fakeFetcher struct {
	auction *model.Auction
	err     error
	calls   int
}

func (f *fakeFetcher) GetAuction(ctx context.Context, id uuid.UUID) (*model.Auction, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.auction == nil || f.auction.ID != id {
		return nil, client.ErrNotFound
	}
	return f.auction, nil
}

func must(l *zap.SugaredLogger, err error) *zap.SugaredLogger {
	if err != nil {
		panic(err)
	}
	return l
}

func newTestService(t *testing.T, fetcher *fakeFetcher) (*Service, *Repository, context.Context) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&model.Bid{}, &model.AuctionReplica{}, &model.OutboxEvent{}))

	log := must(logger.NewLogger())
	repo := NewRepository(db)
	resolver := NewSnapshotResolver(repo, nil, fetcher, time.Minute, log)
	return NewService(repo, resolver, log), repo, context.Background()
}

func seedReplica(t *testing.T, repo *Repository, reserve int64) uuid.UUID {
	id := uuid.New()
	rep := &model.AuctionReplica{
		ID:           id,
		Seller:       "alice",
		ReservePrice: reserve,
		EndAt:        time.Now().UTC().Add(time.Hour),
		Status:       model.StatusLive,
		SyncedAt:     time.Now().UTC(),
	}
	assert.NoError(t, repo.DB(context.Background()).Create(rep).Error)
	return id
}

func TestPlaceBid_FullFlow(t *testing.T) {
	svc, repo, ctx := newTestService(t, &fakeFetcher{})
	auctionID := seedReplica(t, repo, 10000)

	// below reserve: accepted, becomes high bid
	b1, err := svc.PlaceBid(ctx, auctionID, "bob", 9000)
	assert.NoError(t, err)
	assert.Equal(t, model.BidAcceptedBelowReserve, b1.Status)

	rep, err := repo.GetReplica(ctx, repo.DB(ctx), auctionID)
	assert.NoError(t, err)
	assert.Equal(t, b1.ID, *rep.HighBidID)
	assert.Equal(t, int64(9000), rep.HighBidAmount)
	assert.Equal(t, uint64(1), rep.Version)

	// above reserve and above the high bid
	b2, err := svc.PlaceBid(ctx, auctionID, "carol", 11000)
	assert.NoError(t, err)
	assert.Equal(t, model.BidAccepted, b2.Status)

	// above reserve but below the current high: recorded as TooLow,
	// high bid untouched
	b3, err := svc.PlaceBid(ctx, auctionID, "dave", 10500)
	assert.NoError(t, err)
	assert.Equal(t, model.BidTooLow, b3.Status)

	rep, err = repo.GetReplica(ctx, repo.DB(ctx), auctionID)
	assert.NoError(t, err)
	assert.Equal(t, b2.ID, *rep.HighBidID)
	assert.Equal(t, int64(11000), rep.HighBidAmount)
	assert.Equal(t, uint64(2), rep.Version)

	// every bid, winning or not, left an outbox row
	var pending int64
	assert.NoError(t, repo.DB(ctx).Model(&model.OutboxEvent{}).
		Where("status = ? AND event_type = ?", model.OutboxPending, "BidPlaced").
		Count(&pending).Error)
	assert.Equal(t, int64(3), pending)

	bids, err := svc.GetBidsForAuction(ctx, auctionID)
	assert.NoError(t, err)
	assert.Len(t, bids, 3)
}

func TestPlaceBid_EqualAmountLoses(t *testing.T) {
	svc, repo, ctx := newTestService(t, &fakeFetcher{})
	auctionID := seedReplica(t, repo, 5000)

	b1, err := svc.PlaceBid(ctx, auctionID, "bob", 7000)
	assert.NoError(t, err)
	assert.Equal(t, model.BidAccepted, b1.Status)

	b2, err := svc.PlaceBid(ctx, auctionID, "carol", 7000)
	assert.NoError(t, err)
	assert.Equal(t, model.BidTooLow, b2.Status)

	rep, err := repo.GetReplica(ctx, repo.DB(ctx), auctionID)
	assert.NoError(t, err)
	assert.Equal(t, b1.ID, *rep.HighBidID)
}

func TestPlaceBid_SelfBidNotPersisted(t *testing.T) {
	svc, repo, ctx := newTestService(t, &fakeFetcher{})
	auctionID := seedReplica(t, repo, 10000)

	_, err := svc.PlaceBid(ctx, auctionID, "alice", 12000)
	assert.ErrorIs(t, err, ErrSelfBid)

	var bids, outbox int64
	assert.NoError(t, repo.DB(ctx).Model(&model.Bid{}).Count(&bids).Error)
	assert.NoError(t, repo.DB(ctx).Model(&model.OutboxEvent{}).Count(&outbox).Error)
	assert.Zero(t, bids)
	assert.Zero(t, outbox)
}

func TestPlaceBid_Validation(t *testing.T) {
	svc, repo, ctx := newTestService(t, &fakeFetcher{})
	auctionID := seedReplica(t, repo, 10000)

	_, err := svc.PlaceBid(ctx, auctionID, "", 1000)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.PlaceBid(ctx, auctionID, "bob", 0)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.PlaceBid(ctx, auctionID, "bob", -5)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPlaceBid_UnknownAuction(t *testing.T) {
	svc, _, ctx := newTestService(t, &fakeFetcher{})

	_, err := svc.PlaceBid(ctx, uuid.New(), "bob", 1000)
	assert.ErrorIs(t, err, ErrAuctionNotFound)
}

func TestPlaceBid_FallbackPopulatesReplica(t *testing.T) {
	id := uuid.New()
	fetcher := &fakeFetcher{auction: &model.Auction{
		ID:           id,
		Seller:       "alice",
		ReservePrice: 10000,
		EndAt:        time.Now().UTC().Add(time.Hour),
		Status:       model.StatusLive,
	}}
	svc, repo, ctx := newTestService(t, fetcher)

	b, err := svc.PlaceBid(ctx, id, "bob", 12000)
	assert.NoError(t, err)
	assert.Equal(t, model.BidAccepted, b.Status)
	assert.Equal(t, 1, fetcher.calls)

	// the fetched auction was stored locally for the next bid
	rep, err := repo.GetReplica(ctx, repo.DB(ctx), id)
	assert.NoError(t, err)
	assert.Equal(t, "alice", rep.Seller)
}

func TestPlaceBid_LateBidRecordedFinished(t *testing.T) {
	svc, repo, ctx := newTestService(t, &fakeFetcher{})
	auctionID := seedReplica(t, repo, 10000)
	assert.NoError(t, repo.DB(ctx).Model(&model.AuctionReplica{}).
		Where("id = ?", auctionID).
		Update("end_at", time.Now().UTC().Add(-time.Minute)).Error)

	b, err := svc.PlaceBid(ctx, auctionID, "bob", 99999)
	assert.NoError(t, err)
	assert.Equal(t, model.BidFinished, b.Status)

	// never installed as high bid
	rep, err := repo.GetReplica(ctx, repo.DB(ctx), auctionID)
	assert.NoError(t, err)
	assert.Nil(t, rep.HighBidID)
	assert.Equal(t, uint64(0), rep.Version)
}

func TestPlaceBid_ConflictRefreshesSnapshot(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&model.Bid{}, &model.AuctionReplica{}, &model.OutboxEvent{}))

	id := uuid.New()
	stale := Snapshot{
		ID:           id,
		Seller:       "alice",
		ReservePrice: 10000,
		EndAt:        time.Now().UTC().Add(time.Hour),
		Status:       model.StatusLive,
	}
	data, err := json.Marshal(stale)
	assert.NoError(t, err)

	// the cache still says Live but the replica row is gone; the first
	// attempt conflicts and the retry must drop the cache and re-resolve
	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet("auction:" + id.String()).SetVal(string(data))
	mock.ExpectDel("auction:" + id.String()).SetVal(1)
	mock.ExpectGet("auction:" + id.String()).RedisNil()

	log := must(logger.NewLogger())
	repo := NewRepository(db)
	resolver := NewSnapshotResolver(repo, rdb, &fakeFetcher{}, time.Minute, log)
	svc := NewService(repo, resolver, log)

	_, err = svc.PlaceBid(context.Background(), id, "bob", 12000)
	assert.ErrorIs(t, err, ErrAuctionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())

	// the conflicted attempt rolled the bid insert back
	var bids int64
	assert.NoError(t, db.Model(&model.Bid{}).Count(&bids).Error)
	assert.Zero(t, bids)
}

func TestSetHighBid_StaleVersion(t *testing.T) {
	_, repo, ctx := newTestService(t, &fakeFetcher{})
	auctionID := seedReplica(t, repo, 10000)

	bid := &model.Bid{ID: uuid.New(), AuctionID: auctionID, Bidder: "bob", Amount: 11000}
	assert.NoError(t, repo.SetHighBid(ctx, repo.DB(ctx), auctionID, bid, 0))

	// a writer holding the old version loses
	other := &model.Bid{ID: uuid.New(), AuctionID: auctionID, Bidder: "carol", Amount: 12000}
	err := repo.SetHighBid(ctx, repo.DB(ctx), auctionID, other, 0)
	assert.ErrorIs(t, err, ErrReplicaConflict)

	rep, err := repo.GetReplica(ctx, repo.DB(ctx), auctionID)
	assert.NoError(t, err)
	assert.Equal(t, bid.ID, *rep.HighBidID)
	assert.Equal(t, uint64(1), rep.Version)
}
