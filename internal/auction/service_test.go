package auction

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/openbid/auction-platform/internal/event"
	"github.com/openbid/auction-platform/internal/logger"
	"github.com/openbid/auction-platform/internal/model"
)

func must(l *zap.SugaredLogger, err error) *zap.SugaredLogger {
	if err != nil {
		panic(err)
	}
	return l
}

func newTestService(t *testing.T) (*Service, *Repository, context.Context) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&model.Auction{}, &model.OutboxEvent{}))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		assert.NoError(t, err)
		assert.NoError(t, sqlDB.Close())
	})

	repo := NewRepository(db)
	return NewService(repo, must(logger.NewLogger())), repo, context.Background()
}

func createReq() CreateAuctionRequest {
	now := time.Now().UTC()
	return CreateAuctionRequest{
		Seller:       "alice",
		Make:         "Ford",
		Model:        "GT",
		Color:        "White",
		Mileage:      50000,
		Year:         2020,
		ReservePrice: 10000,
		StartAt:      now,
		EndAt:        now.Add(24 * time.Hour),
	}
}

func outboxTypes(t *testing.T, repo *Repository) []string {
	var rows []model.OutboxEvent
	assert.NoError(t, repo.db.Order("created_at").Find(&rows).Error)
	types := make([]string, len(rows))
	for i, row := range rows {
		types[i] = row.EventType
	}
	return types
}

func TestAuctionService_CRUDEnqueuesEvents(t *testing.T) {
	svc, repo, ctx := newTestService(t)

	a, err := svc.Create(ctx, createReq())
	assert.NoError(t, err)
	assert.Equal(t, model.StatusLive, a.Status)

	got, err := svc.Get(ctx, a.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Ford", got.Make)

	color := "Red"
	updated, err := svc.Update(ctx, a.ID, UpdateAuctionRequest{Color: &color})
	assert.NoError(t, err)
	assert.Equal(t, "Red", updated.Color)
	assert.Equal(t, "Ford", updated.Make)

	assert.NoError(t, svc.Delete(ctx, a.ID))
	_, err = svc.Get(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// one outbox row per mutation, committed with it
	assert.Equal(t, []string{"AuctionCreated", "AuctionUpdated", "AuctionDeleted"}, outboxTypes(t, repo))
}

func TestAuctionService_CreateValidation(t *testing.T) {
	svc, _, ctx := newTestService(t)

	req := createReq()
	req.Seller = ""
	_, err := svc.Create(ctx, req)
	assert.ErrorIs(t, err, ErrValidation)

	req = createReq()
	req.EndAt = req.StartAt.Add(-time.Hour)
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, ErrValidation)

	req = createReq()
	req.ReservePrice = -1
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuctionService_UpdateUnknown(t *testing.T) {
	svc, _, ctx := newTestService(t)
	color := "Red"
	_, err := svc.Update(ctx, uuid.New(), UpdateAuctionRequest{Color: &color})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOnAuctionFinished_AppliesOutcome(t *testing.T) {
	svc, _, ctx := newTestService(t)
	a, err := svc.Create(ctx, createReq())
	assert.NoError(t, err)

	p := event.AuctionFinished{
		AuctionID:  a.ID.String(),
		ItemSold:   true,
		Winner:     "bob",
		Amount:     12000,
		FinishedAt: time.Now().UTC(),
	}
	env, err := event.New(event.TypeAuctionFinished, a.ID, p)
	assert.NoError(t, err)
	assert.NoError(t, svc.Handlers().Dispatch(ctx, env))

	got, err := svc.Get(ctx, a.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.StatusFinished, got.Status)
	assert.Equal(t, "bob", *got.Winner)
	assert.Equal(t, int64(12000), *got.SoldAmount)
	assert.Equal(t, uint64(1), got.Version)
}

func TestOnAuctionFinished_ReserveNotMet(t *testing.T) {
	svc, _, ctx := newTestService(t)
	a, err := svc.Create(ctx, createReq())
	assert.NoError(t, err)

	// a close without a sale carries no winner
	p := event.AuctionFinished{
		AuctionID:  a.ID.String(),
		FinishedAt: time.Now().UTC(),
	}
	assert.NoError(t, svc.onAuctionFinished(ctx, event.Envelope{}, p))

	got, err := svc.Get(ctx, a.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.StatusReserveNotMet, got.Status)
	assert.Nil(t, got.Winner)
	assert.Nil(t, got.SoldAmount)
}

func TestOnAuctionFinished_SoldAtOrBelowReserveNamesNoWinner(t *testing.T) {
	svc, _, ctx := newTestService(t)
	a, err := svc.Create(ctx, createReq())
	assert.NoError(t, err)

	// even a malformed event claiming a sale at or below reserve must not
	// put a winner on a reserve-not-met record
	p := event.AuctionFinished{
		AuctionID:  a.ID.String(),
		ItemSold:   true,
		Winner:     "bob",
		Amount:     9000,
		FinishedAt: time.Now().UTC(),
	}
	assert.NoError(t, svc.onAuctionFinished(ctx, event.Envelope{}, p))

	got, err := svc.Get(ctx, a.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.StatusReserveNotMet, got.Status)
	assert.Nil(t, got.Winner)
	assert.Nil(t, got.SoldAmount)
}

func TestOnAuctionFinished_RedeliveryIsNoOp(t *testing.T) {
	svc, _, ctx := newTestService(t)
	a, err := svc.Create(ctx, createReq())
	assert.NoError(t, err)

	p := event.AuctionFinished{
		AuctionID:  a.ID.String(),
		ItemSold:   true,
		Winner:     "bob",
		Amount:     12000,
		FinishedAt: time.Now().UTC(),
	}
	assert.NoError(t, svc.onAuctionFinished(ctx, event.Envelope{}, p))

	// a later duplicate naming a different winner cannot rewrite history
	p.Winner = "mallory"
	p.Amount = 99999
	assert.NoError(t, svc.onAuctionFinished(ctx, event.Envelope{}, p))

	got, err := svc.Get(ctx, a.ID)
	assert.NoError(t, err)
	assert.Equal(t, "bob", *got.Winner)
	assert.Equal(t, int64(12000), *got.SoldAmount)
	assert.Equal(t, uint64(1), got.Version)
}

func TestOnAuctionFinished_UnknownAuction(t *testing.T) {
	svc, _, ctx := newTestService(t)
	p := event.AuctionFinished{AuctionID: uuid.New().String(), FinishedAt: time.Now().UTC()}
	assert.NoError(t, svc.onAuctionFinished(ctx, event.Envelope{}, p))
}
