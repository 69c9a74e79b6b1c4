package bidding

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/openbid/auction-platform/internal/model"
)

func liveSnapshot(reserve int64) Snapshot {
	return Snapshot{
		ID:           uuid.New(),
		Seller:       "alice",
		ReservePrice: reserve,
		EndAt:        time.Now().Add(time.Hour),
		Status:       model.StatusLive,
	}
}

func TestEvaluate_ReserveBoundaries(t *testing.T) {
	now := time.Now().UTC()
	snap := liveSnapshot(10000)

	// first bid below reserve still takes the high-bid slot
	got := Evaluate(now, snap, IncomingBid{Bidder: "bob", Amount: 9000}, nil)
	assert.Equal(t, model.BidAcceptedBelowReserve, got)

	// above reserve and above the current high
	high := &model.Bid{Bidder: "bob", Amount: 9000}
	got = Evaluate(now, snap, IncomingBid{Bidder: "carol", Amount: 11000}, high)
	assert.Equal(t, model.BidAccepted, got)

	// exactly the reserve is not above it
	got = Evaluate(now, snap, IncomingBid{Bidder: "dave", Amount: 10000}, nil)
	assert.Equal(t, model.BidAcceptedBelowReserve, got)
}

func TestEvaluate_TooLowBeatsReserveCheck(t *testing.T) {
	now := time.Now().UTC()
	snap := liveSnapshot(10000)
	high := &model.Bid{Bidder: "carol", Amount: 11000}

	// above reserve but below the current high: the high-bid rule wins
	got := Evaluate(now, snap, IncomingBid{Bidder: "dave", Amount: 10500}, high)
	assert.Equal(t, model.BidTooLow, got)
}

func TestEvaluate_EqualAmountLosesToEarlierBid(t *testing.T) {
	now := time.Now().UTC()
	snap := liveSnapshot(5000)
	high := &model.Bid{Bidder: "bob", Amount: 7000}

	got := Evaluate(now, snap, IncomingBid{Bidder: "carol", Amount: 7000}, high)
	assert.Equal(t, model.BidTooLow, got)
}

func TestEvaluate_AfterEnd(t *testing.T) {
	now := time.Now().UTC()
	snap := liveSnapshot(10000)
	snap.EndAt = now.Add(-time.Minute)

	// late bids are recorded but never win, whatever the amount
	got := Evaluate(now, snap, IncomingBid{Bidder: "bob", Amount: 999999}, nil)
	assert.Equal(t, model.BidFinished, got)
}

func TestEvaluate_TerminalStatus(t *testing.T) {
	now := time.Now().UTC()
	snap := liveSnapshot(10000)
	snap.Status = model.StatusFinished

	// a terminal replica refuses bids even if the local clock lags EndAt
	got := Evaluate(now, snap, IncomingBid{Bidder: "bob", Amount: 20000}, nil)
	assert.Equal(t, model.BidFinished, got)
}
