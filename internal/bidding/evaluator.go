package bidding

import (
	"time"

	"github.com/google/uuid"

	"github.com/openbid/auction-platform/internal/model"
)

// Snapshot is the evaluator's view of an auction. It may be stale; the
// compare-and-swap on the replica row catches races at persistence time.
type Snapshot struct {
	ID           uuid.UUID
	Seller       string
	ReservePrice int64
	EndAt        time.Time
	Status       model.AuctionStatus
}

// IncomingBid is a bid under evaluation.
type IncomingBid struct {
	Bidder string
	Amount int64
}

// Evaluate decides the fate of a bid. It is a pure function: no I/O, no
// clock reads, every input passed in. Rules, in order:
//
//  1. auction already past its end -> Finished (recorded, never wins)
//  2. amount not above the current high bid -> TooLow
//  3. amount above the reserve -> Accepted
//  4. otherwise -> AcceptedBelowReserve
//
// Equal amounts lose to the existing high bid, so the earliest bid at a
// given amount always keeps the high-bid slot.
func Evaluate(now time.Time, snap Snapshot, bid IncomingBid, highBid *model.Bid) model.BidStatus {
	if now.After(snap.EndAt) || snap.Status.Terminal() {
		return model.BidFinished
	}
	if highBid != nil && bid.Amount <= highBid.Amount {
		return model.BidTooLow
	}
	if bid.Amount > snap.ReservePrice {
		return model.BidAccepted
	}
	return model.BidAcceptedBelowReserve
}
