package bidding

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openbid/auction-platform/internal/event"
	"github.com/openbid/auction-platform/internal/model"
	"github.com/openbid/auction-platform/internal/outbox"
)

// onAuctionEnded is the finalizer. On the ended signal it resolves the
// highest qualifying bid, writes the terminal status on the replica and
// enqueues AuctionFinished, all in one transaction. A signal for an auction
// already in a terminal state is a no-op, so redelivery is safe.
func (s *Service) onAuctionEnded(ctx context.Context, env event.Envelope, p event.AuctionEnded) error {
	id, err := uuid.Parse(p.AuctionID)
	if err != nil {
		s.log.Errorf("ended signal with bad id %q: %v", p.AuctionID, err)
		return nil
	}

	var finished *event.AuctionFinished
	err = s.repo.DB(ctx).Transaction(func(tx *gorm.DB) error {
		rep, err := s.repo.GetReplica(ctx, tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.log.Warnf("ended signal for unknown auction %s", id)
				return nil
			}
			return err
		}
		if rep.Status.Terminal() {
			return nil
		}

		high, err := s.repo.HighBid(ctx, tx, id)
		if err != nil {
			return err
		}

		out := event.AuctionFinished{
			AuctionID:  id.String(),
			FinishedAt: time.Now().UTC(),
		}
		status := model.StatusReserveNotMet
		// A high bid at or below the reserve does not sell the item and
		// must not name a winner.
		if high != nil && high.Amount > rep.ReservePrice {
			out.ItemSold = true
			out.Winner = high.Bidder
			out.Amount = high.Amount
			status = model.StatusFinished
		}

		if err := s.repo.MarkReplicaFinished(ctx, tx, id, status); err != nil {
			return err
		}
		fe, err := event.New(event.TypeAuctionFinished, id, out)
		if err != nil {
			return err
		}
		if err := outbox.Enqueue(tx, fe); err != nil {
			return err
		}
		finished = &out
		return nil
	})
	if err != nil {
		return err
	}

	if finished != nil {
		s.resolver.Invalidate(ctx, id)
		if finished.ItemSold {
			s.log.Infof("auction %s finalized: winner=%s amount=%d", id, finished.Winner, finished.Amount)
		} else {
			s.log.Infof("auction %s finalized with no bids", id)
		}
	}
	return nil
}
