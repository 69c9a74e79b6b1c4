package auction

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openbid/auction-platform/internal/event"
	"github.com/openbid/auction-platform/internal/model"
)

// Handlers returns the auction store's event dispatch table. Only
// AuctionFinished mutates the store: it applies the winning bid and the
// terminal status computed by the finalizer.
func (s *Service) Handlers() event.Handlers {
	return event.Handlers{
		AuctionFinished: s.onAuctionFinished,
	}
}

// onAuctionFinished applies the finished-auction outcome to the
// authoritative record. Redelivery is a no-op: a terminal auction is never
// written again, so the status only moves forward.
func (s *Service) onAuctionFinished(ctx context.Context, env event.Envelope, p event.AuctionFinished) error {
	id, err := uuid.Parse(p.AuctionID)
	if err != nil {
		s.log.Errorf("auction finished with bad id %q: %v", p.AuctionID, err)
		return nil
	}

	return s.repo.DB(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := s.repo.Get(ctx, tx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				s.log.Warnf("auction finished for unknown auction %s", id)
				return nil
			}
			return err
		}
		if a.Status.Terminal() {
			return nil
		}

		// A winner exists only when the item actually sold above reserve;
		// a reserve-not-met close leaves winner and sold amount unset.
		if p.ItemSold && p.Amount > a.ReservePrice {
			a.Winner = &p.Winner
			a.SoldAmount = &p.Amount
			a.Status = model.StatusFinished
		} else {
			a.Status = model.StatusReserveNotMet
		}

		if err := s.repo.ApplyFinished(ctx, tx, a, a.Version); err != nil {
			return err
		}
		s.logFinished(a)
		return nil
	})
}

func (s *Service) logFinished(a *model.Auction) {
	if a.Status == model.StatusFinished {
		s.log.Infof("auction %s finished: winner=%s amount=%d", a.ID, *a.Winner, *a.SoldAmount)
		return
	}
	s.log.Infof("auction %s closed: reserve not met", a.ID)
}
