package bidding

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openbid/auction-platform/internal/event"
	"github.com/openbid/auction-platform/internal/model"
)

// Handlers returns the bidding service's dispatch table: replica maintenance
// from auction lifecycle events, plus the finalizer on the ended signal.
// AuctionUpdated only changes item fields, none of which the replica keeps,
// so it has no entry here.
func (s *Service) Handlers() event.Handlers {
	return event.Handlers{
		AuctionCreated:  s.onAuctionCreated,
		AuctionDeleted:  s.onAuctionDeleted,
		AuctionFinished: s.onAuctionFinished,
		AuctionEnded:    s.onAuctionEnded,
	}
}

func (s *Service) onAuctionCreated(ctx context.Context, env event.Envelope, p event.AuctionCreated) error {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		s.log.Errorf("auction created with bad id %q: %v", p.ID, err)
		return nil
	}
	rep := &model.AuctionReplica{
		ID:           id,
		Seller:       p.Seller,
		ReservePrice: p.ReservePrice,
		EndAt:        p.EndAt,
		Status:       model.StatusLive,
		SyncedAt:     p.UpdatedAt,
	}
	if err := s.repo.UpsertReplica(ctx, s.repo.DB(ctx), rep); err != nil {
		return err
	}
	s.resolver.Invalidate(ctx, id)
	return nil
}

func (s *Service) onAuctionDeleted(ctx context.Context, env event.Envelope, p event.AuctionDeleted) error {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		s.log.Errorf("auction deleted with bad id %q: %v", p.ID, err)
		return nil
	}
	if err := s.repo.DeleteReplica(ctx, s.repo.DB(ctx), id); err != nil {
		return err
	}
	s.resolver.Invalidate(ctx, id)
	return nil
}

// onAuctionFinished mirrors the terminal status onto the replica so late
// bids evaluate as Finished even if the local clock lags the auction end.
func (s *Service) onAuctionFinished(ctx context.Context, env event.Envelope, p event.AuctionFinished) error {
	id, err := uuid.Parse(p.AuctionID)
	if err != nil {
		s.log.Errorf("auction finished with bad id %q: %v", p.AuctionID, err)
		return nil
	}
	err = s.repo.DB(ctx).Transaction(func(tx *gorm.DB) error {
		rep, err := s.repo.GetReplica(ctx, tx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}
		if rep.Status.Terminal() {
			return nil
		}
		status := model.StatusReserveNotMet
		if p.ItemSold && p.Amount > rep.ReservePrice {
			status = model.StatusFinished
		}
		return s.repo.MarkReplicaFinished(ctx, tx, id, status)
	})
	if err != nil {
		return err
	}
	s.resolver.Invalidate(ctx, id)
	return nil
}
