package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/openbid/auction-platform/internal/event"
	"github.com/openbid/auction-platform/internal/model"
)

// CatchUpSource pulls auctions from the source of truth, used to reconcile
// events missed while the projector was offline.
type CatchUpSource interface {
	FetchUpdatedSince(ctx context.Context, since time.Time) ([]model.Auction, error)
}

// Projector maintains the search read model from auction events.
type Projector struct {
	repo   *Repository
	source CatchUpSource
	log    *zap.SugaredLogger
}

// NewProjector constructs a projector.
func NewProjector(repo *Repository, source CatchUpSource, log *zap.SugaredLogger) *Projector {
	return &Projector{repo: repo, source: source, log: log}
}

// CatchUp pulls everything updated after the local watermark and upserts it,
// then the caller switches to event-driven updates. Run once on cold start.
func (p *Projector) CatchUp(ctx context.Context) error {
	watermark, err := p.repo.Watermark(ctx)
	if err != nil {
		return fmt.Errorf("read watermark: %w", err)
	}
	auctions, err := p.source.FetchUpdatedSince(ctx, watermark)
	if err != nil {
		return fmt.Errorf("catch-up pull: %w", err)
	}
	for i := range auctions {
		a := &auctions[i]
		if err := p.repo.Upsert(ctx, recordFromAuction(a)); err != nil {
			return fmt.Errorf("catch-up upsert %s: %w", a.ID, err)
		}
	}
	p.log.Infof("catch-up complete: %d auctions since %s", len(auctions), watermark.Format(time.RFC3339))
	return nil
}

// Handlers returns the projector's dispatch table.
func (p *Projector) Handlers() event.Handlers {
	return event.Handlers{
		AuctionCreated:  p.onAuctionCreated,
		AuctionUpdated:  p.onAuctionUpdated,
		AuctionDeleted:  p.onAuctionDeleted,
		AuctionFinished: p.onAuctionFinished,
	}
}

func (p *Projector) onAuctionCreated(ctx context.Context, env event.Envelope, in event.AuctionCreated) error {
	id, err := uuid.Parse(in.ID)
	if err != nil {
		p.log.Errorf("auction created with bad id %q: %v", in.ID, err)
		return nil
	}
	return p.repo.Upsert(ctx, &model.SearchRecord{
		ID:           id,
		Seller:       in.Seller,
		Make:         in.Make,
		Model:        in.Model,
		Color:        in.Color,
		Mileage:      in.Mileage,
		Year:         in.Year,
		ReservePrice: in.ReservePrice,
		EndAt:        in.EndAt,
		Status:       model.StatusLive,
		LastSynced:   in.UpdatedAt,
	})
}

func (p *Projector) onAuctionUpdated(ctx context.Context, env event.Envelope, in event.AuctionUpdated) error {
	id, err := uuid.Parse(in.ID)
	if err != nil {
		p.log.Errorf("auction updated with bad id %q: %v", in.ID, err)
		return nil
	}
	rec, err := p.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Update before create can happen across partitions of
			// different auctions only; within one auction the bus is
			// ordered. Skip and let catch-up reconcile.
			p.log.Warnf("update for unknown auction %s", id)
			return nil
		}
		return err
	}
	if !rec.LastSynced.Before(in.UpdatedAt) {
		return nil
	}
	rec.Make = in.Make
	rec.Model = in.Model
	rec.Color = in.Color
	rec.Mileage = in.Mileage
	rec.Year = in.Year
	rec.LastSynced = in.UpdatedAt
	return p.repo.Upsert(ctx, rec)
}

func (p *Projector) onAuctionDeleted(ctx context.Context, env event.Envelope, in event.AuctionDeleted) error {
	id, err := uuid.Parse(in.ID)
	if err != nil {
		p.log.Errorf("auction deleted with bad id %q: %v", in.ID, err)
		return nil
	}
	return p.repo.Delete(ctx, id)
}

func (p *Projector) onAuctionFinished(ctx context.Context, env event.Envelope, in event.AuctionFinished) error {
	id, err := uuid.Parse(in.AuctionID)
	if err != nil {
		p.log.Errorf("auction finished with bad id %q: %v", in.AuctionID, err)
		return nil
	}
	rec, err := p.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			p.log.Warnf("finished for unknown auction %s", id)
			return nil
		}
		return err
	}
	if !rec.LastSynced.Before(in.FinishedAt) {
		return nil
	}
	if in.ItemSold && in.Amount > rec.ReservePrice {
		rec.Winner = &in.Winner
		amount := in.Amount
		rec.SoldAmount = &amount
		rec.Status = model.StatusFinished
	} else {
		rec.Status = model.StatusReserveNotMet
	}
	rec.LastSynced = in.FinishedAt
	return p.repo.Upsert(ctx, rec)
}

func recordFromAuction(a *model.Auction) *model.SearchRecord {
	return &model.SearchRecord{
		ID:           a.ID,
		Seller:       a.Seller,
		Make:         a.Make,
		Model:        a.Model,
		Color:        a.Color,
		Mileage:      a.Mileage,
		Year:         a.Year,
		ReservePrice: a.ReservePrice,
		EndAt:        a.EndAt,
		Status:       a.Status,
		Winner:       a.Winner,
		SoldAmount:   a.SoldAmount,
		LastSynced:   a.UpdatedAt,
	}
}
