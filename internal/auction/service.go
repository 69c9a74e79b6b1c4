package auction

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/openbid/auction-platform/internal/event"
	"github.com/openbid/auction-platform/internal/model"
	"github.com/openbid/auction-platform/internal/outbox"
)

// ErrValidation covers malformed create/update input.
var ErrValidation = errors.New("invalid auction input")

// CreateAuctionRequest carries the fields needed to list an item.
type CreateAuctionRequest struct {
	Seller       string    `json:"seller"`
	Make         string    `json:"make"`
	Model        string    `json:"model"`
	Color        string    `json:"color"`
	Mileage      int       `json:"mileage"`
	Year         int       `json:"year"`
	ReservePrice int64     `json:"reserve_price"`
	StartAt      time.Time `json:"start_at"`
	EndAt        time.Time `json:"end_at"`
}

// UpdateAuctionRequest carries optional item-field changes. Timing, reserve
// price and seller are fixed once the auction is listed.
type UpdateAuctionRequest struct {
	Make    *string `json:"make"`
	Model   *string `json:"model"`
	Color   *string `json:"color"`
	Mileage *int    `json:"mileage"`
	Year    *int    `json:"year"`
}

// Service owns the auction lifecycle. Every mutation enqueues its domain
// event in the same transaction, so no event is observable without its cause.
type Service struct {
	repo *Repository
	log  *zap.SugaredLogger
}

// NewService returns the auction service.
func NewService(repo *Repository, log *zap.SugaredLogger) *Service {
	return &Service{repo: repo, log: log}
}

// Create lists a new auction and enqueues AuctionCreated.
func (s *Service) Create(ctx context.Context, req CreateAuctionRequest) (*model.Auction, error) {
	if req.Seller == "" || req.Make == "" || req.Model == "" {
		return nil, ErrValidation
	}
	if req.ReservePrice < 0 || !req.EndAt.After(req.StartAt) {
		return nil, ErrValidation
	}

	a := &model.Auction{
		ID:           uuid.New(),
		Seller:       req.Seller,
		Make:         req.Make,
		Model:        req.Model,
		Color:        req.Color,
		Mileage:      req.Mileage,
		Year:         req.Year,
		ReservePrice: req.ReservePrice,
		StartAt:      req.StartAt.UTC(),
		EndAt:        req.EndAt.UTC(),
		Status:       model.StatusLive,
	}

	err := s.repo.DB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, a); err != nil {
			return err
		}
		env, err := event.New(event.TypeAuctionCreated, a.ID, createdPayload(a))
		if err != nil {
			return err
		}
		return outbox.Enqueue(tx, env)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("auction %s created by %s", a.ID, a.Seller)
	return a, nil
}

// Update changes item fields and enqueues AuctionUpdated.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateAuctionRequest) (*model.Auction, error) {
	var updated *model.Auction
	err := s.repo.DB(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := s.repo.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		if req.Make != nil {
			a.Make = *req.Make
		}
		if req.Model != nil {
			a.Model = *req.Model
		}
		if req.Color != nil {
			a.Color = *req.Color
		}
		if req.Mileage != nil {
			a.Mileage = *req.Mileage
		}
		if req.Year != nil {
			a.Year = *req.Year
		}
		if err := s.repo.Save(ctx, tx, a); err != nil {
			return err
		}
		env, err := event.New(event.TypeAuctionUpdated, a.ID, event.AuctionUpdated{
			ID:        a.ID.String(),
			Make:      a.Make,
			Model:     a.Model,
			Color:     a.Color,
			Mileage:   a.Mileage,
			Year:      a.Year,
			UpdatedAt: time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		if err := outbox.Enqueue(tx, env); err != nil {
			return err
		}
		updated = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes an auction and enqueues AuctionDeleted.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DB(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.repo.Get(ctx, tx, id); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, tx, id); err != nil {
			return err
		}
		env, err := event.New(event.TypeAuctionDeleted, id, event.AuctionDeleted{ID: id.String()})
		if err != nil {
			return err
		}
		return outbox.Enqueue(tx, env)
	})
}

// Get returns one auction.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Auction, error) {
	return s.repo.Get(ctx, s.repo.DB(ctx), id)
}

// ListUpdatedSince is the catch-up query used by the search projector.
func (s *Service) ListUpdatedSince(ctx context.Context, since time.Time) ([]model.Auction, error) {
	return s.repo.ListUpdatedSince(ctx, since)
}

func createdPayload(a *model.Auction) event.AuctionCreated {
	return event.AuctionCreated{
		ID:           a.ID.String(),
		Seller:       a.Seller,
		Make:         a.Make,
		Model:        a.Model,
		Color:        a.Color,
		Mileage:      a.Mileage,
		Year:         a.Year,
		ReservePrice: a.ReservePrice,
		StartAt:      a.StartAt,
		EndAt:        a.EndAt,
		UpdatedAt:    time.Now().UTC(),
	}
}
