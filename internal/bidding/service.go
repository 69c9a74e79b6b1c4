package bidding

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

// ErrValidation covers malformed bid input.
var ErrValidation = errors.New("invalid bid input")

// ErrSelfBid rejects a seller bidding on their own auction. Nothing is persisted.
var ErrSelfBid = errors.New("cannot bid on your own auction")

// ErrConcurrentBid is surfaced after the bounded conflict-retry budget is
// spent; the caller may simply try again.
var ErrConcurrentBid = errors.New("bid conflicted with a concurrent bid, try again")

// maxBidAttempts bounds re-evaluation after a high-bid write conflict.
const maxBidAttempts = 3

// Service evaluates and records bids.
type Service struct {
	repo     *Repository
	resolver *SnapshotResolver
	log      *zap.SugaredLogger
}

// NewService returns the bidding service.
func NewService(repo *Repository, resolver *SnapshotResolver, log *zap.SugaredLogger) *Service {
	return &Service{repo: repo, resolver: resolver, log: log}
}

// PlaceBid resolves the auction snapshot, evaluates the bid, and persists it
// together with its BidPlaced event. A conflict on the high-bid write rolls
// the whole attempt back and re-evaluates against fresh state.
func (s *Service) PlaceBid(ctx context.Context, auctionID uuid.UUID, bidder string, amount int64) (*model.Bid, error) {
	if bidder == "" || amount <= 0 {
		return nil, ErrValidation
	}

	snap, err := s.resolver.Resolve(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if snap.Seller == bidder {
		return nil, ErrSelfBid
	}

	for attempt := 0; attempt < maxBidAttempts; attempt++ {
		bid, err := s.tryPlace(ctx, snap, bidder, amount)
		if errors.Is(err, ErrReplicaConflict) {
			s.log.Debugf("high-bid conflict on %s, attempt %d", auctionID, attempt+1)
			// Re-evaluate against a fresh snapshot: the conflicting write
			// may have been the finalizer flipping the status.
			s.resolver.Invalidate(ctx, auctionID)
			snap, err = s.resolver.Resolve(ctx, auctionID)
			if err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		return bid, nil
	}
	return nil, ErrConcurrentBid
}

// tryPlace runs one evaluation attempt in a single transaction: high-bid
// read, evaluation, bid insert, replica CAS when the bid won, outbox row.
func (s *Service) tryPlace(ctx context.Context, snap Snapshot, bidder string, amount int64) (*model.Bid, error) {
	var bid *model.Bid
	err := s.repo.DB(ctx).Transaction(func(tx *gorm.DB) error {
		high, err := s.repo.HighBid(ctx, tx, snap.ID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		status := Evaluate(now, snap, IncomingBid{Bidder: bidder, Amount: amount}, high)

		bid = &model.Bid{
			ID:        uuid.New(),
			AuctionID: snap.ID,
			Bidder:    bidder,
			Amount:    amount,
			Status:    status,
			BidTime:   now,
		}
		if err := s.repo.CreateBid(ctx, tx, bid); err != nil {
			return err
		}

		if status.Accepted() {
			rep, err := s.repo.GetReplica(ctx, tx, snap.ID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Resolver populated the snapshot but the replica row is
				// gone (e.g. deleted between reads); treat as a conflict.
				return ErrReplicaConflict
			}
			if err != nil {
				return err
			}
			if err := s.repo.SetHighBid(ctx, tx, snap.ID, bid, rep.Version); err != nil {
				return err
			}
		}

		env, err := event.New(event.TypeBidPlaced, snap.ID, event.BidPlaced{
			BidID:     bid.ID.String(),
			AuctionID: snap.ID.String(),
			Bidder:    bid.Bidder,
			Amount:    bid.Amount,
			Status:    bid.Status,
			BidTime:   bid.BidTime,
		})
		if err != nil {
			return err
		}
		return outbox.Enqueue(tx, env)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("bid %s on %s by %s amount=%d status=%s", bid.ID, snap.ID, bidder, amount, bid.Status)
	return bid, nil
}

// GetBidsForAuction lists an auction's bids, newest first.
func (s *Service) GetBidsForAuction(ctx context.Context, auctionID uuid.UUID) ([]model.Bid, error) {
	return s.repo.ListBids(ctx, auctionID)
}
