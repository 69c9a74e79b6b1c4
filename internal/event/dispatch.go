package event

import (
	"context"
	"encoding/json"
	"fmt"
)

// Handlers is a dispatch table mapping event types to typed handler funcs.
// Nil entries make the corresponding type a no-op for that consumer, so each
// consumer declares exactly the events it cares about.
type Handlers struct {
	AuctionCreated  func(ctx context.Context, env Envelope, p AuctionCreated) error
	AuctionUpdated  func(ctx context.Context, env Envelope, p AuctionUpdated) error
	AuctionDeleted  func(ctx context.Context, env Envelope, p AuctionDeleted) error
	AuctionFinished func(ctx context.Context, env Envelope, p AuctionFinished) error
	BidPlaced       func(ctx context.Context, env Envelope, p BidPlaced) error
	AuctionEnded    func(ctx context.Context, env Envelope, p AuctionEnded) error
}

// Dispatch decodes the payload and routes the envelope to its handler.
func (h Handlers) Dispatch(ctx context.Context, env Envelope) error {
	switch env.Type {
	case TypeAuctionCreated:
		if h.AuctionCreated == nil {
			return nil
		}
		var p AuctionCreated
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return h.AuctionCreated(ctx, env, p)
	case TypeAuctionUpdated:
		if h.AuctionUpdated == nil {
			return nil
		}
		var p AuctionUpdated
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return h.AuctionUpdated(ctx, env, p)
	case TypeAuctionDeleted:
		if h.AuctionDeleted == nil {
			return nil
		}
		var p AuctionDeleted
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return h.AuctionDeleted(ctx, env, p)
	case TypeAuctionFinished:
		if h.AuctionFinished == nil {
			return nil
		}
		var p AuctionFinished
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return h.AuctionFinished(ctx, env, p)
	case TypeBidPlaced:
		if h.BidPlaced == nil {
			return nil
		}
		var p BidPlaced
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return h.BidPlaced(ctx, env, p)
	case TypeAuctionEnded:
		if h.AuctionEnded == nil {
			return nil
		}
		var p AuctionEnded
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return h.AuctionEnded(ctx, env, p)
	default:
		return fmt.Errorf("unknown event type %q", env.Type)
	}
}
