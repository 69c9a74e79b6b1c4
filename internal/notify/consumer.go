package notify

import (
	"context"

	"github.com/openbid/auction-platform/internal/event"
)

// Handlers rebroadcasts every domain event verbatim. No persistence, no
// redelivery bookkeeping: this path is UI convenience, not a consistency
// mechanism, so the handlers never return an error.
func (h *Hub) Handlers() event.Handlers {
	return event.Handlers{
		AuctionCreated: func(ctx context.Context, env event.Envelope, _ event.AuctionCreated) error {
			return h.rebroadcast(env)
		},
		AuctionUpdated: func(ctx context.Context, env event.Envelope, _ event.AuctionUpdated) error {
			return h.rebroadcast(env)
		},
		AuctionDeleted: func(ctx context.Context, env event.Envelope, _ event.AuctionDeleted) error {
			return h.rebroadcast(env)
		},
		AuctionFinished: func(ctx context.Context, env event.Envelope, _ event.AuctionFinished) error {
			return h.rebroadcast(env)
		},
		BidPlaced: func(ctx context.Context, env event.Envelope, _ event.BidPlaced) error {
			return h.rebroadcast(env)
		},
	}
}

func (h *Hub) rebroadcast(env event.Envelope) error {
	data, err := env.Encode()
	if err != nil {
		h.log.Errorf("encode %s for broadcast: %v", env.Type, err)
		return nil
	}
	h.Broadcast(data)
	return nil
}
