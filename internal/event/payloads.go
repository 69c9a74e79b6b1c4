package event

import (
	"time"

	"github.com/openbid/auction-platform/internal/model"
)

// AuctionCreated carries the full auction snapshot at creation time.
type AuctionCreated struct {
	ID           string    `json:"id"`
	Seller       string    `json:"seller"`
	Make         string    `json:"make"`
	Model        string    `json:"model"`
	Color        string    `json:"color"`
	Mileage      int       `json:"mileage"`
	Year         int       `json:"year"`
	ReservePrice int64     `json:"reserve_price"`
	StartAt      time.Time `json:"start_at"`
	EndAt        time.Time `json:"end_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AuctionUpdated carries the auction snapshot after an item-field update.
type AuctionUpdated struct {
	ID        string    `json:"id"`
	Make      string    `json:"make"`
	Model     string    `json:"model"`
	Color     string    `json:"color"`
	Mileage   int       `json:"mileage"`
	Year      int       `json:"year"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuctionDeleted announces removal of an auction.
type AuctionDeleted struct {
	ID string `json:"id"`
}

// AuctionFinished is emitted by the finalizer once an auction resolves.
// ItemSold is false when no qualifying bid existed.
type AuctionFinished struct {
	AuctionID  string    `json:"auction_id"`
	ItemSold   bool      `json:"item_sold"`
	Winner     string    `json:"winner,omitempty"`
	Amount     int64     `json:"amount,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// BidPlaced announces every persisted bid, winning or not.
type BidPlaced struct {
	BidID     string          `json:"bid_id"`
	AuctionID string          `json:"auction_id"`
	Bidder    string          `json:"bidder"`
	Amount    int64           `json:"amount"`
	Status    model.BidStatus `json:"status"`
	BidTime   time.Time       `json:"bid_time"`
}

// AuctionEnded is the scheduler signal that an auction's end time has passed.
// The finalizer treats redelivery for an already-terminal auction as a no-op.
type AuctionEnded struct {
	AuctionID string    `json:"auction_id"`
	EndedAt   time.Time `json:"ended_at"`
}
