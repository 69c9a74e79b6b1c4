package model

import (
	"time"

	"github.com/google/uuid"
)

// BidStatus is the evaluated fate of a bid. Bids are immutable once written.
type BidStatus string

const (
	BidAccepted             BidStatus = "Accepted"
	BidAcceptedBelowReserve BidStatus = "AcceptedBelowReserve"
	BidTooLow               BidStatus = "TooLow"
	BidFinished             BidStatus = "Finished"
)

// Accepted reports whether the bid became the high bid when it was placed.
func (s BidStatus) Accepted() bool {
	return s == BidAccepted || s == BidAcceptedBelowReserve
}

// Bid is an append-only bid record kept by the bidding service.
type Bid struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AuctionID uuid.UUID `gorm:"type:uuid;not null;index" json:"auction_id"`
	Bidder    string    `gorm:"size:255;not null" json:"bidder"`
	Amount    int64     `gorm:"not null" json:"amount"`
	Status    BidStatus `gorm:"size:32;not null" json:"status"`
	BidTime   time.Time `gorm:"not null" json:"bid_time"`
}

func (Bid) TableName() string { return "bid" }
