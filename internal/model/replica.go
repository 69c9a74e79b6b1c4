package model

import (
	"time"

	"github.com/google/uuid"
)

// AuctionReplica is the bidding service's local copy of an auction, kept
// current by consuming auction events. The version column serializes
// concurrent high-bid updates via a compare-and-swap write.
type AuctionReplica struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Seller        string        `gorm:"size:255;not null" json:"seller"`
	ReservePrice  int64         `gorm:"not null" json:"reserve_price"`
	EndAt         time.Time     `gorm:"not null" json:"end_at"`
	Status        AuctionStatus `gorm:"size:32;not null;default:'Live'" json:"status"`
	HighBidID     *uuid.UUID    `gorm:"type:uuid" json:"high_bid_id,omitempty"`
	HighBidAmount int64         `gorm:"not null;default:0" json:"high_bid_amount"`
	Version       uint64        `gorm:"not null;default:0" json:"-"`
	SyncedAt      time.Time     `gorm:"not null" json:"synced_at"`
}

func (AuctionReplica) TableName() string { return "auction_replica" }
