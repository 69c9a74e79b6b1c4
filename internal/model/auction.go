package model

import (
	"time"

	"github.com/google/uuid"
)

// AuctionStatus enumerates the auction lifecycle. Transitions are forward-only:
// Live -> Finished or Live -> ReserveNotMet.
type AuctionStatus string

const (
	StatusLive          AuctionStatus = "Live"
	StatusFinished      AuctionStatus = "Finished"
	StatusReserveNotMet AuctionStatus = "ReserveNotMet"
)

// Terminal reports whether the status is an end state.
func (s AuctionStatus) Terminal() bool {
	return s == StatusFinished || s == StatusReserveNotMet
}

// Auction is the authoritative auction record, owned by the auction service.
// Amounts are integer currency minor units.
type Auction struct {
	ID           uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Seller       string        `gorm:"size:255;not null" json:"seller"`
	Make         string        `gorm:"size:255;not null" json:"make"`
	Model        string        `gorm:"size:255;not null" json:"model"`
	Color        string        `gorm:"size:64" json:"color"`
	Mileage      int           `gorm:"not null" json:"mileage"`
	Year         int           `gorm:"not null" json:"year"`
	ReservePrice int64         `gorm:"not null" json:"reserve_price"`
	StartAt      time.Time     `gorm:"not null" json:"start_at"`
	EndAt        time.Time     `gorm:"not null" json:"end_at"`
	Status       AuctionStatus `gorm:"size:32;not null;default:'Live'" json:"status"`
	Winner       *string       `gorm:"size:255" json:"winner,omitempty"`
	SoldAmount   *int64        `json:"sold_amount,omitempty"`
	Version      uint64        `gorm:"not null;default:0" json:"-"`
	CreatedAt    time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Auction) TableName() string { return "auction" }
