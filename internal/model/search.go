package model

import (
	"time"

	"github.com/google/uuid"
)

// SearchRecord is the denormalized read model kept by the search service. It
// is never authoritative and can be rebuilt from the catch-up pull, so stale
// events (older than LastSynced) are ignored by the projector.
type SearchRecord struct {
	ID           uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Seller       string        `gorm:"size:255;not null" json:"seller"`
	Make         string        `gorm:"size:255;not null;index" json:"make"`
	Model        string        `gorm:"size:255;not null;index" json:"model"`
	Color        string        `gorm:"size:64;index" json:"color"`
	Mileage      int           `json:"mileage"`
	Year         int           `json:"year"`
	ReservePrice int64         `json:"reserve_price"`
	EndAt        time.Time     `json:"end_at"`
	Status       AuctionStatus `gorm:"size:32;not null" json:"status"`
	Winner       *string       `gorm:"size:255" json:"winner,omitempty"`
	SoldAmount   *int64        `json:"sold_amount,omitempty"`
	LastSynced   time.Time     `gorm:"not null" json:"last_synced"`
}

func (SearchRecord) TableName() string { return "search_record" }
