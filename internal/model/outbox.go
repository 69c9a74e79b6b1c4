package model

import (
	"time"

	"github.com/google/uuid"
)

// Outbox delivery states.
const (
	OutboxPending   = "Pending"
	OutboxDelivered = "Delivered"
)

// OutboxEvent is a durable event row written in the same transaction as the
// state change that produced it. A row is marked Delivered only after the bus
// acknowledges the publish; the sweeper re-publishes stale Pending rows.
type OutboxEvent struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	AuctionID   uuid.UUID `gorm:"type:uuid;not null;index"`
	EventType   string    `gorm:"size:64;not null"`
	Payload     string    `gorm:"type:jsonb;not null"`
	Status      string    `gorm:"size:16;not null;default:'Pending';index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	DeliveredAt *time.Time
}

func (OutboxEvent) TableName() string { return "event_outbox" }
