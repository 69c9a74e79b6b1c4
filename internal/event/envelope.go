package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type tags every domain event carried on the bus.
type Type string

const (
	TypeAuctionCreated  Type = "AuctionCreated"
	TypeAuctionUpdated  Type = "AuctionUpdated"
	TypeAuctionDeleted  Type = "AuctionDeleted"
	TypeAuctionFinished Type = "AuctionFinished"
	TypeBidPlaced       Type = "BidPlaced"
	TypeAuctionEnded    Type = "AuctionEnded"
)

// Envelope wraps a domain event for transport. ID doubles as the idempotency
// key; AuctionID is the partition key so one auction's events stay ordered.
type Envelope struct {
	ID        uuid.UUID       `json:"id"`
	Type      Type            `json:"type"`
	AuctionID uuid.UUID       `json:"auction_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// New builds an envelope around the given payload.
func New(t Type, auctionID uuid.UUID, payload interface{}) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return Envelope{
		ID:        uuid.New(),
		Type:      t,
		AuctionID: auctionID,
		Timestamp: time.Now().UTC(),
		Payload:   data,
	}, nil
}

// Encode serializes the envelope for the wire.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses an envelope off the wire.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}
