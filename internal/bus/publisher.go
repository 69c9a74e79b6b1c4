package bus

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/openbid/auction-platform/internal/event"
)

// Bus topics. Lifecycle events and bid events travel separately so consumers
// subscribe only to what they project; the ended signal gets its own topic.
const (
	TopicAuctions     = "auction.events"
	TopicBids         = "bid.events"
	TopicAuctionEnded = "auction.ended"
)

// TopicFor maps an event type to its topic.
func TopicFor(t event.Type) string {
	switch t {
	case event.TypeBidPlaced:
		return TopicBids
	case event.TypeAuctionEnded:
		return TopicAuctionEnded
	default:
		return TopicAuctions
	}
}

// Publisher writes envelopes to Kafka, keyed by auction ID so each auction's
// events land on one partition and stay ordered.
type Publisher struct {
	writer *kafka.Writer
	log    *zap.SugaredLogger
}

// NewPublisher builds a publisher over the given brokers.
func NewPublisher(brokers []string, log *zap.SugaredLogger) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Balancer: &kafka.Hash{},
		},
		log: log,
	}
}

// Publish sends one envelope. The call returns only after the broker acks.
func (p *Publisher) Publish(ctx context.Context, env event.Envelope) error {
	data, err := env.Encode()
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Topic: TopicFor(env.Type),
		Key:   []byte(env.AuctionID.String()),
		Value: data,
		Time:  env.Timestamp,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s to %s: %w", env.Type, msg.Topic, err)
	}
	p.log.Debugf("published %s id=%s auction=%s", env.Type, env.ID, env.AuctionID)
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error { return p.writer.Close() }
