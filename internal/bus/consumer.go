package bus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/openbid/auction-platform/internal/event"
)

// ConsumerConfig tunes a consumer group reader.
type ConsumerConfig struct {
	Brokers    []string
	GroupID    string
	Topics     []string
	MaxRetries int
	RetryDelay time.Duration
}

// Consumer reads envelopes from Kafka with at-least-once semantics: the
// offset is committed only after the handler has run, so a crash mid-handle
// causes redelivery. Handlers must therefore be idempotent.
type Consumer struct {
	cfg     ConsumerConfig
	handler event.Handlers
	log     *zap.SugaredLogger
}

// NewConsumer builds a consumer for the given group and topics.
func NewConsumer(cfg ConsumerConfig, handler event.Handlers, log *zap.SugaredLogger) *Consumer {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	return &Consumer{cfg: cfg, handler: handler, log: log}
}

// Run consumes until the context is cancelled or a handler keeps failing
// past its retry budget. In the failure case the offset is NOT committed, so
// the event is redelivered when the caller restarts the consumer; only
// undecodable messages are committed past.
func (c *Consumer) Run(ctx context.Context) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     c.cfg.Brokers,
		GroupID:     c.cfg.GroupID,
		GroupTopics: c.cfg.Topics,
		MinBytes:    1,
		MaxBytes:    1 << 20,
	})
	defer reader.Close()

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		commit, err := c.consume(ctx, msg)
		if err != nil {
			return err
		}
		if commit {
			if err := reader.CommitMessages(ctx, msg); err != nil {
				return err
			}
		}
	}
}

// RunLoop restarts Run after a withheld commit or transport error, waiting
// restartDelay between attempts, until the context is cancelled. Restarting
// rejoins the group at the last committed offset, so a withheld event is
// fetched again.
func (c *Consumer) RunLoop(ctx context.Context, restartDelay time.Duration) {
	for {
		if err := c.Run(ctx); err != nil {
			c.log.Errorf("group %s: consumer restarting: %v", c.cfg.GroupID, err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(restartDelay):
		}
	}
}

// consume handles one message and reports whether its offset may be
// committed. A handler failing past its retry budget withholds the commit.
func (c *Consumer) consume(ctx context.Context, msg kafka.Message) (bool, error) {
	env, err := event.Decode(msg.Value)
	if err != nil {
		// Undecodable messages can never succeed; drop them.
		c.log.Errorf("group %s: bad message on %s: %v", c.cfg.GroupID, msg.Topic, err)
		return true, nil
	}

	if err := c.handleWithRetry(ctx, env); err != nil {
		return false, fmt.Errorf("group %s: handle %s id=%s: %w", c.cfg.GroupID, env.Type, env.ID, err)
	}
	return true, nil
}

func (c *Consumer) handleWithRetry(ctx context.Context, env event.Envelope) error {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.cfg.RetryDelay * time.Duration(attempt)):
			}
		}
		if err := c.handler.Dispatch(ctx, env); err != nil {
			lastErr = err
			c.log.Warnf("group %s: handle %s attempt %d: %v", c.cfg.GroupID, env.Type, attempt+1, err)
			continue
		}
		return nil
	}
	return lastErr
}
