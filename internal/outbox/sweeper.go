package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/openbid/auction-platform/internal/event"
)

// Publisher is the transport side the sweeper hands events to.
type Publisher interface {
	Publish(ctx context.Context, env event.Envelope) error
}

// Config tunes the sweep loop.
type Config struct {
	Interval    time.Duration
	GracePeriod time.Duration
	BatchSize   int
	MaxRetries  int
	RetryDelay  time.Duration
}

// DefaultConfig matches the ~10s sweep the services run with.
func DefaultConfig() Config {
	return Config{
		Interval:    10 * time.Second,
		GracePeriod: 5 * time.Second,
		BatchSize:   100,
		MaxRetries:  3,
		RetryDelay:  time.Second,
	}
}

// Sweeper periodically re-publishes Pending outbox rows. Rows that fail to
// publish stay Pending and are retried on the next sweep, indefinitely; a row
// is marked Delivered only after the publisher returns without error.
type Sweeper struct {
	db        *gorm.DB
	publisher Publisher
	cfg       Config
	log       *zap.SugaredLogger

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewSweeper constructs a sweeper.
func NewSweeper(db *gorm.DB, publisher Publisher, cfg Config, log *zap.SugaredLogger) *Sweeper {
	return &Sweeper{
		db:        db,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
		stopChan:  make(chan struct{}),
	}
}

// Start launches the sweep loop.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("outbox sweeper already running")
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(ctx)

	s.log.Infof("outbox sweeper started interval=%s grace=%s", s.cfg.Interval, s.cfg.GracePeriod)
	return nil
}

// Stop halts the loop and waits for the in-flight sweep to finish.
func (s *Sweeper) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return fmt.Errorf("outbox sweeper not running")
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopChan)
	s.wg.Wait()
	s.log.Info("outbox sweeper stopped")
	return nil
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	// Sweep immediately on start so events stranded by a crash go out
	// without waiting a full interval.
	s.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep publishes one batch of stale Pending rows.
func (s *Sweeper) Sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.cfg.GracePeriod)
	rows, err := FetchPending(s.db, cutoff, s.cfg.BatchSize)
	if err != nil {
		s.log.Errorf("fetch pending outbox: %v", err)
		return
	}
	if len(rows) == 0 {
		return
	}

	delivered := 0
	for _, row := range rows {
		env, err := event.Decode([]byte(row.Payload))
		if err != nil {
			s.log.Errorf("outbox row %s has bad payload: %v", row.ID, err)
			continue
		}
		if err := s.publishWithRetry(ctx, env); err != nil {
			s.log.Warnf("publish outbox %s (%s): %v", row.ID, row.EventType, err)
			continue
		}
		if err := MarkDelivered(s.db, row.ID); err != nil {
			// Leaving the row Pending causes a duplicate publish later;
			// consumers are idempotent so that is safe.
			s.log.Errorf("mark delivered %s: %v", row.ID, err)
			continue
		}
		delivered++
	}

	s.log.Infof("outbox sweep: %d pending, %d delivered", len(rows), delivered)
}

func (s *Sweeper) publishWithRetry(ctx context.Context, env event.Envelope) error {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.cfg.RetryDelay * time.Duration(attempt)):
			}
		}
		if err := s.publisher.Publish(ctx, env); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("publish failed after %d attempts: %w", s.cfg.MaxRetries+1, lastErr)
}
