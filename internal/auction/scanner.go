package auction

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openbid/auction-platform/internal/event"
	"github.com/openbid/auction-platform/internal/outbox"
)

// Scanner publishes AuctionEnded signals for live auctions whose end time
// has passed. Signals may repeat across sweeps until the finalizer's
// AuctionFinished comes back and flips the status; the finalizer is
// idempotent so duplicates are harmless.
type Scanner struct {
	repo      *Repository
	publisher outbox.Publisher
	interval  time.Duration
	log       *zap.SugaredLogger

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewScanner builds a deadline scanner.
func NewScanner(repo *Repository, publisher outbox.Publisher, interval time.Duration, log *zap.SugaredLogger) *Scanner {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Scanner{
		repo:      repo,
		publisher: publisher,
		interval:  interval,
		log:       log,
		stopChan:  make(chan struct{}),
	}
}

// Start launches the scan loop.
func (s *Scanner) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.scan(ctx)
			}
		}
	}()
	s.log.Infof("deadline scanner started interval=%s", s.interval)
}

// Stop halts the loop.
func (s *Scanner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()
	close(s.stopChan)
	s.wg.Wait()
}

func (s *Scanner) scan(ctx context.Context) {
	now := time.Now().UTC()
	ended, err := s.repo.ListEndedLive(ctx, now, 100)
	if err != nil {
		s.log.Errorf("scan ended auctions: %v", err)
		return
	}
	for _, a := range ended {
		env, err := event.New(event.TypeAuctionEnded, a.ID, event.AuctionEnded{
			AuctionID: a.ID.String(),
			EndedAt:   a.EndAt,
		})
		if err != nil {
			s.log.Errorf("build ended signal for %s: %v", a.ID, err)
			continue
		}
		if err := s.publisher.Publish(ctx, env); err != nil {
			s.log.Warnf("publish ended signal for %s: %v", a.ID, err)
			continue
		}
		s.log.Infof("auction %s ended, signal published", a.ID)
	}
}
