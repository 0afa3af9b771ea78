package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// CheckoutFacade exposes the subset of application functionality required by the sweeper.
type CheckoutFacade interface {
	CancelStaleDrafts(ctx context.Context, olderThan time.Duration) (int64, error)
	PurgeAbandonedDrafts(ctx context.Context, olderThan time.Duration) (int64, error)
}

// DraftSweeper periodically cancels abandoned pending drafts and purges
// cancelled drafts that never saw a payment.
type DraftSweeper struct {
	facade        CheckoutFacade
	sweepInterval time.Duration
	staleAge      time.Duration
	purgeAge      time.Duration
	logger        *slog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewDraftSweeper constructs the sweeper.
func NewDraftSweeper(facade CheckoutFacade, sweepInterval, staleAge, purgeAge time.Duration, logger *slog.Logger) *DraftSweeper {
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	return &DraftSweeper{
		facade:        facade,
		sweepInterval: sweepInterval,
		staleAge:      staleAge,
		purgeAge:      purgeAge,
		logger:        logger,
	}
}

// Start launches the background sweep loop.
func (s *DraftSweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(runCtx)
}

// Stop waits for the sweep loop to finish.
func (s *DraftSweeper) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *DraftSweeper) run(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *DraftSweeper) sweep(ctx context.Context) {
	cancelled, err := s.facade.CancelStaleDrafts(ctx, s.staleAge)
	if err != nil {
		s.logger.Error("stale draft sweep failed", slog.String("error", err.Error()))
	} else if cancelled > 0 {
		s.logger.Info("stale drafts cancelled", slog.Int64("count", cancelled))
	}

	purged, err := s.facade.PurgeAbandonedDrafts(ctx, s.purgeAge)
	if err != nil {
		s.logger.Error("draft purge failed", slog.String("error", err.Error()))
	} else if purged > 0 {
		s.logger.Info("abandoned drafts purged", slog.Int64("count", purged))
	}
}
