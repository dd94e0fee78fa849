package application

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often stale sessions are evicted.
const DefaultSweepInterval = 5 * time.Minute

// Sweeper periodically evicts stale sessions from the hub. It replaces an
// out-of-process purge job: the session registry is in-memory, so the sweep
// has to run inside the API process.
type Sweeper struct {
	hub      *Hub
	interval time.Duration
	logger   *slog.Logger
}

func NewSweeper(hub *Hub, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Sweeper{hub: hub, interval: interval, logger: logger}
}

// Run sweeps until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if evicted := s.hub.EvictStale(now); evicted > 0 {
				s.logger.Info("stale sessions evicted", slog.Int("count", evicted))
			}
		}
	}
}
