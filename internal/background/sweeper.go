package background

import (
	"context"
	"log/slog"
	"time"
)

// HistorySweeper prunes aged records from the in-memory history store.
type HistorySweeper interface {
	Sweep(now time.Time) int
}

// CounterSweeper drops expired failed-attempt windows.
type CounterSweeper interface {
	Sweep(now time.Time) int
}

// ArchivePruner removes expired rows from the durable archive.
type ArchivePruner interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper periodically enforces retention across the engine's state: the
// history store, the failed-attempt counter, and the durable archive.
type Sweeper struct {
	history   HistorySweeper
	counter   CounterSweeper // may be nil when Redis TTLs own window expiry
	archive   ArchivePruner  // may be nil when archival is disabled
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
	stopCh    chan struct{}
}

// NewSweeper creates a retention sweeper. counter and archive may be nil.
func NewSweeper(
	history HistorySweeper,
	counter CounterSweeper,
	archive ArchivePruner,
	retention time.Duration,
	interval time.Duration,
	logger *slog.Logger,
) *Sweeper {
	return &Sweeper{
		history:   history,
		counter:   counter,
		archive:   archive,
		retention: retention,
		interval:  interval,
		logger:    logger,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic sweep loop
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on startup
	s.runSweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.runSweep(ctx)
		case <-s.stopCh:
			s.logger.Info("retention sweeper stopped")
			return
		case <-ctx.Done():
			s.logger.Info("retention sweeper context cancelled")
			return
		}
	}
}

// runSweep enforces retention once across all state
func (s *Sweeper) runSweep(ctx context.Context) {
	now := time.Now()

	historyRemoved := s.history.Sweep(now)

	var windowsRemoved int
	if s.counter != nil {
		windowsRemoved = s.counter.Sweep(now)
	}

	var archiveRemoved int64
	if s.archive != nil {
		sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		var err error
		archiveRemoved, err = s.archive.DeleteExpired(sweepCtx, now.Add(-s.retention))
		if err != nil {
			s.logger.Error("failed to prune archive", slog.Any("error", err))
		}
	}

	if historyRemoved > 0 || windowsRemoved > 0 || archiveRemoved > 0 {
		s.logger.Info("retention sweep completed",
			slog.Int("history_records_removed", historyRemoved),
			slog.Int("failure_windows_removed", windowsRemoved),
			slog.Int64("archive_rows_removed", archiveRemoved))
	}
}

// Stop signals the sweeper to stop
func (s *Sweeper) Stop() {
	close(s.stopCh)
}
