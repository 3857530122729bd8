// Package scheduler runs the service's background jobs: the trashed-request
// retention sweep and the nightly full-ledger reconciliation.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TrashSweeper rejects trashed requests whose retention window has elapsed
type TrashSweeper interface {
	SweepExpiredTrash(ctx context.Context) (int, error)
}

// Config holds scheduling settings
type Config struct {
	// SweepInterval is how often the trash sweep runs
	SweepInterval time.Duration
	// NightlySyncHour is the local hour (0-23) the full-ledger sync runs
	NightlySyncHour int
	// CheckInterval is how often the nightly trigger checks the clock
	CheckInterval time.Duration
	// JobTimeout bounds a single job run
	JobTimeout time.Duration
}

// DefaultConfig returns default scheduling settings
func DefaultConfig() Config {
	return Config{
		SweepInterval:   time.Hour,
		NightlySyncHour: 2,
		CheckInterval:   time.Minute,
		JobTimeout:      30 * time.Minute,
	}
}

// Scheduler drives the background jobs. Start launches the loops; Stop waits
// for in-flight runs to finish.
type Scheduler struct {
	config  Config
	sweeper TrashSweeper
	logger  *zap.Logger

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	syncFn func(ctx context.Context) (int, int, error)

	// lastSyncDate guards the nightly sync against running twice in one day
	lastSyncDate string
}

// SyncRunner adapts the balance service's SyncAll to the scheduler. The
// returned counts are (projects, failed).
type SyncRunner func(ctx context.Context) (int, int, error)

// New creates a scheduler for the given jobs. Either job may be nil, in which
// case its loop is not started.
func New(cfg Config, sweeper TrashSweeper, sync SyncRunner, logger *zap.Logger) *Scheduler {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Hour
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = time.Minute
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 30 * time.Minute
	}
	return &Scheduler{
		config:  cfg,
		sweeper: sweeper,
		syncFn:  sync,
		logger:  logger.Named("scheduler"),
	}
}

// Start launches the background loops. Calling Start on a running scheduler
// is an error.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return fmt.Errorf("scheduler already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.isRunning = true

	if s.sweeper != nil {
		s.wg.Add(1)
		go s.sweepLoop(ctx)
	}
	if s.syncFn != nil {
		s.wg.Add(1)
		go s.nightlySyncLoop(ctx)
	}

	s.logger.Info("scheduler started",
		zap.Duration("sweep_interval", s.config.SweepInterval),
		zap.Int("nightly_sync_hour", s.config.NightlySyncHour),
	)
	return nil
}

// Stop cancels the loops and waits for in-flight jobs
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) sweepLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runSweep(ctx)
		}
	}
}

func (s *Scheduler) runSweep(ctx context.Context) {
	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	swept, err := s.sweeper.SweepExpiredTrash(jobCtx)
	if err != nil {
		s.logger.Error("trash sweep failed", zap.Error(err))
		return
	}
	if swept > 0 {
		s.logger.Info("trash sweep run complete", zap.Int("swept", swept))
	}
}

func (s *Scheduler) nightlySyncLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			today := now.Format("2006-01-02")
			if now.Hour() != s.config.NightlySyncHour || s.lastSyncDate == today {
				continue
			}
			s.lastSyncDate = today
			s.runSync(ctx)
		}
	}
}

func (s *Scheduler) runSync(ctx context.Context) {
	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	start := time.Now()
	projects, failed, err := s.syncFn(jobCtx)
	if err != nil {
		s.logger.Error("nightly ledger sync failed", zap.Error(err))
		return
	}
	s.logger.Info("nightly ledger sync complete",
		zap.Int("projects", projects),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)),
	)
}
