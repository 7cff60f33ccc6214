// Package scheduler runs the daily quota refill.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	appbilling "github.com/tierhub/backend/internal/application/billing"
	"go.uber.org/zap"
)

// Refiller performs one refill pass
type Refiller interface {
	RefillDue(ctx context.Context, now time.Time) (*appbilling.RefillResult, error)
}

// RefillSchedulerConfig holds configuration for the refill trigger
type RefillSchedulerConfig struct {
	// Hour of day (UTC) at which the daily run starts
	Hour int

	// RunTimeout bounds one refill pass
	RunTimeout time.Duration

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration
}

// DefaultRefillSchedulerConfig returns default refill trigger configuration
func DefaultRefillSchedulerConfig() RefillSchedulerConfig {
	return RefillSchedulerConfig{
		Hour:          3,
		RunTimeout:    30 * time.Minute,
		CheckInterval: time.Minute,
	}
}

// RefillScheduler triggers RefillDue once a day at the configured hour
type RefillScheduler struct {
	config   RefillSchedulerConfig
	refiller Refiller
	logger   *zap.Logger
	now      func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	inFlight    bool
	lastRunDate string
}

// NewRefillScheduler creates a new refill scheduler
func NewRefillScheduler(config RefillSchedulerConfig, refiller Refiller, logger *zap.Logger) (*RefillScheduler, error) {
	if config.Hour < 0 || config.Hour > 23 {
		return nil, fmt.Errorf("%w: hour %d out of range", ErrInvalidConfig, config.Hour)
	}
	defaults := DefaultRefillSchedulerConfig()
	if config.RunTimeout <= 0 {
		config.RunTimeout = defaults.RunTimeout
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = defaults.CheckInterval
	}
	return &RefillScheduler{
		config:   config,
		refiller: refiller,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Start starts the trigger loop in the background
func (s *RefillScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Refill scheduler started",
		zap.Int("hour_utc", s.config.Hour),
		zap.Duration("run_timeout", s.config.RunTimeout),
		zap.Duration("check_interval", s.config.CheckInterval),
	)
	return nil
}

// Stop stops the loop and waits for an in-flight run, bounded by ctx
func (s *RefillScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Refill scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *RefillScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger runs the refill once per UTC day, at the first tick within the configured hour
func (s *RefillScheduler) checkAndTrigger(ctx context.Context) {
	now := s.now()
	if now.Hour() != s.config.Hour {
		return
	}
	today := now.Format("2006-01-02")

	s.mu.Lock()
	if s.lastRunDate == today {
		s.mu.Unlock()
		return
	}
	s.lastRunDate = today
	s.mu.Unlock()

	if _, err := s.RunNow(ctx); err != nil {
		s.logger.Error("Scheduled quota refill failed", zap.Error(err))
	}
}

// RunNow performs a refill pass immediately. Concurrent calls are rejected.
func (s *RefillScheduler) RunNow(ctx context.Context) (*appbilling.RefillResult, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	s.inFlight = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	start := s.now()
	result, err := s.refiller.RefillDue(runCtx, start)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Quota refill run finished",
		zap.Int("candidates", result.Candidates),
		zap.Int("refilled", result.Refilled),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", s.now().Sub(start)),
	)
	return result, nil
}
