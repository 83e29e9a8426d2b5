package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nhatro/backend/internal/application/leasing"
)

var (
	// ErrSchedulerNotRunning is returned when triggering a stopped scheduler.
	ErrSchedulerNotRunning = errors.New("scheduler is not running")
	// ErrInvalidConfig is returned for a non-positive check interval.
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)

// DepositSweepScheduler runs the deposit grace sweep on an interval.
// The sweep itself is idempotent, so the interval only controls how
// promptly overdue check-ins expire, not correctness.
type DepositSweepScheduler struct {
	service   *leasing.DepositSweepService
	logger    *zap.Logger
	config    DepositSweepSchedulerConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// DepositSweepSchedulerConfig holds configuration for the sweep scheduler
type DepositSweepSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// CheckInterval is how often a sweep pass runs
	CheckInterval time.Duration

	// SweepTimeout is the maximum time for one sweep pass
	SweepTimeout time.Duration
}

// DefaultDepositSweepSchedulerConfig returns default configuration
func DefaultDepositSweepSchedulerConfig() DepositSweepSchedulerConfig {
	return DepositSweepSchedulerConfig{
		Enabled:       true,
		CheckInterval: time.Hour,
		SweepTimeout:  5 * time.Minute,
	}
}

// NewDepositSweepScheduler creates a new deposit sweep scheduler
func NewDepositSweepScheduler(
	service *leasing.DepositSweepService,
	logger *zap.Logger,
	config DepositSweepSchedulerConfig,
) (*DepositSweepScheduler, error) {
	if config.Enabled && config.CheckInterval <= 0 {
		return nil, ErrInvalidConfig
	}
	if config.SweepTimeout <= 0 {
		config.SweepTimeout = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DepositSweepScheduler{
		service: service,
		logger:  logger,
		config:  config,
	}, nil
}

// Start starts the sweep loop. A pass runs immediately so a restarted
// server catches up on deadlines missed while it was down.
func (s *DepositSweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Deposit sweep scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("Deposit sweep scheduler started",
		zap.Duration("check_interval", s.config.CheckInterval),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *DepositSweepScheduler) Stop(ctx context.Context) error {
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
		s.logger.Info("Deposit sweep scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Deposit sweep scheduler stop timed out")
		return ctx.Err()
	}
}

// run executes sweep passes until the context is cancelled
func (s *DepositSweepScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	s.executeSweep(ctx)

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Deposit sweep loop stopping")
			return
		case <-ticker.C:
			s.executeSweep(ctx)
		}
	}
}

// executeSweep runs one sweep pass with a timeout
func (s *DepositSweepScheduler) executeSweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	startTime := time.Now()
	result, err := s.service.Sweep(sweepCtx, startTime)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Deposit sweep pass failed",
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}

	if result.Expired > 0 || result.Warned > 0 || result.Failures > 0 {
		s.logger.Info("Deposit sweep pass completed",
			zap.Duration("duration", duration),
			zap.Int("expired", result.Expired),
			zap.Int("warned", result.Warned),
			zap.Int("failures", result.Failures),
		)
	}
}

// TriggerImmediateSweep runs a sweep pass right away, outside the ticker
func (s *DepositSweepScheduler) TriggerImmediateSweep(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Info("Triggering immediate deposit sweep")

	go func() {
		defer s.wg.Done()
		s.executeSweep(ctx)
	}()

	return nil
}

// IsRunning returns whether the scheduler is running
func (s *DepositSweepScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
