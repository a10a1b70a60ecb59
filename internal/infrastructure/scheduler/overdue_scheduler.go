package scheduler

import (
	"context"
	"sync"
	"time"

	appbilling "github.com/fieldops/backend/internal/application/billing"
	"go.uber.org/zap"
)

// OverdueChecker marks past-due SENT invoices as overdue.
type OverdueChecker interface {
	CheckOverdue(ctx context.Context, asOf time.Time) (*appbilling.OverdueCheckResponse, error)
}

var _ OverdueChecker = (*appbilling.InvoiceService)(nil)

// OverdueScheduler periodically sweeps sent invoices whose due date has passed.
type OverdueScheduler struct {
	checker   OverdueChecker
	logger    *zap.Logger
	config    OverdueSchedulerConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// OverdueSchedulerConfig holds configuration for the overdue invoice sweep
type OverdueSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// CheckInterval is how often the sweep runs
	CheckInterval time.Duration

	// SweepTimeout is the maximum time for a single sweep run
	SweepTimeout time.Duration
}

// DefaultOverdueSchedulerConfig returns default configuration
func DefaultOverdueSchedulerConfig() OverdueSchedulerConfig {
	return OverdueSchedulerConfig{
		Enabled:       true,
		CheckInterval: time.Hour,
		SweepTimeout:  5 * time.Minute,
	}
}

// NewOverdueScheduler creates a new overdue invoice scheduler
func NewOverdueScheduler(checker OverdueChecker, logger *zap.Logger, config OverdueSchedulerConfig) *OverdueScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Hour
	}
	if config.SweepTimeout <= 0 {
		config.SweepTimeout = 5 * time.Minute
	}
	return &OverdueScheduler{
		checker: checker,
		logger:  logger,
		config:  config,
	}
}

// Start starts the overdue sweep loop
func (s *OverdueScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Overdue invoice scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runSweepLoop(ctx)

	s.logger.Info("Overdue invoice scheduler started",
		zap.Duration("check_interval", s.config.CheckInterval),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *OverdueScheduler) Stop(ctx context.Context) error {
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
		s.logger.Info("Overdue invoice scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Overdue invoice scheduler stop timed out")
		return ctx.Err()
	}
}

// runSweepLoop runs the sweep once at startup and then on every tick
func (s *OverdueScheduler) runSweepLoop(ctx context.Context) {
	defer s.wg.Done()

	s.executeSweep(ctx)

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Overdue sweep loop stopping")
			return
		case <-ticker.C:
			s.executeSweep(ctx)
		}
	}
}

// executeSweep runs a single overdue sweep with a timeout
func (s *OverdueScheduler) executeSweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	startTime := time.Now()
	result, err := s.checker.CheckOverdue(sweepCtx, startTime)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Overdue invoice sweep failed",
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}

	if result.MarkedCount > 0 {
		s.logger.Info("Overdue invoice sweep completed",
			zap.Int("checked", result.Checked),
			zap.Int("marked", result.MarkedCount),
			zap.Strings("invoice_numbers", result.Marked),
			zap.Duration("duration", duration),
		)
		return
	}

	s.logger.Debug("Overdue invoice sweep completed",
		zap.Int("checked", result.Checked),
		zap.Duration("duration", duration),
	)
}

// TriggerImmediateSweep triggers an immediate sweep run
func (s *OverdueScheduler) TriggerImmediateSweep(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Info("Triggering immediate overdue sweep")

	go func() {
		defer s.wg.Done()
		s.executeSweep(ctx)
	}()

	return nil
}

// IsRunning returns whether the scheduler is running
func (s *OverdueScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
