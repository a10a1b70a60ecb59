package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appbilling "github.com/fieldops/backend/internal/application/billing"
)

type stubOverdueChecker struct {
	calls  atomic.Int64
	err    error
	result *appbilling.OverdueCheckResponse
	called chan struct{}
}

func newStubOverdueChecker() *stubOverdueChecker {
	return &stubOverdueChecker{
		result: &appbilling.OverdueCheckResponse{Checked: 2, MarkedCount: 1, Marked: []string{"INV-001"}},
		called: make(chan struct{}, 16),
	}
}

func (s *stubOverdueChecker) CheckOverdue(_ context.Context, _ time.Time) (*appbilling.OverdueCheckResponse, error) {
	s.calls.Add(1)
	select {
	case s.called <- struct{}{}:
	default:
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func waitForSweep(t *testing.T, checker *stubOverdueChecker) {
	t.Helper()
	select {
	case <-checker.called:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sweep")
	}
}

func TestDefaultOverdueSchedulerConfig(t *testing.T) {
	cfg := DefaultOverdueSchedulerConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, time.Hour, cfg.CheckInterval)
	assert.Equal(t, 5*time.Minute, cfg.SweepTimeout)
}

func TestOverdueScheduler_StartRunsImmediateSweep(t *testing.T) {
	checker := newStubOverdueChecker()
	sched := NewOverdueScheduler(checker, zap.NewNop(), OverdueSchedulerConfig{
		Enabled:       true,
		CheckInterval: time.Hour,
	})

	require.NoError(t, sched.Start(context.Background()))
	defer func() { _ = sched.Stop(context.Background()) }()

	waitForSweep(t, checker)
	assert.True(t, sched.IsRunning())
	assert.GreaterOrEqual(t, checker.calls.Load(), int64(1))
}

func TestOverdueScheduler_TicksRepeatedly(t *testing.T) {
	checker := newStubOverdueChecker()
	sched := NewOverdueScheduler(checker, zap.NewNop(), OverdueSchedulerConfig{
		Enabled:       true,
		CheckInterval: 10 * time.Millisecond,
	})

	require.NoError(t, sched.Start(context.Background()))
	defer func() { _ = sched.Stop(context.Background()) }()

	waitForSweep(t, checker)
	waitForSweep(t, checker)
	waitForSweep(t, checker)
	assert.GreaterOrEqual(t, checker.calls.Load(), int64(3))
}

func TestOverdueScheduler_Disabled(t *testing.T) {
	checker := newStubOverdueChecker()
	sched := NewOverdueScheduler(checker, zap.NewNop(), OverdueSchedulerConfig{
		Enabled:       false,
		CheckInterval: time.Millisecond,
	})

	require.NoError(t, sched.Start(context.Background()))

	time.Sleep(50 * time.Millisecond)
	assert.False(t, sched.IsRunning())
	assert.Equal(t, int64(0), checker.calls.Load())
}

func TestOverdueScheduler_StopIsGraceful(t *testing.T) {
	checker := newStubOverdueChecker()
	sched := NewOverdueScheduler(checker, zap.NewNop(), OverdueSchedulerConfig{
		Enabled:       true,
		CheckInterval: time.Hour,
	})

	require.NoError(t, sched.Start(context.Background()))
	waitForSweep(t, checker)

	require.NoError(t, sched.Stop(context.Background()))
	assert.False(t, sched.IsRunning())

	// Stopping twice is a no-op.
	require.NoError(t, sched.Stop(context.Background()))
}

func TestOverdueScheduler_StartIsIdempotent(t *testing.T) {
	checker := newStubOverdueChecker()
	sched := NewOverdueScheduler(checker, zap.NewNop(), OverdueSchedulerConfig{
		Enabled:       true,
		CheckInterval: time.Hour,
	})

	require.NoError(t, sched.Start(context.Background()))
	defer func() { _ = sched.Stop(context.Background()) }()

	waitForSweep(t, checker)
	require.NoError(t, sched.Start(context.Background()))

	// A second Start must not spawn a second loop with its own immediate sweep.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(1), checker.calls.Load())
}

func TestOverdueScheduler_TriggerImmediateSweep(t *testing.T) {
	checker := newStubOverdueChecker()
	sched := NewOverdueScheduler(checker, zap.NewNop(), OverdueSchedulerConfig{
		Enabled:       true,
		CheckInterval: time.Hour,
	})

	require.NoError(t, sched.Start(context.Background()))
	defer func() { _ = sched.Stop(context.Background()) }()
	waitForSweep(t, checker)

	require.NoError(t, sched.TriggerImmediateSweep(context.Background()))
	waitForSweep(t, checker)
	assert.GreaterOrEqual(t, checker.calls.Load(), int64(2))
}

func TestOverdueScheduler_TriggerWhenStopped(t *testing.T) {
	checker := newStubOverdueChecker()
	sched := NewOverdueScheduler(checker, zap.NewNop(), DefaultOverdueSchedulerConfig())

	err := sched.TriggerImmediateSweep(context.Background())
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestOverdueScheduler_SweepErrorDoesNotStopLoop(t *testing.T) {
	checker := newStubOverdueChecker()
	checker.err = errors.New("db unavailable")
	sched := NewOverdueScheduler(checker, zap.NewNop(), OverdueSchedulerConfig{
		Enabled:       true,
		CheckInterval: 10 * time.Millisecond,
	})

	require.NoError(t, sched.Start(context.Background()))
	defer func() { _ = sched.Stop(context.Background()) }()

	waitForSweep(t, checker)
	waitForSweep(t, checker)
	assert.True(t, sched.IsRunning())
}
