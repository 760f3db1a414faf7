package sched_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vrushabhzade/retro-game-project-sub001/internal/core/sched"
)

// fakeSim records scheduler calls and injects failures on demand.
type fakeSim struct {
	mu            sync.Mutex
	dispatched    []sched.Action
	dispatchDelay time.Duration
	dispatchErr   error
	updateErr     error
	validateErr   error
	updates       int
	clock         time.Duration
}

func (f *fakeSim) Dispatch(a sched.Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dispatched = append(f.dispatched, a)
	if f.dispatchDelay > 0 {
		time.Sleep(f.dispatchDelay)
	}
	return f.dispatchErr
}

func (f *fakeSim) Update(time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	return f.updateErr
}

func (f *fakeSim) Validate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validateErr
}

func (f *fakeSim) AdvanceClock(dt time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock += dt
}

func (f *fakeSim) dispatchedActions() []sched.Action {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sched.Action(nil), f.dispatched...)
}

func (f *fakeSim) setDispatchDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dispatchDelay = d
}

type fakeSystem struct {
	name     string
	updates  int
	err      error
	panicMsg string
}

func (f *fakeSystem) Name() string { return f.name }

func (f *fakeSystem) Update(time.Duration, time.Duration) error {
	f.updates++
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.err
}

func newScheduler(sim *fakeSim) *sched.Scheduler {
	return sched.New(target, 50*time.Millisecond, 128, sim, nil, zap.NewNop())
}

func moveAction(dx int) sched.Action {
	return sched.Action{Type: sched.ActionMove, DX: dx, Timestamp: time.Now()}
}

func TestTickDispatchesQueuedActionsInOrder(t *testing.T) {
	sim := &fakeSim{}
	s := newScheduler(sim)

	s.QueueAction(moveAction(1))
	s.QueueAction(moveAction(2))
	s.QueueAction(moveAction(3))
	require.NoError(t, s.Tick(target))

	got := sim.dispatchedActions()
	require.Len(t, got, 3)
	for i, a := range got {
		assert.Equal(t, i+1, a.DX)
	}
	assert.Equal(t, 1, sim.updates)
	assert.Equal(t, target, sim.clock)
}

func TestInputTruncationKeepsNewest(t *testing.T) {
	// Each dispatch outlasts the 5ms input budget, so one action lands per
	// tick and the backlog piles up past the truncation threshold.
	sim := &fakeSim{dispatchDelay: 6 * time.Millisecond}
	s := newScheduler(sim)

	for i := 1; i <= 10; i++ {
		s.QueueAction(moveAction(i))
	}
	require.NoError(t, s.Tick(target))

	got := sim.dispatchedActions()
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].DX)
	// 9 remained pending; only the 3 newest survive.
	assert.Equal(t, uint64(6), s.Metrics().DroppedActions)

	sim.setDispatchDelay(0)
	require.NoError(t, s.Tick(target))

	got = sim.dispatchedActions()
	require.Len(t, got, 4)
	assert.Equal(t, []int{8, 9, 10}, []int{got[1].DX, got[2].DX, got[3].DX})
	assert.Equal(t, uint64(6), s.Metrics().DroppedActions)
}

func TestFullQueueDropsActions(t *testing.T) {
	sim := &fakeSim{}
	s := sched.New(target, 50*time.Millisecond, 2, sim, nil, zap.NewNop())

	for i := 0; i < 4; i++ {
		s.QueueAction(moveAction(i))
	}
	require.NoError(t, s.Tick(target))

	assert.Len(t, sim.dispatchedActions(), 2)
	assert.Equal(t, uint64(2), s.Metrics().DroppedActions)
}

func TestDispatchErrorIsRecovered(t *testing.T) {
	sim := &fakeSim{dispatchErr: errors.New("unknown action")}
	s := newScheduler(sim)

	s.QueueAction(moveAction(1))
	require.NoError(t, s.Tick(target))
	assert.Equal(t, 1, sim.updates, "loop continues past a dispatch failure")
}

func TestUpdateErrorIsFatal(t *testing.T) {
	sim := &fakeSim{updateErr: errors.New("corrupted turn")}
	s := newScheduler(sim)

	err := s.Tick(target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "simulation update")
}

func TestValidationFailureHaltsLoop(t *testing.T) {
	sim := &fakeSim{validateErr: errors.New("player hp out of range")}
	s := newScheduler(sim)

	require.NoError(t, s.Start())
	require.Eventually(t, func() bool { return !s.Running() },
		2*time.Second, 5*time.Millisecond)

	err := s.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "state validation")
	s.Stop() // no-op after a halt
}

func TestStartStopSemantics(t *testing.T) {
	sim := &fakeSim{}
	s := newScheduler(sim)

	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Start(), sched.ErrAlreadyRunning)
	assert.True(t, s.Running())

	s.Stop()
	assert.False(t, s.Running())
	assert.NoError(t, s.Err())
	s.Stop()

	// Restart after a clean stop.
	require.NoError(t, s.Start())
	s.Stop()
}

func TestOptionalSystemFailuresAreContained(t *testing.T) {
	sim := &fakeSim{}
	s := newScheduler(sim)

	failing := &fakeSystem{name: sched.SystemRendering, err: errors.New("view build failed")}
	panicking := &fakeSystem{name: sched.SystemVisualAdaptation, panicMsg: "nil style"}
	healthy := &fakeSystem{name: sched.SystemAIMentor}
	s.Register(failing)
	s.Register(panicking)
	s.Register(healthy)

	require.NoError(t, s.Tick(target))

	assert.Equal(t, 1, failing.updates)
	assert.Equal(t, 1, panicking.updates)
	assert.Equal(t, 1, healthy.updates, "later systems still run after a panic")
	assert.Equal(t, uint64(2), s.Metrics().SystemErrors)
}

func TestDisabledSystemIsSkipped(t *testing.T) {
	sim := &fakeSim{}
	s := newScheduler(sim)

	sys := &fakeSystem{name: sched.SystemSave}
	s.Register(sys)
	s.Table().SetEnabled(sched.SystemSave, false)

	require.NoError(t, s.Tick(target))
	assert.Equal(t, 0, sys.updates)
	assert.Equal(t, uint64(1), s.Metrics().SkippedSystems)

	s.Table().SetEnabled(sched.SystemSave, true)
	require.NoError(t, s.Tick(target))
	assert.Equal(t, 1, sys.updates)
}

func TestAIDrivenSystemsSkippedWithoutAIProcessing(t *testing.T) {
	sim := &fakeSim{}
	s := newScheduler(sim)

	mentor := &fakeSystem{name: sched.SystemAIMentor}
	analysis := &fakeSystem{name: sched.SystemCombatAnalysis}
	s.Register(mentor)
	s.Register(analysis)

	s.SetPerformanceMode(true)
	require.NoError(t, s.Tick(target))
	assert.Equal(t, 0, mentor.updates)
	assert.Equal(t, 0, analysis.updates)

	s.SetPerformanceMode(false)
	require.NoError(t, s.Tick(target))
	assert.Equal(t, 1, mentor.updates)
	assert.Equal(t, 1, analysis.updates)
}

func TestSetPerformanceModeAppliedAtTickStart(t *testing.T) {
	// The dispatch delay lands the frame inside the hysteresis band, so the
	// forced profile is not immediately overwritten by a fast frame.
	sim := &fakeSim{dispatchDelay: 14 * time.Millisecond}
	s := newScheduler(sim)

	s.SetPerformanceMode(true)
	s.QueueAction(moveAction(1))
	require.NoError(t, s.Tick(target))

	assert.False(t, s.Settings().AIProcessing)
}

func TestMetricsPublishedPerTick(t *testing.T) {
	sim := &fakeSim{}
	s := newScheduler(sim)

	require.NoError(t, s.Tick(target))
	require.NoError(t, s.Tick(target))

	m := s.Metrics()
	assert.Equal(t, uint64(2), m.FrameCount)
	assert.GreaterOrEqual(t, m.LastFrameMs, 0.0)

	names := make(map[string]bool, len(m.Systems))
	for _, sl := range m.Systems {
		names[sl.Name] = true
	}
	assert.True(t, names[sched.SystemInput])
	assert.True(t, names[sched.SystemGameLogic])
}
