package sched

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vrushabhzade/retro-game-project-sub001/internal/core/event"
)

// ErrAlreadyRunning is returned by Start when the loop is already running.
var ErrAlreadyRunning = errors.New("scheduler already running")

// Input queue truncation policy: when more than maxPendingActions actions
// remain after the input phase, keep only the keepRecentActions newest.
// Bounds input latency at the cost of fairness.
const (
	maxPendingActions = 5
	keepRecentActions = 3
)

// Simulation is the game-logic collaborator driven by the scheduler. All
// methods are called from the tick goroutine only.
type Simulation interface {
	// Dispatch applies one input action. A dispatch failure (unknown action,
	// invalid target) must come back as an error with no state mutation; the
	// scheduler logs it and keeps the loop running.
	Dispatch(a Action) error
	// Update runs one simulation step, including combat turn resolution when
	// combat is active.
	Update(dt time.Duration) error
	// Validate checks the post-update state invariants. A non-nil error is
	// fatal: the loop halts with state retained for inspection.
	Validate() error
	// AdvanceClock moves the game clock forward by the frame delta.
	AdvanceClock(dt time.Duration)
}

// Scheduler is the frame loop. Each tick it drains input under a time budget,
// runs the simulation update, steps the game clock, runs the registered
// optional systems under the throttle/skip policy, and records frame timing.
//
// All components execute sequentially inside the tick goroutine; there is no
// parallelism among systems. Cross-goroutine surface: QueueAction, Metrics,
// Settings, SetPerformanceMode, Start, Stop, Err.
type Scheduler struct {
	target time.Duration
	th     Thresholds

	timer    *ExecutionTimer
	balancer *LoadBalancer
	table    *PriorityTable
	adaptive *AdaptiveController

	sim     Simulation
	bus     *event.Bus
	systems []System
	log     *zap.Logger

	in      chan Action
	pending []Action

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	lastErr error

	// -1 none, 0 permissive, 1 conservative; applied at tick start so the
	// adaptive settings stay single-writer.
	perfModeReq atomic.Int32

	metricsMu sync.Mutex
	metrics   PerformanceMetrics
	settings  AdaptiveSettings

	frameCount     uint64
	droppedActions uint64
	skippedSystems uint64
	systemErrors   uint64

	now func() time.Time
}

// New constructs a scheduler around the given simulation. bus may be nil when
// no optional system consumes events.
func New(target, maxInputDelay time.Duration, queueSize int, sim Simulation, bus *event.Bus, log *zap.Logger) *Scheduler {
	if queueSize <= 0 {
		queueSize = 128
	}
	th := NewThresholds(target, maxInputDelay)
	lb := NewLoadBalancer(target)
	ac := NewAdaptiveController(th)
	s := &Scheduler{
		target:   target,
		th:       th,
		timer:    NewExecutionTimer(log),
		balancer: lb,
		table:    NewPriorityTable(lb, ac, th),
		adaptive: ac,
		sim:      sim,
		bus:      bus,
		log:      log,
		in:       make(chan Action, queueSize),
		settings: ac.Settings(),
		now:      time.Now,
	}
	s.perfModeReq.Store(-1)
	return s
}

// Register adds an optional system. Must be called before Start.
func (s *Scheduler) Register(sys System) {
	s.systems = append(s.systems, sys)
}

// Table exposes the priority catalog, e.g. to toggle a system at bootstrap.
func (s *Scheduler) Table() *PriorityTable { return s.table }

// Start launches the frame loop. Returns ErrAlreadyRunning while Running.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}
	s.running = true
	s.lastErr = nil
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.run(s.stopCh, s.doneCh)
	return nil
}

// Stop halts the loop and waits for any in-flight tick to finish. Idempotent;
// a tick already executing is allowed to complete, never interrupted mid-phase.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	done := s.doneCh
	s.mu.Unlock()
	<-done
}

// Running reports whether the loop is live.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Err returns the fatal error that halted the loop, if any.
func (s *Scheduler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// QueueAction enqueues an input action without blocking. On a full queue the
// action is dropped and counted; producers get no ordering guarantee beyond
// FIFO with recency-biased truncation.
func (s *Scheduler) QueueAction(a Action) {
	if a.Timestamp.IsZero() {
		a.Timestamp = s.now()
	}
	select {
	case s.in <- a:
	default:
		atomic.AddUint64(&s.droppedActions, 1)
	}
}

// Metrics returns the snapshot published at the end of the last tick.
func (s *Scheduler) Metrics() PerformanceMetrics {
	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()
	m := s.metrics
	m.Systems = append([]SystemLoad(nil), s.metrics.Systems...)
	return m
}

// Settings returns the adaptive quality flags published at the end of the
// last tick.
func (s *Scheduler) Settings() AdaptiveSettings {
	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()
	return s.settings
}

// SetPerformanceMode forces the conservative (true) or permissive (false)
// profile at the start of the next tick.
func (s *Scheduler) SetPerformanceMode(conservative bool) {
	if conservative {
		s.perfModeReq.Store(1)
	} else {
		s.perfModeReq.Store(0)
	}
}

func (s *Scheduler) run(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(s.target)
	defer ticker.Stop()

	prev := s.now()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			now := s.now()
			dt := now.Sub(prev)
			prev = now
			if err := s.tick(dt); err != nil {
				s.fail(err)
				return
			}
		}
	}
}

// fail transitions to NotRunning after a fatal validation failure. State is
// retained for inspection; there is no automatic retry.
func (s *Scheduler) fail(err error) {
	s.log.Error("frame loop halted", zap.Error(err))
	s.mu.Lock()
	if s.running {
		s.running = false
		close(s.stopCh)
	}
	s.lastErr = err
	s.mu.Unlock()
}

// tick runs one full frame. Exposed to tests via Tick.
func (s *Scheduler) tick(dt time.Duration) error {
	frameStart := s.now()

	if req := s.perfModeReq.Swap(-1); req >= 0 {
		s.adaptive.SetPerformanceMode(req == 1)
	}

	// Deliver last tick's events to subscribers before new work begins.
	if s.bus != nil {
		s.bus.SwapBuffers()
		s.bus.DispatchAll()
	}

	s.inputPhase()

	if err := s.gameLogicPhase(dt); err != nil {
		return err
	}

	s.sim.AdvanceClock(dt)

	s.optionalSystemsPhase(dt)

	frameMs := durToMs(s.now().Sub(frameStart))
	s.adaptive.Observe(frameMs)
	s.frameCount++
	s.publish(frameMs)
	return nil
}

// Tick runs a single frame synchronously. Test hook; must not be mixed with
// a Start()ed loop.
func (s *Scheduler) Tick(dt time.Duration) error {
	return s.tick(dt)
}

// inputPhase drains queued actions one at a time until the queue is empty or
// the phase budget is spent, then applies the overflow truncation policy.
func (s *Scheduler) inputPhase() {
	// Pull everything the producers queued since last tick, preserving FIFO.
	for {
		select {
		case a := <-s.in:
			s.pending = append(s.pending, a)
		default:
			goto drained
		}
	}
drained:

	budget := s.table.Budget(SystemInput)
	if s.th.MaxInputDelayMs < budget {
		budget = s.th.MaxInputDelayMs
	}

	s.timer.Start(SystemInput)
	start := s.now()
	for len(s.pending) > 0 {
		a := s.pending[0]
		s.pending = s.pending[1:]
		if err := s.sim.Dispatch(a); err != nil {
			// Recovered locally: no state mutation happened, loop continues.
			s.log.Warn("action dispatch failed",
				zap.String("action", a.Type.String()),
				zap.Error(err),
			)
		}
		if durToMs(s.now().Sub(start)) >= budget {
			break
		}
	}
	elapsed := s.timer.End(SystemInput)
	s.balancer.RecordExecution(SystemInput, durToMs(elapsed), LevelCritical)

	if len(s.pending) > maxPendingActions {
		dropped := len(s.pending) - keepRecentActions
		s.pending = append(s.pending[:0:0], s.pending[len(s.pending)-keepRecentActions:]...)
		atomic.AddUint64(&s.droppedActions, uint64(dropped))
		s.log.Debug("input queue truncated", zap.Int("dropped", dropped))
	}
}

func (s *Scheduler) gameLogicPhase(dt time.Duration) error {
	s.timer.Start(SystemGameLogic)
	err := s.sim.Update(dt)
	elapsed := s.timer.End(SystemGameLogic)
	s.balancer.RecordExecution(SystemGameLogic, durToMs(elapsed), LevelCritical)
	if err != nil {
		return fmt.Errorf("simulation update: %w", err)
	}
	if err := s.sim.Validate(); err != nil {
		return fmt.Errorf("state validation: %w", err)
	}
	return nil
}

// optionalSystemsPhase runs every registered system the policy allows this
// frame. A failure or panic inside a system is downgraded to a skip.
func (s *Scheduler) optionalSystemsPhase(dt time.Duration) {
	for _, sys := range s.systems {
		name := sys.Name()
		if s.table.ShouldSkip(name) {
			s.skippedSystems++
			continue
		}
		budgetMs := s.table.Budget(name)
		execMs := s.runSystem(sys, dt, msToDur(budgetMs))

		entry, _ := s.table.Entry(name)
		s.balancer.RecordExecution(name, execMs, entry.Level)
		if s.table.ShouldThrottle(name, execMs) {
			s.log.Debug("system over budget",
				zap.String("system", name),
				zap.Float64("exec_ms", execMs),
				zap.Float64("budget_ms", budgetMs),
				zap.String("impact", s.table.Impact(name, execMs).String()),
			)
		}
	}
}

// runSystem executes one optional system with panic recovery at the
// invocation boundary and returns the measured duration in milliseconds.
func (s *Scheduler) runSystem(sys System, dt, budget time.Duration) (execMs float64) {
	s.timer.Start(sys.Name())
	defer func() {
		execMs = durToMs(s.timer.End(sys.Name()))
		if r := recover(); r != nil {
			s.systemErrors++
			s.log.Warn("optional system panicked, skipped this frame",
				zap.String("system", sys.Name()),
				zap.Any("panic", r),
			)
		}
	}()
	if err := sys.Update(dt, budget); err != nil {
		s.systemErrors++
		s.log.Warn("optional system failed, skipped this frame",
			zap.String("system", sys.Name()),
			zap.Error(err),
		)
	}
	return
}

func (s *Scheduler) publish(frameMs float64) {
	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()
	s.metrics = PerformanceMetrics{
		FrameCount:     s.frameCount,
		CurrentLoad:    s.balancer.CurrentLoad(),
		LastFrameMs:    frameMs,
		AverageFrameMs: s.adaptive.AverageFrameMs(),
		Level:          s.adaptive.PerformanceLevel(),
		Systems:        s.balancer.Snapshot(),
		DroppedActions: atomic.LoadUint64(&s.droppedActions),
		SkippedSystems: s.skippedSystems,
		SystemErrors:   s.systemErrors,
	}
	s.settings = s.adaptive.Settings()
}
