package sched

import (
	"time"

	"go.uber.org/zap"
)

// ExecutionTimer pairs Start/End calls per system name and yields elapsed
// durations. Starts nest stack-like per name, so a system may time inner
// sections under the same name without disturbing other systems.
type ExecutionTimer struct {
	starts map[string][]time.Time
	now    func() time.Time
	log    *zap.Logger
}

func NewExecutionTimer(log *zap.Logger) *ExecutionTimer {
	return &ExecutionTimer{
		starts: make(map[string][]time.Time, 8),
		now:    time.Now,
		log:    log,
	}
}

func (t *ExecutionTimer) Start(name string) {
	t.starts[name] = append(t.starts[name], t.now())
}

// End stops the most recent timer for name and returns the elapsed duration.
// An End without a matching Start is timer misuse: it returns zero and leaves
// every other system's timing intact.
func (t *ExecutionTimer) End(name string) time.Duration {
	stack := t.starts[name]
	if len(stack) == 0 {
		t.log.Debug("timer end without start", zap.String("system", name))
		return 0
	}
	start := stack[len(stack)-1]
	t.starts[name] = stack[:len(stack)-1]
	return t.now().Sub(start)
}
