package sched

import "time"

// System is an optional per-frame subsystem registered with the Scheduler.
// Name must match a catalog entry in the PriorityTable; the scheduler decides
// each frame whether the system runs, and under what budget.
//
// Update must be written for a soft budget: the scheduler does not interrupt
// a running system, it measures the overrun and throttles the next frame.
// A returned error or a panic downgrades to "skip this system this frame";
// it never halts the frame loop.
type System interface {
	Name() string
	Update(dt, budget time.Duration) error
}
