package sched

import (
	"sort"
	"time"
)

// SystemLoad is the running execution-time profile of one system.
type SystemLoad struct {
	Name          string
	AverageTimeMs float64
	PeakTimeMs    float64
	Executions    uint64
	Level         PriorityLevel
}

// LoadBalancer aggregates per-system execution times into a normalized
// load signal in [0, 1]. Entries are created lazily on first measurement
// and survive until Reset.
type LoadBalancer struct {
	loads    map[string]*SystemLoad
	budgetMs float64 // total frame budget = target frame time * 0.9
}

func NewLoadBalancer(targetFrameTime time.Duration) *LoadBalancer {
	return &LoadBalancer{
		loads:    make(map[string]*SystemLoad, 8),
		budgetMs: durToMs(targetFrameTime) * 0.9,
	}
}

// RecordExecution folds one measured duration into the running mean and peak
// for name. Negative durations are clamped to zero before recording.
func (b *LoadBalancer) RecordExecution(name string, execMs float64, level PriorityLevel) {
	if execMs < 0 {
		execMs = 0
	}
	l, ok := b.loads[name]
	if !ok {
		l = &SystemLoad{Name: name, Level: level}
		b.loads[name] = l
	}
	l.Executions++
	n := float64(l.Executions)
	l.AverageTimeMs = (l.AverageTimeMs*(n-1) + execMs) / n
	if execMs > l.PeakTimeMs {
		l.PeakTimeMs = execMs
	}
	l.Level = level
}

// CurrentLoad returns the sum of all systems' average execution times
// normalized against the frame budget, clamped to [0, 1].
func (b *LoadBalancer) CurrentLoad() float64 {
	var sum float64
	for _, l := range b.loads {
		sum += l.AverageTimeMs
	}
	if b.budgetMs <= 0 {
		return 0
	}
	load := sum / b.budgetMs
	if load > 1 {
		return 1
	}
	return load
}

// Load returns a copy of the profile for name.
func (b *LoadBalancer) Load(name string) (SystemLoad, bool) {
	l, ok := b.loads[name]
	if !ok {
		return SystemLoad{}, false
	}
	return *l, true
}

// Snapshot returns copies of all profiles, sorted by name for stable output.
func (b *LoadBalancer) Snapshot() []SystemLoad {
	out := make([]SystemLoad, 0, len(b.loads))
	for _, l := range b.loads {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Reset drops all recorded profiles.
func (b *LoadBalancer) Reset() {
	b.loads = make(map[string]*SystemLoad, 8)
}
