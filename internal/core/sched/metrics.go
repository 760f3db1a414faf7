package sched

// PerformanceMetrics is the read-only frame-loop snapshot published at the
// end of every tick for rendering/UI collaborators.
type PerformanceMetrics struct {
	FrameCount     uint64
	CurrentLoad    float64
	LastFrameMs    float64
	AverageFrameMs float64
	Level          PerformanceLevel
	Systems        []SystemLoad

	DroppedActions uint64 // lost to queue overflow truncation
	SkippedSystems uint64 // optional-system skips, cumulative
	SystemErrors   uint64 // optional-system failures downgraded to skips
}
