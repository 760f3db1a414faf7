package sched

// frameHistorySize is ~1 second of samples at 60 Hz.
const frameHistorySize = 60

// FrameTimeHistory is a fixed-capacity ring of recent frame durations in
// milliseconds. Oldest samples drop silently on overflow.
type FrameTimeHistory struct {
	samples [frameHistorySize]float64
	next    int
	count   int
}

func (h *FrameTimeHistory) Record(ms float64) {
	h.samples[h.next] = ms
	h.next = (h.next + 1) % len(h.samples)
	if h.count < len(h.samples) {
		h.count++
	}
}

func (h *FrameTimeHistory) Len() int { return h.count }

// Average returns the mean of the retained samples, or 0 when empty.
func (h *FrameTimeHistory) Average() float64 {
	if h.count == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < h.count; i++ {
		sum += h.samples[i]
	}
	return sum / float64(h.count)
}

// Latest returns the most recent sample, or 0 when empty.
func (h *FrameTimeHistory) Latest() float64 {
	if h.count == 0 {
		return 0
	}
	return h.samples[(h.next-1+len(h.samples))%len(h.samples)]
}

// AnimationQuality is the coarse animation fidelity knob.
type AnimationQuality uint8

const (
	AnimationLow AnimationQuality = iota
	AnimationMedium
	AnimationHigh
)

func (q AnimationQuality) String() string {
	switch q {
	case AnimationLow:
		return "low"
	case AnimationMedium:
		return "medium"
	case AnimationHigh:
		return "high"
	}
	return "unknown"
}

// AdaptiveSettings is the quality flag set derived from recent frame timing.
// Mutated once per frame by the AdaptiveController; everyone else reads a copy.
type AdaptiveSettings struct {
	AIProcessing        bool
	VisualEffects       bool
	AnimationQuality    AnimationQuality
	RenderOptimizations bool
}

func permissiveSettings() AdaptiveSettings {
	return AdaptiveSettings{
		AIProcessing:     true,
		VisualEffects:    true,
		AnimationQuality: AnimationHigh,
	}
}

func conservativeSettings() AdaptiveSettings {
	return AdaptiveSettings{
		AnimationQuality:    AnimationLow,
		RenderOptimizations: true,
	}
}

// PerformanceLevel classifies the rolling average frame time. Observational
// only; it never feeds back into throttling.
type PerformanceLevel uint8

const (
	PerfExcellent PerformanceLevel = iota
	PerfGood
	PerfFair
	PerfPoor
)

func (l PerformanceLevel) String() string {
	switch l {
	case PerfExcellent:
		return "excellent"
	case PerfGood:
		return "good"
	case PerfFair:
		return "fair"
	case PerfPoor:
		return "poor"
	}
	return "unknown"
}

// AdaptiveController derives the quality flags from the newest frame time.
// Branch order is fixed and first-match-wins; between the AI-throttle and
// warning thresholds no branch fires, so the flags persist from the previous
// frame. That hysteresis band is intentional; do not smooth it.
type AdaptiveController struct {
	th       Thresholds
	history  FrameTimeHistory
	settings AdaptiveSettings
}

func NewAdaptiveController(th Thresholds) *AdaptiveController {
	return &AdaptiveController{
		th:       th,
		settings: permissiveSettings(),
	}
}

// Observe records one completed frame and re-evaluates the quality flags.
func (c *AdaptiveController) Observe(frameMs float64) {
	c.history.Record(frameMs)
	switch {
	case frameMs > c.th.CriticalFrameMs:
		c.settings.AIProcessing = false
		c.settings.RenderOptimizations = true
	case frameMs > c.th.WarningFrameMs:
		c.settings.AnimationQuality = AnimationMedium
		c.settings.VisualEffects = false
	case frameMs < c.th.AIThrottleMs:
		c.settings = permissiveSettings()
	}
}

// Settings returns the current quality flags by value.
func (c *AdaptiveController) Settings() AdaptiveSettings {
	return c.settings
}

// SetPerformanceMode forces the conservative (true) or permissive (false)
// profile, bypassing the frame-time branches until the next qualifying frame.
func (c *AdaptiveController) SetPerformanceMode(conservative bool) {
	if conservative {
		c.settings = conservativeSettings()
	} else {
		c.settings = permissiveSettings()
	}
}

// AverageFrameMs returns the rolling average frame time.
func (c *AdaptiveController) AverageFrameMs() float64 {
	return c.history.Average()
}

// LatestFrameMs returns the most recent frame time.
func (c *AdaptiveController) LatestFrameMs() float64 {
	return c.history.Latest()
}

// PerformanceLevel buckets the rolling average against the target frame time.
func (c *AdaptiveController) PerformanceLevel() PerformanceLevel {
	avg := c.history.Average()
	switch {
	case avg <= c.th.TargetFrameMs:
		return PerfExcellent
	case avg <= c.th.TargetFrameMs*1.2:
		return PerfGood
	case avg <= c.th.TargetFrameMs*1.5:
		return PerfFair
	default:
		return PerfPoor
	}
}
