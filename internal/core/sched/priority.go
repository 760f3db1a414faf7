package sched

import "time"

// PriorityLevel governs throttle and skip eligibility for a system.
type PriorityLevel uint8

const (
	LevelCritical PriorityLevel = iota
	LevelHigh
	LevelMedium
	LevelLow
)

func (l PriorityLevel) String() string {
	switch l {
	case LevelCritical:
		return "critical"
	case LevelHigh:
		return "high"
	case LevelMedium:
		return "medium"
	case LevelLow:
		return "low"
	}
	return "unknown"
}

// Well-known system names. The catalog below is a contract: budgets and
// throttle eligibility per system are fixed at construction.
const (
	SystemInput            = "input"
	SystemGameLogic        = "gameLogic"
	SystemRendering        = "rendering"
	SystemCombat           = "combat"
	SystemAIMentor         = "aiMentor"
	SystemVisualAdaptation = "visualAdaptation"
	SystemCombatAnalysis   = "combatAnalysis"
	SystemSave             = "saveSystem"
)

// SystemPriority describes one catalog entry. Only Enabled is mutable.
type SystemPriority struct {
	Name        string
	Level       PriorityLevel
	MaxExecMs   float64
	CanThrottle bool
	Enabled     bool

	aiDriven bool // AI/analytics systems go dark when AI processing is disabled
}

// Thresholds holds the frame-time breakpoints derived from the target frame
// duration at construction.
type Thresholds struct {
	TargetFrameMs   float64
	CriticalFrameMs float64 // target * 1.5
	WarningFrameMs  float64 // target * 1.2
	AIThrottleMs    float64 // target * 0.8
	MaxInputDelayMs float64
	BudgetMs        float64 // total frame budget = target * 0.9
}

func NewThresholds(target, maxInputDelay time.Duration) Thresholds {
	t := durToMs(target)
	return Thresholds{
		TargetFrameMs:   t,
		CriticalFrameMs: t * 1.5,
		WarningFrameMs:  t * 1.2,
		AIThrottleMs:    t * 0.8,
		MaxInputDelayMs: durToMs(maxInputDelay),
		BudgetMs:        t * 0.9,
	}
}

// ImpactLevel classifies how far past its budget a system ran.
type ImpactLevel uint8

const (
	ImpactNone ImpactLevel = iota
	ImpactLow
	ImpactMedium
	ImpactHigh
	ImpactSevere
)

func (l ImpactLevel) String() string {
	switch l {
	case ImpactNone:
		return "none"
	case ImpactLow:
		return "low"
	case ImpactMedium:
		return "medium"
	case ImpactHigh:
		return "high"
	case ImpactSevere:
		return "severe"
	}
	return "unknown"
}

// PriorityTable is the static system catalog plus the throttle/skip policy
// evaluated against the live load and frame-time signals.
type PriorityTable struct {
	entries  map[string]*SystemPriority
	balancer *LoadBalancer
	adaptive *AdaptiveController
	th       Thresholds
}

func NewPriorityTable(lb *LoadBalancer, ac *AdaptiveController, th Thresholds) *PriorityTable {
	t := &PriorityTable{
		entries:  make(map[string]*SystemPriority, 8),
		balancer: lb,
		adaptive: ac,
		th:       th,
	}
	for _, e := range []SystemPriority{
		{Name: SystemInput, Level: LevelCritical, MaxExecMs: 5, CanThrottle: false},
		{Name: SystemGameLogic, Level: LevelCritical, MaxExecMs: 8, CanThrottle: false},
		{Name: SystemRendering, Level: LevelHigh, MaxExecMs: 10, CanThrottle: true},
		{Name: SystemCombat, Level: LevelHigh, MaxExecMs: 6, CanThrottle: false},
		{Name: SystemAIMentor, Level: LevelMedium, MaxExecMs: 50, CanThrottle: true, aiDriven: true},
		{Name: SystemVisualAdaptation, Level: LevelMedium, MaxExecMs: 20, CanThrottle: true},
		{Name: SystemCombatAnalysis, Level: LevelLow, MaxExecMs: 30, CanThrottle: true, aiDriven: true},
		{Name: SystemSave, Level: LevelLow, MaxExecMs: 50, CanThrottle: true},
	} {
		entry := e
		entry.Enabled = true
		t.entries[entry.Name] = &entry
	}
	return t
}

// Entry returns a copy of the catalog entry for name.
func (t *PriorityTable) Entry(name string) (SystemPriority, bool) {
	e, ok := t.entries[name]
	if !ok {
		return SystemPriority{}, false
	}
	return *e, true
}

// SetEnabled toggles a system on or off. Unknown names are ignored.
func (t *PriorityTable) SetEnabled(name string, on bool) {
	if e, ok := t.entries[name]; ok {
		e.Enabled = on
	}
}

// ShouldThrottle reports whether the named system should have its execution
// time reduced this frame, given the duration it just consumed. Critical
// systems are never throttled.
func (t *PriorityTable) ShouldThrottle(name string, execMs float64) bool {
	e, ok := t.entries[name]
	if !ok || !e.CanThrottle {
		return false
	}
	if execMs > e.MaxExecMs {
		return true
	}
	load := t.balancer.CurrentLoad()
	if load > 0.8 && e.Level != LevelCritical {
		return true
	}
	avg := t.adaptive.AverageFrameMs()
	if avg > t.th.CriticalFrameMs && (e.Level == LevelLow || e.Level == LevelMedium) {
		return true
	}
	return false
}

// ShouldSkip reports whether the named system should not run at all this
// frame. Unknown systems are always skipped.
func (t *PriorityTable) ShouldSkip(name string) bool {
	e, ok := t.entries[name]
	if !ok {
		return true
	}
	if !e.Enabled {
		return true
	}
	if e.Level == LevelLow && t.balancer.CurrentLoad() > 0.9 {
		return true
	}
	if e.aiDriven && !t.adaptive.Settings().AIProcessing {
		return true
	}
	return false
}

// Budget returns the execution budget for name in milliseconds, scaled down
// as the aggregate load rises. The scale is non-increasing in load.
func (t *PriorityTable) Budget(name string) float64 {
	e, ok := t.entries[name]
	if !ok {
		return 0
	}
	scale := 1.0
	switch load := t.balancer.CurrentLoad(); {
	case load > 0.8:
		scale = 0.5
	case load > 0.6:
		scale = 0.75
	}
	return e.MaxExecMs * scale
}

// Impact classifies an observed execution time against the system's budget.
func (t *PriorityTable) Impact(name string, execMs float64) ImpactLevel {
	e, ok := t.entries[name]
	if !ok || e.MaxExecMs <= 0 {
		return ImpactNone
	}
	switch ratio := execMs / e.MaxExecMs; {
	case ratio < 0.5:
		return ImpactNone
	case ratio < 1.0:
		return ImpactLow
	case ratio < 1.5:
		return ImpactMedium
	case ratio < 2.0:
		return ImpactHigh
	default:
		return ImpactSevere
	}
}

func durToMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func msToDur(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
