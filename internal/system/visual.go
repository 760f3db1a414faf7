package system

import (
	"sync"
	"time"

	"github.com/vrushabhzade/retro-game-project-sub001/internal/core/sched"
	"github.com/vrushabhzade/retro-game-project-sub001/internal/world"
)

// StyleSelector maps the current quality flags and game situation onto a
// named visual style. The selection heuristics live outside the engine; this
// is only the invocation point.
type StyleSelector interface {
	SelectStyle(settings sched.AdaptiveSettings, inCombat bool) string
}

// DefaultStyleSelector degrades the style with the quality flags.
type DefaultStyleSelector struct{}

func (DefaultStyleSelector) SelectStyle(settings sched.AdaptiveSettings, inCombat bool) string {
	switch {
	case !settings.VisualEffects:
		return "minimal"
	case inCombat:
		return "intense"
	case settings.AnimationQuality == sched.AnimationHigh:
		return "vivid"
	default:
		return "plain"
	}
}

// VisualAdaptationSystem re-resolves the visual style each frame it runs.
// Registered as "visualAdaptation" (medium priority, throttle-eligible).
type VisualAdaptationSystem struct {
	selector StyleSelector
	session  *Session
	settings func() sched.AdaptiveSettings

	mu    sync.Mutex
	style string
}

func NewVisualAdaptationSystem(selector StyleSelector, session *Session, settings func() sched.AdaptiveSettings) *VisualAdaptationSystem {
	if selector == nil {
		selector = DefaultStyleSelector{}
	}
	return &VisualAdaptationSystem{
		selector: selector,
		session:  session,
		settings: settings,
		style:    "plain",
	}
}

func (s *VisualAdaptationSystem) Name() string { return sched.SystemVisualAdaptation }

func (s *VisualAdaptationSystem) Update(_, _ time.Duration) error {
	inCombat := s.session.State().Combat == world.CombatInCombat
	style := s.selector.SelectStyle(s.settings(), inCombat)
	s.mu.Lock()
	s.style = style
	s.mu.Unlock()
	return nil
}

// Style returns the current visual style name.
func (s *VisualAdaptationSystem) Style() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.style
}
