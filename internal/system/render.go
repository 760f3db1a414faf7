package system

import (
	"sync"
	"time"

	"github.com/vrushabhzade/retro-game-project-sub001/internal/core/sched"
	"github.com/vrushabhzade/retro-game-project-sub001/internal/world"
)

// HostileView is one hostile in the frame view.
type HostileView struct {
	ID     int64
	Kind   string
	X, Y   int
	HP     int
	MaxHP  int
}

// FrameView is the immutable draw-state snapshot built once per frame for the
// rendering collaborator. The collaborator never mutates scheduler or game
// state; it only reads the latest view.
type FrameView struct {
	PlayerX, PlayerY int
	PlayerHP         int
	PlayerMaxHP      int
	Hostiles         []HostileView
	CombatActive     bool

	Hint  string
	Style string

	AnimationQuality sched.AnimationQuality
	VisualEffects    bool
	RenderOptimized  bool
}

// RenderPrepSystem builds the per-frame view model. Registered as
// "rendering" (high priority, throttle-eligible).
type RenderPrepSystem struct {
	session  *Session
	settings func() sched.AdaptiveSettings
	style    func() string
	hint     func() string

	mu   sync.Mutex
	view FrameView
}

func NewRenderPrepSystem(session *Session, settings func() sched.AdaptiveSettings, style, hint func() string) *RenderPrepSystem {
	return &RenderPrepSystem{
		session:  session,
		settings: settings,
		style:    style,
		hint:     hint,
	}
}

func (s *RenderPrepSystem) Name() string { return sched.SystemRendering }

func (s *RenderPrepSystem) Update(_, _ time.Duration) error {
	st := s.session.State()
	qs := s.settings()

	view := FrameView{
		PlayerX:          st.Player.X,
		PlayerY:          st.Player.Y,
		PlayerHP:         st.Player.HP,
		PlayerMaxHP:      st.Player.MaxHP,
		CombatActive:     st.Combat == world.CombatInCombat,
		AnimationQuality: qs.AnimationQuality,
		VisualEffects:    qs.VisualEffects,
		RenderOptimized:  qs.RenderOptimizations,
	}
	if s.style != nil {
		view.Style = s.style()
	}
	if s.hint != nil {
		view.Hint = s.hint()
	}
	for _, h := range st.LivingHostiles() {
		view.Hostiles = append(view.Hostiles, HostileView{
			ID:    h.ID,
			Kind:  h.Kind,
			X:     h.X,
			Y:     h.Y,
			HP:    h.HP,
			MaxHP: h.MaxHP,
		})
	}

	s.mu.Lock()
	s.view = view
	s.mu.Unlock()
	return nil
}

// View returns the latest frame view.
func (s *RenderPrepSystem) View() FrameView {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.view
	v.Hostiles = append([]HostileView(nil), s.view.Hostiles...)
	return v
}
