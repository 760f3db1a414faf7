package system

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vrushabhzade/retro-game-project-sub001/internal/core/event"
	"github.com/vrushabhzade/retro-game-project-sub001/internal/core/sched"
	"github.com/vrushabhzade/retro-game-project-sub001/internal/world"
)

// MentorContext is the situation summary handed to the hint source.
type MentorContext struct {
	PlayerHP       int
	PlayerMaxHP    int
	HostilesNearby int
	InCombat       bool
	HasConsumable  bool
}

// HintSource produces mentor hint text for a situation. The wording and
// heuristics are external; an empty string means "nothing to say".
type HintSource interface {
	Hint(ctx MentorContext) (string, error)
}

// MentorSystem periodically asks the hint source for advice and publishes new
// hints on the bus. Registered as "aiMentor" (medium priority, throttled and
// skipped first when AI processing goes dark).
type MentorSystem struct {
	source  HintSource
	session *Session
	bus     *event.Bus
	log     *zap.Logger

	everyTicks int
	tickCount  int

	mu   sync.Mutex
	last string
}

func NewMentorSystem(source HintSource, session *Session, bus *event.Bus, everyTicks int, log *zap.Logger) *MentorSystem {
	if everyTicks <= 0 {
		everyTicks = 60
	}
	return &MentorSystem{
		source:     source,
		session:    session,
		bus:        bus,
		log:        log,
		everyTicks: everyTicks,
	}
}

func (s *MentorSystem) Name() string { return sched.SystemAIMentor }

func (s *MentorSystem) Update(_, _ time.Duration) error {
	s.tickCount++
	if s.tickCount < s.everyTicks {
		return nil
	}
	s.tickCount = 0

	st := s.session.State()
	ctx := MentorContext{
		PlayerHP:       st.Player.HP,
		PlayerMaxHP:    st.Player.MaxHP,
		HostilesNearby: len(st.AdjacentHostiles(3)),
		InCombat:       st.Combat == world.CombatInCombat,
	}
	for _, it := range st.Player.Inventory {
		if it.Kind == world.ItemConsumable {
			ctx.HasConsumable = true
			break
		}
	}

	text, err := s.source.Hint(ctx)
	if err != nil {
		return err
	}
	if text == "" || text == s.LastHint() {
		return nil
	}

	s.mu.Lock()
	s.last = text
	s.mu.Unlock()
	if s.bus != nil {
		event.Emit(s.bus, event.HintIssued{Text: text})
	}
	s.log.Debug("mentor hint issued", zap.String("hint", text))
	return nil
}

// LastHint returns the most recent hint text.
func (s *MentorSystem) LastHint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
