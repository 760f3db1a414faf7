package system

import (
	"sync"
	"time"

	"github.com/vrushabhzade/retro-game-project-sub001/internal/core/event"
	"github.com/vrushabhzade/retro-game-project-sub001/internal/core/sched"
)

// CombatSummary is the aggregate view over all resolved turns.
type CombatSummary struct {
	Sessions         int
	Turns            int
	DamageDealt      int
	DamageTaken      int
	HostilesDefeated int
}

// CombatAnalysisSystem aggregates combat statistics from bus events.
// Registered as "combatAnalysis" (low priority: first skipped under load).
//
// Bus handlers run during event dispatch at tick start, so they only append
// to an inbox; the aggregation work happens in this system's own slot, under
// its budget.
type CombatAnalysisSystem struct {
	inboxTurns  []event.TurnResolved
	inboxKills  int
	inboxStarts int

	mu      sync.Mutex
	summary CombatSummary
}

func NewCombatAnalysisSystem(bus *event.Bus) *CombatAnalysisSystem {
	s := &CombatAnalysisSystem{}
	event.Subscribe(bus, func(ev event.TurnResolved) {
		s.inboxTurns = append(s.inboxTurns, ev)
	})
	event.Subscribe(bus, func(ev event.ActorDefeated) {
		s.inboxKills++
	})
	event.Subscribe(bus, func(ev event.CombatStarted) {
		s.inboxStarts++
	})
	return s
}

func (s *CombatAnalysisSystem) Name() string { return sched.SystemCombatAnalysis }

func (s *CombatAnalysisSystem) Update(_, _ time.Duration) error {
	if len(s.inboxTurns) == 0 && s.inboxKills == 0 && s.inboxStarts == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary.Sessions += s.inboxStarts
	s.summary.HostilesDefeated += s.inboxKills
	for _, t := range s.inboxTurns {
		s.summary.Turns++
		s.summary.DamageDealt += t.DamageDealt
		s.summary.DamageTaken += t.DamageTaken
	}
	s.inboxTurns = s.inboxTurns[:0]
	s.inboxKills = 0
	s.inboxStarts = 0
	return nil
}

// Summary returns the aggregated combat statistics.
func (s *CombatAnalysisSystem) Summary() CombatSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}
