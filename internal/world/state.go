package world

import (
	"fmt"
	"time"
)

// CombatState is owned by the state aggregate; transitions happen only inside
// the combat turn coordinator.
type CombatState uint8

const (
	CombatIdle CombatState = iota
	CombatInCombat
)

func (s CombatState) String() string {
	if s == CombatInCombat {
		return "in_combat"
	}
	return "idle"
}

// ValidationError reports a broken state invariant after a simulation update.
// It is the only failure class allowed to halt the frame loop.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("state validation: %s: %s", e.Field, e.Reason)
}

// State is the single mutable game-state aggregate. It is exclusively owned
// by the scheduler's tick context; out-of-band readers get DeepCopy snapshots
// strictly between ticks.
type State struct {
	Player   *Player
	Hostiles []*Hostile
	Grid     *Grid

	Clock  time.Duration // accumulated game time
	Combat CombatState
}

// LivingHostiles returns the hostiles still alive, in roster order. Roster
// order is the deterministic action order within a combat turn.
func (s *State) LivingHostiles() []*Hostile {
	var out []*Hostile
	for _, h := range s.Hostiles {
		if h.Alive() {
			out = append(out, h)
		}
	}
	return out
}

// AdjacentHostiles returns living hostiles within Manhattan distance maxDist
// of the player.
func (s *State) AdjacentHostiles(maxDist int) []*Hostile {
	var out []*Hostile
	for _, h := range s.Hostiles {
		if h.Alive() && Manhattan(s.Player.X, s.Player.Y, h.X, h.Y) <= maxDist {
			out = append(out, h)
		}
	}
	return out
}

// HostileByID finds a living hostile on the roster.
func (s *State) HostileByID(id int64) *Hostile {
	for _, h := range s.Hostiles {
		if h.ID == id && h.Alive() {
			return h
		}
	}
	return nil
}

// PurgeDefeated removes dead hostiles from the active roster.
func (s *State) PurgeDefeated() int {
	kept := s.Hostiles[:0]
	removed := 0
	for _, h := range s.Hostiles {
		if h.Alive() {
			kept = append(kept, h)
		} else {
			removed++
		}
	}
	s.Hostiles = kept
	return removed
}

// Occupied reports whether a living actor stands on the tile.
func (s *State) Occupied(x, y int) bool {
	if s.Player != nil && s.Player.Alive() && s.Player.X == x && s.Player.Y == y {
		return true
	}
	for _, h := range s.Hostiles {
		if h.Alive() && h.X == x && h.Y == y {
			return true
		}
	}
	return false
}

// Validate checks the aggregate's invariants. Returns a *ValidationError on
// the first violation.
func (s *State) Validate() error {
	if s.Player == nil {
		return &ValidationError{Field: "player", Reason: "missing"}
	}
	if s.Grid == nil {
		return &ValidationError{Field: "grid", Reason: "missing"}
	}
	if s.Player.HP < 0 || s.Player.HP > s.Player.MaxHP {
		return &ValidationError{
			Field:  "player.hp",
			Reason: fmt.Sprintf("out of range: %d/%d", s.Player.HP, s.Player.MaxHP),
		}
	}
	if s.Player.Alive() && !s.Grid.Walkable(s.Player.X, s.Player.Y) {
		return &ValidationError{
			Field:  "player.pos",
			Reason: fmt.Sprintf("not walkable: (%d,%d)", s.Player.X, s.Player.Y),
		}
	}
	for _, h := range s.Hostiles {
		if h.HP < 0 || h.HP > h.MaxHP {
			return &ValidationError{
				Field:  "hostile.hp",
				Reason: fmt.Sprintf("%s: out of range: %d/%d", h.Name, h.HP, h.MaxHP),
			}
		}
		if h.Alive() && !s.Grid.Walkable(h.X, h.Y) {
			return &ValidationError{
				Field:  "hostile.pos",
				Reason: fmt.Sprintf("%s: not walkable: (%d,%d)", h.Name, h.X, h.Y),
			}
		}
	}
	if s.Combat == CombatInCombat && len(s.LivingHostiles()) == 0 {
		return &ValidationError{Field: "combat", Reason: "in combat with no living hostiles"}
	}
	return nil
}

// DeepCopy returns an independent copy of the whole aggregate, safe to hand
// to the persistence collaborator between ticks.
func (s *State) DeepCopy() *State {
	cp := &State{
		Clock:  s.Clock,
		Combat: s.Combat,
	}
	if s.Grid != nil {
		cp.Grid = s.Grid.Clone()
	}
	if s.Player != nil {
		p := *s.Player
		p.Inventory = append([]Item(nil), s.Player.Inventory...)
		cp.Player = &p
	}
	cp.Hostiles = make([]*Hostile, 0, len(s.Hostiles))
	for _, h := range s.Hostiles {
		hc := *h
		cp.Hostiles = append(cp.Hostiles, &hc)
	}
	return cp
}
