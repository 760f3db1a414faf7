package system

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vrushabhzade/retro-game-project-sub001/internal/core/sched"
	"github.com/vrushabhzade/retro-game-project-sub001/internal/world"
)

// Session glues the state aggregate and the combat coordinator into the
// scheduler's Simulation contract. All methods run in the tick goroutine.
type Session struct {
	state  *world.State
	combat *TurnCoordinator
	log    *zap.Logger

	// The turn-based combat contract: exactly one player action per combat
	// turn. A newer queued action replaces an unconsumed one.
	pendingAction *sched.Action
}

func NewSession(state *world.State, combat *TurnCoordinator, log *zap.Logger) *Session {
	return &Session{
		state:  state,
		combat: combat,
		log:    log,
	}
}

// Dispatch applies one input action. In combat, actions are held for the next
// combat turn instead of applying immediately.
func (s *Session) Dispatch(a sched.Action) error {
	switch a.Type {
	case sched.ActionMove, sched.ActionAttack, sched.ActionUseItem, sched.ActionDefend:
	default:
		return fmt.Errorf("%w: %d", ErrUnknownAction, a.Type)
	}

	if s.state.Combat == world.CombatInCombat {
		if s.pendingAction != nil {
			s.log.Debug("combat action replaced",
				zap.String("old", s.pendingAction.Type.String()),
				zap.String("new", a.Type.String()),
			)
		}
		act := a
		s.pendingAction = &act
		return nil
	}

	player := s.state.Player
	switch a.Type {
	case sched.ActionMove:
		nx, ny := player.X+a.DX, player.Y+a.DY
		if !s.state.Grid.Walkable(nx, ny) || s.state.Occupied(nx, ny) {
			return fmt.Errorf("%w: (%d,%d)", ErrBlocked, nx, ny)
		}
		player.X, player.Y = nx, ny

	case sched.ActionAttack:
		// An attack out of combat is an engagement attempt: it must have a
		// hostile in range, and the attack itself resolves in the first turn.
		if len(s.state.AdjacentHostiles(meleeRange)) == 0 {
			return fmt.Errorf("%w: no hostile in range", ErrInvalidTarget)
		}
		act := a
		s.pendingAction = &act

	case sched.ActionUseItem:
		item, ok := player.TakeItem(a.ItemID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownItem, a.ItemID)
		}
		switch item.Kind {
		case world.ItemConsumable:
			player.Heal(item.Heal)
		case world.ItemWeapon:
			player.WeaponBonus = item.Dmg
		}

	case sched.ActionDefend:
		// Defending only matters inside a combat turn.
	}
	return nil
}

// Update runs one simulation step: the encounter check, then at most one
// combat turn if a player action is pending.
func (s *Session) Update(_ time.Duration) error {
	if s.state.Combat == world.CombatIdle {
		if len(s.state.AdjacentHostiles(meleeRange)) > 0 {
			if err := s.combat.StartCombat(); err != nil {
				// Proximity changed between check and start; harmless.
				s.log.Debug("combat start rejected", zap.Error(err))
				s.pendingAction = nil
			}
		} else {
			// No encounter: a stale engagement attempt is dropped.
			s.pendingAction = nil
		}
	}

	if s.state.Combat == world.CombatInCombat && s.pendingAction != nil {
		act := *s.pendingAction
		s.pendingAction = nil
		if _, err := s.combat.ProcessTurn(act); err != nil {
			if errors.Is(err, ErrNotInCombat) {
				// Programmer-error class: recover by forcing Idle and
				// discarding the request to keep the session playable.
				s.log.Error("combat invariant failure, forcing idle", zap.Error(err))
				s.combat.ForceIdle()
				return nil
			}
			return err
		}
	}
	return nil
}

// Validate checks the aggregate's post-update invariants.
func (s *Session) Validate() error {
	return s.state.Validate()
}

// AdvanceClock moves the game clock forward.
func (s *Session) AdvanceClock(dt time.Duration) {
	s.state.Clock += dt
}

// State exposes the live aggregate to same-tick readers (optional systems).
func (s *Session) State() *world.State { return s.state }

// Snapshot returns an independent deep copy for out-of-band consumers. Call
// only between ticks, never intra-tick.
func (s *Session) Snapshot() *world.State {
	return s.state.DeepCopy()
}

// Combat exposes the coordinator, e.g. for the analysis system's log access.
func (s *Session) Combat() *TurnCoordinator { return s.combat }
