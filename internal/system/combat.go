package system

import (
	"go.uber.org/zap"

	"github.com/vrushabhzade/retro-game-project-sub001/internal/ai"
	"github.com/vrushabhzade/retro-game-project-sub001/internal/core/event"
	"github.com/vrushabhzade/retro-game-project-sub001/internal/core/sched"
	"github.com/vrushabhzade/retro-game-project-sub001/internal/world"
)

// meleeRange is the Manhattan distance for encounters and melee attacks.
const meleeRange = 1

// CombatResult records one participant's resolution within a turn.
type CombatResult struct {
	ActorID  int64
	Actor    string
	Action   string
	TargetID int64
	Damage   int
	Healed   int
	Defeated bool // target went down from this resolution
	Valid    bool
	Note     string // why an invalid action did nothing
}

// StateSnapshot is the compact end-of-turn view appended to the combat log.
type StateSnapshot struct {
	PlayerHP      int
	PlayerX       int
	PlayerY       int
	HostilesAlive int
}

// CombatTurn is one atomic resolution cycle: the player action followed by
// every living hostile's action. Never mutated after creation.
type CombatTurn struct {
	TurnNumber   int
	PlayerAction sched.Action
	EnemyActions []ai.EnemyAction
	Results      []CombatResult
	Snapshot     StateSnapshot
}

// TurnCoordinator is the nested Idle/InCombat state machine driven from the
// game-logic phase. One ProcessTurn invocation resolves exactly one player
// action and one action per living hostile, player first, hostiles in fixed
// roster order.
type TurnCoordinator struct {
	state  *world.State
	policy ai.BehaviorPolicy
	bus    *event.Bus
	log    *zap.Logger

	turnNumber int
	turns      []CombatTurn
}

func NewTurnCoordinator(state *world.State, policy ai.BehaviorPolicy, bus *event.Bus, log *zap.Logger) *TurnCoordinator {
	if policy == nil {
		policy = ai.MeleePolicy{}
	}
	return &TurnCoordinator{
		state:  state,
		policy: policy,
		bus:    bus,
		log:    log,
	}
}

// StartCombat transitions Idle -> InCombat when at least one living hostile
// stands within melee range of the player. A no-op failure otherwise: the
// state is unchanged.
func (c *TurnCoordinator) StartCombat() error {
	if c.state.Combat == world.CombatInCombat {
		return ErrAlreadyInCombat
	}
	hostiles := c.state.AdjacentHostiles(meleeRange)
	if len(hostiles) == 0 {
		return ErrNoHostiles
	}
	c.state.Combat = world.CombatInCombat
	c.turnNumber = 0
	if c.bus != nil {
		event.Emit(c.bus, event.CombatStarted{Hostiles: len(hostiles)})
	}
	c.log.Info("combat started", zap.Int("hostiles", len(hostiles)))
	return nil
}

// ProcessTurn resolves one combat turn. Calling it while Idle is a
// programmer error: it returns ErrNotInCombat with nothing mutated, and the
// caller is expected to force Idle and discard the request.
func (c *TurnCoordinator) ProcessTurn(action sched.Action) (*CombatTurn, error) {
	if c.state.Combat != world.CombatInCombat {
		return nil, ErrNotInCombat
	}

	c.turnNumber++
	turn := CombatTurn{
		TurnNumber:   c.turnNumber,
		PlayerAction: action,
	}

	player := c.state.Player
	player.Defending = false

	// Player resolves first, always.
	playerResult := c.resolvePlayerAction(action)
	turn.Results = append(turn.Results, playerResult)

	// Every still-living hostile resolves exactly one action, roster order.
	dmgTaken := 0
	for _, h := range c.state.LivingHostiles() {
		act, res := c.resolveHostileAction(h)
		turn.EnemyActions = append(turn.EnemyActions, act)
		turn.Results = append(turn.Results, res)
		dmgTaken += res.Damage
	}

	defeated := 0
	for _, r := range turn.Results {
		if r.Defeated && r.ActorID == player.ID {
			defeated++
		}
	}

	turn.Snapshot = StateSnapshot{
		PlayerHP:      player.HP,
		PlayerX:       player.X,
		PlayerY:       player.Y,
		HostilesAlive: len(c.state.LivingHostiles()),
	}
	c.turns = append(c.turns, turn)

	if c.bus != nil {
		event.Emit(c.bus, event.TurnResolved{
			Turn:         turn.TurnNumber,
			PlayerAction: action.Type.String(),
			DamageDealt:  playerResult.Damage,
			DamageTaken:  dmgTaken,
			Defeated:     defeated,
		})
	}

	c.checkCombatEnd()
	player.Defending = false
	return &c.turns[len(c.turns)-1], nil
}

// ForceIdle is the recovery path for a combat invariant failure: terminal
// transition to Idle, defeated hostiles purged, the malformed request gone.
func (c *TurnCoordinator) ForceIdle() {
	if c.state.Combat == world.CombatInCombat && c.bus != nil {
		event.Emit(c.bus, event.CombatEnded{Reason: event.EndForced, Turns: c.turnNumber})
	}
	c.state.Combat = world.CombatIdle
	c.state.Player.Defending = false
	c.state.PurgeDefeated()
}

// Turns returns the in-memory combat log.
func (c *TurnCoordinator) Turns() []CombatTurn { return c.turns }

func (c *TurnCoordinator) resolvePlayerAction(a sched.Action) CombatResult {
	player := c.state.Player
	res := CombatResult{
		ActorID: player.ID,
		Actor:   player.Name,
		Action:  a.Type.String(),
	}

	switch a.Type {
	case sched.ActionAttack:
		target := c.pickTarget(a.TargetID)
		if target == nil {
			res.Note = "no target in range"
			return res
		}
		dmg := target.Damage(player.AttackDamage())
		res.Valid = true
		res.TargetID = target.ID
		res.Damage = dmg
		if !target.Alive() {
			res.Defeated = true
			if c.bus != nil {
				event.Emit(c.bus, event.ActorDefeated{ActorID: target.ID, Name: target.Name})
			}
			c.log.Info("hostile defeated",
				zap.String("name", target.Name),
				zap.Int("turn", c.turnNumber),
			)
		}

	case sched.ActionDefend:
		// Halves damage from this turn's incoming hostile attacks.
		player.Defending = true
		res.Valid = true

	case sched.ActionUseItem:
		item, ok := player.TakeItem(a.ItemID)
		if !ok {
			res.Note = "item not in inventory"
			return res
		}
		res.Valid = true
		switch item.Kind {
		case world.ItemConsumable:
			res.Healed = player.Heal(item.Heal)
		case world.ItemWeapon:
			player.WeaponBonus = item.Dmg
		}

	case sched.ActionMove:
		nx, ny := player.X+a.DX, player.Y+a.DY
		if !c.state.Grid.Walkable(nx, ny) || c.state.Occupied(nx, ny) {
			res.Note = "destination blocked"
			return res
		}
		player.X, player.Y = nx, ny
		res.Valid = true

	default:
		res.Note = "unknown action"
	}
	return res
}

// pickTarget resolves an attack target: an explicit ID must be in melee
// range, zero means nearest adjacent hostile.
func (c *TurnCoordinator) pickTarget(id int64) *world.Hostile {
	player := c.state.Player
	if id != 0 {
		h := c.state.HostileByID(id)
		if h == nil || world.Manhattan(player.X, player.Y, h.X, h.Y) > meleeRange {
			return nil
		}
		return h
	}
	var best *world.Hostile
	bestDist := meleeRange + 1
	for _, h := range c.state.LivingHostiles() {
		d := world.Manhattan(player.X, player.Y, h.X, h.Y)
		if d < bestDist {
			bestDist = d
			best = h
		}
	}
	return best
}

func (c *TurnCoordinator) resolveHostileAction(h *world.Hostile) (ai.EnemyAction, CombatResult) {
	player := c.state.Player
	ctx := ai.Context{
		SelfID:    h.ID,
		X:         h.X,
		Y:         h.Y,
		HP:        h.HP,
		MaxHP:     h.MaxHP,
		Offense:   h.Offense,
		PlayerX:   player.X,
		PlayerY:   player.Y,
		PlayerHP:  player.HP,
		Dist:      world.Manhattan(h.X, h.Y, player.X, player.Y),
		CanAttack: world.Manhattan(h.X, h.Y, player.X, player.Y) <= meleeRange,
	}
	walkable := func(x, y int) bool {
		return c.state.Grid.Walkable(x, y) && !c.state.Occupied(x, y)
	}
	act := c.policy.DecideAction(ctx, walkable)

	res := CombatResult{
		ActorID: h.ID,
		Actor:   h.Name,
		Action:  act.Kind.String(),
	}
	switch act.Kind {
	case ai.ActAttack:
		if ctx.CanAttack {
			dmg := h.Offense
			if player.Defending {
				dmg /= 2
			}
			res.Damage = player.Damage(dmg)
			res.TargetID = player.ID
			res.Valid = true
			if !player.Alive() {
				res.Defeated = true
			}
		} else {
			res.Note = "player out of range"
		}
	case ai.ActMove:
		nx, ny := h.X+act.DX, h.Y+act.DY
		if walkable(nx, ny) {
			h.X, h.Y = nx, ny
			res.Valid = true
		} else {
			res.Note = "destination blocked"
		}
	case ai.ActWait:
		res.Valid = true
	}
	return act, res
}

// checkCombatEnd transitions InCombat -> Idle when the player is down, the
// hostile set is cleared, or the player disengaged out of melee range.
// Defeated hostiles are purged on the transition.
func (c *TurnCoordinator) checkCombatEnd() {
	var reason event.CombatEndReason
	switch {
	case !c.state.Player.Alive():
		reason = event.EndPlayerDefeated
	case len(c.state.LivingHostiles()) == 0:
		reason = event.EndHostilesCleared
	case len(c.state.AdjacentHostiles(meleeRange)) == 0:
		reason = event.EndDisengaged
	default:
		return
	}

	c.state.Combat = world.CombatIdle
	c.state.PurgeDefeated()
	if c.bus != nil {
		event.Emit(c.bus, event.CombatEnded{Reason: reason, Turns: c.turnNumber})
	}
	c.log.Info("combat ended",
		zap.String("reason", string(reason)),
		zap.Int("turns", c.turnNumber),
	)
}
