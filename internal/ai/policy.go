// Package ai defines the hostile behavior policy contract and the built-in
// melee policy. The decision heuristics themselves are replaceable; the
// combat coordinator only depends on BehaviorPolicy.
package ai

// ActionKind is what a hostile chose to do this turn.
type ActionKind uint8

const (
	ActWait ActionKind = iota
	ActMove
	ActAttack
)

func (k ActionKind) String() string {
	switch k {
	case ActMove:
		return "move"
	case ActAttack:
		return "attack"
	}
	return "wait"
}

// Context is the read-only view of one hostile and its target handed to the
// policy. Distances are Manhattan.
type Context struct {
	SelfID  int64
	X, Y    int
	HP      int
	MaxHP   int
	Offense int

	PlayerX, PlayerY int
	PlayerHP         int
	Dist             int
	CanAttack        bool // player within melee range
}

// EnemyAction is the policy's decision. Move deltas are single-tile.
type EnemyAction struct {
	Kind   ActionKind
	DX, DY int
}

// BehaviorPolicy decides one action for one living hostile per combat turn.
// walkable is the dungeon collaborator's position-validity predicate; it must
// be treated as pure and synchronous.
type BehaviorPolicy interface {
	DecideAction(ctx Context, walkable func(x, y int) bool) EnemyAction
}

// MeleePolicy is the default behavior: attack when adjacent, otherwise step
// toward the player, preferring the axis with the larger gap.
type MeleePolicy struct{}

func (MeleePolicy) DecideAction(ctx Context, walkable func(x, y int) bool) EnemyAction {
	if ctx.CanAttack {
		return EnemyAction{Kind: ActAttack}
	}

	dx := sign(ctx.PlayerX - ctx.X)
	dy := sign(ctx.PlayerY - ctx.Y)
	adx := abs(ctx.PlayerX - ctx.X)
	ady := abs(ctx.PlayerY - ctx.Y)

	// Try the dominant axis first, then the other.
	steps := [][2]int{{dx, 0}, {0, dy}}
	if ady > adx {
		steps[0], steps[1] = steps[1], steps[0]
	}
	for _, st := range steps {
		if st[0] == 0 && st[1] == 0 {
			continue
		}
		if walkable(ctx.X+st[0], ctx.Y+st[1]) {
			return EnemyAction{Kind: ActMove, DX: st[0], DY: st[1]}
		}
	}
	return EnemyAction{Kind: ActWait}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
