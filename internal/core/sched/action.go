package sched

import "time"

// ActionType tags a queued input action.
type ActionType uint8

const (
	ActionMove ActionType = iota
	ActionAttack
	ActionUseItem
	ActionDefend
)

func (t ActionType) String() string {
	switch t {
	case ActionMove:
		return "move"
	case ActionAttack:
		return "attack"
	case ActionUseItem:
		return "use_item"
	case ActionDefend:
		return "defend"
	}
	return "unknown"
}

// Action is one pending input action. Producers stamp it when enqueuing;
// the scheduler drains actions FIFO with recency-biased truncation.
type Action struct {
	Type      ActionType
	Timestamp time.Time

	// Move deltas, one tile per action.
	DX, DY int

	// Attack target. Zero means "nearest adjacent hostile".
	TargetID int64

	// Consumable to use.
	ItemID string
}
