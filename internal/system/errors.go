package system

import "errors"

// Action dispatch failures. Recovered locally by the scheduler: no state
// mutation, the loop continues.
var (
	ErrUnknownAction = errors.New("unknown action type")
	ErrInvalidTarget = errors.New("invalid attack target")
	ErrUnknownItem   = errors.New("item not in inventory")
	ErrBlocked       = errors.New("destination blocked")
)

// Combat invariant failures. Recovered by forcing the coordinator to Idle.
var (
	ErrNotInCombat     = errors.New("combat turn processed while idle")
	ErrAlreadyInCombat = errors.New("combat already in progress")
	ErrNoHostiles      = errors.New("no hostiles in range")
)
