package event

// Combat and mentor event types consumed by the optional systems.

type CombatStarted struct {
	Turn     int
	Hostiles int
}

// CombatEndReason says why a combat session closed.
type CombatEndReason string

const (
	EndPlayerDefeated  CombatEndReason = "player_defeated"
	EndHostilesCleared CombatEndReason = "hostiles_cleared"
	EndDisengaged      CombatEndReason = "disengaged"
	EndForced          CombatEndReason = "forced"
)

type CombatEnded struct {
	Reason CombatEndReason
	Turns  int
}

type TurnResolved struct {
	Turn         int
	PlayerAction string
	DamageDealt  int
	DamageTaken  int
	Defeated     int // hostiles defeated this turn
}

type ActorDefeated struct {
	ActorID int64
	Name    string
}

type HintIssued struct {
	Text string
}
