package world

// Actor holds the fields common to the player and hostiles. Accessed only
// from the game loop goroutine; no locks needed.
type Actor struct {
	ID      int64
	Name    string
	X, Y    int
	HP      int
	MaxHP   int
	Offense int
}

// Alive reports whether the actor still has health.
func (a *Actor) Alive() bool { return a.HP > 0 }

// Damage applies dmg atomically, clamping health at zero. Returns the amount
// actually removed.
func (a *Actor) Damage(dmg int) int {
	if dmg < 0 {
		dmg = 0
	}
	if dmg > a.HP {
		dmg = a.HP
	}
	a.HP -= dmg
	return dmg
}

// Heal restores health, clamped at MaxHP. Returns the amount restored.
func (a *Actor) Heal(amount int) int {
	if amount < 0 {
		amount = 0
	}
	if a.HP+amount > a.MaxHP {
		amount = a.MaxHP - a.HP
	}
	a.HP += amount
	return amount
}

// ItemKind distinguishes inventory item behavior.
type ItemKind string

const (
	ItemConsumable ItemKind = "consumable"
	ItemWeapon     ItemKind = "weapon"
)

// Item is one inventory entry.
type Item struct {
	ID   string
	Name string
	Kind ItemKind
	Heal int // consumables: health restored on use
	Dmg  int // weapons: bonus added to the wielder's offense
}

// Player is the player-controlled actor.
type Player struct {
	Actor
	WeaponBonus int // equipped weapon damage bonus
	Defending   bool
	Inventory   []Item
}

// AttackDamage is base offense plus the equipped weapon bonus.
func (p *Player) AttackDamage() int { return p.Offense + p.WeaponBonus }

// TakeItem removes and returns the inventory item with the given ID.
func (p *Player) TakeItem(id string) (Item, bool) {
	for i, it := range p.Inventory {
		if it.ID == id {
			p.Inventory = append(p.Inventory[:i], p.Inventory[i+1:]...)
			return it, true
		}
	}
	return Item{}, false
}

// Hostile is one enemy actor on the active roster.
type Hostile struct {
	Actor
	Kind string // template kind, e.g. "goblin"
}

// Manhattan is |dx| + |dy|, the proximity metric for encounters and melee.
func Manhattan(x1, y1, x2, y2 int) int {
	dx := x1 - x2
	if dx < 0 {
		dx = -dx
	}
	dy := y1 - y2
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}
