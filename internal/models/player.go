package models

import "github.com/google/uuid"

// PlayerStatus is a player's standing within the room's current turn.
type PlayerStatus string

const (
	PlayerWaiting    PlayerStatus = "waiting"
	PlayerActive     PlayerStatus = "active"
	PlayerAttacker   PlayerStatus = "attacker"
	PlayerDefender   PlayerStatus = "defender"
	PlayerSpectator  PlayerStatus = "spectator"
	PlayerEliminated PlayerStatus = "eliminated"
)

// PlayerRole distinguishes the room owner from everyone else.
type PlayerRole string

const (
	RoleOwner  PlayerRole = "owner"
	RolePlayer PlayerRole = "player"
)

// CharacterType selects which once-per-rotation ability a player may use.
type CharacterType string

const (
	CharacterPeaks   CharacterType = "peaks"
	CharacterCrosses CharacterType = "crosses"
	CharacterHearts  CharacterType = "hearts"
)

// Character is the cosmetic and ability profile a player brings into a room.
type Character struct {
	CharacterType CharacterType `json:"characterType,omitempty"`
	Avatar        string        `json:"avatar,omitempty"`
	CharacterTeam string        `json:"characterTeam,omitempty"`
	AvatarNumber  int           `json:"avatarNumber,omitempty"`
}

// Player is a seat in a room.
type Player struct {
	ID     uuid.UUID    `json:"id"`
	RoomID uuid.UUID    `json:"roomId"`
	Name   string       `json:"name"`
	Seat   int          `json:"seat"`
	Status PlayerStatus `json:"status"`
	Role   PlayerRole   `json:"role"`
	Cards  []Card       `json:"cards"`

	Character

	// VisibleCards are cards of this player's hand that have been revealed to everyone.
	VisibleCards []Card `json:"visibleCards,omitempty"`
	AbilityUsed  bool   `json:"abilityUsed"`
}

// InGame reports whether the player still takes part in turn rotation.
func (p *Player) InGame() bool {
	return p.Status != PlayerEliminated && p.Status != PlayerSpectator
}

// IsOwner reports whether the player owns the room.
func (p *Player) IsOwner() bool {
	return p.Role == RoleOwner
}

// Clone returns a deep copy of the player.
func (p *Player) Clone() *Player {
	c := *p
	c.Cards = CloneCards(p.Cards)
	c.VisibleCards = CloneCards(p.VisibleCards)
	return &c
}
