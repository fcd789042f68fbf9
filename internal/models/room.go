package models

import (
	"time"

	"github.com/google/uuid"
)

// GameStatus is the lifecycle state of a room.
type GameStatus string

const (
	GameWaiting  GameStatus = "waiting"
	GamePlaying  GameStatus = "playing"
	GameFinished GameStatus = "finished"
)

// Room is the aggregate root of one Durak table: its seats, deck, table and turn pointers.
// CurrentAttacker and CurrentDefender are uuid.Nil when unset.
type Room struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Owner       string     `json:"owner"`
	PlayerLimit int        `json:"playerLimit"`
	PlayerNames []string   `json:"playerNames"`
	Players     []*Player  `json:"players"`
	Status      GameStatus `json:"currentGameStatus"`

	ActiveCards     []CardOnTable `json:"activeCards"`
	Deck            []Card        `json:"deck"`
	TrumpSuit       Suit          `json:"trumpSuit,omitempty"`
	CurrentAttacker uuid.UUID     `json:"currentAttacker"`
	CurrentDefender uuid.UUID     `json:"currentDefender"`

	HouseRules HouseRules `json:"houseRules"`

	// FinishOrder lists players in the order they emptied their hands; the first is the winner.
	FinishOrder []uuid.UUID `json:"finishOrder,omitempty"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PlayerByID returns the seated player with the given id, or nil.
func (r *Room) PlayerByID(id uuid.UUID) *Player {
	if i := r.PlayerIndex(id); i >= 0 {
		return r.Players[i]
	}
	return nil
}

// PlayerIndex returns the seat index of the player, or -1.
func (r *Room) PlayerIndex(id uuid.UUID) int {
	if id == uuid.Nil {
		return -1
	}
	for i, p := range r.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// PlayerByName returns the seated player with the given name, or nil.
func (r *Room) PlayerByName(name string) *Player {
	for _, p := range r.Players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// InGamePlayers returns the players that still take part in rotation, in seat order.
func (r *Room) InGamePlayers() []*Player {
	var out []*Player
	for _, p := range r.Players {
		if p.InGame() {
			out = append(out, p)
		}
	}
	return out
}

// AllowsName reports whether name may take a seat. An empty allow-list admits anyone.
func (r *Room) AllowsName(name string) bool {
	if len(r.PlayerNames) == 0 {
		return true
	}
	for _, n := range r.PlayerNames {
		if n == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy; mutating it never touches r.
func (r *Room) Clone() *Room {
	c := *r
	c.PlayerNames = append([]string(nil), r.PlayerNames...)
	c.Players = make([]*Player, len(r.Players))
	for i, p := range r.Players {
		c.Players[i] = p.Clone()
	}
	c.ActiveCards = ClonePairs(r.ActiveCards)
	c.Deck = CloneCards(r.Deck)
	c.FinishOrder = append([]uuid.UUID(nil), r.FinishOrder...)
	return &c
}
