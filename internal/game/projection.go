// internal/game/projection.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/durak/internal/models"
)

// PlayerState is one seat as shown to a particular viewer.
type PlayerState struct {
	ID            uuid.UUID            `json:"id"`
	Name          string               `json:"name"`
	Seat          int                  `json:"seat"`
	Status        models.PlayerStatus  `json:"status"`
	Role          models.PlayerRole    `json:"role"`
	Cards         []models.Card        `json:"cards,omitempty"` // only the viewer's own hand
	Throwable     []models.Card        `json:"throwable,omitempty"`
	CardsCount    int                  `json:"cardsCount"`
	CharacterType models.CharacterType `json:"characterType,omitempty"`
	Avatar        string               `json:"avatar,omitempty"`
	CharacterTeam string               `json:"characterTeam,omitempty"`
	AvatarNumber  int                  `json:"avatarNumber,omitempty"`
	VisibleCards  []models.Card        `json:"visibleCards,omitempty"`
	AbilityUsed   bool                 `json:"abilityUsed"`
}

// GameState is the client view of a room.
type GameState struct {
	RoomID          uuid.UUID            `json:"roomId"`
	Name            string               `json:"name"`
	Owner           string               `json:"owner"`
	Status          models.GameStatus    `json:"status"`
	CurrentAttacker *uuid.UUID           `json:"currentAttacker,omitempty"`
	CurrentDefender *uuid.UUID           `json:"currentDefender,omitempty"`
	ActiveCards     []models.CardOnTable `json:"activeCards"`
	Deck            []models.Card        `json:"deck,omitempty"` // server view only
	DeckCount       int                  `json:"deckCount"`
	TrumpSuit       models.Suit          `json:"trumpSuit,omitempty"`
	TrumpCard       *models.Card         `json:"trumpCard,omitempty"`
	Players         []PlayerState        `json:"players"`
	HouseRules      models.HouseRules    `json:"houseRules"`
	FinishOrder     []uuid.UUID          `json:"finishOrder,omitempty"`
	Durak           *uuid.UUID           `json:"durak,omitempty"`
	Version         int64                `json:"version"`
}

// NewGameState projects room for viewer. Other players' hands and the deck order are
// hidden from seated viewers; uuid.Nil gets the full server view.
func NewGameState(room *models.Room, viewer uuid.UUID) GameState {
	full := viewer == uuid.Nil

	gs := GameState{
		RoomID:      room.ID,
		Name:        room.Name,
		Owner:       room.Owner,
		Status:      room.Status,
		ActiveCards: models.ClonePairs(room.ActiveCards),
		DeckCount:   len(room.Deck),
		TrumpSuit:   room.TrumpSuit,
		HouseRules:  room.HouseRules,
		FinishOrder: append([]uuid.UUID(nil), room.FinishOrder...),
		Version:     room.Version,
	}
	if room.CurrentAttacker != uuid.Nil {
		id := room.CurrentAttacker
		gs.CurrentAttacker = &id
	}
	if room.CurrentDefender != uuid.Nil {
		id := room.CurrentDefender
		gs.CurrentDefender = &id
	}
	if len(room.Deck) > 0 {
		bottom := room.Deck[len(room.Deck)-1]
		gs.TrumpCard = &bottom
	}
	if full {
		gs.Deck = models.CloneCards(room.Deck)
	}
	if _, durak := GameResult(room); durak != nil {
		id := durak.ID
		gs.Durak = &id
	}

	gs.Players = make([]PlayerState, 0, len(room.Players))
	for _, p := range room.Players {
		ps := PlayerState{
			ID:            p.ID,
			Name:          p.Name,
			Seat:          p.Seat,
			Status:        p.Status,
			Role:          p.Role,
			CardsCount:    len(p.Cards),
			CharacterType: p.CharacterType,
			Avatar:        p.Avatar,
			CharacterTeam: p.CharacterTeam,
			AvatarNumber:  p.AvatarNumber,
			VisibleCards:  models.CloneCards(p.VisibleCards),
			AbilityUsed:   p.AbilityUsed,
		}
		if full || p.ID == viewer {
			ps.Cards = models.CloneCards(p.Cards)
		}
		if p.ID == viewer && canThrowIn(room, p) {
			ps.Throwable = ThrowableCards(p.Cards, room.ActiveCards)
		}
		gs.Players = append(gs.Players, ps)
	}
	return gs
}

// Player returns the projected seat for id, or nil.
func (s GameState) Player(id uuid.UUID) *PlayerState {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i]
		}
	}
	return nil
}

// canThrowIn reports whether p is a bystander who may add cards to the current attack.
func canThrowIn(room *models.Room, p *models.Player) bool {
	return room.Status == models.GamePlaying && p.InGame() &&
		p.ID != room.CurrentAttacker && p.ID != room.CurrentDefender
}
