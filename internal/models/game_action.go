package models

import (
	"fmt"

	"github.com/google/uuid"
)

// ActionType is the kind of move a player submits.
type ActionType string

const (
	ActionAttack     ActionType = "attack"
	ActionDefend     ActionType = "defend"
	ActionPass       ActionType = "pass"
	ActionTakeCards  ActionType = "take_cards"
	ActionThrowCards ActionType = "throw_cards"
	ActionUseAbility ActionType = "use_ability"
	ActionRevealCard ActionType = "reveal_card"
)

// ActionTypes lists every supported action.
var ActionTypes = []ActionType{
	ActionAttack, ActionDefend, ActionPass, ActionTakeCards,
	ActionThrowCards, ActionUseAbility, ActionRevealCard,
}

// Valid reports whether t is a known action.
func (t ActionType) Valid() bool {
	for _, known := range ActionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// UnmarshalText rejects unknown action names at decode time.
func (t *ActionType) UnmarshalText(text []byte) error {
	v := ActionType(text)
	if !v.Valid() {
		return fmt.Errorf("unknown action type %q", string(text))
	}
	*t = v
	return nil
}

// AbilityType is one of the character abilities.
type AbilityType string

const (
	AbilityPeaksVision  AbilityType = "peaks_vision"
	AbilityCrossesThrow AbilityType = "crosses_throw"
	AbilityHeartsDefend AbilityType = "hearts_defend"
)

// AbilityTypes lists every ability.
var AbilityTypes = []AbilityType{AbilityPeaksVision, AbilityCrossesThrow, AbilityHeartsDefend}

// Character returns the character that owns the ability, or "" for an unknown ability.
func (a AbilityType) Character() CharacterType {
	switch a {
	case AbilityPeaksVision:
		return CharacterPeaks
	case AbilityCrossesThrow:
		return CharacterCrosses
	case AbilityHeartsDefend:
		return CharacterHearts
	}
	return ""
}

// Valid reports whether a is a known ability.
func (a AbilityType) Valid() bool {
	return a.Character() != ""
}

// UnmarshalText rejects unknown ability names. An empty string means no ability.
func (a *AbilityType) UnmarshalText(text []byte) error {
	v := AbilityType(text)
	if v != "" && !v.Valid() {
		return fmt.Errorf("unknown ability type %q", string(text))
	}
	*a = v
	return nil
}

// GameAction is a player's move. Which optional fields are required depends on Type.
type GameAction struct {
	Type           ActionType  `json:"type"`
	RoomID         uuid.UUID   `json:"roomId"`
	PlayerID       uuid.UUID   `json:"playerId"`
	Card           *Card       `json:"card,omitempty"`
	DefendingCard  *Card       `json:"defendingCard,omitempty"`
	AbilityType    AbilityType `json:"abilityType,omitempty"`
	TargetPlayerID *uuid.UUID  `json:"targetPlayerId,omitempty"`
}

// ActionRecord is an accepted action as queued for the historian.
type ActionRecord struct {
	RoomID        uuid.UUID              `json:"room_id"`
	ActionIndex   int64                  `json:"action_index"`
	ActorPlayerID uuid.UUID              `json:"actor_player_id"`
	ActionType    ActionType             `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"`
	// GameOver is set on the action that finished the game.
	GameOver bool `json:"game_over,omitempty"`
}

// Payload flattens the optional action fields for the history record.
func (a GameAction) Payload() map[string]interface{} {
	payload := map[string]interface{}{}
	if a.Card != nil {
		payload["card"] = a.Card.Key()
	}
	if a.DefendingCard != nil {
		payload["defendingCard"] = a.DefendingCard.Key()
	}
	if a.AbilityType != "" {
		payload["abilityType"] = string(a.AbilityType)
	}
	if a.TargetPlayerID != nil {
		payload["targetPlayerId"] = a.TargetPlayerID.String()
	}
	return payload
}
