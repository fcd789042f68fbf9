package game

import (
	"fmt"

	"github.com/jason-s-yu/durak/internal/models"
)

// handleUseAbility dispatches a character ability. Each ability works once per
// rotation; the flag is cleared when the turn ends.
func handleUseAbility(room *models.Room, p *models.Player, a models.GameAction, intn func(int) int) error {
	if !room.HouseRules.AbilitiesEnabled {
		return ErrAbilitiesDisabled
	}
	if !p.InGame() {
		return fmt.Errorf("%w: you are out of the game", ErrNotYourTurn)
	}
	if !a.AbilityType.Valid() {
		return ErrUnknownAbility
	}
	if p.CharacterType != a.AbilityType.Character() {
		return ErrWrongCharacter
	}
	if p.AbilityUsed {
		return ErrAbilityUsed
	}

	var err error
	switch a.AbilityType {
	case models.AbilityPeaksVision:
		err = peaksVision(room, p, intn)
	case models.AbilityCrossesThrow:
		err = crossesThrow(room, p, a.Card)
	case models.AbilityHeartsDefend:
		err = handleDefend(room, p, a.Card, a.DefendingCard, false)
	default:
		err = ErrUnknownAbility
	}
	if err != nil {
		return err
	}

	p.AbilityUsed = true
	replenishHands(room)
	return nil
}

// peaksVision reveals one random, not yet visible card of every opponent holding cards.
func peaksVision(room *models.Room, p *models.Player, intn func(int) int) error {
	for _, opp := range room.Players {
		if opp.ID == p.ID || len(opp.Cards) == 0 {
			continue
		}
		var hidden []models.Card
		for _, c := range opp.Cards {
			if !containsCard(opp.VisibleCards, c) {
				hidden = append(hidden, c)
			}
		}
		if len(hidden) == 0 {
			continue
		}
		revealCard(opp, hidden[intn(len(hidden))])
	}
	return nil
}

// crossesThrow lets the attacker put down any card from hand, ignoring rank matching.
func crossesThrow(room *models.Room, p *models.Player, card *models.Card) error {
	if p.ID != room.CurrentAttacker {
		return fmt.Errorf("%w: only the attacker can use crosses_throw", ErrNotYourTurn)
	}
	if card == nil || !card.Valid() {
		return ErrMissingCard
	}
	if !containsCard(p.Cards, *card) {
		return fmt.Errorf("%w: %s", ErrCardNotInHand, card)
	}
	if err := checkTableCapacity(room); err != nil {
		return err
	}
	placeAttack(room, p, *card)
	return nil
}
