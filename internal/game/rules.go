// internal/game/rules.go
package game

import (
	"fmt"

	"github.com/jason-s-yu/durak/internal/models"
)

// trumpPenalty is added to a trump's value when ranking defenses, so any plain card is preferred.
const trumpPenalty = 20

// NextPlayerIndex returns the seat after i in a ring of n.
func NextPlayerIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	return (i + 1) % n
}

// PreviousPlayerIndex returns the seat before i in a ring of n.
func PreviousPlayerIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	return (i - 1 + n) % n
}

// CanAttack reports whether any card in hand may be put on the table.
// An opening attack on an empty table is always legal.
func CanAttack(hand []models.Card, active []models.CardOnTable) bool {
	if len(active) == 0 {
		return true
	}
	for _, c := range hand {
		if CanThrowCard(c, active) {
			return true
		}
	}
	return false
}

// PossibleDefenses returns the cards in hand that beat attacking.
func PossibleDefenses(hand []models.Card, attacking models.Card, trump models.Suit) []models.Card {
	var out []models.Card
	for _, c := range hand {
		if CanDefend(attacking, c, trump) {
			out = append(out, c)
		}
	}
	return out
}

// ThrowableCards returns the cards in hand that match a rank on the table.
func ThrowableCards(hand []models.Card, active []models.CardOnTable) []models.Card {
	var out []models.Card
	for _, c := range hand {
		if CanThrowCard(c, active) {
			out = append(out, c)
		}
	}
	return out
}

// BestDefense picks the cheapest card from possible that still beats attacking.
// Trumps cost their value plus trumpPenalty.
func BestDefense(possible []models.Card, attacking models.Card, trump models.Suit) (models.Card, bool) {
	var best models.Card
	bestCost := -1
	for _, c := range possible {
		if !CanDefend(attacking, c, trump) {
			continue
		}
		cost := c.Rank.Value()
		if c.Suit == trump {
			cost += trumpPenalty
		}
		if bestCost < 0 || cost < bestCost {
			best, bestCost = c, cost
		}
	}
	return best, bestCost >= 0
}

// CheckGameEnd reports whether at most one player is still in the game, and returns that player if any.
func CheckGameEnd(players []*models.Player) (*models.Player, bool) {
	var last *models.Player
	remaining := 0
	for _, p := range players {
		if p.InGame() {
			remaining++
			last = p
		}
	}
	if remaining > 1 {
		return nil, false
	}
	return last, true
}

// ValidateAction checks the card-level legality of an action against hand and table.
// Turn order and ability rules are enforced by the engine, not here.
func ValidateAction(action models.ActionType, hand []models.Card, active []models.CardOnTable,
	attacking, defending *models.Card, trump models.Suit) error {
	switch action {
	case models.ActionAttack, models.ActionThrowCards:
		if attacking == nil || !attacking.Valid() {
			return ErrMissingCard
		}
		if !containsCard(hand, *attacking) {
			return fmt.Errorf("%w: %s", ErrCardNotInHand, attacking)
		}
		if action == models.ActionAttack && len(active) == 0 {
			return nil
		}
		if !CanThrowCard(*attacking, active) {
			return fmt.Errorf("%w: no %s on the table", ErrIllegalCard, attacking.Rank.Name())
		}
	case models.ActionDefend:
		if attacking == nil || defending == nil || !attacking.Valid() || !defending.Valid() {
			return ErrMissingCard
		}
		if !containsCard(hand, *defending) {
			return fmt.Errorf("%w: %s", ErrCardNotInHand, defending)
		}
		if !CanDefend(*attacking, *defending, trump) {
			return fmt.Errorf("%w: %s does not beat %s", ErrIllegalCard, defending, attacking)
		}
	case models.ActionPass, models.ActionTakeCards, models.ActionUseAbility, models.ActionRevealCard:
	default:
		return ErrUnknownAction
	}
	return nil
}
