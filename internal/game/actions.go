// internal/game/actions.go
package game

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/durak/internal/models"
)

// applyAction mutates room in place. The caller must pass a private copy, since
// a rejected action may leave it half-modified.
func applyAction(room *models.Room, actor *models.Player, a models.GameAction, intn func(int) int) error {
	if actor == nil {
		return ErrPlayerNotFound
	}

	var err error
	switch a.Type {
	case models.ActionAttack:
		err = handleAttack(room, actor, a.Card)
	case models.ActionDefend:
		err = handleDefend(room, actor, a.Card, a.DefendingCard, true)
	case models.ActionPass:
		err = handlePass(room, actor)
	case models.ActionTakeCards:
		err = handleTakeCards(room, actor)
	case models.ActionThrowCards:
		err = handleThrowCards(room, actor, a.Card)
	case models.ActionUseAbility:
		err = handleUseAbility(room, actor, a, intn)
	case models.ActionRevealCard:
		err = handleRevealCard(room, a.TargetPlayerID, a.Card)
	default:
		err = ErrUnknownAction
	}
	if err != nil {
		return err
	}

	pruneVisibleCards(room)
	settleGame(room)
	return nil
}

func handleAttack(room *models.Room, p *models.Player, card *models.Card) error {
	if p.ID != room.CurrentAttacker {
		return fmt.Errorf("%w: only the attacker can attack", ErrNotYourTurn)
	}
	if err := ValidateAction(models.ActionAttack, p.Cards, room.ActiveCards, card, nil, room.TrumpSuit); err != nil {
		return err
	}
	if err := checkTableCapacity(room); err != nil {
		return err
	}
	placeAttack(room, p, *card)
	replenishHands(room)
	return nil
}

// handleDefend beats the first undefended pair whose attacking card matches. With
// checkBeats unset the defending card only has to be in hand.
func handleDefend(room *models.Room, p *models.Player, attacking, defending *models.Card, checkBeats bool) error {
	if p.ID != room.CurrentDefender {
		return fmt.Errorf("%w: only the defender can defend", ErrNotYourTurn)
	}
	if checkBeats {
		if err := ValidateAction(models.ActionDefend, p.Cards, room.ActiveCards, attacking, defending, room.TrumpSuit); err != nil {
			return err
		}
	} else {
		if attacking == nil || defending == nil || !attacking.Valid() || !defending.Valid() {
			return ErrMissingCard
		}
		if !containsCard(p.Cards, *defending) {
			return fmt.Errorf("%w: %s", ErrCardNotInHand, defending)
		}
	}

	idx := -1
	for i, pair := range room.ActiveCards {
		if !pair.Defended() && pair.AttackingCard.Same(*attacking) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrPairNotFound, attacking)
	}

	p.Cards, _ = removeCard(p.Cards, *defending)
	d := models.NewCard(defending.Rank, defending.Suit)
	room.ActiveCards[idx].DefendingCard = &d
	p.Status = models.PlayerDefender
	return nil
}

func handlePass(room *models.Room, p *models.Player) error {
	if p.ID != room.CurrentAttacker {
		return fmt.Errorf("%w: only the attacker can pass", ErrNotYourTurn)
	}
	for _, pair := range room.ActiveCards {
		if !pair.Defended() {
			return ErrUndefendedCards
		}
	}
	room.ActiveCards = []models.CardOnTable{}
	endTurn(room, room.CurrentAttacker)
	return nil
}

func handleTakeCards(room *models.Room, p *models.Player) error {
	if p.ID != room.CurrentDefender {
		return fmt.Errorf("%w: only the defender can take cards", ErrNotYourTurn)
	}
	for _, pair := range room.ActiveCards {
		p.Cards = append(p.Cards, pair.AttackingCard)
		if pair.DefendingCard != nil {
			p.Cards = append(p.Cards, *pair.DefendingCard)
		}
	}
	room.ActiveCards = []models.CardOnTable{}
	endTurn(room, room.CurrentDefender)
	return nil
}

func handleThrowCards(room *models.Room, p *models.Player, card *models.Card) error {
	if p.ID == room.CurrentAttacker || p.ID == room.CurrentDefender || !p.InGame() {
		return fmt.Errorf("%w: only other players can throw in", ErrNotYourTurn)
	}
	if err := ValidateAction(models.ActionThrowCards, p.Cards, room.ActiveCards, card, nil, room.TrumpSuit); err != nil {
		return err
	}
	if err := checkTableCapacity(room); err != nil {
		return err
	}
	placeAttack(room, p, *card)
	replenishHands(room)
	return nil
}

func handleRevealCard(room *models.Room, target *uuid.UUID, card *models.Card) error {
	if target == nil || *target == uuid.Nil {
		return ErrMissingTarget
	}
	if card == nil || !card.Valid() {
		return ErrMissingCard
	}
	tp := room.PlayerByID(*target)
	if tp == nil {
		return fmt.Errorf("%w: target %s", ErrPlayerNotFound, *target)
	}
	if !containsCard(tp.Cards, *card) {
		return fmt.Errorf("%w: %s", ErrCardNotInHand, card)
	}
	revealCard(tp, *card)
	return nil
}

func checkTableCapacity(room *models.Room) error {
	if limit := room.HouseRules.MaxTablePairs; limit > 0 && len(room.ActiveCards) >= limit {
		return ErrTableFull
	}
	return nil
}

func placeAttack(room *models.Room, p *models.Player, card models.Card) {
	p.Cards, _ = removeCard(p.Cards, card)
	room.ActiveCards = append(room.ActiveCards, models.CardOnTable{
		AttackingCard: models.NewCard(card.Rank, card.Suit),
	})
}

func revealCard(p *models.Player, card models.Card) {
	if containsCard(p.VisibleCards, card) {
		return
	}
	p.VisibleCards = append(p.VisibleCards, models.NewCard(card.Rank, card.Suit))
}

// pruneVisibleCards drops revealed cards that have since left their owner's hand.
func pruneVisibleCards(room *models.Room) {
	for _, p := range room.Players {
		if len(p.VisibleCards) == 0 {
			continue
		}
		kept := p.VisibleCards[:0]
		for _, c := range p.VisibleCards {
			if containsCard(p.Cards, c) {
				kept = append(kept, c)
			}
		}
		p.VisibleCards = kept
	}
}

// replenishHands deals from the top of the deck one card at a time around the table,
// starting at the attacker, until every in-game hand holds the target size or the
// deck is empty. It reports whether any card was dealt.
func replenishHands(room *models.Room) bool {
	n := len(room.Players)
	if n == 0 || len(room.Deck) == 0 {
		return false
	}
	size := room.HouseRules.TargetHandSize()
	start := room.PlayerIndex(room.CurrentAttacker)
	if start < 0 {
		start = 0
	}

	dealt := false
	for len(room.Deck) > 0 {
		progressed := false
		for step := 0; step < n && len(room.Deck) > 0; step++ {
			p := room.Players[(start+step)%n]
			if !p.InGame() || len(p.Cards) >= size {
				continue
			}
			p.Cards = append(p.Cards, room.Deck[0])
			room.Deck = room.Deck[1:]
			progressed = true
		}
		if !progressed {
			break
		}
		dealt = true
	}
	return dealt
}

// endTurn closes a turn around pivot: hands are topped up, players out of cards
// leave the game, and the attack moves to the next seat after pivot.
func endTurn(room *models.Room, pivot uuid.UUID) {
	replenishHands(room)
	eliminateEmptyHands(room)
	if settleGame(room) {
		return
	}

	pivotIdx := room.PlayerIndex(pivot)
	attackerIdx := nextInGame(room, pivotIdx)
	defenderIdx := nextInGame(room, attackerIdx)

	for i, p := range room.Players {
		p.AbilityUsed = false
		if !p.InGame() {
			continue
		}
		switch i {
		case attackerIdx:
			p.Status = models.PlayerAttacker
		case defenderIdx:
			p.Status = models.PlayerDefender
		default:
			p.Status = models.PlayerActive
		}
	}
	room.CurrentAttacker = room.Players[attackerIdx].ID
	room.CurrentDefender = room.Players[defenderIdx].ID
}

// nextInGame returns the first in-game seat after from, wrapping around.
// from may be -1 or an eliminated seat.
func nextInGame(room *models.Room, from int) int {
	n := len(room.Players)
	for step := 1; step <= n; step++ {
		i := ((from+step)%n + n) % n
		if room.Players[i].InGame() {
			return i
		}
	}
	return -1
}

// eliminateEmptyHands retires players who are out of cards once the deck is gone,
// in seat order starting from the attacker.
func eliminateEmptyHands(room *models.Room) {
	if len(room.Deck) > 0 {
		return
	}
	n := len(room.Players)
	start := room.PlayerIndex(room.CurrentAttacker)
	if start < 0 {
		start = 0
	}
	for step := 0; step < n; step++ {
		p := room.Players[(start+step)%n]
		if p.InGame() && len(p.Cards) == 0 {
			p.Status = models.PlayerEliminated
			room.FinishOrder = append(room.FinishOrder, p.ID)
		}
	}
}

// settleGame finishes the game when at most one player is left in it.
func settleGame(room *models.Room) bool {
	if room.Status != models.GamePlaying {
		return room.Status == models.GameFinished
	}
	if _, ended := CheckGameEnd(room.Players); !ended {
		return false
	}
	room.Status = models.GameFinished
	room.CurrentAttacker = uuid.Nil
	room.CurrentDefender = uuid.Nil
	return true
}

// GameResult returns the winner (first to finish) and the durak (last player holding cards)
// of a finished room. Either may be nil, e.g. when everyone ran out at once.
func GameResult(room *models.Room) (winner, durak *models.Player) {
	if room.Status != models.GameFinished {
		return nil, nil
	}
	if len(room.FinishOrder) > 0 {
		winner = room.PlayerByID(room.FinishOrder[0])
	}
	if last, _ := CheckGameEnd(room.Players); last != nil {
		durak = last
	}
	return winner, durak
}
