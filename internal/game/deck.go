// internal/game/deck.go
package game

import (
	"math/rand"

	"github.com/jason-s-yu/durak/internal/models"
)

// DeckSize is the number of cards in a Durak deck (7 through ace in four suits).
const DeckSize = 32

// CreateDeck returns all 32 cards in a uniformly random order.
func CreateDeck() []models.Card {
	return newDeck(rand.Intn)
}

// newDeck builds the ordered deck and shuffles it with intn, which must return a value in [0, n).
func newDeck(intn func(int) int) []models.Card {
	deck := make([]models.Card, 0, DeckSize)
	for _, s := range models.Suits {
		for _, r := range models.Ranks {
			deck = append(deck, models.NewCard(r, s))
		}
	}
	for i := len(deck) - 1; i > 0; i-- {
		j := intn(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}

// DealHands deals models.DefaultHandSize cards to each of playerCount players from the top of deck.
// The caller keeps deck[consumed:] as the remaining stock.
func DealHands(deck []models.Card, playerCount int) (hands [][]models.Card, consumed int) {
	return dealHands(deck, playerCount, models.DefaultHandSize)
}

// dealHands deals card by card around the table. It stops early if the deck runs out,
// which only happens with more players than a 32-card deck can serve in full.
func dealHands(deck []models.Card, playerCount, handSize int) ([][]models.Card, int) {
	hands := make([][]models.Card, playerCount)
	idx := 0
	for round := 0; round < handSize; round++ {
		for p := 0; p < playerCount; p++ {
			if idx >= len(deck) {
				return hands, idx
			}
			hands[p] = append(hands[p], deck[idx])
			idx++
		}
	}
	return hands, idx
}

// TrumpSuitOf returns the suit of the bottom card of a freshly shuffled deck.
func TrumpSuitOf(deck []models.Card) models.Suit {
	if len(deck) == 0 {
		return models.Spades
	}
	return deck[len(deck)-1].Suit
}

// CanDefend reports whether defending beats attacking: a higher card of the same suit,
// or any trump against a non-trump.
func CanDefend(attacking, defending models.Card, trump models.Suit) bool {
	if defending.Suit == attacking.Suit {
		return defending.Rank.Value() > attacking.Rank.Value()
	}
	return defending.Suit == trump && attacking.Suit != trump
}

// CanThrowCard reports whether card matches the rank of any card already on the table.
// Nothing can be thrown onto an empty table.
func CanThrowCard(card models.Card, active []models.CardOnTable) bool {
	for _, pair := range active {
		if pair.AttackingCard.Rank == card.Rank {
			return true
		}
		if pair.DefendingCard != nil && pair.DefendingCard.Rank == card.Rank {
			return true
		}
	}
	return false
}

func indexOfCard(cards []models.Card, card models.Card) int {
	for i, c := range cards {
		if c.Same(card) {
			return i
		}
	}
	return -1
}

func containsCard(cards []models.Card, card models.Card) bool {
	return indexOfCard(cards, card) >= 0
}

// removeCard returns cards without the first copy of card.
func removeCard(cards []models.Card, card models.Card) ([]models.Card, bool) {
	i := indexOfCard(cards, card)
	if i < 0 {
		return cards, false
	}
	out := make([]models.Card, 0, len(cards)-1)
	out = append(out, cards[:i]...)
	return append(out, cards[i+1:]...), true
}
