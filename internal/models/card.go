// internal/models/card.go
package models

import (
	"encoding/json"
	"fmt"
)

// Suit is one of the four suits. Its value is the suit letter used in a card's short name.
type Suit string

const (
	Spades   Suit = "S"
	Hearts   Suit = "H"
	Diamonds Suit = "D"
	Clubs    Suit = "C"
)

// Suits lists every suit in deck-construction order.
var Suits = []Suit{Spades, Hearts, Diamonds, Clubs}

// Valid reports whether s is a known suit.
func (s Suit) Valid() bool {
	switch s {
	case Spades, Hearts, Diamonds, Clubs:
		return true
	}
	return false
}

// Name returns the English name of the suit.
func (s Suit) Name() string {
	switch s {
	case Spades:
		return "Spades"
	case Hearts:
		return "Hearts"
	case Diamonds:
		return "Diamonds"
	case Clubs:
		return "Clubs"
	default:
		return "?"
	}
}

// Rank is a card rank from seven to ace. Ten is written "T" so every short name is two characters.
type Rank string

const (
	Rank7     Rank = "7"
	Rank8     Rank = "8"
	Rank9     Rank = "9"
	RankTen   Rank = "T"
	RankJack  Rank = "J"
	RankQueen Rank = "Q"
	RankKing  Rank = "K"
	RankAce   Rank = "A"
)

// Ranks lists every rank from lowest to highest.
var Ranks = []Rank{Rank7, Rank8, Rank9, RankTen, RankJack, RankQueen, RankKing, RankAce}

var rankValues = map[Rank]int{
	Rank7: 7, Rank8: 8, Rank9: 9, RankTen: 10,
	RankJack: 11, RankQueen: 12, RankKing: 13, RankAce: 14,
}

// Value maps the rank onto 7..14. Unknown ranks are worth 0.
func (r Rank) Value() int {
	return rankValues[r]
}

// Valid reports whether r is a known rank.
func (r Rank) Valid() bool {
	_, ok := rankValues[r]
	return ok
}

// Name returns the English name of the rank.
func (r Rank) Name() string {
	switch r {
	case Rank7:
		return "Seven"
	case Rank8:
		return "Eight"
	case Rank9:
		return "Nine"
	case RankTen:
		return "Ten"
	case RankJack:
		return "Jack"
	case RankQueen:
		return "Queen"
	case RankKing:
		return "King"
	case RankAce:
		return "Ace"
	default:
		return "?"
	}
}

// Card is an immutable playing card. ShortName ("KS", "7H", "TD") is the lookup key.
type Card struct {
	Suit      Suit   `json:"suit"`
	Rank      Rank   `json:"rank"`
	ShortName string `json:"shortName"`
}

// NewCard builds a card and its short name.
func NewCard(rank Rank, suit Suit) Card {
	return Card{Suit: suit, Rank: rank, ShortName: string(rank) + string(suit)}
}

// ParseCard parses a short name such as "QH". ok is false for anything malformed.
func ParseCard(shortName string) (Card, bool) {
	if len(shortName) != 2 {
		return Card{}, false
	}
	rank, suit := Rank(shortName[:1]), Suit(shortName[1:])
	if !rank.Valid() || !suit.Valid() {
		return Card{}, false
	}
	return NewCard(rank, suit), true
}

// MustParseCard is ParseCard for literals known to be valid. It panics otherwise.
func MustParseCard(shortName string) Card {
	c, ok := ParseCard(shortName)
	if !ok {
		panic(fmt.Sprintf("models: invalid card %q", shortName))
	}
	return c
}

// Key is the identity of the card derived from rank and suit, independent of what ShortName a client sent.
func (c Card) Key() string {
	return string(c.Rank) + string(c.Suit)
}

// Valid reports whether the card has a known rank and suit.
func (c Card) Valid() bool {
	return c.Rank.Valid() && c.Suit.Valid()
}

// Same reports whether two cards are the same card.
func (c Card) Same(other Card) bool {
	return c.Key() == other.Key()
}

func (c Card) String() string {
	return c.Key()
}

// Name returns a readable name, e.g. "King of Spades".
func (c Card) Name() string {
	return fmt.Sprintf("%s of %s", c.Rank.Name(), c.Suit.Name())
}

// UnmarshalJSON accepts either the object form or a bare short name string.
// A malformed card decodes to the zero Card rather than failing the whole payload.
func (c *Card) UnmarshalJSON(data []byte) error {
	var short string
	if err := json.Unmarshal(data, &short); err == nil {
		parsed, _ := ParseCard(short)
		*c = parsed
		return nil
	}

	type plain Card
	var raw plain
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Rank == "" && raw.Suit == "" {
		parsed, _ := ParseCard(raw.ShortName)
		*c = parsed
		return nil
	}
	if !raw.Rank.Valid() || !raw.Suit.Valid() {
		*c = Card{}
		return nil
	}
	*c = NewCard(raw.Rank, raw.Suit)
	return nil
}

// CardOnTable is an attacking card and, once beaten, the card that defended it.
type CardOnTable struct {
	AttackingCard Card  `json:"attackingCard"`
	DefendingCard *Card `json:"defendingCard,omitempty"`
}

// Defended reports whether the pair has been beaten.
func (p CardOnTable) Defended() bool {
	return p.DefendingCard != nil
}

// CloneCards copies a card slice. A nil input stays nil.
func CloneCards(cards []Card) []Card {
	if cards == nil {
		return nil
	}
	out := make([]Card, len(cards))
	copy(out, cards)
	return out
}

// ClonePairs deep-copies the table.
func ClonePairs(pairs []CardOnTable) []CardOnTable {
	out := make([]CardOnTable, len(pairs))
	for i, p := range pairs {
		out[i].AttackingCard = p.AttackingCard
		if p.DefendingCard != nil {
			d := *p.DefendingCard
			out[i].DefendingCard = &d
		}
	}
	return out
}
