package game

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/durak/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameStateHidesOtherHands(t *testing.T) {
	_, _, room := setupTestRoom(t, models.DefaultHouseRules(), []string{"8D", "QS"},
		testSeat{name: "ann", hand: []string{"7H", "KC"}},
		testSeat{name: "bob", hand: []string{"9H"}},
	)
	ann, bob := room.Players[0], room.Players[1]
	bob.VisibleCards = cards("9H")

	view := NewGameState(room, ann.ID)
	assert.Equal(t, []string{"7H", "KC"}, keys(view.Player(ann.ID).Cards))
	assert.Nil(t, view.Player(bob.ID).Cards)
	assert.Equal(t, 1, view.Player(bob.ID).CardsCount)
	assert.Equal(t, []string{"9H"}, keys(view.Player(bob.ID).VisibleCards))
	assert.Nil(t, view.Deck)
	assert.Equal(t, 2, view.DeckCount)
	require.NotNil(t, view.TrumpCard)
	assert.Equal(t, "QS", view.TrumpCard.Key())
	require.NotNil(t, view.CurrentAttacker)
	assert.Equal(t, ann.ID, *view.CurrentAttacker)
	assert.Nil(t, view.Durak)

	data, err := json.Marshal(view)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"deck"`)
	assert.Contains(t, string(data), `"deckCount":2`)

	full := NewGameState(room, uuid.Nil)
	assert.Len(t, full.Deck, 2)
	assert.Len(t, full.Player(bob.ID).Cards, 1)
}

func TestGameStateForFinishedRoom(t *testing.T) {
	_, _, room := setupTestRoom(t, models.DefaultHouseRules(), nil,
		testSeat{name: "ann", hand: nil},
		testSeat{name: "bob", hand: []string{"9H"}},
	)
	ann, bob := room.Players[0], room.Players[1]
	ann.Status = models.PlayerEliminated
	room.FinishOrder = []uuid.UUID{ann.ID}
	require.True(t, settleGame(room))

	view := NewGameState(room, bob.ID)
	assert.Equal(t, models.GameFinished, view.Status)
	assert.Nil(t, view.CurrentAttacker)
	require.NotNil(t, view.Durak)
	assert.Equal(t, bob.ID, *view.Durak)
	assert.Nil(t, view.TrumpCard)
}

func TestGameStateListsThrowableCardsForBystanders(t *testing.T) {
	_, _, room := setupTestRoom(t, models.DefaultHouseRules(), nil,
		testSeat{name: "ann", hand: []string{"7H", "KC"}},
		testSeat{name: "bob", hand: []string{"8H"}},
		testSeat{name: "cid", hand: []string{"7D", "9S", "KD"}},
	)
	ann, cid := room.Players[0], room.Players[2]

	assert.Nil(t, NewGameState(room, cid.ID).Player(cid.ID).Throwable, "empty table")

	room.ActiveCards = []models.CardOnTable{{AttackingCard: models.MustParseCard("KH")}}
	view := NewGameState(room, cid.ID)
	assert.Equal(t, []string{"KD"}, keys(view.Player(cid.ID).Throwable))
	assert.Nil(t, view.Player(ann.ID).Throwable)

	assert.Nil(t, NewGameState(room, ann.ID).Player(ann.ID).Throwable, "attacker plays attack actions")
	assert.Nil(t, NewGameState(room, uuid.Nil).Player(cid.ID).Throwable)
}
