package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomCloneIsIndependent(t *testing.T) {
	p := &Player{ID: uuid.New(), Name: "ann", Status: PlayerAttacker, Cards: []Card{MustParseCard("7S")}}
	room := &Room{
		ID:          uuid.New(),
		Players:     []*Player{p},
		Deck:        []Card{MustParseCard("AH")},
		PlayerNames: []string{"ann"},
	}

	cp := room.Clone()
	cp.Players[0].Cards = append(cp.Players[0].Cards, MustParseCard("8S"))
	cp.Players[0].Status = PlayerEliminated
	cp.Deck[0] = MustParseCard("KC")
	cp.PlayerNames[0] = "bob"

	assert.Len(t, room.Players[0].Cards, 1)
	assert.Equal(t, PlayerAttacker, room.Players[0].Status)
	assert.Equal(t, "AH", room.Deck[0].Key())
	assert.Equal(t, "ann", room.PlayerNames[0])
}

func TestRoomLookups(t *testing.T) {
	a := &Player{ID: uuid.New(), Name: "a", Status: PlayerActive}
	b := &Player{ID: uuid.New(), Name: "b", Status: PlayerEliminated}
	room := &Room{Players: []*Player{a, b}}

	assert.Equal(t, 1, room.PlayerIndex(b.ID))
	assert.Equal(t, -1, room.PlayerIndex(uuid.Nil))
	assert.Same(t, a, room.PlayerByName("a"))
	assert.Nil(t, room.PlayerByID(uuid.New()))
	assert.Equal(t, []*Player{a}, room.InGamePlayers())
	assert.True(t, room.AllowsName("anyone"))

	room.PlayerNames = []string{"a"}
	assert.False(t, room.AllowsName("c"))
}

func TestGameActionDecodeRejectsUnknownType(t *testing.T) {
	var a GameAction
	err := json.Unmarshal([]byte(`{"type":"cheat"}`), &a)
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{"type":"use_ability","abilityType":"fly"}`), &a)
	assert.Error(t, err)

	require.NoError(t, json.Unmarshal([]byte(`{"type":"use_ability","abilityType":"peaks_vision"}`), &a))
	assert.Equal(t, CharacterPeaks, a.AbilityType.Character())
}

func TestHouseRulesUpdate(t *testing.T) {
	rules, err := ParseRules(map[string]interface{}{"handSize": float64(4), "abilitiesEnabled": false}, DefaultHouseRules())
	require.NoError(t, err)
	assert.Equal(t, 4, rules.TargetHandSize())
	assert.False(t, rules.AbilitiesEnabled)
	assert.Equal(t, 0, rules.MaxTablePairs)

	_, err = ParseRules(map[string]interface{}{"handSize": "six"}, DefaultHouseRules())
	assert.Error(t, err)
	_, err = ParseRules(map[string]interface{}{"handSize": 0}, DefaultHouseRules())
	assert.Error(t, err)

	assert.Equal(t, DefaultHandSize, HouseRules{}.TargetHandSize())
}
