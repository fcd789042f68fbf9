package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCard(t *testing.T) {
	c, ok := ParseCard("KS")
	require.True(t, ok)
	assert.Equal(t, RankKing, c.Rank)
	assert.Equal(t, Spades, c.Suit)
	assert.Equal(t, "KS", c.ShortName)
	assert.Equal(t, 13, c.Rank.Value())
	assert.Equal(t, "King of Spades", c.Name())

	ten, ok := ParseCard("TD")
	require.True(t, ok)
	assert.Equal(t, 10, ten.Rank.Value())

	for _, bad := range []string{"", "K", "10S", "XS", "KX", "ks", "KSS"} {
		_, ok := ParseCard(bad)
		assert.False(t, ok, bad)
	}
}

func TestRankValuesAreOrdered(t *testing.T) {
	for i, r := range Ranks {
		assert.Equal(t, 7+i, r.Value(), r)
	}
	assert.Equal(t, 0, Rank("2").Value())
}

func TestCardUnmarshalJSON(t *testing.T) {
	var payload struct {
		A Card  `json:"a"`
		B Card  `json:"b"`
		C Card  `json:"c"`
		D *Card `json:"d"`
	}
	raw := `{"a":"QH","b":{"suit":"D","rank":"7","shortName":"bogus"},"c":{"shortName":"AC"},"d":"nope"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))

	assert.Equal(t, NewCard(RankQueen, Hearts), payload.A)
	assert.Equal(t, "7D", payload.B.ShortName, "short name is rebuilt from rank and suit")
	assert.Equal(t, NewCard(RankAce, Clubs), payload.C)
	require.NotNil(t, payload.D)
	assert.False(t, payload.D.Valid(), "malformed cards decode to the zero card")
}

func TestClonePairsIsDeep(t *testing.T) {
	def := MustParseCard("8H")
	pairs := []CardOnTable{{AttackingCard: MustParseCard("7H"), DefendingCard: &def}}
	cp := ClonePairs(pairs)
	*cp[0].DefendingCard = MustParseCard("AS")
	assert.Equal(t, "8H", pairs[0].DefendingCard.Key())
	assert.True(t, cp[0].Defended())
}
