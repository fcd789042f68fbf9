package lobby

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/durak/internal/game"
	"github.com/jason-s-yu/durak/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEvent(t *testing.T, conn *Connection) game.GameEvent {
	t.Helper()
	select {
	case data, ok := <-conn.OutChan:
		require.True(t, ok, "OutChan closed")
		var ev game.GameEvent
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	default:
		t.Fatalf("no frame queued for %s", conn.PlayerName)
		return game.GameEvent{}
	}
}

func TestHubReplacesSeatConnection(t *testing.T) {
	h := NewHub(nil)
	roomID, playerID := uuid.New(), uuid.New()
	cancelled := false

	first := NewConnection(playerID, "ann", func() { cancelled = true })
	assert.False(t, h.AddConnection(roomID, first))

	second := NewConnection(playerID, "ann", nil)
	assert.True(t, h.AddConnection(roomID, second))
	assert.True(t, first.Closed())
	assert.True(t, cancelled)
	assert.False(t, first.Write([]byte("x")))

	// the stale connection must not evict its replacement
	assert.False(t, h.RemoveConnection(roomID, first))
	assert.Equal(t, []uuid.UUID{playerID}, h.Connected(roomID))

	assert.True(t, h.RemoveConnection(roomID, second))
	assert.Empty(t, h.Connected(roomID))
	_, open := <-second.OutChan
	assert.False(t, open)
}

func TestHubBroadcastProjectsPerViewer(t *testing.T) {
	h := NewHub(nil)
	ann := &models.Player{ID: uuid.New(), Name: "ann", Cards: []models.Card{models.MustParseCard("7H")}}
	bob := &models.Player{ID: uuid.New(), Name: "bob", Seat: 1, Cards: []models.Card{models.MustParseCard("AS")}}
	room := &models.Room{ID: uuid.New(), Status: models.GamePlaying, Players: []*models.Player{ann, bob}}

	annConn := NewConnection(ann.ID, ann.Name, nil)
	bobConn := NewConnection(bob.ID, bob.Name, nil)
	h.AddConnection(room.ID, annConn)
	h.AddConnection(room.ID, bobConn)

	h.BroadcastRoom(room, game.GameEvent{Type: game.EventGameStateUpdated})

	annView := readEvent(t, annConn)
	require.NotNil(t, annView.State)
	assert.Len(t, annView.State.Player(ann.ID).Cards, 1)
	assert.Empty(t, annView.State.Player(bob.ID).Cards)
	assert.Equal(t, 1, annView.State.Player(bob.ID).CardsCount)

	bobView := readEvent(t, bobConn)
	assert.Empty(t, bobView.State.Player(ann.ID).Cards)
	assert.Len(t, bobView.State.Player(bob.ID).Cards, 1)
}

func TestHubBroadcastSkip(t *testing.T) {
	h := NewHub(nil)
	roomID := uuid.New()
	a := NewConnection(uuid.New(), "a", nil)
	b := NewConnection(uuid.New(), "b", nil)
	h.AddConnection(roomID, a)
	h.AddConnection(roomID, b)

	h.Broadcast(roomID, game.GameEvent{Type: game.EventPlayerJoined, PlayerName: "a"}, a.PlayerID)
	assert.Equal(t, game.EventPlayerJoined, readEvent(t, b).Type)
	assert.Empty(t, a.OutChan)

	h.RemoveConnection(roomID, a)
	assert.Equal(t, []uuid.UUID{b.PlayerID}, h.Connected(roomID))
}

func TestConnectionDropsWhenFull(t *testing.T) {
	conn := NewConnection(uuid.New(), "slow", nil)
	for i := 0; i < OutBufferSize; i++ {
		require.True(t, conn.Write([]byte("{}")))
	}
	assert.False(t, conn.WriteError("busy", "dropped"))
}
