package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/jason-s-yu/durak/internal/game"
	"github.com/jason-s-yu/durak/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialRoom(ctx context.Context, t *testing.T, ts *httptest.Server, roomPath, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + roomPath + "/ws?token=" + token
	c, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{Subprotocols: []string{subprotocol}})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close(websocket.StatusNormalClosure, "") })
	return c
}

// readUntil skips frames until one of type want arrives.
func readUntil(ctx context.Context, t *testing.T, c *websocket.Conn, want game.GameEventType) game.GameEvent {
	t.Helper()
	for {
		var ev game.GameEvent
		require.NoError(t, wsjson.Read(ctx, c, &ev))
		if ev.Type == want {
			return ev
		}
	}
}

func TestRoomWebSocketFlow(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t))
	defer ts.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	owner, guest := createTwoSeatRoom(t, ts.Config.Handler)
	roomPath := "/rooms/" + owner.Room.RoomID.String()

	annWS := dialRoom(ctx, t, ts, roomPath, owner.Token)
	joined := readUntil(ctx, t, annWS, game.EventRoomJoined)
	require.NotNil(t, joined.State)
	assert.Equal(t, "ann", joined.PlayerName)
	assert.Len(t, joined.State.Players, 2)

	require.NoError(t, wsjson.Write(ctx, annWS, RoomMessage{Type: msgPing}))
	readUntil(ctx, t, annWS, game.EventPong)

	var lobbyView struct {
		Online []uuid.UUID `json:"online"`
	}
	w := doJSON(t, ts.Config.Handler, http.MethodGet, roomPath, owner.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &lobbyView))
	assert.Equal(t, []uuid.UUID{owner.Player.ID}, lobbyView.Online)

	bobWS := dialRoom(ctx, t, ts, roomPath, guest.Token)
	readUntil(ctx, t, bobWS, game.EventRoomJoined)
	assert.Equal(t, "bob", readUntil(ctx, t, annWS, game.EventPlayerJoined).PlayerName)

	// only the owner may start; the error goes to bob alone
	require.NoError(t, wsjson.Write(ctx, bobWS, RoomMessage{Type: msgStartGame}))
	rejected := readUntil(ctx, t, bobWS, game.EventError)
	assert.Equal(t, game.RejectPrecondition.String(), rejected.Code)

	require.NoError(t, wsjson.Write(ctx, annWS, RoomMessage{Type: msgStartGame}))
	annStart := readUntil(ctx, t, annWS, game.EventGameStarted)
	bobStart := readUntil(ctx, t, bobWS, game.EventGameStarted)
	require.NotNil(t, annStart.State)
	require.NotNil(t, bobStart.State)
	assert.Equal(t, models.GamePlaying, annStart.State.Status)
	annHand := annStart.State.Player(owner.Player.ID).Cards
	require.Len(t, annHand, 6)
	assert.Empty(t, annStart.State.Player(guest.Player.ID).Cards)
	assert.Len(t, bobStart.State.Player(guest.Player.ID).Cards, 6)
	assert.Empty(t, bobStart.State.Player(owner.Player.ID).Cards)

	lead := annHand[0]
	require.NoError(t, wsjson.Write(ctx, annWS, RoomMessage{
		Type:   msgGameAction,
		Action: &models.GameAction{Type: models.ActionAttack, Card: &lead},
	}))
	update := readUntil(ctx, t, bobWS, game.EventGameStateUpdated)
	require.NotNil(t, update.State)
	require.Len(t, update.State.ActiveCards, 1)
	assert.True(t, update.State.ActiveCards[0].AttackingCard.Same(lead))
	readUntil(ctx, t, annWS, game.EventGameStateUpdated)

	require.NoError(t, bobWS.Close(websocket.StatusNormalClosure, "bye"))
	gone := readUntil(ctx, t, annWS, game.EventPlayerDisconnected)
	assert.Equal(t, "bob", gone.PlayerName)
	assert.True(t, gone.GameInProgress)
}

func TestRoomWebSocketLeaveWhileWaiting(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t))
	defer ts.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	owner, guest := createTwoSeatRoom(t, ts.Config.Handler)
	roomPath := "/rooms/" + owner.Room.RoomID.String()

	annWS := dialRoom(ctx, t, ts, roomPath, owner.Token)
	readUntil(ctx, t, annWS, game.EventRoomJoined)
	bobWS := dialRoom(ctx, t, ts, roomPath, guest.Token)
	readUntil(ctx, t, bobWS, game.EventRoomJoined)

	require.NoError(t, wsjson.Write(ctx, bobWS, RoomMessage{Type: msgLeaveRoom}))
	readUntil(ctx, t, bobWS, game.EventRoomLeft)

	left := readUntil(ctx, t, annWS, game.EventPlayerLeft)
	assert.Equal(t, "bob", left.PlayerName)
	require.NotNil(t, left.State)
	assert.Len(t, left.State.Players, 1)
}

func TestRoomWebSocketRejectsBadToken(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t))
	defer ts.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	owner, _ := createTwoSeatRoom(t, ts.Config.Handler)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/rooms/" + owner.Room.RoomID.String() + "/ws?token=nope"
	_, resp, err := websocket.Dial(ctx, url, &websocket.DialOptions{Subprotocols: []string{subprotocol}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
