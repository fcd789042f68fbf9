package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/durak/internal/game"
	"github.com/jason-s-yu/durak/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "durak.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRoom() *models.Room {
	room := &models.Room{
		ID:          uuid.New(),
		Name:        "kitchen",
		Owner:       "ann",
		PlayerLimit: 4,
		PlayerNames: []string{"ann", "bob"},
		Status:      models.GameWaiting,
		HouseRules:  models.DefaultHouseRules(),
	}
	room.Players = []*models.Player{{
		ID:     uuid.New(),
		RoomID: room.ID,
		Name:   "ann",
		Status: models.PlayerWaiting,
		Role:   models.RoleOwner,
		Character: models.Character{
			CharacterType: models.CharacterHearts,
			Avatar:        "fox",
			AvatarNumber:  3,
		},
	}}
	return room
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	room := sampleRoom()
	require.NoError(t, store.CreateRoom(ctx, room))
	assert.Equal(t, int64(1), room.Version)

	got, err := store.LoadRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "kitchen", got.Name)
	assert.Equal(t, []string{"ann", "bob"}, got.PlayerNames)
	assert.Equal(t, models.DefaultHouseRules(), got.HouseRules)
	assert.Equal(t, uuid.Nil, got.CurrentAttacker)
	assert.Empty(t, got.Deck)
	require.Len(t, got.Players, 1)
	assert.Equal(t, models.CharacterHearts, got.Players[0].CharacterType)
	assert.Equal(t, 3, got.Players[0].AvatarNumber)

	bob := &models.Player{ID: uuid.New(), RoomID: room.ID, Name: "bob", Seat: 1, Status: models.PlayerWaiting, Role: models.RolePlayer}
	require.NoError(t, store.SavePlayer(ctx, bob))

	got, err = store.LoadRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)

	// play state survives a save
	def := models.MustParseCard("9H")
	got.Status = models.GamePlaying
	got.TrumpSuit = models.Clubs
	got.Deck = []models.Card{models.MustParseCard("AC")}
	got.ActiveCards = []models.CardOnTable{{AttackingCard: models.MustParseCard("7H"), DefendingCard: &def}}
	got.CurrentAttacker = got.Players[0].ID
	got.CurrentDefender = got.Players[1].ID
	got.Players[1].Cards = []models.Card{models.MustParseCard("KD")}
	got.Players[1].VisibleCards = []models.Card{models.MustParseCard("KD")}
	got.Players[1].AbilityUsed = true
	got.FinishOrder = []uuid.UUID{got.Players[0].ID}
	require.NoError(t, store.SaveRoom(ctx, got))
	assert.Equal(t, int64(3), got.Version)

	again, err := store.LoadRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GamePlaying, again.Status)
	assert.Equal(t, models.Clubs, again.TrumpSuit)
	assert.Equal(t, got.ActiveCards, again.ActiveCards)
	assert.Equal(t, got.CurrentDefender, again.CurrentDefender)
	assert.Equal(t, got.FinishOrder, again.FinishOrder)
	assert.True(t, again.Players[1].AbilityUsed)
	assert.Equal(t, "KD", again.Players[1].VisibleCards[0].Key())

	p, err := store.LoadPlayer(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, room.ID, p.RoomID)
	assert.Len(t, p.Cards, 1)
}

func TestSQLiteStoreVersionConflict(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	room := sampleRoom()
	require.NoError(t, store.CreateRoom(ctx, room))

	a, err := store.LoadRoom(ctx, room.ID)
	require.NoError(t, err)
	b, err := store.LoadRoom(ctx, room.ID)
	require.NoError(t, err)

	require.NoError(t, store.SaveRoom(ctx, a))
	assert.ErrorIs(t, store.SaveRoom(ctx, b), game.ErrVersionConflict)
	assert.ErrorIs(t, store.SaveRoom(ctx, &models.Room{ID: uuid.New()}), game.ErrRoomNotFound)

	_, err = store.LoadRoom(ctx, uuid.New())
	assert.ErrorIs(t, err, game.ErrRoomNotFound)
	_, err = store.LoadPlayer(ctx, uuid.New())
	assert.ErrorIs(t, err, game.ErrPlayerNotFound)
}

func TestSQLiteStoreSeatsAndNames(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	room := sampleRoom()
	require.NoError(t, store.CreateRoom(ctx, room))

	dup := &models.Player{ID: uuid.New(), RoomID: room.ID, Name: "ann", Status: models.PlayerWaiting, Role: models.RolePlayer}
	assert.ErrorIs(t, store.SavePlayer(ctx, dup), game.ErrNameTaken)
	assert.ErrorIs(t, store.SavePlayer(ctx, &models.Player{ID: uuid.New(), RoomID: uuid.New(), Name: "x"}), game.ErrRoomNotFound)

	loaded, err := store.LoadRoom(ctx, room.ID)
	require.NoError(t, err)
	loaded.Players = nil
	require.NoError(t, store.SaveRoom(ctx, loaded))

	_, err = store.LoadPlayer(ctx, room.Players[0].ID)
	assert.ErrorIs(t, err, game.ErrPlayerNotFound, "seats dropped from the aggregate are deleted")

	rooms, err := store.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Empty(t, rooms[0].Players)
}

// The engine and room service run unchanged on top of SQLite.
func TestSQLiteStoreBacksEngine(t *testing.T) {
	store, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	svc := game.NewRoomService(store)
	engine := game.NewEngine(store)

	room, owner, err := svc.CreateRoom(ctx, game.CreateRoomRequest{Name: "t", Owner: "ann", PlayerLimit: 2})
	require.NoError(t, err)
	bob, _, err := svc.JoinRoom(ctx, game.JoinRoomRequest{RoomID: room.ID, PlayerName: "bob"})
	require.NoError(t, err)
	started, err := svc.StartGame(ctx, room.ID, owner.ID)
	require.NoError(t, err)

	lead := started.Players[0].Cards[0]
	after, err := engine.ApplyAction(ctx, models.GameAction{Type: models.ActionAttack, RoomID: room.ID, PlayerID: owner.ID, Card: &lead})
	require.NoError(t, err)
	require.Len(t, after.ActiveCards, 1)

	view, err := engine.GetGameStateByRoom(ctx, room.ID, bob.ID)
	require.NoError(t, err)
	assert.Len(t, view.ActiveCards, 1)
	assert.Equal(t, 6, view.Player(bob.ID).CardsCount)
	assert.Equal(t, 6, view.Player(owner.ID).CardsCount, "attacker is topped up from the deck")
}
