package game

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/durak/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoredRoom(t *testing.T, store RoomStore) *models.Room {
	t.Helper()
	room := &models.Room{
		ID:          uuid.New(),
		Name:        "t",
		Owner:       "ann",
		PlayerLimit: 4,
		Status:      models.GameWaiting,
		HouseRules:  models.DefaultHouseRules(),
	}
	room.Players = []*models.Player{{ID: uuid.New(), RoomID: room.ID, Name: "ann", Role: models.RoleOwner, Status: models.PlayerWaiting}}
	require.NoError(t, store.CreateRoom(context.Background(), room))
	return room
}

func TestMemoryStoreVersionCheck(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	room := newStoredRoom(t, store)

	a, err := store.LoadRoom(ctx, room.ID)
	require.NoError(t, err)
	b, err := store.LoadRoom(ctx, room.ID)
	require.NoError(t, err)

	a.Name = "first"
	require.NoError(t, store.SaveRoom(ctx, a))
	assert.Equal(t, int64(2), a.Version)

	b.Name = "second"
	assert.ErrorIs(t, store.SaveRoom(ctx, b), ErrVersionConflict)

	got, err := store.LoadRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Name)

	_, err = store.LoadRoom(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.ErrorIs(t, store.SaveRoom(ctx, &models.Room{ID: uuid.New()}), ErrRoomNotFound)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	room := newStoredRoom(t, store)

	got, err := store.LoadRoom(ctx, room.ID)
	require.NoError(t, err)
	got.Players[0].Name = "mallory"

	again, err := store.LoadRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann", again.Players[0].Name)
}

func TestMemoryStorePlayers(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	room := newStoredRoom(t, store)

	bob := &models.Player{ID: uuid.New(), RoomID: room.ID, Name: "bob", Seat: 1}
	require.NoError(t, store.SavePlayer(ctx, bob))
	got, err := store.LoadPlayer(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Name)

	loaded, err := store.LoadRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Players, 2)
	assert.Equal(t, int64(2), loaded.Version, "seating a player bumps the room version")

	dup := &models.Player{ID: uuid.New(), RoomID: room.ID, Name: "bob"}
	assert.ErrorIs(t, store.SavePlayer(ctx, dup), ErrNameTaken)
	assert.ErrorIs(t, store.SavePlayer(ctx, &models.Player{ID: uuid.New(), RoomID: uuid.New()}), ErrRoomNotFound)

	_, err = store.LoadPlayer(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestMemoryStoreListsNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	older := &models.Room{ID: uuid.New(), Name: "old", CreatedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, store.CreateRoom(ctx, older))
	newer := newStoredRoom(t, store)

	rooms, err := store.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, newer.ID, rooms[0].ID)
	assert.Equal(t, older.ID, rooms[1].ID)
}
