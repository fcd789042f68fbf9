// internal/game/room_store.go
package game

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/durak/internal/models"
)

// RoomStore persists rooms and their seated players.
//
// SaveRoom writes the whole aggregate, players included, atomically. It fails with
// ErrVersionConflict unless room.Version still matches the stored version, and on
// success sets room.Version to the new stored version. LoadRoom returns a copy the
// caller owns. Lookups of unknown ids fail with ErrRoomNotFound or ErrPlayerNotFound.
type RoomStore interface {
	CreateRoom(ctx context.Context, room *models.Room) error
	ListRooms(ctx context.Context) ([]*models.Room, error)
	LoadRoom(ctx context.Context, id uuid.UUID) (*models.Room, error)
	SaveRoom(ctx context.Context, room *models.Room) error
	LoadPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
	SavePlayer(ctx context.Context, player *models.Player) error
}

// MemoryStore keeps rooms in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	rooms   map[uuid.UUID]*models.Room
	players map[uuid.UUID]uuid.UUID // player id -> room id
}

// NewMemoryStore returns an empty in-memory RoomStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:   make(map[uuid.UUID]*models.Room),
		players: make(map[uuid.UUID]uuid.UUID),
	}
}

func (s *MemoryStore) CreateRoom(_ context.Context, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[room.ID]; exists {
		return ErrVersionConflict
	}
	now := time.Now().UTC()
	if room.CreatedAt.IsZero() {
		room.CreatedAt = now
	}
	room.UpdatedAt = now
	room.Version = 1
	s.put(room)
	return nil
}

func (s *MemoryStore) ListRooms(_ context.Context) ([]*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) LoadRoom(_ context.Context, id uuid.UUID) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r.Clone(), nil
}

func (s *MemoryStore) SaveRoom(_ context.Context, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.rooms[room.ID]
	if !ok {
		return ErrRoomNotFound
	}
	if stored.Version != room.Version {
		return ErrVersionConflict
	}
	seen := make(map[string]uuid.UUID, len(room.Players))
	for _, p := range room.Players {
		if other, dup := seen[p.Name]; dup && other != p.ID {
			return ErrNameTaken
		}
		seen[p.Name] = p.ID
	}
	for _, p := range stored.Players {
		delete(s.players, p.ID)
	}
	room.Version++
	room.UpdatedAt = time.Now().UTC()
	s.put(room)
	return nil
}

func (s *MemoryStore) LoadPlayer(_ context.Context, id uuid.UUID) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	roomID, ok := s.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	p := s.rooms[roomID].PlayerByID(id)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	return p.Clone(), nil
}

// SavePlayer inserts or replaces one seat and bumps the room version.
func (s *MemoryStore) SavePlayer(_ context.Context, player *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[player.RoomID]
	if !ok {
		return ErrRoomNotFound
	}
	if other := room.PlayerByName(player.Name); other != nil && other.ID != player.ID {
		return ErrNameTaken
	}
	if i := room.PlayerIndex(player.ID); i >= 0 {
		room.Players[i] = player.Clone()
	} else {
		room.Players = append(room.Players, player.Clone())
		s.players[player.ID] = room.ID
	}
	room.Version++
	room.UpdatedAt = time.Now().UTC()
	return nil
}

// put stores a private copy of room. Callers hold s.mu.
func (s *MemoryStore) put(room *models.Room) {
	cp := room.Clone()
	s.rooms[room.ID] = cp
	for _, p := range cp.Players {
		s.players[p.ID] = cp.ID
	}
}
