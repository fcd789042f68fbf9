// internal/lobby/hub.go
package lobby

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/durak/internal/game"
	"github.com/jason-s-yu/durak/internal/models"
	"github.com/sirupsen/logrus"
)

// Hub tracks live connections per room. One connection per seat; a reconnect replaces the old one.
type Hub struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]map[uuid.UUID]*Connection // roomID -> playerID -> conn
	log   logrus.FieldLogger
}

// NewHub creates an empty hub.
func NewHub(log logrus.FieldLogger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{
		rooms: make(map[uuid.UUID]map[uuid.UUID]*Connection),
		log:   log,
	}
}

// AddConnection registers conn in roomID. An existing connection for the same seat is closed.
// It reports whether the seat already had a live connection.
func (h *Hub) AddConnection(roomID uuid.UUID, conn *Connection) (replaced bool) {
	h.mu.Lock()
	conns, ok := h.rooms[roomID]
	if !ok {
		conns = make(map[uuid.UUID]*Connection)
		h.rooms[roomID] = conns
	}
	old, replaced := conns[conn.PlayerID]
	conns[conn.PlayerID] = conn
	h.mu.Unlock()

	if replaced && old != conn {
		h.log.Infof("Room %s: player %s is re-establishing connection.", roomID, conn.PlayerID)
		old.close()
	}
	return replaced
}

// RemoveConnection drops conn if it is still the seat's current connection.
// It reports whether anything was removed.
func (h *Hub) RemoveConnection(roomID uuid.UUID, conn *Connection) bool {
	h.mu.Lock()
	conns := h.rooms[roomID]
	current, ok := conns[conn.PlayerID]
	removed := ok && current == conn
	if removed {
		delete(conns, conn.PlayerID)
		if len(conns) == 0 {
			delete(h.rooms, roomID)
		}
	}
	h.mu.Unlock()

	conn.close()
	return removed
}

// Connected returns the players with a live connection in roomID, sorted for stable output.
func (h *Hub) Connected(roomID uuid.UUID) []uuid.UUID {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(h.rooms[roomID]))
	for id := range h.rooms[roomID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// Broadcast sends ev to every connection in roomID except the player in skip.
func (h *Hub) Broadcast(roomID uuid.UUID, ev game.GameEvent, skip uuid.UUID) {
	data := game.EncodeEvent(ev)
	for _, conn := range h.snapshot(roomID) {
		if conn.PlayerID == skip {
			continue
		}
		conn.Write(data)
	}
}

// BroadcastRoom sends ev to everyone in the room, attaching the room as each recipient sees it.
func (h *Hub) BroadcastRoom(room *models.Room, ev game.GameEvent) {
	for _, conn := range h.snapshot(room.ID) {
		state := game.NewGameState(room, conn.PlayerID)
		personal := ev
		personal.State = &state
		conn.WriteEvent(personal)
	}
}

func (h *Hub) snapshot(roomID uuid.UUID) []*Connection {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := make([]*Connection, 0, len(h.rooms[roomID]))
	for _, c := range h.rooms[roomID] {
		conns = append(conns, c)
	}
	return conns
}
