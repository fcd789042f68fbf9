// internal/lobby/connection.go
package lobby

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/durak/internal/game"
	"github.com/sirupsen/logrus"
)

// OutBufferSize is how many frames may queue for a slow client before new ones are dropped.
const OutBufferSize = 32

// Connection is one seated player's live socket in a room.
type Connection struct {
	ID         uuid.UUID
	PlayerID   uuid.UUID
	PlayerName string
	Cancel     func()

	// OutChan is drained by the socket's write pump and closed when the connection is removed.
	OutChan chan []byte

	mu     sync.Mutex
	closed bool
}

// NewConnection creates a connection for a seat. cancel stops the socket's goroutines.
func NewConnection(playerID uuid.UUID, playerName string, cancel func()) *Connection {
	return &Connection{
		ID:         uuid.New(),
		PlayerID:   playerID,
		PlayerName: playerName,
		Cancel:     cancel,
		OutChan:    make(chan []byte, OutBufferSize),
	}
}

// Write queues data without blocking. It reports false if the frame was dropped.
func (conn *Connection) Write(data []byte) bool {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	if conn.closed {
		return false
	}
	select {
	case conn.OutChan <- data:
		return true
	default:
		logrus.Warnf("Connection %s: OutChan for player %s full, dropped frame.", conn.ID, conn.PlayerID)
		return false
	}
}

// WriteEvent encodes and queues ev.
func (conn *Connection) WriteEvent(ev game.GameEvent) bool {
	return conn.Write(game.EncodeEvent(ev))
}

// WriteError sends an error frame to this connection only.
func (conn *Connection) WriteError(code, msg string) bool {
	return conn.WriteEvent(game.GameEvent{
		Type:    game.EventError,
		Code:    code,
		Message: msg,
	})
}

// Closed reports whether the connection has been removed from its room.
func (conn *Connection) Closed() bool {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	return conn.closed
}

// close closes OutChan and cancels the socket context. Safe to call more than once.
func (conn *Connection) close() {
	conn.mu.Lock()
	if conn.closed {
		conn.mu.Unlock()
		return
	}
	conn.closed = true
	close(conn.OutChan)
	conn.mu.Unlock()

	if conn.Cancel != nil {
		conn.Cancel()
	}
}
