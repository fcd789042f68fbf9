package game

import "github.com/google/uuid"

// GameEventType names a frame pushed to room clients.
type GameEventType string

const (
	EventRoomJoined         GameEventType = "room-joined"
	EventRoomLeft           GameEventType = "room-left"
	EventPlayerJoined       GameEventType = "player-joined"
	EventPlayerLeft         GameEventType = "player-left"
	EventPlayerDisconnected GameEventType = "player-disconnected"
	EventGameStarted        GameEventType = "game-started"
	EventGameStateUpdated   GameEventType = "game-state-updated"
	EventGameEnded          GameEventType = "game-ended"
	EventError              GameEventType = "error"
	EventPong               GameEventType = "pong"
)

// GameEvent is the envelope for every server-to-client frame.
type GameEvent struct {
	Type       GameEventType `json:"type"`
	RoomID     *uuid.UUID    `json:"roomId,omitempty"`
	PlayerID   *uuid.UUID    `json:"playerId,omitempty"`
	PlayerName string        `json:"playerName,omitempty"`
	Message    string        `json:"message,omitempty"`
	Code       string        `json:"code,omitempty"`

	// player-disconnected
	GameInProgress bool `json:"gameInProgress,omitempty"`

	// game-ended
	Winner string `json:"winner,omitempty"`
	Durak  string `json:"durak,omitempty"`

	State *GameState `json:"gameState,omitempty"`
}
