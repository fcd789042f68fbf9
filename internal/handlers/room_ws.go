// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/durak/internal/game"
	"github.com/jason-s-yu/durak/internal/lobby"
	"github.com/jason-s-yu/durak/internal/middleware"
	"github.com/jason-s-yu/durak/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const subprotocol = "durak"

// Inbound client frame types.
const (
	msgGameAction = "game-action"
	msgStartGame  = "start-game"
	msgLeaveRoom  = "leave-room"
	msgPing       = "ping"
)

// RoomMessage is an inbound WebSocket frame. Any playerId inside Action is overwritten by the seat.
type RoomMessage struct {
	Type   string             `json:"type"`
	Action *models.GameAction `json:"action,omitempty"`
}

// roomSocket is one upgraded connection and the seat it is bound to.
type roomSocket struct {
	c       *websocket.Conn
	conn    *lobby.Connection
	roomID  uuid.UUID
	limiter *rate.Limiter
	log     logrus.FieldLogger
}

// roomWS handles GET /rooms/{roomID}/ws. The seat comes from the token, never from frames.
func (s *Server) roomWS(w http.ResponseWriter, r *http.Request) {
	roomID, ok := roomIDParam(w, r)
	if !ok {
		return
	}
	seat, status, err := seatFromRequest(r, roomID)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}
	player, err := s.rooms.GetPlayer(r.Context(), seat.PlayerID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{subprotocol},
		OriginPatterns: s.originPatterns,
	})
	if err != nil {
		s.log.Warnf("websocket accept error: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")

	if c.Subprotocol() != subprotocol {
		c.Close(BadSubprotocolError, "client must speak the durak subprotocol")
		return
	}
	middleware.LogWebSocketConnect(s.log, r.RemoteAddr, r.URL.Path)

	room, err := s.rooms.GetRoom(r.Context(), roomID)
	if err != nil {
		c.Close(InvalidRoomIDError, "room does not exist")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sock := &roomSocket{
		c:       c,
		conn:    lobby.NewConnection(player.ID, player.Name, cancel),
		roomID:  roomID,
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 10),
		log: s.log.WithFields(logrus.Fields{
			"room":   roomID,
			"player": player.ID,
		}),
	}
	s.hub.AddConnection(roomID, sock.conn)

	state := game.NewGameState(room, player.ID)
	sock.conn.WriteEvent(game.GameEvent{
		Type:       game.EventRoomJoined,
		RoomID:     &room.ID,
		PlayerID:   &player.ID,
		PlayerName: player.Name,
		State:      &state,
	})
	s.hub.Broadcast(roomID, game.GameEvent{
		Type:       game.EventPlayerJoined,
		RoomID:     &room.ID,
		PlayerID:   &player.ID,
		PlayerName: player.Name,
	}, player.ID)

	go sock.writePump(ctx)
	left, readErr := s.readPump(ctx, sock)

	removed := s.hub.RemoveConnection(roomID, sock.conn)
	middleware.LogWebSocketDisconnect(s.log, r.RemoteAddr, r.URL.Path, readErr)

	switch {
	case left:
		c.Close(websocket.StatusNormalClosure, "left room")
	case !removed:
		c.Close(ReplacedError, "seat connected elsewhere")
	default:
		inProgress := false
		if room, err := s.rooms.GetRoom(context.WithoutCancel(ctx), roomID); err == nil {
			inProgress = room.Status == models.GamePlaying
		}
		s.hub.Broadcast(roomID, game.GameEvent{
			Type:           game.EventPlayerDisconnected,
			RoomID:         &roomID,
			PlayerID:       &player.ID,
			PlayerName:     player.Name,
			GameInProgress: inProgress,
		}, player.ID)
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// readPump handles inbound frames until the socket closes. It reports true after a leave-room request.
func (s *Server) readPump(ctx context.Context, sock *roomSocket) (bool, error) {
	for {
		typ, msg, err := sock.c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return false, nil
			}
			return false, err
		}
		if typ != websocket.MessageText {
			sock.log.Warnf("ignoring non-text message type %d", typ)
			continue
		}
		if !sock.limiter.Allow() {
			sock.conn.WriteError("rate_limited", "too many messages, slow down")
			continue
		}

		var packet RoomMessage
		if err := json.Unmarshal(msg, &packet); err != nil {
			sock.conn.WriteError("bad_request", fmt.Sprintf("invalid message: %v", err))
			continue
		}
		if s.handleRoomMessage(ctx, sock, packet) {
			return true, nil
		}
	}
}

// handleRoomMessage dispatches one frame. It returns true once the player has left the room.
func (s *Server) handleRoomMessage(ctx context.Context, sock *roomSocket, packet RoomMessage) bool {
	conn := sock.conn
	switch packet.Type {
	case msgGameAction:
		if packet.Action == nil {
			conn.WriteError("bad_request", "game-action requires an action")
			return false
		}
		action := *packet.Action
		action.RoomID = sock.roomID
		action.PlayerID = conn.PlayerID

		room, err := s.engine.ApplyAction(ctx, action)
		if err != nil {
			s.sendError(sock, err)
			return false
		}
		sock.log.WithField("action", action.Type).Debug("action applied")
		s.publishRoom(room)

	case msgStartGame:
		room, err := s.rooms.StartGame(ctx, sock.roomID, conn.PlayerID)
		if err != nil {
			s.sendError(sock, err)
			return false
		}
		s.hub.BroadcastRoom(room, game.GameEvent{Type: game.EventGameStarted, RoomID: &room.ID})

	case msgLeaveRoom:
		room, err := s.rooms.LeaveRoom(ctx, sock.roomID, conn.PlayerID)
		if err != nil {
			s.sendError(sock, err)
			return false
		}
		writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_ = sock.c.Write(writeCtx, websocket.MessageText, game.EncodeEvent(game.GameEvent{
			Type:     game.EventRoomLeft,
			RoomID:   &room.ID,
			PlayerID: &conn.PlayerID,
		}))
		cancel()

		s.hub.RemoveConnection(sock.roomID, conn)
		s.hub.BroadcastRoom(room, game.GameEvent{
			Type:       game.EventPlayerLeft,
			RoomID:     &room.ID,
			PlayerID:   &conn.PlayerID,
			PlayerName: conn.PlayerName,
		})
		return true

	case msgPing:
		conn.WriteEvent(game.GameEvent{Type: game.EventPong})

	default:
		conn.WriteError("unknown_type", fmt.Sprintf("unknown message type: %s", packet.Type))
	}
	return false
}

// sendError answers the acting connection only. Infrastructure failures are logged and masked.
func (s *Server) sendError(sock *roomSocket, err error) {
	if ae, ok := game.AsRejection(err); ok {
		sock.conn.WriteError(ae.Kind.String(), err.Error())
		return
	}
	if errors.Is(err, game.ErrVersionConflict) {
		sock.conn.WriteError("conflict", err.Error())
		return
	}
	sock.log.Errorf("room request failed: %v", err)
	sock.conn.WriteError("internal", "internal server error")
}

// writePump drains the connection's OutChan and pings periodically.
func (sock *roomSocket) writePump(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-sock.conn.OutChan:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := sock.c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				sock.log.Warnf("write failed: %v", err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := sock.c.Ping(pingCtx)
			cancel()
			if err != nil {
				sock.log.Warnf("ping failed: %v", err)
				return
			}
		}
	}
}
