// internal/handlers/rooms.go
package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/durak/internal/auth"
	"github.com/jason-s-yu/durak/internal/game"
	"github.com/jason-s-yu/durak/internal/models"
)

// outsider never matches a seat, so it gets the redacted projection.
var outsider = uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff")

// roomView is the projection plus the room settings a lobby screen needs.
type roomView struct {
	game.GameState
	PlayerLimit int       `json:"playerLimit"`
	PlayerNames []string    `json:"playerNames,omitempty"`
	Online      []uuid.UUID `json:"online"` // seats with a live socket
	CreatedAt   time.Time   `json:"createdAt"`
}

func (s *Server) newRoomView(room *models.Room, viewer uuid.UUID) roomView {
	return roomView{
		GameState:   game.NewGameState(room, viewer),
		PlayerLimit: room.PlayerLimit,
		PlayerNames: append([]string(nil), room.PlayerNames...),
		Online:      s.hub.Connected(room.ID),
		CreatedAt:   room.CreatedAt,
	}
}

// roomSummary is one row of GET /rooms.
type roomSummary struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Owner       string            `json:"owner"`
	PlayerLimit int               `json:"playerLimit"`
	PlayerCount int               `json:"playerCount"`
	Status      models.GameStatus `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// seatResponse is returned when a player is seated (create or join).
type seatResponse struct {
	Room     roomView       `json:"room"`
	Player   *models.Player `json:"player"`
	Token    string         `json:"token"`
	Rejoined bool           `json:"rejoined,omitempty"`
}

// createRoom handles POST /rooms. The creator is seated as owner and receives a seat token.
func (s *Server) createRoom(w http.ResponseWriter, r *http.Request) {
	var req game.CreateRoomRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "bad room request payload", http.StatusBadRequest)
		return
	}

	room, owner, err := s.rooms.CreateRoom(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	token, err := auth.CreateJWT(owner.ID, room.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	setAuthCookie(w, token)
	writeJSON(w, http.StatusCreated, seatResponse{
		Room:   s.newRoomView(room, owner.ID),
		Player: owner,
		Token:  token,
	})
}

// listRooms handles GET /rooms.
func (s *Server) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.rooms.ListRooms(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]roomSummary, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, roomSummary{
			ID:          room.ID,
			Name:        room.Name,
			Owner:       room.Owner,
			PlayerLimit: room.PlayerLimit,
			PlayerCount: len(room.Players),
			Status:      room.Status,
			CreatedAt:   room.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// getRoom handles GET /rooms/{roomID}. A valid seat token for the room reveals the caller's own hand.
func (s *Server) getRoom(w http.ResponseWriter, r *http.Request) {
	roomID, ok := roomIDParam(w, r)
	if !ok {
		return
	}
	room, err := s.rooms.GetRoom(r.Context(), roomID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	viewer := outsider
	if seat, _, err := seatFromRequest(r, roomID); err == nil {
		viewer = seat.PlayerID
	}
	writeJSON(w, http.StatusOK, s.newRoomView(room, viewer))
}

// joinRoom handles POST /rooms/{roomID}/join.
func (s *Server) joinRoom(w http.ResponseWriter, r *http.Request) {
	roomID, ok := roomIDParam(w, r)
	if !ok {
		return
	}
	var req game.JoinRoomRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "bad join request payload", http.StatusBadRequest)
		return
	}
	req.RoomID = roomID

	player, rejoined, err := s.rooms.JoinRoom(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	room, err := s.rooms.GetRoom(r.Context(), roomID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	token, err := auth.CreateJWT(player.ID, roomID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if !rejoined {
		s.hub.BroadcastRoom(room, game.GameEvent{
			Type:       game.EventPlayerJoined,
			RoomID:     &room.ID,
			PlayerID:   &player.ID,
			PlayerName: player.Name,
		})
	}

	setAuthCookie(w, token)
	status := http.StatusCreated
	if rejoined {
		status = http.StatusOK
	}
	writeJSON(w, status, seatResponse{
		Room:     s.newRoomView(room, player.ID),
		Player:   player,
		Token:    token,
		Rejoined: rejoined,
	})
}

// startGame handles POST /rooms/{roomID}/start. Only the owner's token may start.
func (s *Server) startGame(w http.ResponseWriter, r *http.Request) {
	roomID, ok := roomIDParam(w, r)
	if !ok {
		return
	}
	seat, status, err := seatFromRequest(r, roomID)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}

	room, err := s.rooms.StartGame(r.Context(), roomID, seat.PlayerID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.hub.BroadcastRoom(room, game.GameEvent{Type: game.EventGameStarted, RoomID: &room.ID})
	writeJSON(w, http.StatusOK, s.newRoomView(room, seat.PlayerID))
}

// roomState handles GET /rooms/{roomID}/state for the token's seat.
func (s *Server) roomState(w http.ResponseWriter, r *http.Request) {
	roomID, ok := roomIDParam(w, r)
	if !ok {
		return
	}
	seat, status, err := seatFromRequest(r, roomID)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}

	state, err := s.engine.GetGameStateByRoom(r.Context(), roomID, seat.PlayerID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}
