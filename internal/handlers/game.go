// internal/handlers/game.go
package handlers

import (
	"net/http"

	"github.com/jason-s-yu/durak/internal/game"
	"github.com/jason-s-yu/durak/internal/models"
)

// gameAction handles POST /game/action. The acting player always comes from the seat token.
func (s *Server) gameAction(w http.ResponseWriter, r *http.Request) {
	var action models.GameAction
	if err := decodeJSON(r, &action); err != nil {
		http.Error(w, "bad action payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	seat, status, err := seatFromRequest(r, action.RoomID)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}
	action.RoomID = seat.RoomID
	action.PlayerID = seat.PlayerID

	room, err := s.engine.ApplyAction(r.Context(), action)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.publishRoom(room)
	writeJSON(w, http.StatusOK, game.NewGameState(room, seat.PlayerID))
}

// publishRoom pushes the committed room to every connection, then the result if the game just ended.
func (s *Server) publishRoom(room *models.Room) {
	s.hub.BroadcastRoom(room, game.GameEvent{Type: game.EventGameStateUpdated, RoomID: &room.ID})
	if room.Status != models.GameFinished {
		return
	}
	ev := game.GameEvent{Type: game.EventGameEnded, RoomID: &room.ID}
	winner, durak := game.GameResult(room)
	if winner != nil {
		ev.Winner = winner.Name
	}
	if durak != nil {
		ev.Durak = durak.Name
		id := durak.ID
		ev.PlayerID = &id
	}
	s.hub.BroadcastRoom(room, ev)
}
