package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jason-s-yu/durak/internal/auth"
	"github.com/jason-s-yu/durak/internal/game"
)

const authCookieName = "auth_token"

var (
	errMissingToken = errors.New("missing auth_token")
	errWrongRoom    = errors.New("token does not belong to this room")
)

// extractCookieToken extracts a named cookie value from "Cookie" header, or returns empty if not found.
func extractCookieToken(cookieHeader, cookieName string) string {
	parts := strings.Split(cookieHeader, cookieName+"=")
	if len(parts) < 2 {
		return ""
	}
	token := parts[1]
	if idx := strings.Index(token, ";"); idx != -1 {
		token = token[:idx]
	}
	return token
}

// tokenFromRequest looks for a seat token in the cookie, a bearer header, then the "token" query parameter.
func tokenFromRequest(r *http.Request) string {
	if token := extractCookieToken(r.Header.Get("Cookie"), authCookieName); token != "" {
		return token
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// seatFromRequest authenticates the request and checks the token was issued for roomID.
func seatFromRequest(r *http.Request, roomID uuid.UUID) (auth.Seat, int, error) {
	token := tokenFromRequest(r)
	if token == "" {
		return auth.Seat{}, http.StatusUnauthorized, errMissingToken
	}
	seat, err := auth.AuthenticateJWT(token)
	if err != nil {
		return auth.Seat{}, http.StatusUnauthorized, err
	}
	if roomID != uuid.Nil && seat.RoomID != roomID {
		return auth.Seat{}, http.StatusForbidden, errWrongRoom
	}
	return seat, http.StatusOK, nil
}

// setAuthCookie hands the seat token to browsers.
func setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// roomIDParam parses {roomID}, writing a 400 on failure.
func roomIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "roomID"))
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// decodeJSON reads a JSON body. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	if ae, ok := game.AsRejection(err); ok {
		switch ae.Kind {
		case game.RejectNotFound:
			return http.StatusNotFound
		case game.RejectPrecondition:
			return http.StatusConflict
		case game.RejectIllegalMove:
			return http.StatusUnprocessableEntity
		}
	}
	if errors.Is(err, game.ErrVersionConflict) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError reports a rejection to the client and logs anything else as a server fault.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}
	if ae, ok := game.AsRejection(err); ok {
		body.Code = ae.Kind.String()
	}
	if status == http.StatusInternalServerError {
		s.log.Errorf("request failed: %v", err)
		body.Error = "internal server error"
	}
	writeJSON(w, status, body)
}
