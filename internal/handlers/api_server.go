// internal/handlers/api_server.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jason-s-yu/durak/internal/game"
	"github.com/jason-s-yu/durak/internal/lobby"
	"github.com/jason-s-yu/durak/internal/middleware"
	"github.com/sirupsen/logrus"
)

// Server holds the services behind the HTTP and WebSocket routes.
type Server struct {
	rooms  *game.RoomService
	engine *game.Engine
	hub    *lobby.Hub
	log    logrus.FieldLogger

	// originPatterns are host patterns accepted on WebSocket upgrade.
	originPatterns []string
}

// NewServer wires the room service, engine and connection hub together.
func NewServer(rooms *game.RoomService, engine *game.Engine, hub *lobby.Hub, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		rooms:          rooms,
		engine:         engine,
		hub:            hub,
		log:            log,
		originPatterns: []string{"*"},
	}
}

// Routes builds the router. allowedOrigins are full origins such as "https://durak.example";
// "https://*" style wildcards are accepted.
func (s *Server) Routes(allowedOrigins []string) http.Handler {
	if len(allowedOrigins) > 0 {
		s.originPatterns = originHosts(allowedOrigins)
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))
	r.Use(middleware.LogMiddleware(s.log))

	r.Route("/rooms", func(r chi.Router) {
		r.Post("/", s.createRoom)
		r.Get("/", s.listRooms)
		r.Route("/{roomID}", func(r chi.Router) {
			r.Get("/", s.getRoom)
			r.Post("/join", s.joinRoom)
			r.Post("/start", s.startGame)
			r.Get("/state", s.roomState)
			r.Get("/ws", s.roomWS)
		})
	})
	r.Post("/game/action", s.gameAction)

	return r
}

// originHosts strips schemes so CORS origins can double as WebSocket origin patterns.
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimPrefix(o, "https://")
		o = strings.TrimPrefix(o, "http://")
		if o != "" {
			hosts = append(hosts, o)
		}
	}
	return hosts
}
