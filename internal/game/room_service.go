// internal/game/room_service.go
package game

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/durak/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	MinPlayers = 2
	MaxPlayers = 6
)

// CreateRoomRequest describes a new room. Owner is seated immediately.
type CreateRoomRequest struct {
	Name        string                 `json:"name"`
	PlayerLimit int                    `json:"playerLimit"`
	PlayerNames []string               `json:"playerNames"`
	Owner       string                 `json:"owner"`
	Character   models.Character       `json:"character"`
	Rules       map[string]interface{} `json:"houseRules,omitempty"`
}

// JoinRoomRequest asks for a seat in a room.
type JoinRoomRequest struct {
	RoomID     uuid.UUID        `json:"roomId"`
	PlayerName string           `json:"playerName"`
	Character  models.Character `json:"character"`
}

// RoomService handles the room lifecycle outside of play: creating, joining, starting and leaving.
type RoomService struct {
	store RoomStore
	options
}

// NewRoomService creates a RoomService over store. Pass the same locker the Engine uses.
func NewRoomService(store RoomStore, opts ...Option) *RoomService {
	return &RoomService{store: store, options: buildOptions(opts)}
}

// CreateRoom validates req and persists a waiting room with its owner seated.
func (s *RoomService) CreateRoom(ctx context.Context, req CreateRoomRequest) (*models.Room, *models.Player, error) {
	name := strings.TrimSpace(req.Name)
	owner := strings.TrimSpace(req.Owner)
	if name == "" || owner == "" {
		return nil, nil, fmt.Errorf("%w: room name and owner are required", ErrInvalidRoomInput)
	}
	if req.PlayerLimit < MinPlayers || req.PlayerLimit > MaxPlayers {
		return nil, nil, fmt.Errorf("%w: player limit must be between %d and %d", ErrInvalidRoomInput, MinPlayers, MaxPlayers)
	}
	names := make([]string, 0, len(req.PlayerNames))
	for _, n := range req.PlayerNames {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	if len(names) > 0 && !contains(names, owner) {
		names = append([]string{owner}, names...)
	}
	if len(names) > req.PlayerLimit {
		return nil, nil, fmt.Errorf("%w: %d names for %d seats", ErrInvalidRoomInput, len(names), req.PlayerLimit)
	}
	rules, err := models.ParseRules(req.Rules, models.DefaultHouseRules())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidRoomInput, err)
	}

	room := &models.Room{
		ID:          uuid.New(),
		Name:        name,
		Owner:       owner,
		PlayerLimit: req.PlayerLimit,
		PlayerNames: names,
		Status:      models.GameWaiting,
		ActiveCards: []models.CardOnTable{},
		Deck:        []models.Card{},
		HouseRules:  rules,
	}
	p := &models.Player{
		ID:        uuid.New(),
		RoomID:    room.ID,
		Name:      owner,
		Seat:      0,
		Status:    models.PlayerWaiting,
		Role:      models.RoleOwner,
		Cards:     []models.Card{},
		Character: req.Character,
	}
	room.Players = []*models.Player{p}

	if err := s.store.CreateRoom(ctx, room); err != nil {
		return nil, nil, fmt.Errorf("create room: %w", err)
	}
	s.log.WithFields(logrus.Fields{"room": room.ID, "owner": owner}).Info("room created")
	return room, p, nil
}

// ListRooms returns every room, newest first.
func (s *RoomService) ListRooms(ctx context.Context) ([]*models.Room, error) {
	return s.store.ListRooms(ctx)
}

// GetRoom loads one room.
func (s *RoomService) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	return s.store.LoadRoom(ctx, id)
}

// GetPlayer loads one seat.
func (s *RoomService) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	return s.store.LoadPlayer(ctx, id)
}

// JoinRoom seats a player, or returns the existing seat when the name is already in the room.
// rejoined reports the latter.
func (s *RoomService) JoinRoom(ctx context.Context, req JoinRoomRequest) (p *models.Player, rejoined bool, err error) {
	name := strings.TrimSpace(req.PlayerName)
	if name == "" {
		return nil, false, fmt.Errorf("%w: player name is required", ErrInvalidRoomInput)
	}

	unlock, err := s.locker.Lock(ctx, req.RoomID)
	if err != nil {
		return nil, false, fmt.Errorf("lock room %s: %w", req.RoomID, err)
	}
	defer unlock()

	room, err := s.store.LoadRoom(ctx, req.RoomID)
	if err != nil {
		return nil, false, err
	}
	if existing := room.PlayerByName(name); existing != nil {
		return existing, true, nil
	}
	if room.Status != models.GameWaiting {
		return nil, false, ErrGameAlreadyStarted
	}
	if len(room.Players) >= room.PlayerLimit {
		return nil, false, ErrRoomFull
	}
	if !room.AllowsName(name) {
		return nil, false, ErrNotInvited
	}

	p = &models.Player{
		ID:        uuid.New(),
		RoomID:    room.ID,
		Name:      name,
		Seat:      len(room.Players),
		Status:    models.PlayerWaiting,
		Role:      models.RolePlayer,
		Cards:     []models.Card{},
		Character: req.Character,
	}
	if err := s.store.SavePlayer(ctx, p); err != nil {
		return nil, false, fmt.Errorf("save player: %w", err)
	}
	s.log.WithFields(logrus.Fields{"room": room.ID, "player": name}).Info("player joined")
	return p, false, nil
}

// StartGame deals the cards. Only the owner may start a waiting room with at least two players.
func (s *RoomService) StartGame(ctx context.Context, roomID, playerID uuid.UUID) (*models.Room, error) {
	unlock, err := s.locker.Lock(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("lock room %s: %w", roomID, err)
	}
	defer unlock()

	room, err := s.store.LoadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	p := room.PlayerByID(playerID)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	if !p.IsOwner() {
		return nil, ErrNotOwner
	}
	if room.Status != models.GameWaiting {
		return nil, ErrGameAlreadyStarted
	}
	if len(room.Players) < MinPlayers {
		return nil, ErrNotEnoughPlayers
	}

	startGame(room, s.intn)
	if err := s.store.SaveRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("save started room %s: %w", roomID, err)
	}
	s.log.WithFields(logrus.Fields{"room": room.ID, "trump": room.TrumpSuit}).Info("game started")
	return room, nil
}

// startGame shuffles, deals and assigns the first attacker and defender by seat order.
func startGame(room *models.Room, intn func(int) int) {
	deck := newDeck(intn)
	room.TrumpSuit = TrumpSuitOf(deck)

	hands, consumed := dealHands(deck, len(room.Players), room.HouseRules.TargetHandSize())
	for i, p := range room.Players {
		p.Cards = hands[i]
		if p.Cards == nil {
			p.Cards = []models.Card{}
		}
		p.VisibleCards = nil
		p.AbilityUsed = false
		p.Seat = i
		switch i {
		case 0:
			p.Status = models.PlayerAttacker
		case 1:
			p.Status = models.PlayerDefender
		default:
			p.Status = models.PlayerActive
		}
	}
	room.Deck = deck[consumed:]
	room.ActiveCards = []models.CardOnTable{}
	room.FinishOrder = nil
	room.CurrentAttacker = room.Players[0].ID
	room.CurrentDefender = room.Players[1].ID
	room.Status = models.GamePlaying
}

// LeaveRoom removes a player from a waiting room, handing ownership to the next seat.
// Once the game has started seats are kept and the room is returned unchanged.
func (s *RoomService) LeaveRoom(ctx context.Context, roomID, playerID uuid.UUID) (*models.Room, error) {
	unlock, err := s.locker.Lock(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("lock room %s: %w", roomID, err)
	}
	defer unlock()

	room, err := s.store.LoadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	idx := room.PlayerIndex(playerID)
	if idx < 0 {
		return nil, ErrPlayerNotFound
	}
	if room.Status != models.GameWaiting {
		return room, nil
	}

	leaving := room.Players[idx]
	room.Players = append(room.Players[:idx], room.Players[idx+1:]...)
	for i, p := range room.Players {
		p.Seat = i
	}
	if leaving.IsOwner() && len(room.Players) > 0 {
		room.Players[0].Role = models.RoleOwner
		room.Owner = room.Players[0].Name
	}
	if err := s.store.SaveRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("save room %s: %w", roomID, err)
	}
	s.log.WithFields(logrus.Fields{"room": room.ID, "player": leaving.Name}).Info("player left")
	return room, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
