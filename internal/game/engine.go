// internal/game/engine.go
package game

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/durak/internal/models"
	"github.com/sirupsen/logrus"
)

// ActionRecorder receives every accepted action, e.g. to feed the historian queue.
type ActionRecorder interface {
	Record(ctx context.Context, rec models.ActionRecord) error
}

type options struct {
	locker   RoomLocker
	recorder ActionRecorder
	log      logrus.FieldLogger
	intn     func(int) int
}

// Option configures an Engine or a RoomService.
type Option func(*options)

// WithLocker replaces the default in-process room locker.
func WithLocker(l RoomLocker) Option {
	return func(o *options) { o.locker = l }
}

// WithRecorder publishes accepted actions to rec.
func WithRecorder(rec ActionRecorder) Option {
	return func(o *options) { o.recorder = rec }
}

// WithLogger sets the logger. The default is the logrus standard logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) { o.log = log }
}

// WithRand sets the source used for shuffling and random picks; intn must return a value in [0, n).
func WithRand(intn func(int) int) Option {
	return func(o *options) { o.intn = intn }
}

func buildOptions(opts []Option) options {
	o := options{
		locker: NewLocalLocker(),
		log:    logrus.StandardLogger(),
		intn:   rand.Intn,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Engine validates and applies game actions against a RoomStore.
type Engine struct {
	store RoomStore
	options
}

// NewEngine creates an Engine over store.
func NewEngine(store RoomStore, opts ...Option) *Engine {
	return &Engine{store: store, options: buildOptions(opts)}
}

// ApplyAction runs one action under the room lock and returns the saved room.
// On rejection nothing is persisted except a pre-action replenishment.
func (e *Engine) ApplyAction(ctx context.Context, action models.GameAction) (*models.Room, error) {
	if !action.Type.Valid() {
		return nil, ErrUnknownAction
	}

	unlock, err := e.locker.Lock(ctx, action.RoomID)
	if err != nil {
		return nil, fmt.Errorf("lock room %s: %w", action.RoomID, err)
	}
	defer unlock()

	room, err := e.loadPlaying(ctx, action)
	if err != nil {
		return nil, err
	}
	if replenishHands(room) {
		if err := e.store.SaveRoom(ctx, room); err != nil {
			return nil, fmt.Errorf("save replenished room %s: %w", room.ID, err)
		}
		if room, err = e.loadPlaying(ctx, action); err != nil {
			return nil, err
		}
	}

	next := room.Clone()
	actor := next.PlayerByID(action.PlayerID)
	if err := applyAction(next, actor, action, e.intn); err != nil {
		e.log.WithFields(logrus.Fields{
			"room":   action.RoomID,
			"player": action.PlayerID,
			"action": action.Type,
		}).Infof("action rejected: %v", err)
		return nil, err
	}

	if err := e.store.SaveRoom(ctx, next); err != nil {
		return nil, fmt.Errorf("save room %s: %w", next.ID, err)
	}
	e.record(ctx, next, action)

	if next.Status == models.GameFinished {
		e.log.WithField("room", next.ID).Infof("game finished, finish order %v", next.FinishOrder)
	}
	return next, nil
}

// ProcessAction applies action and returns the actor's view of the result.
func (e *Engine) ProcessAction(ctx context.Context, action models.GameAction) (GameState, error) {
	room, err := e.ApplyAction(ctx, action)
	if err != nil {
		return GameState{}, err
	}
	return NewGameState(room, action.PlayerID), nil
}

// GetGameStateByRoom returns the room as seen by viewer. uuid.Nil sees everything.
func (e *Engine) GetGameStateByRoom(ctx context.Context, roomID, viewer uuid.UUID) (GameState, error) {
	room, err := e.store.LoadRoom(ctx, roomID)
	if err != nil {
		return GameState{}, err
	}
	return NewGameState(room, viewer), nil
}

func (e *Engine) loadPlaying(ctx context.Context, action models.GameAction) (*models.Room, error) {
	room, err := e.store.LoadRoom(ctx, action.RoomID)
	if err != nil {
		return nil, err
	}
	if room.Status != models.GamePlaying {
		return nil, ErrGameNotInProgress
	}
	if room.PlayerByID(action.PlayerID) == nil {
		return nil, ErrPlayerNotFound
	}
	return room, nil
}

// record hands the action to the recorder in the background; failures are only logged.
func (e *Engine) record(ctx context.Context, room *models.Room, action models.GameAction) {
	if e.recorder == nil {
		return
	}
	rec := models.ActionRecord{
		RoomID:        room.ID,
		ActionIndex:   room.Version,
		ActorPlayerID: action.PlayerID,
		ActionType:    action.Type,
		ActionPayload: action.Payload(),
		Timestamp:     time.Now().UnixMilli(),
		GameOver:      room.Status == models.GameFinished,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := e.recorder.Record(ctx, rec); err != nil {
			e.log.WithField("room", rec.RoomID).Warnf("failed to record action %d: %v", rec.ActionIndex, err)
		}
	}()
}
