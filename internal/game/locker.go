package game

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// RoomLocker serializes work on a single room. Lock blocks until the room is
// free or ctx is done, and returns the function that releases it.
type RoomLocker interface {
	Lock(ctx context.Context, roomID uuid.UUID) (unlock func(), err error)
}

// LocalLocker is a RoomLocker for a single process.
type LocalLocker struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*roomLock
}

type roomLock struct {
	sem  chan struct{}
	refs int
}

// NewLocalLocker returns a RoomLocker backed by in-process channels.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{rooms: make(map[uuid.UUID]*roomLock)}
}

func (l *LocalLocker) Lock(ctx context.Context, roomID uuid.UUID) (func(), error) {
	l.mu.Lock()
	rl, ok := l.rooms[roomID]
	if !ok {
		rl = &roomLock{sem: make(chan struct{}, 1)}
		l.rooms[roomID] = rl
	}
	rl.refs++
	l.mu.Unlock()

	select {
	case rl.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-rl.sem
				l.release(roomID, rl)
			})
		}, nil
	case <-ctx.Done():
		l.release(roomID, rl)
		return nil, ctx.Err()
	}
}

func (l *LocalLocker) release(roomID uuid.UUID, rl *roomLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rl.refs--
	if rl.refs == 0 {
		delete(l.rooms, roomID)
	}
}
