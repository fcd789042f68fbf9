// Package historian drains the action queue that game servers push to Redis and
// persists the records to PostgreSQL in batches.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/durak/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Config tunes batching and inactivity detection.
type Config struct {
	Queue         string
	BatchSize     int
	FlushInterval time.Duration
	Inactivity    time.Duration // a room idle this long is marked abandoned
	PollTimeout   time.Duration
}

func (c Config) withDefaults() Config {
	if c.Queue == "" {
		c.Queue = "durak_actions"
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 20
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = 500 * time.Millisecond
	}
	if c.Inactivity <= 0 {
		c.Inactivity = 10 * time.Minute
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = time.Second
	}
	return c
}

// Service is the historian worker.
type Service struct {
	rdb  *redis.Client
	pool *pgxpool.Pool
	cfg  Config
	log  logrus.FieldLogger

	lastActivity sync.Map // uuid.UUID -> time.Time

	batchMu sync.Mutex
	batch   []models.ActionRecord
}

// New builds a Service. log may be nil.
func New(rdb *redis.Client, pool *pgxpool.Pool, cfg Config, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	cfg = cfg.withDefaults()
	return &Service{
		rdb:   rdb,
		pool:  pool,
		cfg:   cfg,
		log:   log,
		batch: make([]models.ActionRecord, 0, cfg.BatchSize),
	}
}

// Run consumes the queue until ctx is cancelled, then flushes what is left.
func (s *Service) Run(ctx context.Context) error {
	s.log.Infof("historian started on queue %s", s.cfg.Queue)
	go s.inactivityLoop(ctx)

	lastFlush := time.Now()
	for ctx.Err() == nil {
		res, err := s.rdb.BLPop(ctx, s.cfg.PollTimeout, s.cfg.Queue).Result()
		switch {
		case errors.Is(err, redis.Nil), ctx.Err() != nil:
		case err != nil:
			s.log.Errorf("BLPop: %v", err)
			time.Sleep(s.cfg.PollTimeout)
		case len(res) == 2:
			rec, err := DecodeRecord([]byte(res[1]))
			if err != nil {
				s.log.Warnf("invalid action record: %v", err)
				break
			}
			s.lastActivity.Store(rec.RoomID, time.Now())
			if s.append(rec) >= s.cfg.BatchSize {
				s.flush(context.WithoutCancel(ctx))
				lastFlush = time.Now()
			}
		}
		if time.Since(lastFlush) >= s.cfg.FlushInterval {
			s.flush(context.WithoutCancel(ctx))
			lastFlush = time.Now()
		}
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.flush(flushCtx)
	s.log.Info("historian shutting down")
	return nil
}

// DecodeRecord parses one queue entry and rejects records that cannot be stored.
func DecodeRecord(data []byte) (models.ActionRecord, error) {
	var rec models.ActionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, err
	}
	if rec.RoomID == uuid.Nil {
		return rec, fmt.Errorf("record has no room_id")
	}
	if !rec.ActionType.Valid() {
		return rec, fmt.Errorf("record has unknown action_type %q", rec.ActionType)
	}
	if rec.ActionPayload == nil {
		rec.ActionPayload = map[string]interface{}{}
	}
	return rec, nil
}

func (s *Service) append(rec models.ActionRecord) int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	s.batch = append(s.batch, rec)
	return len(s.batch)
}

// take empties the batch and returns what it held.
func (s *Service) take() []models.ActionRecord {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	if len(s.batch) == 0 {
		return nil
	}
	out := make([]models.ActionRecord, len(s.batch))
	copy(out, s.batch)
	s.batch = s.batch[:0]
	return out
}

// flush writes the current batch in one transaction.
func (s *Service) flush(ctx context.Context) {
	recs := s.take()
	if len(recs) == 0 {
		return
	}
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range recs {
			if err := insertActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insertActionTx: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.log.Errorf("flush of %d actions failed: %v", len(recs), err)
		return
	}
	s.log.Debugf("flushed %d actions", len(recs))
}

// insertActionTx stores one action and keeps the room_history row current.
func insertActionTx(ctx context.Context, tx pgx.Tx, rec models.ActionRecord) error {
	upsertHistoryQ := `
		INSERT INTO room_history (room_id, status, start_time)
		VALUES ($1, 'in_progress', NOW())
		ON CONFLICT (room_id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, upsertHistoryQ, rec.RoomID); err != nil {
		return err
	}

	payload, err := json.Marshal(rec.ActionPayload)
	if err != nil {
		return err
	}
	actionInsertQ := `
		INSERT INTO game_actions (room_id, action_index, actor_player_id, action_type, action_payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (room_id, action_index) DO NOTHING
	`
	if _, err := tx.Exec(ctx, actionInsertQ,
		rec.RoomID, rec.ActionIndex, rec.ActorPlayerID, string(rec.ActionType), payload,
		time.UnixMilli(rec.Timestamp).UTC(),
	); err != nil {
		return err
	}

	if rec.GameOver {
		finalizeQ := `
			UPDATE room_history SET status = 'completed', end_time = NOW()
			WHERE room_id = $1 AND status = 'in_progress'
		`
		if _, err := tx.Exec(ctx, finalizeQ, rec.RoomID); err != nil {
			return err
		}
	}
	return nil
}

// inactivityLoop marks rooms abandoned once no action has arrived for cfg.Inactivity.
func (s *Service) inactivityLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, id := range s.idleRooms(now) {
				s.markAbandoned(ctx, id)
			}
		}
	}
}

// idleRooms returns and forgets the rooms idle since before now-Inactivity.
func (s *Service) idleRooms(now time.Time) []uuid.UUID {
	var idle []uuid.UUID
	s.lastActivity.Range(func(key, val interface{}) bool {
		id, ok1 := key.(uuid.UUID)
		last, ok2 := val.(time.Time)
		if ok1 && ok2 && now.Sub(last) > s.cfg.Inactivity {
			idle = append(idle, id)
			s.lastActivity.Delete(id)
		}
		return true
	})
	return idle
}

func (s *Service) markAbandoned(ctx context.Context, roomID uuid.UUID) {
	_, err := s.pool.Exec(ctx, `
		UPDATE room_history SET status = 'abandoned', end_time = NOW()
		WHERE room_id = $1 AND status = 'in_progress'
	`, roomID)
	if err != nil {
		s.log.Errorf("failed to mark room %s abandoned: %v", roomID, err)
		return
	}
	s.log.Infof("marked room %s abandoned after inactivity", roomID)
}
