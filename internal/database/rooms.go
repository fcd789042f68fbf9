// internal/database/rooms.go
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/durak/internal/game"
	"github.com/jason-s-yu/durak/internal/models"
)

// PostgresStore is a game.RoomStore backed by PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps pool. Call EnsureSchema first on a fresh database.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var _ game.RoomStore = (*PostgresStore)(nil)

const pgRoomColumns = `id, name, owner, player_limit, player_names, status, deck, active_cards, trump_suit,
	current_attacker, current_defender, house_rules, finish_order, version, created_at, updated_at`

const pgPlayerColumns = `id, room_id, name, seat, status, role, cards, character_type, avatar,
	character_team, avatar_number, visible_cards, ability_used`

func (s *PostgresStore) CreateRoom(ctx context.Context, room *models.Room) error {
	now := time.Now().UTC()
	if room.CreatedAt.IsZero() {
		room.CreatedAt = now
	}
	room.UpdatedAt = now
	room.Version = 1

	doc, err := encodeRoomDoc(room)
	if err != nil {
		return err
	}
	err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO rooms (` + pgRoomColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		`
		if _, err := tx.Exec(ctx, q,
			room.ID, room.Name, room.Owner, room.PlayerLimit, doc.PlayerNames, room.Status,
			doc.Deck, doc.ActiveCards, room.TrumpSuit, room.CurrentAttacker, room.CurrentDefender,
			doc.HouseRules, doc.FinishOrder, room.Version, room.CreatedAt, room.UpdatedAt,
		); err != nil {
			return err
		}
		for _, p := range room.Players {
			if err := upsertPlayerTx(ctx, tx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create room %s: %w", room.ID, mapPgError(err))
	}
	return nil
}

func (s *PostgresStore) ListRooms(ctx context.Context) ([]*models.Room, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+pgRoomColumns+` FROM rooms ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	rooms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Room, error) {
		return scanPgRoom(row)
	})
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	for _, r := range rooms {
		if r.Players, err = s.loadPlayers(ctx, r.ID); err != nil {
			return nil, err
		}
	}
	return rooms, nil
}

func (s *PostgresStore) LoadRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+pgRoomColumns+` FROM rooms WHERE id = $1`, id)
	room, err := scanPgRoom(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, game.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", id, err)
	}
	if room.Players, err = s.loadPlayers(ctx, id); err != nil {
		return nil, err
	}
	return room, nil
}

// SaveRoom rewrites the room row and its seats in one transaction, guarded by the version column.
func (s *PostgresStore) SaveRoom(ctx context.Context, room *models.Room) error {
	doc, err := encodeRoomDoc(room)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	var newVersion int64

	err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			UPDATE rooms SET
				name = $2, owner = $3, player_limit = $4, player_names = $5, status = $6,
				deck = $7, active_cards = $8, trump_suit = $9, current_attacker = $10,
				current_defender = $11, house_rules = $12, finish_order = $13,
				version = version + 1, updated_at = $14
			WHERE id = $1 AND version = $15
			RETURNING version
		`
		err := tx.QueryRow(ctx, q,
			room.ID, room.Name, room.Owner, room.PlayerLimit, doc.PlayerNames, room.Status,
			doc.Deck, doc.ActiveCards, room.TrumpSuit, room.CurrentAttacker, room.CurrentDefender,
			doc.HouseRules, doc.FinishOrder, now, room.Version,
		).Scan(&newVersion)
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rooms WHERE id = $1)`, room.ID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return game.ErrRoomNotFound
			}
			return game.ErrVersionConflict
		}
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`DELETE FROM players WHERE room_id = $1 AND NOT (id::text = ANY($2))`,
			room.ID, playerIDs(room.Players),
		); err != nil {
			return err
		}
		for _, p := range room.Players {
			if err := upsertPlayerTx(ctx, tx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return mapPgError(err)
	}
	room.Version = newVersion
	room.UpdatedAt = now
	return nil
}

func (s *PostgresStore) LoadPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+pgPlayerColumns+` FROM players WHERE id = $1`, id)
	p, err := scanPgPlayer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, game.ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load player %s: %w", id, err)
	}
	return p, nil
}

// SavePlayer upserts one seat and bumps the owning room's version.
func (s *PostgresStore) SavePlayer(ctx context.Context, player *models.Player) error {
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE rooms SET version = version + 1, updated_at = NOW() WHERE id = $1`,
			player.RoomID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return game.ErrRoomNotFound
		}
		return upsertPlayerTx(ctx, tx, player)
	})
	return mapPgError(err)
}

func (s *PostgresStore) loadPlayers(ctx context.Context, roomID uuid.UUID) ([]*models.Player, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+pgPlayerColumns+` FROM players WHERE room_id = $1 ORDER BY seat`, roomID)
	if err != nil {
		return nil, fmt.Errorf("load players of %s: %w", roomID, err)
	}
	players, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Player, error) {
		return scanPgPlayer(row)
	})
	if err != nil {
		return nil, fmt.Errorf("load players of %s: %w", roomID, err)
	}
	return players, nil
}

func upsertPlayerTx(ctx context.Context, tx pgx.Tx, p *models.Player) error {
	cards, visible, err := encodeHands(p)
	if err != nil {
		return err
	}
	q := `
		INSERT INTO players (` + pgPlayerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = $3, seat = $4, status = $5, role = $6, cards = $7, character_type = $8,
			avatar = $9, character_team = $10, avatar_number = $11, visible_cards = $12, ability_used = $13
	`
	_, err = tx.Exec(ctx, q,
		p.ID, p.RoomID, p.Name, p.Seat, p.Status, p.Role, cards, p.CharacterType,
		p.Avatar, p.CharacterTeam, p.AvatarNumber, visible, p.AbilityUsed,
	)
	return err
}

func scanPgRoom(row pgx.Row) (*models.Room, error) {
	var r models.Room
	var doc roomDoc
	err := row.Scan(
		&r.ID, &r.Name, &r.Owner, &r.PlayerLimit, &doc.PlayerNames, &r.Status,
		&doc.Deck, &doc.ActiveCards, &r.TrumpSuit, &r.CurrentAttacker, &r.CurrentDefender,
		&doc.HouseRules, &doc.FinishOrder, &r.Version, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := doc.decodeInto(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

func scanPgPlayer(row pgx.Row) (*models.Player, error) {
	var p models.Player
	var cards, visible []byte
	err := row.Scan(
		&p.ID, &p.RoomID, &p.Name, &p.Seat, &p.Status, &p.Role, &cards, &p.CharacterType,
		&p.Avatar, &p.CharacterTeam, &p.AvatarNumber, &visible, &p.AbilityUsed,
	)
	if err != nil {
		return nil, err
	}
	if err := decodeHands(&p, cards, visible); err != nil {
		return nil, err
	}
	return &p, nil
}

// mapPgError turns a unique violation on (room_id, name) into game.ErrNameTaken.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return game.ErrNameTaken
	}
	return err
}
