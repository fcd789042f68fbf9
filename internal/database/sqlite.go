// internal/database/sqlite.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/durak/internal/game"
	"github.com/jason-s-yu/durak/internal/models"
	_ "modernc.org/sqlite"
)

// SQLiteStore is a game.RoomStore in a single SQLite file, for local play without Postgres.
type SQLiteStore struct {
	db *sql.DB
}

var _ game.RoomStore = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the database at path. ":memory:" gives a throwaway store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if path != ":memory:" {
		if parent := filepath.Dir(path); parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pragmas := []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply sqlite schema: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS rooms (
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		owner            TEXT NOT NULL,
		player_limit     INTEGER NOT NULL,
		player_names     TEXT NOT NULL DEFAULT '[]',
		status           TEXT NOT NULL DEFAULT 'waiting',
		deck             TEXT NOT NULL DEFAULT '[]',
		active_cards     TEXT NOT NULL DEFAULT '[]',
		trump_suit       TEXT NOT NULL DEFAULT '',
		current_attacker TEXT NOT NULL,
		current_defender TEXT NOT NULL,
		house_rules      TEXT NOT NULL DEFAULT '{}',
		finish_order     TEXT NOT NULL DEFAULT '[]',
		version          INTEGER NOT NULL DEFAULT 1,
		created_at       INTEGER NOT NULL,
		updated_at       INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS players (
		id             TEXT PRIMARY KEY,
		room_id        TEXT NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
		name           TEXT NOT NULL,
		seat           INTEGER NOT NULL,
		status         TEXT NOT NULL,
		role           TEXT NOT NULL,
		cards          TEXT NOT NULL DEFAULT '[]',
		character_type TEXT NOT NULL DEFAULT '',
		avatar         TEXT NOT NULL DEFAULT '',
		character_team TEXT NOT NULL DEFAULT '',
		avatar_number  INTEGER NOT NULL DEFAULT 0,
		visible_cards  TEXT NOT NULL DEFAULT '[]',
		ability_used   INTEGER NOT NULL DEFAULT 0,
		UNIQUE (room_id, name)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_players_room ON players(room_id, seat)`,
}

const sqliteRoomColumns = `id, name, owner, player_limit, player_names, status, deck, active_cards, trump_suit,
	current_attacker, current_defender, house_rules, finish_order, version, created_at, updated_at`

const sqlitePlayerColumns = `id, room_id, name, seat, status, role, cards, character_type, avatar,
	character_team, avatar_number, visible_cards, ability_used`

func (s *SQLiteStore) CreateRoom(ctx context.Context, room *models.Room) error {
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
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO rooms (`+sqliteRoomColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			room.ID.String(), room.Name, room.Owner, room.PlayerLimit, string(doc.PlayerNames), string(room.Status),
			string(doc.Deck), string(doc.ActiveCards), string(room.TrumpSuit), room.CurrentAttacker.String(),
			room.CurrentDefender.String(), string(doc.HouseRules), string(doc.FinishOrder), room.Version,
			room.CreatedAt.UnixMilli(), room.UpdatedAt.UnixMilli(),
		)
		if err != nil {
			return err
		}
		for _, p := range room.Players {
			if err := upsertSQLitePlayer(ctx, tx, p); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteStore) ListRooms(ctx context.Context) ([]*models.Room, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteRoomColumns+` FROM rooms ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	var rooms []*models.Room
	for rows.Next() {
		r, err := scanSQLiteRoom(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		rooms = append(rooms, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, r := range rooms {
		if r.Players, err = s.loadPlayers(ctx, r.ID); err != nil {
			return nil, err
		}
	}
	return rooms, nil
}

func (s *SQLiteStore) LoadRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteRoomColumns+` FROM rooms WHERE id = ?`, id.String())
	room, err := scanSQLiteRoom(row)
	if errors.Is(err, sql.ErrNoRows) {
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

func (s *SQLiteStore) SaveRoom(ctx context.Context, room *models.Room) error {
	doc, err := encodeRoomDoc(room)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE rooms SET
				name = ?, owner = ?, player_limit = ?, player_names = ?, status = ?, deck = ?,
				active_cards = ?, trump_suit = ?, current_attacker = ?, current_defender = ?,
				house_rules = ?, finish_order = ?, version = version + 1, updated_at = ?
			WHERE id = ? AND version = ?`,
			room.Name, room.Owner, room.PlayerLimit, string(doc.PlayerNames), string(room.Status), string(doc.Deck),
			string(doc.ActiveCards), string(room.TrumpSuit), room.CurrentAttacker.String(), room.CurrentDefender.String(),
			string(doc.HouseRules), string(doc.FinishOrder), now.UnixMilli(),
			room.ID.String(), room.Version,
		)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			var exists int
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM rooms WHERE id = ?`, room.ID.String()).Scan(&exists); err != nil {
				return err
			}
			if exists == 0 {
				return game.ErrRoomNotFound
			}
			return game.ErrVersionConflict
		}

		keep := playerIDs(room.Players)
		q := `DELETE FROM players WHERE room_id = ?`
		args := []interface{}{room.ID.String()}
		if len(keep) > 0 {
			q += ` AND id NOT IN (?` + strings.Repeat(", ?", len(keep)-1) + `)`
			for _, id := range keep {
				args = append(args, id)
			}
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
		for _, p := range room.Players {
			if err := upsertSQLitePlayer(ctx, tx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	room.Version++
	room.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) LoadPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqlitePlayerColumns+` FROM players WHERE id = ?`, id.String())
	p, err := scanSQLitePlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, game.ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load player %s: %w", id, err)
	}
	return p, nil
}

func (s *SQLiteStore) SavePlayer(ctx context.Context, player *models.Player) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE rooms SET version = version + 1, updated_at = ? WHERE id = ?`,
			time.Now().UTC().UnixMilli(), player.RoomID.String(),
		)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return game.ErrRoomNotFound
		}
		return upsertSQLitePlayer(ctx, tx, player)
	})
}

func (s *SQLiteStore) loadPlayers(ctx context.Context, roomID uuid.UUID) ([]*models.Player, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sqlitePlayerColumns+` FROM players WHERE room_id = ? ORDER BY seat`, roomID.String())
	if err != nil {
		return nil, fmt.Errorf("load players of %s: %w", roomID, err)
	}
	defer rows.Close()

	var players []*models.Player
	for rows.Next() {
		p, err := scanSQLitePlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return mapSQLiteError(err)
	}
	return mapSQLiteError(tx.Commit())
}

func upsertSQLitePlayer(ctx context.Context, tx *sql.Tx, p *models.Player) error {
	cards, visible, err := encodeHands(p)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO players (`+sqlitePlayerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name, seat = excluded.seat, status = excluded.status, role = excluded.role,
			cards = excluded.cards, character_type = excluded.character_type, avatar = excluded.avatar,
			character_team = excluded.character_team, avatar_number = excluded.avatar_number,
			visible_cards = excluded.visible_cards, ability_used = excluded.ability_used`,
		p.ID.String(), p.RoomID.String(), p.Name, p.Seat, string(p.Status), string(p.Role), string(cards),
		string(p.CharacterType), p.Avatar, p.CharacterTeam, p.AvatarNumber, string(visible), p.AbilityUsed,
	)
	return err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSQLiteRoom(row scanner) (*models.Room, error) {
	var r models.Room
	var id, attacker, defender, status, trump string
	var names, deck, active, rules, finish string
	var created, updated int64
	err := row.Scan(&id, &r.Name, &r.Owner, &r.PlayerLimit, &names, &status, &deck, &active, &trump,
		&attacker, &defender, &rules, &finish, &r.Version, &created, &updated)
	if err != nil {
		return nil, err
	}
	if r.ID, err = parseUUID(id); err != nil {
		return nil, err
	}
	if r.CurrentAttacker, err = parseUUID(attacker); err != nil {
		return nil, err
	}
	if r.CurrentDefender, err = parseUUID(defender); err != nil {
		return nil, err
	}
	r.Status = models.GameStatus(status)
	r.TrumpSuit = models.Suit(trump)
	r.CreatedAt = time.UnixMilli(created).UTC()
	r.UpdatedAt = time.UnixMilli(updated).UTC()

	doc := roomDoc{
		PlayerNames: []byte(names),
		Deck:        []byte(deck),
		ActiveCards: []byte(active),
		HouseRules:  []byte(rules),
		FinishOrder: []byte(finish),
	}
	if err := doc.decodeInto(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

func scanSQLitePlayer(row scanner) (*models.Player, error) {
	var p models.Player
	var id, roomID, status, role string
	var character, cards, visible string
	err := row.Scan(&id, &roomID, &p.Name, &p.Seat, &status, &role, &cards, &character,
		&p.Avatar, &p.CharacterTeam, &p.AvatarNumber, &visible, &p.AbilityUsed)
	if err != nil {
		return nil, err
	}
	if p.ID, err = parseUUID(id); err != nil {
		return nil, err
	}
	if p.RoomID, err = parseUUID(roomID); err != nil {
		return nil, err
	}
	p.Status = models.PlayerStatus(status)
	p.Role = models.PlayerRole(role)
	p.CharacterType = models.CharacterType(character)
	if err := decodeHands(&p, []byte(cards), []byte(visible)); err != nil {
		return nil, err
	}
	return &p, nil
}

func mapSQLiteError(err error) error {
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
		return game.ErrNameTaken
	}
	return err
}
