// internal/database/db.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// Connect opens a pgx pool for dsn and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	logrus.Infof("connected to database at %s:%d/%s", config.ConnConfig.Host, config.ConnConfig.Port, config.ConnConfig.Database)
	return pool, nil
}

// EnsureSchema creates the tables used by PostgresStore and the historian.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS rooms (
		id               UUID PRIMARY KEY,
		name             TEXT NOT NULL,
		owner            TEXT NOT NULL,
		player_limit     INT NOT NULL,
		player_names     JSONB NOT NULL DEFAULT '[]',
		status           TEXT NOT NULL DEFAULT 'waiting',
		deck             JSONB NOT NULL DEFAULT '[]',
		active_cards     JSONB NOT NULL DEFAULT '[]',
		trump_suit       TEXT NOT NULL DEFAULT '',
		current_attacker UUID NOT NULL,
		current_defender UUID NOT NULL,
		house_rules      JSONB NOT NULL DEFAULT '{}',
		finish_order     JSONB NOT NULL DEFAULT '[]',
		version          BIGINT NOT NULL DEFAULT 1,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS players (
		id             UUID PRIMARY KEY,
		room_id        UUID NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
		name           TEXT NOT NULL,
		seat           INT NOT NULL,
		status         TEXT NOT NULL,
		role           TEXT NOT NULL,
		cards          JSONB NOT NULL DEFAULT '[]',
		character_type TEXT NOT NULL DEFAULT '',
		avatar         TEXT NOT NULL DEFAULT '',
		character_team TEXT NOT NULL DEFAULT '',
		avatar_number  INT NOT NULL DEFAULT 0,
		visible_cards  JSONB NOT NULL DEFAULT '[]',
		ability_used   BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE (room_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS room_history (
		room_id    UUID PRIMARY KEY,
		status     TEXT NOT NULL,
		start_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		end_time   TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS game_actions (
		room_id         UUID NOT NULL,
		action_index    BIGINT NOT NULL,
		actor_player_id UUID NOT NULL,
		action_type     TEXT NOT NULL,
		action_payload  JSONB NOT NULL DEFAULT '{}',
		created_at      TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (room_id, action_index)
	)`,
}
