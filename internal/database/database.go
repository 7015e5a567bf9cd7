// Package database archives finished matches to Postgres. Like the telemetry
// queue this integration is optional: a nil pool turns every archive call
// into a no-op, so a bare deployment needs no Postgres at all.
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// DB is the shared connection pool. Nil when DATABASE_URL is unset.
var DB *pgxpool.Pool

// MatchOutcome is the archived record of one finished game.
type MatchOutcome struct {
	RoomID     string         `json:"roomId"`
	WinnerID   string         `json:"winnerId"`
	WinnerName string         `json:"winnerName"`
	Reason     string         `json:"reason"`
	Tally      int            `json:"tally"`
	Threshold  int            `json:"threshold"`
	Wins       map[string]int `json:"wins"`
}

// Connect initializes the shared pool and ensures the archive table exists.
func Connect(ctx context.Context, url string) error {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping postgres: %w", err)
	}
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS match_outcomes (
		  id BIGSERIAL PRIMARY KEY,
		  room_id TEXT NOT NULL,
		  winner_id TEXT NOT NULL,
		  reason TEXT NOT NULL,
		  outcome JSONB NOT NULL,
		  finished_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		pool.Close()
		return fmt.Errorf("ensure match_outcomes table: %w", err)
	}
	DB = pool
	logrus.Info("database: connected to postgres")
	return nil
}

// ArchiveMatchOutcome inserts one finished-match record. Safe to call with a
// nil pool.
func ArchiveMatchOutcome(ctx context.Context, outcome MatchOutcome) error {
	if DB == nil {
		return nil
	}
	raw, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("marshal match outcome: %w", err)
	}
	_, err = DB.Exec(ctx,
		`INSERT INTO match_outcomes (room_id, winner_id, reason, outcome)
		 VALUES ($1, $2, $3, $4)`,
		outcome.RoomID, outcome.WinnerID, outcome.Reason, raw,
	)
	if err != nil {
		return fmt.Errorf("archive match outcome: %w", err)
	}
	return nil
}
