// Package store persists room state in SQLite so sessions survive server
// restarts. It holds four kinds of records per room: opaque key/value game
// state (the machine snapshot, the event counter, the last broadcast turn
// index), the player registry used for reconnection, the room listings the
// directory advertises for quick play, and an append-only telemetry log.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Well-known game-state keys.
const (
	KeySnapshot        = "snapshot"
	KeyEventCounter    = "eventCounter"
	KeyLastPlayerIndex = "lastPlayerIndex"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// RegisteredPlayer is one player_registry row.
type RegisteredPlayer struct {
	PlayerID string
	Name     string
	JoinedAt time.Time
}

// RoomListing is one available_rooms row, mirroring what the directory
// advertises to quick-play clients.
type RoomListing struct {
	RoomID      string
	PlayerCount int
	MaxPlayers  int
	UpdatedAt   time.Time
}

// TelemetryEvent is one telemetry_events row. Payload holds a JSON object or
// the empty string.
type TelemetryEvent struct {
	RoomID    string
	Sequence  int64
	ActorID   string
	Kind      string
	Payload   string
	CreatedAt time.Time
}

// Store wraps the SQLite handle. The zero value and a nil pointer are safe
// to call; every method reports an unconfigured store instead of panicking.
type Store struct {
	sqlDB *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS game_state (
  room_id TEXT NOT NULL,
  key     TEXT NOT NULL,
  value   TEXT NOT NULL,
  updated_at INTEGER NOT NULL,
  PRIMARY KEY (room_id, key)
);
CREATE TABLE IF NOT EXISTS player_registry (
  room_id   TEXT NOT NULL,
  player_id TEXT NOT NULL,
  name      TEXT NOT NULL,
  joined_at INTEGER NOT NULL,
  PRIMARY KEY (room_id, player_id)
);
CREATE TABLE IF NOT EXISTS available_rooms (
  room_id      TEXT PRIMARY KEY,
  player_count INTEGER NOT NULL,
  max_players  INTEGER NOT NULL,
  updated_at   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS telemetry_events (
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  room_id    TEXT NOT NULL,
  sequence   INTEGER NOT NULL,
  actor_id   TEXT NOT NULL DEFAULT '',
  kind       TEXT NOT NULL,
  payload    TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS telemetry_events_room ON telemetry_events (room_id, id);
`

// Open opens (creating if needed) the SQLite database at path and ensures
// the schema exists.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// SaveState upserts one key/value pair for a room.
func (s *Store) SaveState(ctx context.Context, roomID, key, value string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO game_state (room_id, key, value, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (room_id, key) DO UPDATE SET
		   value = excluded.value, updated_at = excluded.updated_at`,
		roomID, key, value, toMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("save state %s/%s: %w", roomID, key, err)
	}
	return nil
}

// LoadState returns the value stored under (roomID, key), or ErrNotFound.
func (s *Store) LoadState(ctx context.Context, roomID, key string) (string, error) {
	if s == nil || s.sqlDB == nil {
		return "", fmt.Errorf("storage is not configured")
	}
	var value string
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT value FROM game_state WHERE room_id = ? AND key = ?`,
		roomID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load state %s/%s: %w", roomID, key, err)
	}
	return value, nil
}

// ClearRoom removes every record for a room: game state and registry. Room
// listings are owned by the directory and cleaned separately.
func (s *Store) ClearRoom(ctx context.Context, roomID string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("clear room %s: %w", roomID, err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM game_state WHERE room_id = ?`, roomID); err != nil {
		return fmt.Errorf("clear room %s: %w", roomID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM player_registry WHERE room_id = ?`, roomID); err != nil {
		return fmt.Errorf("clear room %s: %w", roomID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("clear room %s: %w", roomID, err)
	}
	return nil
}

// UpsertPlayer records a player in the room registry.
func (s *Store) UpsertPlayer(ctx context.Context, roomID, playerID, name string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO player_registry (room_id, player_id, name, joined_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (room_id, player_id) DO UPDATE SET name = excluded.name`,
		roomID, playerID, name, toMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("upsert player %s/%s: %w", roomID, playerID, err)
	}
	return nil
}

// RemovePlayer deletes a player from the room registry.
func (s *Store) RemovePlayer(ctx context.Context, roomID, playerID string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM player_registry WHERE room_id = ? AND player_id = ?`,
		roomID, playerID,
	)
	if err != nil {
		return fmt.Errorf("remove player %s/%s: %w", roomID, playerID, err)
	}
	return nil
}

// ListPlayers returns the registry for a room in join order.
func (s *Store) ListPlayers(ctx context.Context, roomID string) ([]RegisteredPlayer, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT player_id, name, joined_at
		   FROM player_registry
		  WHERE room_id = ?
		  ORDER BY joined_at ASC, player_id ASC`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("list players %s: %w", roomID, err)
	}
	defer rows.Close()

	var players []RegisteredPlayer
	for rows.Next() {
		var p RegisteredPlayer
		var joined int64
		if err := rows.Scan(&p.PlayerID, &p.Name, &joined); err != nil {
			return nil, fmt.Errorf("list players %s: %w", roomID, err)
		}
		p.JoinedAt = time.UnixMilli(joined).UTC()
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list players %s: %w", roomID, err)
	}
	return players, nil
}

// AppendTelemetry inserts one row into the append-only telemetry log.
// Rows are never updated or deleted; ClearRoom leaves them in place.
func (s *Store) AppendTelemetry(ctx context.Context, ev TelemetryEvent) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO telemetry_events (room_id, sequence, actor_id, kind, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.RoomID, ev.Sequence, ev.ActorID, ev.Kind, ev.Payload, toMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("append telemetry %s/%s: %w", ev.RoomID, ev.Kind, err)
	}
	return nil
}

// ListTelemetry returns a room's telemetry log in insertion order.
func (s *Store) ListTelemetry(ctx context.Context, roomID string) ([]TelemetryEvent, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT room_id, sequence, actor_id, kind, payload, created_at
		   FROM telemetry_events
		  WHERE room_id = ?
		  ORDER BY id ASC`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("list telemetry %s: %w", roomID, err)
	}
	defer rows.Close()

	var events []TelemetryEvent
	for rows.Next() {
		var ev TelemetryEvent
		var created int64
		if err := rows.Scan(&ev.RoomID, &ev.Sequence, &ev.ActorID, &ev.Kind, &ev.Payload, &created); err != nil {
			return nil, fmt.Errorf("list telemetry %s: %w", roomID, err)
		}
		ev.CreatedAt = time.UnixMilli(created).UTC()
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list telemetry %s: %w", roomID, err)
	}
	return events, nil
}

// UpsertRoom records or refreshes a directory listing.
func (s *Store) UpsertRoom(ctx context.Context, listing RoomListing) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO available_rooms (room_id, player_count, max_players, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (room_id) DO UPDATE SET
		   player_count = excluded.player_count,
		   max_players = excluded.max_players,
		   updated_at = excluded.updated_at`,
		listing.RoomID, listing.PlayerCount, listing.MaxPlayers, toMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("upsert room %s: %w", listing.RoomID, err)
	}
	return nil
}

// DeleteRoom removes a directory listing.
func (s *Store) DeleteRoom(ctx context.Context, roomID string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	_, err := s.sqlDB.ExecContext(ctx, `DELETE FROM available_rooms WHERE room_id = ?`, roomID)
	if err != nil {
		return fmt.Errorf("delete room %s: %w", roomID, err)
	}
	return nil
}

// ListRooms returns every advertised room, most recently updated first.
func (s *Store) ListRooms(ctx context.Context) ([]RoomListing, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT room_id, player_count, max_players, updated_at
		   FROM available_rooms
		  ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var listings []RoomListing
	for rows.Next() {
		var l RoomListing
		var updated int64
		if err := rows.Scan(&l.RoomID, &l.PlayerCount, &l.MaxPlayers, &updated); err != nil {
			return nil, fmt.Errorf("list rooms: %w", err)
		}
		l.UpdatedAt = time.UnixMilli(updated).UTC()
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return listings, nil
}
