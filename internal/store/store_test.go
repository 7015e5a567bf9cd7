package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
}

func TestStateRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.LoadState(ctx, "room1", KeySnapshot)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SaveState(ctx, "room1", KeySnapshot, `{"phase":"lobby"}`))
	got, err := s.LoadState(ctx, "room1", KeySnapshot)
	require.NoError(t, err)
	assert.Equal(t, `{"phase":"lobby"}`, got)

	// Upsert replaces in place.
	require.NoError(t, s.SaveState(ctx, "room1", KeySnapshot, `{"phase":"setup"}`))
	got, err = s.LoadState(ctx, "room1", KeySnapshot)
	require.NoError(t, err)
	assert.Equal(t, `{"phase":"setup"}`, got)

	// Keys are scoped per room.
	_, err = s.LoadState(ctx, "room2", KeySnapshot)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClearRoom(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveState(ctx, "room1", KeyEventCounter, "12"))
	require.NoError(t, s.UpsertPlayer(ctx, "room1", "p1", "Alice"))
	require.NoError(t, s.SaveState(ctx, "room2", KeyEventCounter, "3"))

	require.NoError(t, s.ClearRoom(ctx, "room1"))

	_, err := s.LoadState(ctx, "room1", KeyEventCounter)
	assert.ErrorIs(t, err, ErrNotFound)
	players, err := s.ListPlayers(ctx, "room1")
	require.NoError(t, err)
	assert.Empty(t, players)

	// Other rooms are untouched.
	got, err := s.LoadState(ctx, "room2", KeyEventCounter)
	require.NoError(t, err)
	assert.Equal(t, "3", got)
}

func TestPlayerRegistry(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertPlayer(ctx, "room1", "p1", "Alice"))
	require.NoError(t, s.UpsertPlayer(ctx, "room1", "p2", "Bob"))
	// Rename on re-register.
	require.NoError(t, s.UpsertPlayer(ctx, "room1", "p1", "Alicia"))

	players, err := s.ListPlayers(ctx, "room1")
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, "p1", players[0].PlayerID)
	assert.Equal(t, "Alicia", players[0].Name)
	assert.Equal(t, "Bob", players[1].Name)

	require.NoError(t, s.RemovePlayer(ctx, "room1", "p1"))
	players, err = s.ListPlayers(ctx, "room1")
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, "p2", players[0].PlayerID)
}

func TestRoomListings(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertRoom(ctx, RoomListing{RoomID: "AAAAAA", PlayerCount: 1, MaxPlayers: 4}))
	require.NoError(t, s.UpsertRoom(ctx, RoomListing{RoomID: "AAAAAA", PlayerCount: 2, MaxPlayers: 4}))
	require.NoError(t, s.UpsertRoom(ctx, RoomListing{RoomID: "222222", PlayerCount: 1, MaxPlayers: 4}))

	rooms, err := s.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	for _, r := range rooms {
		if r.RoomID == "AAAAAA" {
			assert.Equal(t, 2, r.PlayerCount)
		}
	}

	require.NoError(t, s.DeleteRoom(ctx, "AAAAAA"))
	rooms, err = s.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "222222", rooms[0].RoomID)
}

func TestTelemetryLog(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	events, err := s.ListTelemetry(ctx, "room1")
	require.NoError(t, err)
	assert.Empty(t, events)

	require.NoError(t, s.AppendTelemetry(ctx, TelemetryEvent{
		RoomID: "room1", Sequence: 1, ActorID: "p1", Kind: "PLAYER_JOINED",
	}))
	require.NoError(t, s.AppendTelemetry(ctx, TelemetryEvent{
		RoomID: "room1", Sequence: 2, Kind: "PHASE_TRANSITION",
		Payload: `{"from":"lobby","to":"setup"}`,
	}))
	require.NoError(t, s.AppendTelemetry(ctx, TelemetryEvent{
		RoomID: "room2", Sequence: 1, Kind: "PLAYER_JOINED",
	}))

	events, err = s.ListTelemetry(ctx, "room1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "PLAYER_JOINED", events[0].Kind)
	assert.Equal(t, "p1", events[0].ActorID)
	assert.Equal(t, int64(2), events[1].Sequence)
	assert.Equal(t, `{"from":"lobby","to":"setup"}`, events[1].Payload)
	assert.False(t, events[1].CreatedAt.IsZero())

	// The log is append-only: clearing a room leaves its history intact.
	require.NoError(t, s.ClearRoom(ctx, "room1"))
	events, err = s.ListTelemetry(ctx, "room1")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestNilStoreIsSafe(t *testing.T) {
	var s *Store
	ctx := context.Background()

	assert.Error(t, s.SaveState(ctx, "r", "k", "v"))
	_, err := s.LoadState(ctx, "r", "k")
	assert.Error(t, err)
	assert.Error(t, s.AppendTelemetry(ctx, TelemetryEvent{RoomID: "r", Kind: "k"}))
	assert.NoError(t, s.Close())
}
