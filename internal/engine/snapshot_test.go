package engine

import (
	"encoding/json"
	"testing"
)

func TestSnapshotRoundTrip(t *testing.T) {
	m := lobbyWithPlayers(2, "snap")
	runSetup(m)

	snap := m.ToSnapshot()
	raw, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Snapshot
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	restored := FromSnapshot(decoded)
	if restored.State != m.State {
		t.Errorf("state = %+v, want %+v", restored.State, m.State)
	}
	if restored.Ctx.Tally != m.Ctx.Tally || restored.Ctx.Threshold != m.Ctx.Threshold {
		t.Errorf("scoring state lost: got tally=%d threshold=%d",
			restored.Ctx.Tally, restored.Ctx.Threshold)
	}
	if len(restored.Ctx.DrawPile) != len(m.Ctx.DrawPile) {
		t.Fatalf("draw pile = %d cards, want %d",
			len(restored.Ctx.DrawPile), len(m.Ctx.DrawPile))
	}
	for i := range m.Ctx.DrawPile {
		if restored.Ctx.DrawPile[i].ID != m.Ctx.DrawPile[i].ID {
			t.Fatalf("draw pile diverged at %d", i)
		}
	}
	if len(restored.Ctx.Deck) != 52 {
		t.Errorf("deck should be rebuilt on restore, got %d cards", len(restored.Ctx.Deck))
	}
}

// TestSnapshotRestoresRngStream is the property persistence depends on: the
// restored machine's next random draw equals the live machine's next draw.
func TestSnapshotRestoresRngStream(t *testing.T) {
	m := lobbyWithPlayers(2, "stream")
	runSetup(m)

	restored := FromSnapshot(m.ToSnapshot())
	if restored.Ctx.Rng == nil {
		t.Fatal("restored machine lost its RNG")
	}
	for i := 0; i < 5; i++ {
		want := m.Ctx.Rng.Next()
		got := restored.Ctx.Rng.Next()
		if got != want {
			t.Fatalf("draw %d: got %v, want %v", i, got, want)
		}
	}
}

// A snapshot taken mid-game and a live machine fed the same subsequent
// events must stay in lockstep, including through RNG-consuming turns.
func TestSnapshotReplayLockstep(t *testing.T) {
	live := lobbyWithPlayers(2, "lockstep")
	runSetup(live)
	restored := FromSnapshot(live.ToSnapshot())

	script := []Event{
		{Type: EventEndTurn},
		{Type: EventEndTurn},
		{Type: EventEndTurn},
	}
	for _, ev := range script {
		live.Apply(ev)
		restored.Apply(ev)
	}

	a, err := json.Marshal(live.ToSnapshot())
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(restored.ToSnapshot())
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Errorf("machines diverged after replay:\nlive:     %s\nrestored: %s", a, b)
	}
}

func TestSnapshotWireNames(t *testing.T) {
	m := lobbyWithPlayers(2, "wire")
	runSetup(m)

	raw, err := json.Marshal(m.ToSnapshot())
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	var ctx map[string]json.RawMessage
	if err := json.Unmarshal(decoded["context"], &ctx); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{
		"players", "drawPile", "discardPile", "tally", "maxThreshold",
		"wheelAngle", "currentPlayerIndex", "hasSpunThisTurn", "rng",
	} {
		if _, ok := ctx[key]; !ok {
			t.Errorf("context is missing wire field %q", key)
		}
	}
}

func TestFromSnapshotEmptyRoster(t *testing.T) {
	m := FromSnapshot(Snapshot{State: State{Phase: PhaseLobby}})
	if m.Ctx.Players == nil {
		t.Error("restored roster should never be nil")
	}
	join(m, "a", "Alice")
	if len(m.Ctx.Players) != 1 {
		t.Errorf("join after restore failed, roster = %+v", m.Ctx.Players)
	}
}
