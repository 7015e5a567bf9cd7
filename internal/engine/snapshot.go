package engine

import "github.com/johnnify/min-or-max/internal/rng"

// Snapshot is a complete, serializable copy of a machine sufficient to
// resume play. The RNG is stored as (seed, callCount) and re-derived on
// restore; the static deck is rebuilt rather than persisted.
type Snapshot struct {
	State   State           `json:"state"`
	Context SnapshotContext `json:"context"`
}

// SnapshotContext mirrors Context minus the deck and with the RNG flattened
// into its replayable form.
type SnapshotContext struct {
	Players            []Player       `json:"players"`
	DrawPile           []Card         `json:"drawPile"`
	Discard            []PlayedCard   `json:"discardPile"`
	Tally              int            `json:"tally"`
	Threshold          int            `json:"maxThreshold"`
	WheelAngle         int            `json:"wheelAngle"`
	CurrentPlayerIndex int            `json:"currentPlayerIndex"`
	HasSpunThisTurn    bool           `json:"hasSpunThisTurn"`
	ChosenCard         *Card          `json:"chosenCard,omitempty"`
	ActiveEffects      []ActiveEffect `json:"activeEffects,omitempty"`
	Winner             *Player        `json:"winner,omitempty"`
	Losers             []Player       `json:"losers,omitempty"`
	Reason             Reason         `json:"reason,omitempty"`
	Rng                *rng.Snapshot  `json:"rng,omitempty"`
}

// ToSnapshot captures the machine for persistence or client sync.
func (m *Machine) ToSnapshot() Snapshot {
	ctx := m.Ctx.clone()
	snap := Snapshot{
		State: m.State,
		Context: SnapshotContext{
			Players:            ctx.Players,
			DrawPile:           ctx.DrawPile,
			Discard:            ctx.Discard,
			Tally:              ctx.Tally,
			Threshold:          ctx.Threshold,
			WheelAngle:         ctx.WheelAngle,
			CurrentPlayerIndex: ctx.CurrentPlayerIndex,
			HasSpunThisTurn:    ctx.HasSpunThisTurn,
			ChosenCard:         ctx.ChosenCard,
			ActiveEffects:      ctx.ActiveEffects,
			Winner:             ctx.Winner,
			Losers:             ctx.Losers,
			Reason:             ctx.Reason,
		},
	}
	if ctx.Rng != nil {
		rngSnap := ctx.Rng.ToSnapshot()
		snap.Context.Rng = &rngSnap
	}
	return snap
}

// FromSnapshot reconstructs a machine, replaying the RNG to its recorded
// call count so the next draw matches what the live machine would have drawn.
func FromSnapshot(snap Snapshot) *Machine {
	m := &Machine{
		State: snap.State,
		Ctx: Context{
			Players:            snap.Context.Players,
			Deck:               StandardDeck(),
			DrawPile:           snap.Context.DrawPile,
			Discard:            snap.Context.Discard,
			Tally:              snap.Context.Tally,
			Threshold:          snap.Context.Threshold,
			WheelAngle:         snap.Context.WheelAngle,
			CurrentPlayerIndex: snap.Context.CurrentPlayerIndex,
			HasSpunThisTurn:    snap.Context.HasSpunThisTurn,
			ChosenCard:         snap.Context.ChosenCard,
			ActiveEffects:      snap.Context.ActiveEffects,
			Winner:             snap.Context.Winner,
			Losers:             snap.Context.Losers,
			Reason:             snap.Context.Reason,
		},
	}
	if snap.Context.Rng != nil {
		m.Ctx.Rng = rng.FromSnapshot(*snap.Context.Rng)
	}
	if m.Ctx.Players == nil {
		m.Ctx.Players = []Player{}
	}
	return m
}
