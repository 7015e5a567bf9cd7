package engine

import "testing"

func TestCanPlayerSendEvent(t *testing.T) {
	ctx := &Context{
		Players: twoPlayers(),
		// p1's turn.
		CurrentPlayerIndex: 0,
	}

	tests := []struct {
		name    string
		ev      Event
		actor   string
		spun    bool
		allowed bool
		reason  string
	}{
		{
			name:    "current player may choose a card",
			ev:      Event{Type: EventChooseCard, CardID: "hearts-5"},
			actor:   "p1",
			allowed: true,
		},
		{
			name:    "other player may not choose a card",
			ev:      Event{Type: EventChooseCard, CardID: "hearts-5"},
			actor:   "p2",
			allowed: false,
			reason:  "Not your turn",
		},
		{
			name:    "other player may not end the turn",
			ev:      Event{Type: EventEndTurn},
			actor:   "p2",
			allowed: false,
			reason:  "Not your turn",
		},
		{
			name:    "current player may spin",
			ev:      Event{Type: EventWheelSpun, Angle: 270},
			actor:   "p1",
			allowed: true,
		},
		{
			name:    "current player may not spin twice",
			ev:      Event{Type: EventWheelSpun, Angle: 270},
			actor:   "p1",
			spun:    true,
			allowed: false,
			reason:  "Already spun this turn",
		},
		{
			name:    "other player may not spin",
			ev:      Event{Type: EventWheelSpun, Angle: 270},
			actor:   "p2",
			allowed: false,
			reason:  "Not your turn",
		},
		{
			name:    "any player may surrender",
			ev:      Event{Type: EventSurrender},
			actor:   "p2",
			allowed: true,
		},
		{
			name:    "any player may ready up",
			ev:      Event{Type: EventPlayerReady, PlayerID: "p2"},
			actor:   "p2",
			allowed: true,
		},
		{
			name:    "any player may start the game",
			ev:      Event{Type: EventStartGame},
			actor:   "p2",
			allowed: true,
		},
		{
			name:    "unlisted events pass through",
			ev:      Event{Type: EventPlayAgain},
			actor:   "p2",
			allowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx.HasSpunThisTurn = tt.spun
			got := CanPlayerSendEvent(ctx, tt.ev, tt.actor)
			if got.Allowed != tt.allowed {
				t.Fatalf("allowed = %v, want %v", got.Allowed, tt.allowed)
			}
			if got.Reason != tt.reason {
				t.Errorf("reason = %q, want %q", got.Reason, tt.reason)
			}
		})
	}
}

func TestCanPlayerSendEventEmptyRoster(t *testing.T) {
	ctx := &Context{}
	got := CanPlayerSendEvent(ctx, Event{Type: EventEndTurn}, "p1")
	if got.Allowed {
		t.Error("turn-bound events must be rejected when there is no current player")
	}
}
