package engine

import "testing"

func TestDetermineAutoPlayActionPlaysFirstLegalCard(t *testing.T) {
	three := NewCard(SuitClubs, RankThree)
	nine := NewCard(SuitHearts, RankNine)
	ctx := &Context{
		Players: twoPlayers([]Card{three, nine}),
		Discard: []PlayedCard{{Card: NewCard(SuitSpades, RankFive), PlayedValue: 5}},
		// Max mode: the three loses to the five, the nine beats it.
		WheelAngle: 90,
	}

	action := DetermineAutoPlayAction(ctx, "p1")
	if action == nil || action.Type != AutoPlayCard {
		t.Fatalf("action = %+v, want play_card", action)
	}
	if action.CardID != nine.ID {
		t.Errorf("cardId = %s, want %s", action.CardID, nine.ID)
	}
}

func TestDetermineAutoPlayActionHandOrderWins(t *testing.T) {
	// Both cards are legal in min mode; the first in hand order is picked.
	three := NewCard(SuitClubs, RankThree)
	two := NewCard(SuitHearts, RankTwo)
	ctx := &Context{
		Players:    twoPlayers([]Card{three, two}),
		Discard:    []PlayedCard{{Card: NewCard(SuitSpades, RankFive), PlayedValue: 5}},
		WheelAngle: 270,
	}

	action := DetermineAutoPlayAction(ctx, "p1")
	if action == nil || action.CardID != three.ID {
		t.Fatalf("action = %+v, want the three of clubs", action)
	}
}

func TestDetermineAutoPlayActionSpinsWhenStuck(t *testing.T) {
	three := NewCard(SuitClubs, RankThree)
	ctx := &Context{
		Players:    twoPlayers([]Card{three}),
		Discard:    []PlayedCard{{Card: NewCard(SuitSpades, RankKing), PlayedValue: 10}},
		WheelAngle: 90,
	}

	action := DetermineAutoPlayAction(ctx, "p1")
	if action == nil || action.Type != AutoSpin {
		t.Fatalf("action = %+v, want spin", action)
	}
}

func TestDetermineAutoPlayActionEndsTurnAfterSpin(t *testing.T) {
	three := NewCard(SuitClubs, RankThree)
	ctx := &Context{
		Players:         twoPlayers([]Card{three}),
		Discard:         []PlayedCard{{Card: NewCard(SuitSpades, RankKing), PlayedValue: 10}},
		WheelAngle:      90,
		HasSpunThisTurn: true,
	}

	action := DetermineAutoPlayAction(ctx, "p1")
	if action == nil || action.Type != AutoEndTurn {
		t.Fatalf("action = %+v, want end_turn", action)
	}
}

func TestDetermineAutoPlayActionNotCurrentPlayer(t *testing.T) {
	ctx := &Context{Players: twoPlayers()}
	if action := DetermineAutoPlayAction(ctx, "p2"); action != nil {
		t.Errorf("action = %+v, want nil for a non-current player", action)
	}
	if action := DetermineAutoPlayAction(&Context{}, "p1"); action != nil {
		t.Errorf("action = %+v, want nil with no players", action)
	}
}

func TestDetermineAutoPlayActionEmptyDiscard(t *testing.T) {
	// Nil top card: anything is legal, so the first card plays.
	three := NewCard(SuitClubs, RankThree)
	ctx := &Context{Players: twoPlayers([]Card{three})}
	action := DetermineAutoPlayAction(ctx, "p1")
	if action == nil || action.Type != AutoPlayCard || action.CardID != three.ID {
		t.Fatalf("action = %+v, want play of the only card", action)
	}
}
