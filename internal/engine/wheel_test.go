package engine

import (
	"testing"

	"github.com/johnnify/min-or-max/internal/rng"
)

func TestModeFromWheelAngle(t *testing.T) {
	cases := []struct {
		angle int
		want  WheelMode
	}{
		{0, ModeMax},
		{90, ModeMax},
		{179, ModeMax},
		{180, ModeMin},
		{270, ModeMin},
		{359, ModeMin},
		{360, ModeMax},
		{450, ModeMax},
		{540, ModeMin},
		{720, ModeMax},
		{-90, ModeMin},
		{-180, ModeMin},
		{-270, ModeMax},
		{2880, ModeMax},
		{2970, ModeMax},
	}
	for _, tc := range cases {
		if got := ModeFromWheelAngle(tc.angle); got != tc.want {
			t.Errorf("ModeFromWheelAngle(%d) = %s, want %s", tc.angle, got, tc.want)
		}
	}
}

// TestModePeriodicity verifies mode(a) == mode(a+360k).
func TestModePeriodicity(t *testing.T) {
	for angle := -360; angle < 360; angle += 7 {
		base := ModeFromWheelAngle(angle)
		for _, k := range []int{-3, -1, 1, 2, 8} {
			if got := ModeFromWheelAngle(angle + 360*k); got != base {
				t.Errorf("mode(%d) = %s, mode(%d) = %s", angle, base, angle+360*k, got)
			}
		}
	}
}

func TestCanBeatTopCard(t *testing.T) {
	card := func(rank Rank) Card { return NewCard(SuitHearts, rank) }
	top := func(rank Rank) *Card {
		c := NewCard(SuitSpades, rank)
		return &c
	}

	cases := []struct {
		name  string
		card  Card
		top   *Card
		angle int
		want  bool
	}{
		{"no top card", card(RankFive), nil, 90, true},
		{"ace beats king in max mode", card(RankAce), top(RankKing), 90, true},
		{"ace beats king in min mode", card(RankAce), top(RankKing), 270, true},
		{"two beats ace in max mode", card(RankTwo), top(RankAce), 90, true},
		{"two beats ace in min mode", card(RankTwo), top(RankAce), 270, true},
		{"max: equal order allowed", card(RankFive), top(RankFive), 90, true},
		{"max: higher order allowed", card(RankSix), top(RankFive), 90, true},
		{"max: king beats five", card(RankKing), top(RankFive), 90, true},
		{"max: lower order rejected", card(RankFour), top(RankFive), 90, false},
		{"min: equal order allowed", card(RankFive), top(RankFive), 270, true},
		{"min: lower order allowed", card(RankTwo), top(RankFive), 270, true},
		{"min: higher order rejected", card(RankSix), top(RankFive), 270, false},
		{"min: king rejected on five", card(RankKing), top(RankFive), 270, false},
		{"max: queen beats jack", card(RankQueen), top(RankJack), 90, true},
		{"max: nine loses to jack", card(RankNine), top(RankJack), 90, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanBeatTopCard(tc.card, tc.top, tc.angle); got != tc.want {
				t.Errorf("CanBeatTopCard = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSpinDistanceBands(t *testing.T) {
	cases := []struct {
		force    float64
		min, max int
	}{
		{0, 15, 90},
		{0.1, 15, 90},
		{0.26, 45, 180},
		{0.5, 45, 180},
		{0.51, 90, 360},
		{0.999, 90, 360},
		{1, 360, 2880},
	}
	for _, tc := range cases {
		r := rng.New("spin")
		got := SpinDistance(tc.force, r)
		if got < tc.min || got > tc.max {
			t.Errorf("SpinDistance(%v) = %d, want in [%d,%d]", tc.force, got, tc.min, tc.max)
		}
		if r.CallCount() != 1 {
			t.Errorf("SpinDistance(%v) consumed %d draws, want 1", tc.force, r.CallCount())
		}
	}
}

// TestSpinDistanceDeadZone verifies forces between bands travel zero degrees
// and consume no draw.
func TestSpinDistanceDeadZone(t *testing.T) {
	for _, force := range []float64{0.15, 0.2, 0.25, 1.5, -0.1} {
		r := rng.New("dead")
		if got := SpinDistance(force, r); got != 0 {
			t.Errorf("SpinDistance(%v) = %d, want 0", force, got)
		}
		if r.CallCount() != 0 {
			t.Errorf("SpinDistance(%v) consumed a draw in the dead zone", force)
		}
	}
}

func TestSpinDistanceNilRng(t *testing.T) {
	if got := SpinDistance(0.5, nil); got != 0 {
		t.Errorf("SpinDistance with nil rng = %d, want 0", got)
	}
}
