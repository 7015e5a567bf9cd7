package engine

import "testing"

func TestStandardDeck(t *testing.T) {
	deck := StandardDeck()
	if len(deck) != 52 {
		t.Fatalf("deck size = %d, want 52", len(deck))
	}

	seen := make(map[string]bool)
	for _, c := range deck {
		if seen[c.ID] {
			t.Errorf("duplicate card id %q", c.ID)
		}
		seen[c.ID] = true
	}
}

func TestDeckEffects(t *testing.T) {
	for _, c := range StandardDeck() {
		switch c.Rank {
		case RankAce:
			if c.Effect == nil || c.Effect.Name != LowOrHighAceEffect.Name {
				t.Errorf("%s: want ace value-choice effect, got %+v", c.ID, c.Effect)
			}
		case RankJack:
			if c.Effect == nil || c.Effect.Name != FindFaceCardEffect.Name {
				t.Errorf("%s: want jack search-and-draw effect, got %+v", c.ID, c.Effect)
			}
		default:
			if c.Effect != nil {
				t.Errorf("%s: unexpected effect %+v", c.ID, c.Effect)
			}
		}
	}
}

func TestCardValue(t *testing.T) {
	cases := []struct {
		rank Rank
		want int
	}{
		{RankTwo, 2},
		{RankFive, 5},
		{RankTen, 10},
		{RankAce, 1},
		{RankJack, 10},
		{RankQueen, 10},
		{RankKing, 10},
	}
	for _, tc := range cases {
		if got := CardValue(tc.rank); got != tc.want {
			t.Errorf("CardValue(%s) = %d, want %d", tc.rank, got, tc.want)
		}
	}
}

func TestCardOrder(t *testing.T) {
	cases := []struct {
		rank Rank
		want int
	}{
		{RankAce, 1},
		{RankTwo, 2},
		{RankTen, 10},
		{RankJack, 11},
		{RankQueen, 12},
		{RankKing, 13},
	}
	for _, tc := range cases {
		if got := CardOrder(tc.rank); got != tc.want {
			t.Errorf("CardOrder(%s) = %d, want %d", tc.rank, got, tc.want)
		}
	}
}
