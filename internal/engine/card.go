package engine

import "fmt"

// Suit identifies one of the four french suits.
type Suit string

const (
	SuitHearts   Suit = "hearts"
	SuitDiamonds Suit = "diamonds"
	SuitClubs    Suit = "clubs"
	SuitSpades   Suit = "spades"
)

// Rank identifies a card rank, "2".."10" plus the court cards and the Ace.
type Rank string

const (
	RankTwo   Rank = "2"
	RankThree Rank = "3"
	RankFour  Rank = "4"
	RankFive  Rank = "5"
	RankSix   Rank = "6"
	RankSeven Rank = "7"
	RankEight Rank = "8"
	RankNine  Rank = "9"
	RankTen   Rank = "10"
	RankJack  Rank = "J"
	RankQueen Rank = "Q"
	RankKing  Rank = "K"
	RankAce   Rank = "A"
)

// Suits lists all suits in deck-construction order.
var Suits = []Suit{SuitHearts, SuitDiamonds, SuitClubs, SuitSpades}

// Ranks lists all ranks in deck-construction order.
var Ranks = []Rank{
	RankTwo, RankThree, RankFour, RankFive, RankSix, RankSeven, RankEight,
	RankNine, RankTen, RankJack, RankQueen, RankKing, RankAce,
}

// CardEffect is a choice descriptor attached to a card at deck construction.
// Effects are assigned deterministically by rank and never mutated afterward.
type CardEffect struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LowOrHighAceEffect lets the player choose whether an Ace counts as 1 or 11.
var LowOrHighAceEffect = CardEffect{
	Type:        "choice",
	Name:        "Biggy Smalls",
	Description: "Choose whether the value of this Ace is 1 or 11!",
}

// FindFaceCardEffect lets the player search the draw pile for a court card.
var FindFaceCardEffect = CardEffect{
	Type:        "choice",
	Name:        "Courtship",
	Description: "Try to draw your choice of a date!",
}

// Card is an immutable card value. Effect is nil for cards without one.
type Card struct {
	ID     string      `json:"id"`
	Suit   Suit        `json:"suit"`
	Rank   Rank        `json:"rank"`
	Effect *CardEffect `json:"effect,omitempty"`
}

// NewCard constructs a card, attaching the rank's effect where one exists.
func NewCard(suit Suit, rank Rank) Card {
	c := Card{
		ID:   fmt.Sprintf("%s-%s", suit, rank),
		Suit: suit,
		Rank: rank,
	}
	switch rank {
	case RankAce:
		effect := LowOrHighAceEffect
		c.Effect = &effect
	case RankJack:
		effect := FindFaceCardEffect
		c.Effect = &effect
	}
	return c
}

// StandardDeck returns the 52-card deck in construction order.
func StandardDeck() []Card {
	deck := make([]Card, 0, len(Suits)*len(Ranks))
	for _, suit := range Suits {
		for _, rank := range Ranks {
			deck = append(deck, NewCard(suit, rank))
		}
	}
	return deck
}

// PlayedCard is produced once when a card leaves a hand and is immutable
// thereafter. PlayedBy is empty for the setup-phase first card.
type PlayedCard struct {
	Card        Card   `json:"card"`
	PlayedValue int    `json:"playedValue"`
	PlayedBy    string `json:"playedBy,omitempty"`
}

// CardValue returns the scoring value added to the tally when a card of this
// rank is played: Ace 1 (before any effect), court cards 10, face value
// otherwise.
func CardValue(rank Rank) int {
	switch rank {
	case RankAce:
		return 1
	case RankJack, RankQueen, RankKing:
		return 10
	case RankTen:
		return 10
	case RankTwo:
		return 2
	case RankThree:
		return 3
	case RankFour:
		return 4
	case RankFive:
		return 5
	case RankSix:
		return 6
	case RankSeven:
		return 7
	case RankEight:
		return 8
	case RankNine:
		return 9
	}
	return 0
}

// CardOrder maps ranks onto the total order used by the beats-top-card rule:
// A=1, 2..10 face value, J=11, Q=12, K=13. Distinct from CardValue, which
// collapses the court cards to 10 for scoring.
func CardOrder(rank Rank) int {
	switch rank {
	case RankAce:
		return 1
	case RankJack:
		return 11
	case RankQueen:
		return 12
	case RankKing:
		return 13
	}
	return CardValue(rank)
}
