package engine

import "github.com/johnnify/min-or-max/internal/rng"

const (
	// MinPlayers is the smallest roster a game may start with.
	MinPlayers = 2
	// MaxPlayers caps the roster; joins beyond this are rejected.
	MaxPlayers = 4

	// CardsPerPlayer is dealt to each player during setup.
	CardsPerPlayer = 3

	// BaseWheelAngle is the wheel position before the initial setup spin and
	// after every reset to the lobby.
	BaseWheelAngle = 90
)

// Player identity is stable across reconnects: it is keyed by the
// application-level id, never by a connection. Hand and readiness survive
// socket churn.
type Player struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsReady bool   `json:"isReady"`
	Wins    int    `json:"wins"`
	Hand    []Card `json:"hand"`
}

// EffectKind distinguishes the two queued modifier shapes.
type EffectKind string

const (
	EffectValueAdder      EffectKind = "value-adder"
	EffectValueMultiplier EffectKind = "value-multiplier"
)

// ActiveEffect is a queued modifier consumed exactly once per play. Each play
// decrements StacksRemaining; effects at zero stacks are discarded.
type ActiveEffect struct {
	Kind            EffectKind `json:"type"`
	Value           int        `json:"value"`
	StacksRemaining int        `json:"stacksRemaining"`
}

// Reason explains a terminal transition.
type Reason string

const (
	ReasonExactThreshold    Reason = "exact_threshold"
	ReasonExceededThreshold Reason = "exceeded_threshold"
	ReasonSurrendered       Reason = "surrendered"
)

// Context is the machine's working state. Transitions replace it wholesale:
// Apply copies the context, mutates the copy and swaps it in, so a held
// reference to an old context never observes later turns. The one shared
// piece is the Rng, whose draw count only ever moves forward.
type Context struct {
	Players   []Player
	Deck      []Card
	Rng       *rng.Rng
	DrawPile  []Card
	Discard   []PlayedCard
	Tally     int
	Threshold int

	WheelAngle         int
	CurrentPlayerIndex int
	HasSpunThisTurn    bool

	ChosenCard    *Card
	ActiveEffects []ActiveEffect

	Winner *Player
	Losers []Player
	Reason Reason
}

// clone deep-copies everything a transition may touch. The Rng pointer is
// shared on purpose; see the Context doc comment.
func (c Context) clone() Context {
	out := c

	out.Players = make([]Player, len(c.Players))
	for i, p := range c.Players {
		out.Players[i] = p
		out.Players[i].Hand = append([]Card(nil), p.Hand...)
	}
	out.Deck = append([]Card(nil), c.Deck...)
	out.DrawPile = append([]Card(nil), c.DrawPile...)
	out.Discard = append([]PlayedCard(nil), c.Discard...)
	out.ActiveEffects = append([]ActiveEffect(nil), c.ActiveEffects...)
	out.Losers = append([]Player(nil), c.Losers...)

	if c.ChosenCard != nil {
		chosen := *c.ChosenCard
		out.ChosenCard = &chosen
	}
	if c.Winner != nil {
		winner := *c.Winner
		out.Winner = &winner
	}
	return out
}

// CurrentPlayer returns the player whose turn it is, or nil for an empty
// roster. Desynchronized callers get a nil rather than a panic.
func (c *Context) CurrentPlayer() *Player {
	if len(c.Players) == 0 || c.CurrentPlayerIndex >= len(c.Players) {
		return nil
	}
	return &c.Players[c.CurrentPlayerIndex]
}

// TopDiscard returns the most recently played card, or nil if the discard
// pile is empty.
func (c *Context) TopDiscard() *Card {
	if len(c.Discard) == 0 {
		return nil
	}
	return &c.Discard[0].Card
}

// playerByID returns the roster entry with the given id, or nil.
func (c *Context) playerByID(id string) *Player {
	for i := range c.Players {
		if c.Players[i].ID == id {
			return &c.Players[i]
		}
	}
	return nil
}

// Outcome is populated only on a terminal transition.
type Outcome struct {
	Winner *Player  `json:"winner"`
	Losers []Player `json:"losers"`
	Reason Reason   `json:"reason"`
}

// Outcome returns the terminal result, or nil while the game is live.
func (c *Context) Outcome() *Outcome {
	if c.Winner == nil && c.Reason == "" {
		return nil
	}
	return &Outcome{Winner: c.Winner, Losers: c.Losers, Reason: c.Reason}
}
