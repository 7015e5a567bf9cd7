// Package engine implements the Min-or-Max rules state machine.
//
// The machine is pure: Transition takes a state, a context and an event and
// returns the successor pair without touching the inputs. Unconditional
// follow-ups (the setup pipeline hand-off into play, the turn-start draw, the
// post-play termination guards) resolve inside Transition so callers only
// ever observe stable states. All randomness flows through the context's
// seeded Rng, which makes identical (seed, event-sequence) pairs produce
// bit-identical outcomes.
package engine

import (
	"strconv"
	"time"

	"github.com/johnnify/min-or-max/internal/rng"
)

// Phase is the machine's top-level state.
type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseSetup    Phase = "setup"
	PhasePlaying  Phase = "playing"
	PhaseGameOver Phase = "gameOver"
)

// SetupStep orders the strictly linear setup pipeline.
type SetupStep string

const (
	SetupShufflingPile        SetupStep = "shufflingPile"
	SetupDealingCards         SetupStep = "dealingCards"
	SetupGeneratingThresholds SetupStep = "generatingThresholds"
	SetupSpinningInitialWheel SetupStep = "spinningInitialWheel"
	SetupPlayingFirstCard     SetupStep = "playingFirstCard"
)

// TurnStep is the stable sub-state within a player's turn. Transient steps
// (turn start, card processing) never escape Transition.
type TurnStep string

const (
	TurnAwaitingAction    TurnStep = "awaitingAction"
	TurnConfiguringEffect TurnStep = "configuringEffect"
	TurnPostCardPlay      TurnStep = "postCardPlay"
)

// State is the machine's full position: the phase plus whichever sub-state
// applies to it.
type State struct {
	Phase     Phase     `json:"phase"`
	SetupStep SetupStep `json:"setupStep,omitempty"`
	TurnStep  TurnStep  `json:"turnStep,omitempty"`
}

// Machine couples a State with its Context and owns their joint evolution.
type Machine struct {
	State State
	Ctx   Context
}

// NewMachine returns a machine in the lobby with an empty roster, the
// standard deck, the wheel at its base angle and no RNG seed.
func NewMachine() *Machine {
	return &Machine{
		State: State{Phase: PhaseLobby},
		Ctx: Context{
			Deck:       StandardDeck(),
			WheelAngle: BaseWheelAngle,
		},
	}
}

// Apply feeds one event through Transition and swaps in the results.
func (m *Machine) Apply(ev Event) {
	m.State, m.Ctx = Transition(m.State, m.Ctx, ev)
}

// Phase returns the current top-level phase.
func (m *Machine) Phase() Phase { return m.State.Phase }

// Transition is the pure rules function. Events that are not legal in the
// given state are ignored: the state and a copy of the context come back
// unchanged. Structural impossibilities (acting with no current player)
// short-circuit the same way; they indicate a desynchronized client, not a
// server fault.
func Transition(state State, ctx Context, ev Event) (State, Context) {
	next := ctx.clone()

	switch state.Phase {
	case PhaseLobby:
		return transitionLobby(state, next, ev)
	case PhaseSetup:
		return transitionSetup(state, next, ev)
	case PhasePlaying:
		return transitionPlaying(state, next, ev)
	case PhaseGameOver:
		return transitionGameOver(state, next, ev)
	}
	return state, next
}

func transitionLobby(state State, ctx Context, ev Event) (State, Context) {
	switch ev.Type {
	case EventPlayerJoined:
		if len(ctx.Players) >= MaxPlayers {
			return state, ctx
		}
		if ctx.playerByID(ev.PlayerID) != nil {
			return state, ctx
		}
		ctx.Players = append(ctx.Players, Player{
			ID:      ev.PlayerID,
			Name:    ev.PlayerName,
			IsReady: true,
			Hand:    []Card{},
		})

	case EventPlayerDropped:
		kept := ctx.Players[:0]
		for _, p := range ctx.Players {
			if p.ID != ev.PlayerID {
				kept = append(kept, p)
			}
		}
		ctx.Players = kept

	case EventPlayerReady:
		if p := ctx.playerByID(ev.PlayerID); p != nil {
			p.IsReady = true
		}

	case EventPlayerUnready:
		if p := ctx.playerByID(ev.PlayerID); p != nil {
			p.IsReady = false
		}

	case EventSeed:
		ctx.Rng = rng.New(ev.Seed)

	case EventStartGame:
		if len(ctx.Players) < MinPlayers {
			return state, ctx
		}
		for _, p := range ctx.Players {
			if !p.IsReady {
				return state, ctx
			}
		}
		if ctx.Rng == nil {
			// No explicit seed supplied: seed from wall-clock time at start.
			ctx.Rng = rng.New(strconv.FormatInt(time.Now().UnixMilli(), 10))
		}
		return State{Phase: PhaseSetup, SetupStep: SetupShufflingPile}, ctx
	}

	return state, ctx
}

func transitionSetup(state State, ctx Context, ev Event) (State, Context) {
	switch {
	case state.SetupStep == SetupShufflingPile && ev.Type == EventPileShuffled:
		ctx.DrawPile = rng.Shuffle(ctx.Deck, ctx.Rng)
		state.SetupStep = SetupDealingCards

	case state.SetupStep == SetupDealingCards && ev.Type == EventCardsDealt:
		for i := range ctx.Players {
			hand := make([]Card, 0, CardsPerPlayer)
			for j := 0; j < CardsPerPlayer && len(ctx.DrawPile) > 0; j++ {
				hand = append(hand, ctx.DrawPile[0])
				ctx.DrawPile = ctx.DrawPile[1:]
			}
			ctx.Players[i].Hand = hand
		}
		state.SetupStep = SetupGeneratingThresholds

	case state.SetupStep == SetupGeneratingThresholds && ev.Type == EventThresholdsSet:
		ctx.Threshold = ctx.Rng.NextInt(40, 60)
		state.SetupStep = SetupSpinningInitialWheel

	case state.SetupStep == SetupSpinningInitialWheel && ev.Type == EventWheelSpun:
		ctx.WheelAngle = ev.Angle
		ctx.HasSpunThisTurn = true
		state.SetupStep = SetupPlayingFirstCard

	case state.SetupStep == SetupPlayingFirstCard && ev.Type == EventFirstCardPlayed:
		if len(ctx.DrawPile) == 0 {
			return state, ctx
		}
		card := ctx.DrawPile[0]
		ctx.DrawPile = ctx.DrawPile[1:]
		value := CardValue(card.Rank)
		ctx.Discard = []PlayedCard{{Card: card, PlayedValue: value}}
		ctx.Tally += value
		ctx.HasSpunThisTurn = false
		return startTurn(ctx)
	}

	return state, ctx
}

func transitionPlaying(state State, ctx Context, ev Event) (State, Context) {
	current := ctx.CurrentPlayer()
	if current == nil {
		return state, ctx
	}

	switch state.TurnStep {
	case TurnAwaitingAction:
		switch ev.Type {
		case EventWheelSpun:
			ctx.WheelAngle = ev.Angle
			ctx.HasSpunThisTurn = true

		case EventChooseCard:
			var chosen *Card
			for i := range current.Hand {
				if current.Hand[i].ID == ev.CardID {
					chosen = &current.Hand[i]
					break
				}
			}
			if chosen == nil || !CanBeatTopCard(*chosen, ctx.TopDiscard(), ctx.WheelAngle) {
				return state, ctx
			}
			card := *chosen
			ctx.ChosenCard = &card
			if card.Effect != nil {
				state.TurnStep = TurnConfiguringEffect
				return state, ctx
			}
			return playChosenCard(ctx)

		case EventEndTurn:
			return advanceToNextPlayer(ctx)

		case EventSurrender:
			return previousPlayerWins(ctx, ReasonSurrendered)
		}

	case TurnConfiguringEffect:
		switch ev.Type {
		case EventAddEffect:
			if ev.Effect != nil {
				ctx.ActiveEffects = append(ctx.ActiveEffects, *ev.Effect)
			}

		case EventSearchAndDraw:
			for i := range ctx.DrawPile {
				if ctx.DrawPile[i].Rank == ev.Rank {
					found := ctx.DrawPile[i]
					ctx.DrawPile = append(ctx.DrawPile[:i], ctx.DrawPile[i+1:]...)
					current.Hand = append(current.Hand, found)
					break
				}
			}

		case EventPlayCard:
			return playChosenCard(ctx)
		}

	case TurnPostCardPlay:
		switch ev.Type {
		case EventWheelSpun:
			if ctx.HasSpunThisTurn {
				return state, ctx
			}
			ctx.WheelAngle = ev.Angle
			ctx.HasSpunThisTurn = true

		case EventEndTurn:
			return advanceToNextPlayer(ctx)
		}
	}

	return state, ctx
}

func transitionGameOver(state State, ctx Context, ev Event) (State, Context) {
	if ev.Type != EventPlayAgain {
		return state, ctx
	}

	for i := range ctx.Players {
		ctx.Players[i].IsReady = true
		ctx.Players[i].Hand = []Card{}
	}
	ctx.DrawPile = nil
	ctx.Discard = nil
	ctx.Tally = 0
	ctx.Threshold = 0
	ctx.WheelAngle = BaseWheelAngle
	ctx.CurrentPlayerIndex = 0
	ctx.HasSpunThisTurn = false
	ctx.ChosenCard = nil
	ctx.ActiveEffects = nil
	ctx.Winner = nil
	ctx.Losers = nil
	ctx.Reason = ""

	return State{Phase: PhaseLobby}, ctx
}

// startTurn runs the unconditional turn-start work: an exhausted draw pile is
// rebuilt by shuffling every discard except the top card back in, then the
// current player draws one card. The turn lands in awaitingAction.
func startTurn(ctx Context) (State, Context) {
	if len(ctx.DrawPile) == 0 && len(ctx.Discard) > 1 {
		top := ctx.Discard[0]
		reclaimed := make([]Card, 0, len(ctx.Discard)-1)
		for _, played := range ctx.Discard[1:] {
			reclaimed = append(reclaimed, played.Card)
		}
		ctx.DrawPile = rng.Shuffle(reclaimed, ctx.Rng)
		ctx.Discard = []PlayedCard{top}
	}

	if len(ctx.DrawPile) > 0 {
		if current := ctx.CurrentPlayer(); current != nil {
			current.Hand = append(current.Hand, ctx.DrawPile[0])
			ctx.DrawPile = ctx.DrawPile[1:]
		}
	}

	return State{Phase: PhasePlaying, TurnStep: TurnAwaitingAction}, ctx
}

// playChosenCard moves the chosen card to the discard pile, applying the
// queued effects to its value in order, then checks the termination guards.
func playChosenCard(ctx Context) (State, Context) {
	if ctx.ChosenCard == nil {
		return State{Phase: PhasePlaying, TurnStep: TurnAwaitingAction}, ctx
	}
	current := ctx.CurrentPlayer()
	if current == nil {
		return State{Phase: PhasePlaying, TurnStep: TurnAwaitingAction}, ctx
	}

	chosen := *ctx.ChosenCard
	hand := current.Hand[:0]
	for _, c := range current.Hand {
		if c.ID != chosen.ID {
			hand = append(hand, c)
		}
	}
	current.Hand = hand

	value := CardValue(chosen.Rank)
	remaining := make([]ActiveEffect, 0, len(ctx.ActiveEffects))
	for _, effect := range ctx.ActiveEffects {
		switch effect.Kind {
		case EffectValueAdder:
			value += effect.Value
		case EffectValueMultiplier:
			value *= effect.Value
		}
		effect.StacksRemaining--
		if effect.StacksRemaining > 0 {
			remaining = append(remaining, effect)
		}
	}
	ctx.ActiveEffects = remaining

	ctx.Discard = append([]PlayedCard{{
		Card:        chosen,
		PlayedValue: value,
		PlayedBy:    current.ID,
	}}, ctx.Discard...)
	ctx.Tally += value

	// Termination guards run only immediately after a card is played.
	if ctx.Tally == ctx.Threshold {
		return currentPlayerWins(ctx, ReasonExactThreshold)
	}
	if ctx.Tally > ctx.Threshold {
		return previousPlayerWins(ctx, ReasonExceededThreshold)
	}

	return State{Phase: PhasePlaying, TurnStep: TurnPostCardPlay}, ctx
}

func advanceToNextPlayer(ctx Context) (State, Context) {
	ctx.CurrentPlayerIndex = (ctx.CurrentPlayerIndex + 1) % len(ctx.Players)
	ctx.HasSpunThisTurn = false
	ctx.ChosenCard = nil
	return startTurn(ctx)
}

func currentPlayerWins(ctx Context, reason Reason) (State, Context) {
	return gameOver(ctx, ctx.CurrentPlayerIndex, reason)
}

func previousPlayerWins(ctx Context, reason Reason) (State, Context) {
	n := len(ctx.Players)
	return gameOver(ctx, (ctx.CurrentPlayerIndex-1+n)%n, reason)
}

func gameOver(ctx Context, winnerIndex int, reason Reason) (State, Context) {
	ctx.Players[winnerIndex].Wins++

	winner := ctx.Players[winnerIndex]
	ctx.Winner = &winner
	ctx.Losers = nil
	for i, p := range ctx.Players {
		if i != winnerIndex {
			ctx.Losers = append(ctx.Losers, p)
		}
	}
	ctx.Reason = reason

	return State{Phase: PhaseGameOver}, ctx
}
