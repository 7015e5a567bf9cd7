package engine

// ValidationResult says whether an actor may submit an event, with a
// client-facing reason when not.
type ValidationResult struct {
	Allowed bool
	Reason  string
}

// Events only the player whose turn it is may submit.
var eventsRequiringCurrentPlayer = map[EventType]bool{
	EventChooseCard:    true,
	EventAddEffect:     true,
	EventSearchAndDraw: true,
	EventPlayCard:      true,
	EventEndTurn:       true,
	EventWheelSpun:     true,
}

// Events any registered player may submit regardless of turn.
var eventsAllowedForAnyPlayer = map[EventType]bool{
	EventPlayerJoined: true,
	EventPlayerReady:  true,
	EventStartGame:    true,
	EventSurrender:    true,
}

// CanPlayerSendEvent decides whether actorID may cause the given transition
// against the given context. It is a pure function of its inputs: it keeps
// no memory and never mutates the context, so it can be re-derived from any
// snapshot.
func CanPlayerSendEvent(ctx *Context, ev Event, actorID string) ValidationResult {
	if eventsAllowedForAnyPlayer[ev.Type] {
		return ValidationResult{Allowed: true}
	}

	if eventsRequiringCurrentPlayer[ev.Type] {
		current := ctx.CurrentPlayer()
		if current == nil || current.ID != actorID {
			return ValidationResult{Allowed: false, Reason: "Not your turn"}
		}
		if ev.Type == EventWheelSpun && ctx.HasSpunThisTurn {
			return ValidationResult{Allowed: false, Reason: "Already spun this turn"}
		}
		return ValidationResult{Allowed: true}
	}

	return ValidationResult{Allowed: true}
}
