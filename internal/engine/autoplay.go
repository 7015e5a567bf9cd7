package engine

// AutoPlayActionType names the synthetic action an auto-play request derives.
type AutoPlayActionType string

const (
	AutoPlayCard AutoPlayActionType = "play_card"
	AutoSpin     AutoPlayActionType = "spin"
	AutoEndTurn  AutoPlayActionType = "end_turn"
)

// AutoPlayAction is a derived move fed back through the normal validated
// event pipeline.
type AutoPlayAction struct {
	Type   AutoPlayActionType `json:"type"`
	CardID string             `json:"cardId,omitempty"`
}

// DetermineAutoPlayAction computes the move an auto-play request should make
// for playerID: the first hand card that beats the top discard, else a spin
// if this turn hasn't spun yet, else end turn. Returns nil when playerID is
// not the current player.
func DetermineAutoPlayAction(ctx *Context, playerID string) *AutoPlayAction {
	current := ctx.CurrentPlayer()
	if current == nil || current.ID != playerID {
		return nil
	}

	top := ctx.TopDiscard()
	for _, card := range current.Hand {
		if CanBeatTopCard(card, top, ctx.WheelAngle) {
			return &AutoPlayAction{Type: AutoPlayCard, CardID: card.ID}
		}
	}

	if !ctx.HasSpunThisTurn {
		return &AutoPlayAction{Type: AutoSpin}
	}
	return &AutoPlayAction{Type: AutoEndTurn}
}
