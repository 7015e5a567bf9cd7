package engine

// EventType enumerates every transition the machine understands. These are
// also the wire names broadcast to clients inside game-event messages.
type EventType string

const (
	// Lobby events.
	EventPlayerJoined  EventType = "PLAYER_JOINED"
	EventPlayerDropped EventType = "PLAYER_DROPPED"
	EventPlayerReady   EventType = "PLAYER_READY"
	EventPlayerUnready EventType = "PLAYER_UNREADY"
	EventSeed          EventType = "SEED"
	EventStartGame     EventType = "START_GAME"

	// Setup pipeline events, applied in strict order by the session actor.
	EventPileShuffled    EventType = "PILE_SHUFFLED"
	EventCardsDealt      EventType = "CARDS_DEALT"
	EventThresholdsSet   EventType = "THRESHOLDS_SET"
	EventFirstCardPlayed EventType = "FIRST_CARD_PLAYED"

	// Playing events.
	EventWheelSpun     EventType = "WHEEL_SPUN"
	EventChooseCard    EventType = "CHOOSE_CARD"
	EventAddEffect     EventType = "ADD_EFFECT"
	EventSearchAndDraw EventType = "SEARCH_AND_DRAW"
	EventPlayCard      EventType = "PLAY_CARD"
	EventEndTurn       EventType = "END_TURN"
	EventSurrender     EventType = "SURRENDER"

	// Terminal reset.
	EventPlayAgain EventType = "PLAY_AGAIN"
)

// Event is a single machine input. Only the fields relevant to the Type are
// populated; the rest stay at their zero value and are omitted on the wire.
type Event struct {
	Type       EventType     `json:"type"`
	PlayerID   string        `json:"playerId,omitempty"`
	PlayerName string        `json:"playerName,omitempty"`
	Seed       string        `json:"seed,omitempty"`
	CardID     string        `json:"cardId,omitempty"`
	Effect     *ActiveEffect `json:"effect,omitempty"`
	Rank       Rank          `json:"rank,omitempty"`
	Angle      int           `json:"angle,omitempty"`
}
