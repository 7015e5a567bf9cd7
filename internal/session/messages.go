package session

import "github.com/johnnify/min-or-max/internal/engine"

// ClientMessageType enumerates the messages a client may send.
type ClientMessageType string

const (
	MsgJoinGame         ClientMessageType = "JOIN_GAME"
	MsgReady            ClientMessageType = "READY"
	MsgUnready          ClientMessageType = "UNREADY"
	MsgStartGame        ClientMessageType = "START_GAME"
	MsgChooseCard       ClientMessageType = "CHOOSE_CARD"
	MsgAddEffect        ClientMessageType = "ADD_EFFECT"
	MsgSearchAndDraw    ClientMessageType = "SEARCH_AND_DRAW"
	MsgPlayCard         ClientMessageType = "PLAY_CARD"
	MsgEndTurn          ClientMessageType = "END_TURN"
	MsgRequestWheelSpin ClientMessageType = "REQUEST_WHEEL_SPIN"
	MsgSurrender        ClientMessageType = "SURRENDER"
	MsgRequestAutoPlay  ClientMessageType = "REQUEST_AUTO_PLAY"
	MsgPlayAgain        ClientMessageType = "PLAY_AGAIN"
)

// ClientMessage is the envelope for everything a client sends. Only the
// fields relevant to the Type are set.
type ClientMessage struct {
	Type       ClientMessageType    `json:"type"`
	PlayerID   string               `json:"playerId,omitempty"`
	PlayerName string               `json:"playerName,omitempty"`
	CardID     string               `json:"cardId,omitempty"`
	Effect     *engine.ActiveEffect `json:"effect,omitempty"`
	Rank       engine.Rank          `json:"rank,omitempty"`
	Force      float64              `json:"force,omitempty"`
}

// ServerMessageType enumerates the messages the session sends to clients.
type ServerMessageType string

const (
	MsgConnected     ServerMessageType = "CONNECTED"
	MsgGameEvent     ServerMessageType = "GAME_EVENT"
	MsgStateSnapshot ServerMessageType = "STATE_SNAPSHOT"
	MsgPlayerJoined  ServerMessageType = "PLAYER_JOINED"
	MsgPlayerLeft    ServerMessageType = "PLAYER_LEFT"
	MsgError         ServerMessageType = "ERROR"
)

// ServerMessage is the envelope for everything the session broadcasts.
// Sequence ids increase monotonically per room; a client observing a gap
// should treat its local state as stale and wait for the next snapshot.
type ServerMessage struct {
	Type       ServerMessageType `json:"type"`
	PlayerID   string            `json:"playerId,omitempty"`
	PlayerName string            `json:"playerName,omitempty"`
	Token      string            `json:"token,omitempty"`
	Event      *engine.Event     `json:"event,omitempty"`
	State      *engine.Snapshot  `json:"state,omitempty"`
	Sequence   int64             `json:"sequence,omitempty"`
	Message    string            `json:"message,omitempty"`
}
