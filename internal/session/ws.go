package session

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/johnnify/min-or-max/internal/auth"
)

// sendBuffer bounds per-connection outbound queueing. A client that cannot
// drain this many messages is dropped rather than allowed to stall the room.
const sendBuffer = 256

// writeTimeout bounds one websocket write before the connection is treated
// as broken.
const writeTimeout = 2 * time.Second

// wsConn adapts a websocket connection to the actor's Conn interface. Sends
// are queued to a writer goroutine so the actor never blocks on a slow
// client.
type wsConn struct {
	conn     *websocket.Conn
	out      chan ServerMessage
	stop     chan struct{}
	stopOnce sync.Once
}

func newWSConn(conn *websocket.Conn) *wsConn {
	c := &wsConn{
		conn: conn,
		out:  make(chan ServerMessage, sendBuffer),
		stop: make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

func (c *wsConn) writeLoop() {
	for {
		select {
		case msg := <-c.out:
			raw, err := json.Marshal(msg)
			if err != nil {
				logrus.Errorf("ws: marshal server message: %v", err)
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err = c.conn.Write(ctx, websocket.MessageText, raw)
			cancel()
			if err != nil {
				// Read loop notices the broken connection and detaches.
				return
			}
		case <-c.stop:
			return
		}
	}
}

// Send queues a message, dropping it if the client has fallen too far
// behind. A dropped message creates a sequence gap the client resolves by
// waiting for the next snapshot.
func (c *wsConn) Send(msg ServerMessage) {
	select {
	case c.out <- msg:
	default:
		logrus.Warn("ws: send buffer full, dropping message")
	}
}

func (c *wsConn) Close(reason string) {
	c.stopOnce.Do(func() { close(c.stop) })
	_ = c.conn.Close(websocket.StatusPolicyViolation, reason)
}

// ServeWS upgrades an HTTP request and binds the connection to a room,
// pumping inbound messages into the actor until the socket closes.
func (m *Manager) ServeWS(w http.ResponseWriter, req *http.Request, roomID string) {
	origin := req.Header.Get("Origin")
	if m.originAllowed != nil && !m.originAllowed(origin) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, req, &websocket.AcceptOptions{
		// Origin is verified above against the configured allow-list.
		InsecureSkipVerify: true,
	})
	if err != nil {
		logrus.Warnf("ws: accept failed for room %s: %v", roomID, err)
		return
	}

	room := m.Room(roomID)
	wc := newWSConn(conn)
	connID := room.Attach(wc, req.URL.Query().Get("seed"))
	token := req.URL.Query().Get("token")

	defer func() {
		room.Detach(connID)
		wc.stopOnce.Do(func() { close(wc.stop) })
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}()

	ctx := req.Context()
	for {
		_, raw, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			wc.Send(ServerMessage{Type: MsgError, Message: "Malformed message"})
			continue
		}
		// A valid room token overrides the client-supplied identity.
		if msg.Type == MsgJoinGame && token != "" && m.authSecret != "" {
			if claims, err := auth.ParseRoomToken(m.authSecret, token); err == nil && claims.RoomID == roomID {
				msg.PlayerID = claims.PlayerID
			}
		}
		room.Deliver(connID, msg)
	}
}
