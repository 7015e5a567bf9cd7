// Package session hosts one actor per room. The actor owns the room's rules
// machine and serializes every mutation through a single goroutine draining
// an inbox channel, so transitions, persistence writes and broadcasts never
// race within a room. Concurrency exists only across rooms.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/johnnify/min-or-max/internal/auth"
	"github.com/johnnify/min-or-max/internal/cache"
	"github.com/johnnify/min-or-max/internal/database"
	"github.com/johnnify/min-or-max/internal/directory"
	"github.com/johnnify/min-or-max/internal/engine"
	"github.com/johnnify/min-or-max/internal/store"
)

// Spin forces used for server-driven spins: the initial setup spin and the
// spin half of an auto-play.
const (
	setupSpinForce    = 0.8
	autoPlaySpinForce = 0.5
)

// storageTimeout bounds fire-and-forget collaborator calls (telemetry,
// archive). Synchronous snapshot writes use the actor's own context.
const storageTimeout = 2 * time.Second

// Conn is one client connection as the actor sees it. Implementations must
// make Send safe to call from the actor goroutine without blocking on slow
// clients.
type Conn interface {
	Send(msg ServerMessage)
	Close(reason string)
}

// Storage is the persistence surface the actor needs. *store.Store satisfies
// it; tests substitute an in-memory fake.
type Storage interface {
	SaveState(ctx context.Context, roomID, key, value string) error
	LoadState(ctx context.Context, roomID, key string) (string, error)
	ClearRoom(ctx context.Context, roomID string) error
	UpsertPlayer(ctx context.Context, roomID, playerID, name string) error
	RemovePlayer(ctx context.Context, roomID, playerID string) error
	AppendTelemetry(ctx context.Context, ev store.TelemetryEvent) error
}

// Matchmaker receives best-effort occupancy pushes. *directory.Directory
// satisfies it.
type Matchmaker interface {
	Register(ctx context.Context, listing directory.Listing)
	Unregister(ctx context.Context, roomID string)
}

type cmdKind int

const (
	cmdAttach cmdKind = iota
	cmdDetach
	cmdMessage
	cmdFlush
)

type command struct {
	kind   cmdKind
	conn   Conn
	connID int64
	seed   string
	msg    ClientMessage
	reply  chan int64
}

type connection struct {
	id       int64
	playerID string
	conn     Conn
}

// Room is the single-writer actor for one game room.
type Room struct {
	ID string

	inbox chan command
	done  chan struct{}

	storage    Storage
	matchmaker Matchmaker
	authSecret string

	// onIdle is invoked (from the actor goroutine) when the lobby empties
	// out completely, so the owner can reap the room.
	onIdle func(roomID string)

	machine       *engine.Machine
	seq           int64
	lastTurnIndex int

	// pendingSeed holds a ?seed= URL parameter until the first lobby join
	// turns it into a SEED event.
	pendingSeed string

	nextConnID int64
	conns      map[int64]*connection

	closeOnce sync.Once
	log       *logrus.Entry
}

// NewRoom restores or initializes a room and starts its actor goroutine.
func NewRoom(id string, storage Storage, matchmaker Matchmaker, authSecret string, onIdle func(string)) *Room {
	r := &Room{
		ID:         id,
		inbox:      make(chan command, 64),
		done:       make(chan struct{}),
		storage:    storage,
		matchmaker: matchmaker,
		authSecret: authSecret,
		onIdle:     onIdle,
		conns:      make(map[int64]*connection),
		log:        logrus.WithField("room", id),
	}
	r.restore()
	go r.run()
	return r
}

// restore loads the persisted snapshot and counters, falling back to a fresh
// lobby when the room has no history.
func (r *Room) restore() {
	ctx := context.Background()

	raw, err := r.storage.LoadState(ctx, r.ID, store.KeySnapshot)
	switch {
	case err == nil:
		var snap engine.Snapshot
		if jsonErr := json.Unmarshal([]byte(raw), &snap); jsonErr != nil {
			r.log.Warnf("corrupt snapshot, starting fresh: %v", jsonErr)
			r.machine = engine.NewMachine()
		} else {
			r.machine = engine.FromSnapshot(snap)
			r.log.Infof("restored snapshot in phase %s", r.machine.Phase())
		}
	case errors.Is(err, store.ErrNotFound):
		r.machine = engine.NewMachine()
	default:
		r.log.Warnf("load snapshot: %v", err)
		r.machine = engine.NewMachine()
	}

	if raw, err := r.storage.LoadState(ctx, r.ID, store.KeyEventCounter); err == nil {
		if n, convErr := strconv.ParseInt(raw, 10, 64); convErr == nil {
			r.seq = n
		}
	}
	if raw, err := r.storage.LoadState(ctx, r.ID, store.KeyLastPlayerIndex); err == nil {
		if n, convErr := strconv.Atoi(raw); convErr == nil {
			r.lastTurnIndex = n
		}
	}
}

// Attach registers a connection with the actor and returns its connection
// id. seed carries an optional ?seed= URL parameter.
func (r *Room) Attach(conn Conn, seed string) int64 {
	reply := make(chan int64, 1)
	select {
	case r.inbox <- command{kind: cmdAttach, conn: conn, seed: seed, reply: reply}:
		return <-reply
	case <-r.done:
		return 0
	}
}

// Detach removes a connection, handling lobby-phase roster fallout.
func (r *Room) Detach(connID int64) {
	select {
	case r.inbox <- command{kind: cmdDetach, connID: connID}:
	case <-r.done:
	}
}

// Deliver queues one client message for processing in arrival order.
func (r *Room) Deliver(connID int64, msg ClientMessage) {
	select {
	case r.inbox <- command{kind: cmdMessage, connID: connID, msg: msg}:
	case <-r.done:
	}
}

// Close stops the actor. Pending inbox messages are dropped.
func (r *Room) Close() {
	r.closeOnce.Do(func() { close(r.done) })
}

func (r *Room) run() {
	for {
		select {
		case cmd := <-r.inbox:
			r.handle(cmd)
		case <-r.done:
			return
		}
	}
}

func (r *Room) handle(cmd command) {
	switch cmd.kind {
	case cmdAttach:
		r.nextConnID++
		r.conns[r.nextConnID] = &connection{id: r.nextConnID, conn: cmd.conn}
		if cmd.seed != "" && r.pendingSeed == "" {
			r.pendingSeed = cmd.seed
		}
		cmd.reply <- r.nextConnID

	case cmdDetach:
		r.handleDetach(cmd.connID)

	case cmdMessage:
		c, ok := r.conns[cmd.connID]
		if !ok {
			return
		}
		r.handleMessage(c, cmd.msg)

	case cmdFlush:
		cmd.reply <- 0
	}
}

// flush blocks until every command queued before it has been processed. The
// inbox preserves arrival order, so this is a completion barrier.
func (r *Room) flush() {
	reply := make(chan int64, 1)
	select {
	case r.inbox <- command{kind: cmdFlush, reply: reply}:
		<-reply
	case <-r.done:
	}
}

func (r *Room) handleMessage(c *connection, msg ClientMessage) {
	if msg.Type == MsgJoinGame {
		r.handleJoin(c, msg)
		return
	}
	if c.playerID == "" {
		c.conn.Send(ServerMessage{Type: MsgError, Message: "Join the game first"})
		return
	}

	switch msg.Type {
	case MsgReady:
		r.applyClientEvent(c, engine.Event{Type: engine.EventPlayerReady, PlayerID: c.playerID})
	case MsgUnready:
		r.applyClientEvent(c, engine.Event{Type: engine.EventPlayerUnready, PlayerID: c.playerID})
	case MsgStartGame:
		if r.applyClientEvent(c, engine.Event{Type: engine.EventStartGame}) && r.machine.Phase() == engine.PhaseSetup {
			r.runSetupPipeline()
		}
	case MsgChooseCard:
		r.applyClientEvent(c, engine.Event{Type: engine.EventChooseCard, CardID: msg.CardID})
	case MsgAddEffect:
		r.applyClientEvent(c, engine.Event{Type: engine.EventAddEffect, Effect: msg.Effect})
	case MsgSearchAndDraw:
		r.applyClientEvent(c, engine.Event{Type: engine.EventSearchAndDraw, Rank: msg.Rank})
	case MsgPlayCard:
		r.applyClientEvent(c, engine.Event{Type: engine.EventPlayCard})
	case MsgEndTurn:
		r.applyClientEvent(c, engine.Event{Type: engine.EventEndTurn})
	case MsgRequestWheelSpin:
		r.handleSpinRequest(c, msg.Force)
	case MsgSurrender:
		r.applyClientEvent(c, engine.Event{Type: engine.EventSurrender})
	case MsgRequestAutoPlay:
		r.handleAutoPlay(c)
	case MsgPlayAgain:
		r.handlePlayAgain(c)
	default:
		c.conn.Send(ServerMessage{Type: MsgError, Message: "Unknown message type"})
	}
}

// handleJoin resolves a JOIN_GAME against the three possible situations:
// a reconnecting known player, a fresh lobby join, and a stale room left
// behind by an abandoned game.
func (r *Room) handleJoin(c *connection, msg ClientMessage) {
	playerID := msg.PlayerID

	// A known player returning is a reconnect regardless of phase.
	if playerID != "" && r.playerInRoster(playerID) {
		c.playerID = playerID
		r.sendConnected(c)
		r.sendSnapshot(c)
		r.log.Infof("player %s reconnected", playerID)
		return
	}

	if r.machine.Phase() != engine.PhaseLobby {
		// A room abandoned mid-game (nobody else attached and bound) is
		// stale: the next joiner forces a clean reset, keeping the room id.
		if r.boundConnections(c.id) == 0 {
			r.resetStaleRoom()
		} else {
			c.conn.Send(ServerMessage{Type: MsgError, Message: "Game already in progress"})
			return
		}
	}

	if playerID == "" {
		playerID = uuid.NewString()
	}
	name := msg.PlayerName
	if name == "" {
		name = "Player " + strconv.Itoa(len(r.machine.Ctx.Players)+1)
	}

	// A ?seed= parameter becomes a SEED event on the first lobby join, so
	// the whole room shares one deterministic stream.
	if r.pendingSeed != "" && r.machine.Ctx.Rng == nil {
		r.applyEvent(engine.Event{Type: engine.EventSeed, Seed: r.pendingSeed}, "")
		r.pendingSeed = ""
	}

	before := len(r.machine.Ctx.Players)
	r.applyEvent(engine.Event{Type: engine.EventPlayerJoined, PlayerID: playerID, PlayerName: name}, playerID)
	if len(r.machine.Ctx.Players) == before {
		c.conn.Send(ServerMessage{Type: MsgError, Message: "Room is full"})
		return
	}

	c.playerID = playerID
	if err := r.storage.UpsertPlayer(context.Background(), r.ID, playerID, name); err != nil {
		r.log.Warnf("persist player %s: %v", playerID, err)
	}

	r.sendConnected(c)
	r.sendSnapshot(c)
	r.broadcastExcept(c.id, ServerMessage{Type: MsgPlayerJoined, PlayerID: playerID, PlayerName: name})
	r.pushOccupancy()
	r.log.Infof("player %s (%s) joined", playerID, name)
}

func (r *Room) handleDetach(connID int64) {
	c, ok := r.conns[connID]
	if !ok {
		return
	}
	delete(r.conns, connID)
	if c.playerID == "" {
		return
	}
	r.publishTelemetry(cache.TelemetryRecord{
		RoomID:    r.ID,
		ActorID:   c.playerID,
		Kind:      "PLAYER_DISCONNECTED",
		Timestamp: time.Now().UnixMilli(),
	})

	// In the lobby a departing player leaves the roster; mid-game their
	// seat persists so they can reconnect.
	if r.machine.Phase() == engine.PhaseLobby {
		r.applyEvent(engine.Event{Type: engine.EventPlayerDropped, PlayerID: c.playerID}, c.playerID)
		if err := r.storage.RemovePlayer(context.Background(), r.ID, c.playerID); err != nil {
			r.log.Warnf("remove player %s: %v", c.playerID, err)
		}
		r.broadcastExcept(connID, ServerMessage{Type: MsgPlayerLeft, PlayerID: c.playerID})

		if len(r.machine.Ctx.Players) == 0 {
			r.matchmaker.Unregister(context.Background(), r.ID)
			if r.onIdle != nil {
				r.onIdle(r.ID)
			}
			return
		}
		r.pushOccupancy()
	}
	r.log.Infof("player %s disconnected", c.playerID)
}

// handleSpinRequest validates before spinning so a rejected request never
// consumes an RNG draw.
func (r *Room) handleSpinRequest(c *connection, force float64) {
	probe := engine.Event{Type: engine.EventWheelSpun}
	if res := engine.CanPlayerSendEvent(&r.machine.Ctx, probe, c.playerID); !res.Allowed {
		r.rejectEvent(c, probe, res.Reason)
		return
	}
	angle := r.machine.Ctx.WheelAngle + engine.SpinDistance(force, r.machine.Ctx.Rng)
	r.applyEvent(engine.Event{Type: engine.EventWheelSpun, Angle: angle}, c.playerID)
}

// handleAutoPlay derives "first legal card, else spin, else end turn" and
// feeds the result through the same validated pipeline as a real client.
func (r *Room) handleAutoPlay(c *connection) {
	action := engine.DetermineAutoPlayAction(&r.machine.Ctx, c.playerID)
	if action == nil {
		r.rejectEvent(c, engine.Event{Type: engine.EventChooseCard}, "Not your turn")
		return
	}
	r.publishTelemetry(cache.TelemetryRecord{
		RoomID:    r.ID,
		ActorID:   c.playerID,
		Kind:      "AUTO_PLAY",
		Payload:   map[string]interface{}{"action": string(action.Type)},
		Timestamp: time.Now().UnixMilli(),
	})
	switch action.Type {
	case engine.AutoPlayCard:
		if r.applyClientEvent(c, engine.Event{Type: engine.EventChooseCard, CardID: action.CardID}) &&
			r.machine.State.TurnStep == engine.TurnConfiguringEffect {
			// Auto-play never configures effects: play the card as-is.
			r.applyClientEvent(c, engine.Event{Type: engine.EventPlayCard})
		}
	case engine.AutoSpin:
		r.handleSpinRequest(c, autoPlaySpinForce)
	case engine.AutoEndTurn:
		r.applyClientEvent(c, engine.Event{Type: engine.EventEndTurn})
	}
}

func (r *Room) handlePlayAgain(c *connection) {
	if !r.applyClientEvent(c, engine.Event{Type: engine.EventPlayAgain}) {
		return
	}
	if r.machine.Phase() == engine.PhaseLobby {
		r.pushOccupancy()
	}
	r.publishTelemetry(cache.TelemetryRecord{
		RoomID:    r.ID,
		ActorID:   c.playerID,
		Kind:      "GAME_RESET",
		Timestamp: time.Now().UnixMilli(),
	})
}

// runSetupPipeline drives the machine through its strictly ordered setup
// steps. Each step is broadcast like any other event so clients can animate
// the shuffle, deal and spin in order.
func (r *Room) runSetupPipeline() {
	r.matchmaker.Unregister(context.Background(), r.ID)

	r.applyEvent(engine.Event{Type: engine.EventPileShuffled}, "")
	r.applyEvent(engine.Event{Type: engine.EventCardsDealt}, "")
	r.applyEvent(engine.Event{Type: engine.EventThresholdsSet}, "")
	angle := r.machine.Ctx.WheelAngle + engine.SpinDistance(setupSpinForce, r.machine.Ctx.Rng)
	r.applyEvent(engine.Event{Type: engine.EventWheelSpun, Angle: angle}, "")
	r.applyEvent(engine.Event{Type: engine.EventFirstCardPlayed}, "")
}

// applyClientEvent validates then applies. Rejections are recorded as
// telemetry and reported privately to the sender; other players never see
// them.
func (r *Room) applyClientEvent(c *connection, ev engine.Event) bool {
	if res := engine.CanPlayerSendEvent(&r.machine.Ctx, ev, c.playerID); !res.Allowed {
		r.rejectEvent(c, ev, res.Reason)
		return false
	}
	r.applyEvent(ev, c.playerID)
	return true
}

// applyEvent runs one accepted event through the machine, persists the
// result, then broadcasts. Persistence completes before any client hears
// about the event.
func (r *Room) applyEvent(ev engine.Event, actorID string) {
	prevPhase := r.machine.Phase()
	r.machine.Apply(ev)

	r.seq++
	eventSeq := r.seq

	turnChanged := r.machine.Ctx.CurrentPlayerIndex != r.lastTurnIndex
	phaseChanged := r.machine.Phase() != prevPhase
	snapshotDue := turnChanged || phaseChanged

	var snapshotSeq int64
	if snapshotDue {
		r.seq++
		snapshotSeq = r.seq
		r.lastTurnIndex = r.machine.Ctx.CurrentPlayerIndex
	}

	r.persist()

	r.broadcast(ServerMessage{Type: MsgGameEvent, Event: &ev, Sequence: eventSeq})
	if snapshotDue {
		snap := r.machine.ToSnapshot()
		r.broadcast(ServerMessage{Type: MsgStateSnapshot, State: &snap, Sequence: snapshotSeq})
	}

	r.publishTelemetry(cache.TelemetryRecord{
		RoomID:    r.ID,
		Sequence:  eventSeq,
		ActorID:   actorID,
		Kind:      string(ev.Type),
		Timestamp: time.Now().UnixMilli(),
	})

	if phaseChanged {
		r.publishTelemetry(cache.TelemetryRecord{
			RoomID:   r.ID,
			Sequence: eventSeq,
			Kind:     "PHASE_TRANSITION",
			Payload: map[string]interface{}{
				"from": string(prevPhase),
				"to":   string(r.machine.Phase()),
			},
			Timestamp: time.Now().UnixMilli(),
		})
		if r.machine.Phase() == engine.PhaseGameOver {
			r.archiveOutcome()
		}
	}
}

func (r *Room) rejectEvent(c *connection, ev engine.Event, reason string) {
	c.conn.Send(ServerMessage{Type: MsgError, Message: reason})
	r.publishTelemetry(cache.TelemetryRecord{
		RoomID:    r.ID,
		ActorID:   c.playerID,
		Kind:      "EVENT_REJECTED",
		Payload:   map[string]interface{}{"event": string(ev.Type), "reason": reason},
		Timestamp: time.Now().UnixMilli(),
	})
}

// persist writes the snapshot and counters synchronously. A failed write is
// logged but never blocks play; the next event retries implicitly.
func (r *Room) persist() {
	ctx := context.Background()
	snap := r.machine.ToSnapshot()
	raw, err := json.Marshal(snap)
	if err != nil {
		r.log.Errorf("marshal snapshot: %v", err)
		return
	}
	if err := r.storage.SaveState(ctx, r.ID, store.KeySnapshot, string(raw)); err != nil {
		r.log.Errorf("persist snapshot: %v", err)
	}
	if err := r.storage.SaveState(ctx, r.ID, store.KeyEventCounter, strconv.FormatInt(r.seq, 10)); err != nil {
		r.log.Errorf("persist event counter: %v", err)
	}
	if err := r.storage.SaveState(ctx, r.ID, store.KeyLastPlayerIndex, strconv.Itoa(r.lastTurnIndex)); err != nil {
		r.log.Errorf("persist turn index: %v", err)
	}
}

// resetStaleRoom wipes a room abandoned mid-game so it can be reused under
// the same id.
func (r *Room) resetStaleRoom() {
	r.log.Info("resetting stale room")
	if err := r.storage.ClearRoom(context.Background(), r.ID); err != nil {
		r.log.Warnf("clear stale room: %v", err)
	}
	r.matchmaker.Unregister(context.Background(), r.ID)
	r.machine = engine.NewMachine()
	r.seq = 0
	r.lastTurnIndex = 0
	r.publishTelemetry(cache.TelemetryRecord{
		RoomID:    r.ID,
		Kind:      "ROOM_CLEARED",
		Timestamp: time.Now().UnixMilli(),
	})
}

func (r *Room) archiveOutcome() {
	ctx := r.machine.Ctx
	if ctx.Winner == nil {
		return
	}
	wins := make(map[string]int, len(ctx.Players))
	for _, p := range ctx.Players {
		wins[p.ID] = p.Wins
	}
	outcome := database.MatchOutcome{
		RoomID:     r.ID,
		WinnerID:   ctx.Winner.ID,
		WinnerName: ctx.Winner.Name,
		Reason:     string(ctx.Reason),
		Tally:      ctx.Tally,
		Threshold:  ctx.Threshold,
		Wins:       wins,
	}
	go func() {
		archiveCtx, cancel := context.WithTimeout(context.Background(), storageTimeout)
		defer cancel()
		if err := database.ArchiveMatchOutcome(archiveCtx, outcome); err != nil {
			logrus.Errorf("room %s: archive outcome: %v", outcome.RoomID, err)
		}
	}()
}

// publishTelemetry appends the record to the store's append-only log, then
// pushes it onto the optional Redis queue. The SQLite append runs on the
// actor goroutine like any other persistence write; the queue push is
// fire-and-forget.
func (r *Room) publishTelemetry(rec cache.TelemetryRecord) {
	var payload string
	if rec.Payload != nil {
		if raw, err := json.Marshal(rec.Payload); err == nil {
			payload = string(raw)
		}
	}
	ev := store.TelemetryEvent{
		RoomID:   rec.RoomID,
		Sequence: rec.Sequence,
		ActorID:  rec.ActorID,
		Kind:     rec.Kind,
		Payload:  payload,
	}
	if err := r.storage.AppendTelemetry(context.Background(), ev); err != nil {
		r.log.Warnf("append telemetry: %v", err)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
		defer cancel()
		if err := cache.PublishTelemetry(ctx, rec); err != nil {
			logrus.Errorf("room %s: publish telemetry: %v", rec.RoomID, err)
		}
	}()
}

func (r *Room) pushOccupancy() {
	r.matchmaker.Register(context.Background(), directory.Listing{
		RoomID:      r.ID,
		PlayerCount: len(r.machine.Ctx.Players),
		MaxPlayers:  engine.MaxPlayers,
	})
}

func (r *Room) sendConnected(c *connection) {
	msg := ServerMessage{Type: MsgConnected, PlayerID: c.playerID}
	if r.authSecret != "" {
		token, err := auth.CreateRoomToken(r.authSecret, r.ID, c.playerID)
		if err != nil {
			r.log.Warnf("create room token: %v", err)
		} else {
			msg.Token = token
		}
	}
	c.conn.Send(msg)
}

func (r *Room) sendSnapshot(c *connection) {
	snap := r.machine.ToSnapshot()
	c.conn.Send(ServerMessage{Type: MsgStateSnapshot, State: &snap, Sequence: r.seq})
}

func (r *Room) broadcast(msg ServerMessage) {
	for _, c := range r.conns {
		if c.playerID != "" {
			c.conn.Send(msg)
		}
	}
}

func (r *Room) broadcastExcept(connID int64, msg ServerMessage) {
	for _, c := range r.conns {
		if c.id != connID && c.playerID != "" {
			c.conn.Send(msg)
		}
	}
}

func (r *Room) playerInRoster(playerID string) bool {
	for _, p := range r.machine.Ctx.Players {
		if p.ID == playerID {
			return true
		}
	}
	return false
}

// boundConnections counts attached connections with a player identity,
// excluding the given connection id.
func (r *Room) boundConnections(exceptID int64) int {
	n := 0
	for _, c := range r.conns {
		if c.id != exceptID && c.playerID != "" {
			n++
		}
	}
	return n
}
