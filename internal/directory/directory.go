// Package directory tracks which rooms exist and how full they are, backing
// the quick-play matchmaker. Rooms self-report their occupancy on every
// join/leave; the directory never reaches into a session.
package directory

import (
	"context"
	"crypto/rand"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/johnnify/min-or-max/internal/store"
)

// RoomCodeAlphabet is the character set room codes are drawn from. Digits
// that read ambiguously (0, 1) are excluded; the face cards are a nod to the
// deck.
const RoomCodeAlphabet = "23456789JQKA"

// RoomCodeLength is the fixed length of generated room codes.
const RoomCodeLength = 6

// Listing is one advertised room.
type Listing struct {
	RoomID      string `json:"roomId"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
}

// Directory is the in-memory room registry. All methods are safe for
// concurrent use. When constructed with a store, listings are mirrored to
// SQLite so quick play survives restarts.
type Directory struct {
	mu    sync.Mutex
	rooms map[string]Listing
	store *store.Store
}

// New builds a directory, restoring any persisted listings from the store.
// A nil store keeps the directory purely in memory.
func New(ctx context.Context, s *store.Store) *Directory {
	d := &Directory{
		rooms: make(map[string]Listing),
		store: s,
	}
	if s == nil {
		return d
	}
	persisted, err := s.ListRooms(ctx)
	if err != nil {
		logrus.Warnf("directory: could not restore room listings: %v", err)
		return d
	}
	for _, r := range persisted {
		d.rooms[r.RoomID] = Listing{
			RoomID:      r.RoomID,
			PlayerCount: r.PlayerCount,
			MaxPlayers:  r.MaxPlayers,
		}
	}
	if len(d.rooms) > 0 {
		logrus.Infof("directory: restored %d room listing(s)", len(d.rooms))
	}
	return d
}

// Register advertises a room or refreshes its occupancy.
func (d *Directory) Register(ctx context.Context, listing Listing) {
	d.mu.Lock()
	d.rooms[listing.RoomID] = listing
	d.mu.Unlock()

	if d.store != nil {
		err := d.store.UpsertRoom(ctx, store.RoomListing{
			RoomID:      listing.RoomID,
			PlayerCount: listing.PlayerCount,
			MaxPlayers:  listing.MaxPlayers,
		})
		if err != nil {
			logrus.Warnf("directory: persist listing %s: %v", listing.RoomID, err)
		}
	}
}

// Unregister withdraws a room from matchmaking.
func (d *Directory) Unregister(ctx context.Context, roomID string) {
	d.mu.Lock()
	delete(d.rooms, roomID)
	d.mu.Unlock()

	if d.store != nil {
		if err := d.store.DeleteRoom(ctx, roomID); err != nil {
			logrus.Warnf("directory: delete listing %s: %v", roomID, err)
		}
	}
}

// Rooms returns a copy of every current listing.
func (d *Directory) Rooms() []Listing {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Listing, 0, len(d.rooms))
	for _, l := range d.rooms {
		out = append(out, l)
	}
	return out
}

// QuickPlay returns a room code to join: an advertised room with an open
// seat if one exists, otherwise a freshly generated code for a new room.
func (d *Directory) QuickPlay() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, l := range d.rooms {
		if l.PlayerCount > 0 && l.PlayerCount < l.MaxPlayers {
			return l.RoomID
		}
	}
	return generateRoomCode()
}

// GenerateRoomCode returns a fresh code not currently advertised.
func (d *Directory) GenerateRoomCode() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	for {
		code := generateRoomCode()
		if _, taken := d.rooms[code]; !taken {
			return code
		}
	}
}

func generateRoomCode() string {
	buf := make([]byte, RoomCodeLength)
	_, _ = rand.Read(buf)
	var b strings.Builder
	for _, c := range buf {
		b.WriteByte(RoomCodeAlphabet[int(c)%len(RoomCodeAlphabet)])
	}
	return b.String()
}

// IsValidRoomCode reports whether a string is a well-formed room code.
func IsValidRoomCode(code string) bool {
	if len(code) != RoomCodeLength {
		return false
	}
	for _, c := range code {
		if !strings.ContainsRune(RoomCodeAlphabet, c) {
			return false
		}
	}
	return true
}
