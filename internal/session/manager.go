package session

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Manager owns the live rooms, creating actors on demand and reaping them
// when their lobby empties out.
type Manager struct {
	mu    sync.Mutex
	rooms map[string]*Room

	storage       Storage
	matchmaker    Matchmaker
	authSecret    string
	originAllowed func(origin string) bool
}

// NewManager builds a manager. originAllowed may be nil to allow any origin.
func NewManager(storage Storage, matchmaker Matchmaker, authSecret string, originAllowed func(string) bool) *Manager {
	return &Manager{
		rooms:         make(map[string]*Room),
		storage:       storage,
		matchmaker:    matchmaker,
		authSecret:    authSecret,
		originAllowed: originAllowed,
	}
}

// Room returns the live actor for a room id, creating (and restoring) it if
// needed.
func (m *Manager) Room(id string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	if room, ok := m.rooms[id]; ok {
		return room
	}
	room := NewRoom(id, m.storage, m.matchmaker, m.authSecret, m.reap)
	m.rooms[id] = room
	return room
}

// reap is invoked by a room actor when its lobby has fully emptied.
func (m *Manager) reap(id string) {
	m.mu.Lock()
	room, ok := m.rooms[id]
	if ok {
		delete(m.rooms, id)
	}
	m.mu.Unlock()
	if ok {
		room.Close()
		logrus.Infof("session: reaped idle room %s", id)
	}
}

// CloseAll stops every live room actor.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, room := range m.rooms {
		room.Close()
		delete(m.rooms, id)
	}
}
