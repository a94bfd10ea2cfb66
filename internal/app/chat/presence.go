/*
Package chat contains the core logic for real-time room presence, chat
broadcasting, and peer-connection signaling.

This file defines the PresenceTable, the in-memory record of which connection
is joined to which room under which nickname. It is rebuilt from scratch on
every process start and never persisted.
*/
package chat

import "sync"

// Participant is a connection's joined-state record while active in a room.
// At most one Participant exists per connection id; the nickname is unique
// across all active participants system-wide, enforced by the durable
// nickname registry rather than by this table.
type Participant struct {
	ConnID   string
	Nickname string
	RoomID   int64
}

// PresenceTable maps connection ids to Participants. All mutation goes through
// the coordinator; the mutex serializes it against concurrent connections.
type PresenceTable struct {
	mu           sync.RWMutex
	participants map[string]Participant
}

// NewPresenceTable creates an empty PresenceTable.
func NewPresenceTable() *PresenceTable {
	return &PresenceTable{
		participants: make(map[string]Participant),
	}
}

// Add inserts or replaces the Participant for its connection id.
func (t *PresenceTable) Add(p Participant) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.participants[p.ConnID] = p
}

// Remove deletes the Participant for the connection id, returning the removed
// record and whether one existed.
func (t *PresenceTable) Remove(connID string) (Participant, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.participants[connID]
	if ok {
		delete(t.participants, connID)
	}
	return p, ok
}

// Get returns the Participant for the connection id, if joined.
func (t *PresenceTable) Get(connID string) (Participant, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	p, ok := t.participants[connID]
	return p, ok
}

// UpdateNickname replaces the nickname on the connection's record, reporting
// whether the connection was joined.
func (t *PresenceTable) UpdateNickname(connID string, nickname string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.participants[connID]
	if !ok {
		return false
	}

	p.Nickname = nickname
	t.participants[connID] = p
	return true
}

// ListByRoom returns every Participant in the room except the given connection
// id. Used to answer "who is already here" for a newly joined participant.
func (t *PresenceTable) ListByRoom(roomID int64, exceptConnID string) []Participant {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]Participant, 0, len(t.participants))
	for _, p := range t.participants {
		if p.RoomID == roomID && p.ConnID != exceptConnID {
			result = append(result, p)
		}
	}
	return result
}

// Len returns the number of joined participants across all rooms.
func (t *PresenceTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.participants)
}
