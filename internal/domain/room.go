package domain

import (
	"errors"
	"sync"
	"time"
)

const DefaultMaxParticipants = 10

var (
	ErrRoomFull   = errors.New("room is full")
	ErrRoomClosed = errors.New("room closed")
)

// Room is a named group of participants whose signaling is scoped to each
// other. Membership is guarded by the room's own mutex so unrelated rooms
// never contend.
type Room struct {
	ID              string
	MaxParticipants int
	CreatedAt       time.Time

	mu           sync.RWMutex
	participants map[string]*Participant
	lastActivity time.Time
	closed       bool
}

func NewRoom(id string, maxParticipants int) *Room {
	if maxParticipants <= 0 {
		maxParticipants = DefaultMaxParticipants
	}
	now := time.Now()
	return &Room{
		ID:              id,
		MaxParticipants: maxParticipants,
		CreatedAt:       now,
		participants:    make(map[string]*Participant),
		lastActivity:    now,
	}
}

// AddParticipant admits p, enforcing the capacity bound. ErrRoomClosed means
// the room is being torn down and the caller should retry against a fresh one.
func (r *Room) AddParticipant(p *Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRoomClosed
	}
	// A re-join of an existing member replaces the entry and never counts
	// against capacity.
	if _, exists := r.participants[p.UserID]; !exists && len(r.participants) >= r.MaxParticipants {
		return ErrRoomFull
	}
	r.participants[p.UserID] = p
	r.lastActivity = time.Now()
	return nil
}

// RemoveParticipant removes userID and reports whether the room emptied out.
// An emptied room is marked closed in the same critical section, so a
// concurrent add can never sneak into a room that is about to be deleted.
func (r *Room) RemoveParticipant(userID string) (removed *Participant, emptied bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[userID]
	if !ok {
		return nil, false
	}
	delete(r.participants, userID)
	r.lastActivity = time.Now()
	if len(r.participants) == 0 {
		r.closed = true
		return p, true
	}
	return p, false
}

func (r *Room) Participant(userID string) (*Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.participants[userID]
	return p, ok
}

// SetMediaState updates a participant's media flags under the room lock.
func (r *Room) SetMediaState(userID string, audio, video bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[userID]
	if !ok {
		return false
	}
	p.AudioEnabled = audio
	p.VideoEnabled = video
	r.lastActivity = time.Now()
	return true
}

// Snapshot returns value copies of the current membership, safe to iterate
// and serialize without holding the room lock.
func (r *Room) Snapshot() []Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, *p)
	}
	return out
}

func (r *Room) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants)
}

func (r *Room) IsFull() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants) >= r.MaxParticipants
}

func (r *Room) IsEmpty() bool {
	return r.Count() == 0
}

func (r *Room) LastActivity() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastActivity
}

// Touch refreshes the activity timestamp. Called on every room-scoped
// message so the idle reaper only collects genuinely dead rooms.
func (r *Room) Touch() {
	r.mu.Lock()
	r.lastActivity = time.Now()
	r.mu.Unlock()
}

// CloseIfIdle marks the room closed when it has seen no activity for at
// least timeout, returning the members that still need their sessions torn
// down. A room already closed reports false.
func (r *Room) CloseIfIdle(timeout time.Duration) ([]Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || time.Since(r.lastActivity) < timeout {
		return nil, false
	}
	r.closed = true
	out := make([]Participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, *p)
	}
	return out, true
}

// Summary is a read-only projection for the administrative API.
type Summary struct {
	RoomID           string    `json:"roomId"`
	ParticipantCount int       `json:"participantCount"`
	MaxParticipants  int       `json:"maxParticipants"`
	CreatedAt        time.Time `json:"createdAt"`
	LastActivity     time.Time `json:"lastActivity"`
	Full             bool      `json:"isFull"`
	Empty            bool      `json:"isEmpty"`
}

func (r *Room) Summarize() Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := len(r.participants)
	return Summary{
		RoomID:           r.ID,
		ParticipantCount: n,
		MaxParticipants:  r.MaxParticipants,
		CreatedAt:        r.CreatedAt,
		LastActivity:     r.lastActivity,
		Full:             n >= r.MaxParticipants,
		Empty:            n == 0,
	}
}
