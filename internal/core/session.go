package core

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrNotConnected means the relay target has no live session. Callers log
// and continue; it is never fatal.
var ErrNotConnected = errors.New("session not connected")

// SessionID identifies a transport handle. Disconnect events arrive keyed
// by it, not by user id.
type SessionID string

// SignalConnection abstracts the signaling transport endpoint.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend([]byte) error
	Close()
}

type sessionEntry struct {
	SID    SessionID
	UserID string
	RoomID string
	Conn   SignalConnection
}

// SessionRegistry binds user identities to live transport handles, both
// directions. At most one live session per user: registering again
// replaces the old binding and force-closes its connection.
type SessionRegistry struct {
	mu     sync.RWMutex
	byUser map[string]*sessionEntry
	bySID  map[SessionID]*sessionEntry
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		byUser: make(map[string]*sessionEntry),
		bySID:  make(map[SessionID]*sessionEntry),
	}
}

// Register installs the userID<->sid mappings. A previous session for the
// same user is evicted and its connection closed so it cannot leak.
func (s *SessionRegistry) Register(userID string, sid SessionID, roomID string, conn SignalConnection) {
	var stale SignalConnection

	s.mu.Lock()
	if prev, ok := s.byUser[userID]; ok && prev.SID != sid {
		delete(s.bySID, prev.SID)
		stale = prev.Conn
	}
	entry := &sessionEntry{SID: sid, UserID: userID, RoomID: roomID, Conn: conn}
	s.byUser[userID] = entry
	s.bySID[sid] = entry
	s.mu.Unlock()

	if stale != nil {
		log.Warn().Str("module", "core.session").Str("user", userID).Msg("replacing live session, closing stale connection")
		stale.Close()
	}
	log.Info().Str("module", "core.session").Str("user", userID).Str("sid", string(sid)).Str("room", roomID).Msg("session registered")
}

// UnregisterUser removes the user's binding. No-op when absent.
func (s *SessionRegistry) UnregisterUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.byUser[userID]; ok {
		delete(s.bySID, entry.SID)
		delete(s.byUser, userID)
		log.Info().Str("module", "core.session").Str("user", userID).Msg("session unregistered")
	}
}

// UnregisterSID removes the binding for a transport handle, returning the
// user and room it belonged to. Idempotent: a handle already gone (for
// example after an explicit LEAVE) reports ok=false.
func (s *SessionRegistry) UnregisterSID(sid SessionID) (userID, roomID string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, found := s.bySID[sid]
	if !found {
		return "", "", false
	}
	delete(s.bySID, sid)
	delete(s.byUser, entry.UserID)
	log.Info().Str("module", "core.session").Str("user", entry.UserID).Str("sid", string(sid)).Msg("session unregistered")
	return entry.UserID, entry.RoomID, true
}

// Lookup returns the live connection for a user.
func (s *SessionRegistry) Lookup(userID string) (SignalConnection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.byUser[userID]
	if !ok {
		return nil, false
	}
	return entry.Conn, true
}

// RoomOf returns the room the user's live session is bound to.
func (s *SessionRegistry) RoomOf(userID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.byUser[userID]
	if !ok {
		return "", false
	}
	return entry.RoomID, true
}

// UserOf resolves a transport handle back to its user.
func (s *SessionRegistry) UserOf(sid SessionID) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.bySID[sid]
	if !ok {
		return "", false
	}
	return entry.UserID, true
}

// Send delivers a raw frame to the user's session. ErrNotConnected when the
// user has no live session; a wrapped transport error otherwise. Both are
// non-fatal to the caller.
func (s *SessionRegistry) Send(userID string, frame []byte) error {
	conn, ok := s.Lookup(userID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotConnected, userID)
	}
	if err := conn.TrySend(frame); err != nil {
		return fmt.Errorf("send to %s: %w", userID, err)
	}
	return nil
}

func (s *SessionRegistry) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bySID)
}
