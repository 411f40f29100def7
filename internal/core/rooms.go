package core

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Adi132004/Video-conference/internal/domain"
	"github.com/Adi132004/Video-conference/internal/metrics"
)

// ErrRoomNotFound is surfaced at query boundaries; never fatal to the relay.
var ErrRoomNotFound = errors.New("room not found")

// RoomRegistry owns the roomID -> Room mapping. The registry lock only
// covers the map itself; membership mutation happens under each room's own
// lock, so unrelated rooms never serialize on each other.
type RoomRegistry struct {
	mu              sync.RWMutex
	rooms           map[string]*domain.Room
	maxParticipants int
	metrics         metrics.Collector
}

func NewRoomRegistry(maxParticipants int, mc metrics.Collector) *RoomRegistry {
	if mc == nil {
		mc = metrics.Noop{}
	}
	return &RoomRegistry{
		rooms:           make(map[string]*domain.Room),
		maxParticipants: maxParticipants,
		metrics:         mc,
	}
}

// Create registers a room. An empty id gets a generated one. If the id is
// already taken the existing room is returned.
func (rr *RoomRegistry) Create(id string) *domain.Room {
	if id == "" {
		id = domain.NewRoomID()
	}
	rr.mu.Lock()
	defer rr.mu.Unlock()
	if room, ok := rr.rooms[id]; ok {
		return room
	}
	room := domain.NewRoom(id, rr.maxParticipants)
	rr.rooms[id] = room
	rr.metrics.RoomCreated()
	log.Info().Str("module", "core.rooms").Str("room", id).Msg("room created")
	return room
}

func (rr *RoomRegistry) Get(id string) (*domain.Room, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	room, ok := rr.rooms[id]
	return room, ok
}

// GetOrCreate is the double-checked fast path for JOIN.
func (rr *RoomRegistry) GetOrCreate(id string) *domain.Room {
	rr.mu.RLock()
	room, ok := rr.rooms[id]
	rr.mu.RUnlock()
	if ok {
		return room
	}
	return rr.Create(id)
}

// AddParticipant admits p into roomID, creating the room when absent. It
// retries when it races a room in teardown: the closed room is evicted and
// a fresh one created, so a join can never land in a deleted room.
func (rr *RoomRegistry) AddParticipant(roomID string, p *domain.Participant) error {
	for {
		room := rr.GetOrCreate(roomID)
		err := room.AddParticipant(p)
		if errors.Is(err, domain.ErrRoomClosed) {
			rr.evict(roomID, room)
			continue
		}
		return err
	}
}

// RemoveParticipant removes userID from roomID, deleting the room when the
// last participant leaves. The room marks itself closed in the same
// critical section as the removal, which makes the delete atomic with
// respect to concurrent adds.
func (rr *RoomRegistry) RemoveParticipant(roomID, userID string) (*domain.Participant, bool) {
	room, ok := rr.Get(roomID)
	if !ok {
		return nil, false
	}
	removed, emptied := room.RemoveParticipant(userID)
	if removed == nil {
		return nil, false
	}
	if emptied {
		rr.evict(roomID, room)
		log.Info().Str("module", "core.rooms").Str("room", roomID).Msg("deleted empty room")
	}
	return removed, true
}

// evict drops the room from the map only if it is still the same object;
// a replacement created after teardown must survive.
func (rr *RoomRegistry) evict(id string, room *domain.Room) {
	rr.mu.Lock()
	if cur, ok := rr.rooms[id]; ok && cur == room {
		delete(rr.rooms, id)
		rr.metrics.RoomDeleted()
	}
	rr.mu.Unlock()
}

// List returns summaries of all rooms. A snapshot, never the live structures.
func (rr *RoomRegistry) List() []domain.Summary {
	rr.mu.RLock()
	rooms := make([]*domain.Room, 0, len(rr.rooms))
	for _, room := range rr.rooms {
		rooms = append(rooms, room)
	}
	rr.mu.RUnlock()

	out := make([]domain.Summary, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, room.Summarize())
	}
	return out
}

func (rr *RoomRegistry) Count() int {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	return len(rr.rooms)
}

// ExpireIdle closes and deletes every room idle for at least timeout,
// returning the members whose sessions still need tearing down.
func (rr *RoomRegistry) ExpireIdle(timeout time.Duration) []domain.Participant {
	rr.mu.RLock()
	type candidate struct {
		id   string
		room *domain.Room
	}
	candidates := make([]candidate, 0, len(rr.rooms))
	for id, room := range rr.rooms {
		candidates = append(candidates, candidate{id, room})
	}
	rr.mu.RUnlock()

	var orphans []domain.Participant
	for _, c := range candidates {
		members, expired := c.room.CloseIfIdle(timeout)
		if !expired {
			continue
		}
		rr.evict(c.id, c.room)
		orphans = append(orphans, members...)
		log.Info().Str("module", "core.rooms").Str("room", c.id).Int("members", len(members)).Msg("expired idle room")
	}
	return orphans
}
