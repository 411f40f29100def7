package core

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultReaperInterval  = 5 * time.Minute
	DefaultRoomIdleTimeout = 30 * time.Minute
)

// Reaper periodically deletes rooms that have seen no activity for the
// idle timeout, disconnecting any sessions still bound to them. Signaling
// state is ephemeral; a room nobody has touched in half an hour is dead.
type Reaper struct {
	rooms    *RoomRegistry
	sessions *SessionRegistry
	interval time.Duration
	timeout  time.Duration
}

func NewReaper(rooms *RoomRegistry, sessions *SessionRegistry, interval, timeout time.Duration) *Reaper {
	if interval <= 0 {
		interval = DefaultReaperInterval
	}
	if timeout <= 0 {
		timeout = DefaultRoomIdleTimeout
	}
	return &Reaper{
		rooms:    rooms,
		sessions: sessions,
		interval: interval,
		timeout:  timeout,
	}
}

// Run sweeps on a ticker until ctx is canceled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	log.Info().Str("module", "core.reaper").Dur("interval", r.interval).Dur("timeout", r.timeout).Msg("reaper started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "core.reaper").Msg("reaper stopped")
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Sweep runs a single collection pass.
func (r *Reaper) Sweep() {
	orphans := r.rooms.ExpireIdle(r.timeout)
	for _, p := range orphans {
		conn, ok := r.sessions.Lookup(p.UserID)
		r.sessions.UnregisterUser(p.UserID)
		if ok {
			// The transport adapter observes the close and finishes its
			// own teardown; the session is already gone so the disconnect
			// path is a no-op.
			conn.Close()
		}
	}
	if len(orphans) > 0 {
		log.Info().Str("module", "core.reaper").Int("sessions", len(orphans)).Msg("disconnected sessions of expired rooms")
	}
}
