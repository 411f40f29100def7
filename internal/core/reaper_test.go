package core

import (
	"testing"
	"time"

	"github.com/Adi132004/Video-conference/internal/domain"
)

func TestReaperSweepsIdleRooms(t *testing.T) {
	rooms := NewRoomRegistry(10, nil)
	sessions := NewSessionRegistry()

	conn := &fakeConn{}
	_ = rooms.AddParticipant("IDLE0001", domain.NewParticipant("user-a", "Alice", "IDLE0001"))
	sessions.Register("user-a", "sid-a", "IDLE0001", conn)

	reaper := NewReaper(rooms, sessions, time.Minute, time.Millisecond)
	time.Sleep(2 * time.Millisecond)
	reaper.Sweep()

	if _, ok := rooms.Get("IDLE0001"); ok {
		t.Error("idle room must be deleted")
	}
	if _, ok := sessions.Lookup("user-a"); ok {
		t.Error("session of an expired room must be unregistered")
	}
	if !conn.isClosed() {
		t.Error("connection of an expired room must be closed")
	}
}

func TestReaperLeavesActiveRoomsAlone(t *testing.T) {
	rooms := NewRoomRegistry(10, nil)
	sessions := NewSessionRegistry()

	_ = rooms.AddParticipant("BUSY0001", domain.NewParticipant("user-a", "Alice", "BUSY0001"))
	sessions.Register("user-a", "sid-a", "BUSY0001", &fakeConn{})

	reaper := NewReaper(rooms, sessions, time.Minute, time.Hour)
	reaper.Sweep()

	if _, ok := rooms.Get("BUSY0001"); !ok {
		t.Error("active room must survive the sweep")
	}
	if _, ok := sessions.Lookup("user-a"); !ok {
		t.Error("active session must survive the sweep")
	}
}
