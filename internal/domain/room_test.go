package domain

import (
	"errors"
	"testing"
	"time"
)

func TestRoomCapacity(t *testing.T) {
	room := NewRoom("ABCD1234", 2)

	if err := room.AddParticipant(NewParticipant("u1", "Alice", room.ID)); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := room.AddParticipant(NewParticipant("u2", "Bob", room.ID)); err != nil {
		t.Fatalf("second add: %v", err)
	}
	if !room.IsFull() {
		t.Error("room should be full at capacity")
	}

	err := room.AddParticipant(NewParticipant("u3", "Carol", room.ID))
	if !errors.Is(err, ErrRoomFull) {
		t.Fatalf("expected ErrRoomFull, got %v", err)
	}
	if room.Count() != 2 {
		t.Errorf("count = %d, rejected participant must not be added", room.Count())
	}

	// An existing member re-joining a full room is a replacement, not an
	// over-capacity admit.
	if err := room.AddParticipant(NewParticipant("u2", "Bobby", room.ID)); err != nil {
		t.Fatalf("re-join of existing member: %v", err)
	}
	if room.Count() != 2 {
		t.Errorf("count = %d after re-join, want 2", room.Count())
	}
}

func TestRoomRemoveMarksClosedWhenEmpty(t *testing.T) {
	room := NewRoom("ABCD1234", 0)
	_ = room.AddParticipant(NewParticipant("u1", "Alice", room.ID))
	_ = room.AddParticipant(NewParticipant("u2", "Bob", room.ID))

	removed, emptied := room.RemoveParticipant("u1")
	if removed == nil || emptied {
		t.Fatalf("removed=%v emptied=%v, want participant and not emptied", removed, emptied)
	}

	removed, emptied = room.RemoveParticipant("u2")
	if removed == nil || !emptied {
		t.Fatalf("removed=%v emptied=%v, want participant and emptied", removed, emptied)
	}

	// Closed room refuses new members; the registry replaces it instead.
	err := room.AddParticipant(NewParticipant("u3", "Carol", room.ID))
	if !errors.Is(err, ErrRoomClosed) {
		t.Fatalf("expected ErrRoomClosed, got %v", err)
	}

	if removed, _ := room.RemoveParticipant("u2"); removed != nil {
		t.Error("removing twice must be a no-op")
	}
}

func TestRoomSetMediaState(t *testing.T) {
	room := NewRoom("ABCD1234", 0)
	_ = room.AddParticipant(NewParticipant("u1", "Alice", room.ID))

	if !room.SetMediaState("u1", false, true) {
		t.Fatal("expected state change for existing participant")
	}
	p, _ := room.Participant("u1")
	if p.AudioEnabled || !p.VideoEnabled {
		t.Errorf("audio=%v video=%v, want false/true", p.AudioEnabled, p.VideoEnabled)
	}

	if room.SetMediaState("ghost", false, false) {
		t.Error("state change for unknown participant must report false")
	}
}

func TestRoomSnapshotIsCopy(t *testing.T) {
	room := NewRoom("ABCD1234", 0)
	_ = room.AddParticipant(NewParticipant("u1", "Alice", room.ID))

	snap := room.Snapshot()
	snap[0].Name = "mutated"

	p, _ := room.Participant("u1")
	if p.Name != "Alice" {
		t.Error("snapshot must not alias live participants")
	}
}

func TestRoomCloseIfIdle(t *testing.T) {
	room := NewRoom("ABCD1234", 0)
	_ = room.AddParticipant(NewParticipant("u1", "Alice", room.ID))

	if _, expired := room.CloseIfIdle(time.Hour); expired {
		t.Fatal("active room must not expire")
	}

	time.Sleep(2 * time.Millisecond)
	members, expired := room.CloseIfIdle(time.Millisecond)
	if !expired || len(members) != 1 {
		t.Fatalf("expired=%v members=%d, want expiry with 1 member", expired, len(members))
	}

	// Second close is a no-op.
	if _, expired := room.CloseIfIdle(time.Nanosecond); expired {
		t.Error("closed room must not expire twice")
	}
}

func TestDefaultName(t *testing.T) {
	testCases := []struct {
		userID string
		want   string
	}{
		{"abcdef", "User_abcd"},
		{"ab", "User_ab"},
		{"", "User_"},
	}
	for _, tc := range testCases {
		if got := DefaultName(tc.userID); got != tc.want {
			t.Errorf("DefaultName(%q) = %q, want %q", tc.userID, got, tc.want)
		}
	}
}
