package core

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Adi132004/Video-conference/internal/domain"
)

func TestRoomRegistryDeleteOnEmpty(t *testing.T) {
	rr := NewRoomRegistry(10, nil)

	if err := rr.AddParticipant("ABCD1234", domain.NewParticipant("u1", "Alice", "ABCD1234")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, ok := rr.Get("ABCD1234"); !ok {
		t.Fatal("room must exist after first join")
	}

	if _, ok := rr.RemoveParticipant("ABCD1234", "u1"); !ok {
		t.Fatal("remove must report the participant")
	}
	if _, ok := rr.Get("ABCD1234"); ok {
		t.Fatal("empty room must be deleted from the registry")
	}

	if _, ok := rr.RemoveParticipant("ABCD1234", "u1"); ok {
		t.Error("removing from a deleted room must report absence")
	}
}

func TestRoomRegistryCapacity(t *testing.T) {
	rr := NewRoomRegistry(2, nil)
	_ = rr.AddParticipant("ABCD1234", domain.NewParticipant("u1", "", "ABCD1234"))
	_ = rr.AddParticipant("ABCD1234", domain.NewParticipant("u2", "", "ABCD1234"))

	err := rr.AddParticipant("ABCD1234", domain.NewParticipant("u3", "", "ABCD1234"))
	if !errors.Is(err, domain.ErrRoomFull) {
		t.Fatalf("expected ErrRoomFull, got %v", err)
	}
	room, _ := rr.Get("ABCD1234")
	if room.Count() != 2 {
		t.Errorf("count = %d, want 2", room.Count())
	}
}

func TestRoomRegistryCreate(t *testing.T) {
	rr := NewRoomRegistry(10, nil)

	room := rr.Create("")
	if !domain.ValidRoomID(room.ID) {
		t.Errorf("generated id %q invalid", room.ID)
	}

	named := rr.Create("ABCD1234")
	again := rr.Create("ABCD1234")
	if named != again {
		t.Error("creating an existing id must return the existing room")
	}
	if rr.Count() != 2 {
		t.Errorf("count = %d, want 2", rr.Count())
	}
}

func TestRoomRegistryAddAfterTeardownRetries(t *testing.T) {
	rr := NewRoomRegistry(10, nil)
	_ = rr.AddParticipant("ABCD1234", domain.NewParticipant("u1", "", "ABCD1234"))
	stale, _ := rr.Get("ABCD1234")

	// Empty the room: it is marked closed and evicted.
	rr.RemoveParticipant("ABCD1234", "u1")

	// A join racing the teardown must land in a fresh room, not the closed one.
	if err := rr.AddParticipant("ABCD1234", domain.NewParticipant("u2", "", "ABCD1234")); err != nil {
		t.Fatalf("add after teardown: %v", err)
	}
	fresh, ok := rr.Get("ABCD1234")
	if !ok || fresh == stale {
		t.Fatal("registry must hold a fresh room object")
	}
	if fresh.Count() != 1 {
		t.Errorf("count = %d, want 1", fresh.Count())
	}
}

// Join/leave churn from many goroutines must drain to exactly zero with
// the room gone, whatever the interleaving.
func TestRoomRegistryConcurrentChurn(t *testing.T) {
	rr := NewRoomRegistry(1000, nil)
	const workers = 16
	const rounds = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", w)
			for i := 0; i < rounds; i++ {
				if err := rr.AddParticipant("ABCD1234", domain.NewParticipant(userID, "", "ABCD1234")); err != nil {
					t.Errorf("add: %v", err)
					return
				}
				rr.RemoveParticipant("ABCD1234", userID)
			}
		}(w)
	}
	wg.Wait()

	if room, ok := rr.Get("ABCD1234"); ok {
		t.Errorf("room survived the churn with %d participants", room.Count())
	}
}

func TestRoomRegistryListIsSnapshot(t *testing.T) {
	rr := NewRoomRegistry(10, nil)
	_ = rr.AddParticipant("AAAA1111", domain.NewParticipant("u1", "", "AAAA1111"))
	_ = rr.AddParticipant("BBBB2222", domain.NewParticipant("u2", "", "BBBB2222"))

	list := rr.List()
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	for _, s := range list {
		if s.ParticipantCount != 1 {
			t.Errorf("room %s count = %d, want 1", s.RoomID, s.ParticipantCount)
		}
	}
}
