// Package domain contains the room and participant entities. No transport
// or lifecycle logic here; sessions are the registry's business.
package domain

import "time"

// Participant is a user's membership in a single room. It is serializable
// and carries no transport handle.
type Participant struct {
	UserID       string    `json:"userId"`
	Name         string    `json:"name"`
	RoomID       string    `json:"roomId"`
	AudioEnabled bool      `json:"audioEnabled"`
	VideoEnabled bool      `json:"videoEnabled"`
	JoinedAt     time.Time `json:"joinedAt"`
}

// NewParticipant avoids raw struct literals in adapters and keeps the
// defaults (media enabled, joined now) in one place. An empty name falls
// back to a handle derived from the user id.
func NewParticipant(userID, name, roomID string) *Participant {
	if name == "" {
		name = DefaultName(userID)
	}
	return &Participant{
		UserID:       userID,
		Name:         name,
		RoomID:       roomID,
		AudioEnabled: true,
		VideoEnabled: true,
		JoinedAt:     time.Now(),
	}
}

// DefaultName derives a display name from the first characters of the
// user id when the join payload carries none.
func DefaultName(userID string) string {
	n := 4
	if len(userID) < n {
		n = len(userID)
	}
	return "User_" + userID[:n]
}
