package domain

import (
	"crypto/rand"
	"regexp"
)

const (
	roomIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// RoomIDLength is the length of generated room identifiers.
	RoomIDLength = 8

	minRoomIDLen = 4
	maxRoomIDLen = 20
)

var roomIDPattern = regexp.MustCompile(`^[A-Z0-9]+$`)

// NewRoomID returns a random shareable room identifier, uppercase
// alphanumeric, drawn from a cryptographically strong source.
func NewRoomID() string {
	buf := make([]byte, RoomIDLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process has no usable entropy
		// source; nothing sensible to do but abort.
		panic(err)
	}
	for i, b := range buf {
		buf[i] = roomIDAlphabet[int(b)%len(roomIDAlphabet)]
	}
	return string(buf)
}

// ValidRoomID reports whether id is an acceptable room identifier:
// 4 to 20 uppercase alphanumeric characters.
func ValidRoomID(id string) bool {
	if len(id) < minRoomIDLen || len(id) > maxRoomIDLen {
		return false
	}
	return roomIDPattern.MatchString(id)
}
