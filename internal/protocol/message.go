// Package protocol defines the signaling wire envelope and the typed
// payloads carried in it. Pure data; routing lives in core.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMalformedMessage marks frames that fail envelope or payload decoding.
var ErrMalformedMessage = errors.New("invalid message format")

// MessageType enumerates the signaling message taxonomy. The values are
// the exact wire strings.
type MessageType string

const (
	// Room management
	TypeJoin       MessageType = "JOIN"
	TypeLeave      MessageType = "LEAVE"
	TypeRoomJoined MessageType = "ROOM_JOINED"
	TypeUserJoined MessageType = "USER_JOINED"
	TypeUserLeft   MessageType = "USER_LEFT"

	// WebRTC negotiation, relayed verbatim
	TypeOffer        MessageType = "OFFER"
	TypeAnswer       MessageType = "ANSWER"
	TypeICECandidate MessageType = "ICE_CANDIDATE"

	// Media state
	TypeMediaState MessageType = "MEDIA_STATE"

	// Room info
	TypeRoomInfo MessageType = "ROOM_INFO"

	// Errors
	TypeError MessageType = "ERROR"
)

// Envelope is the universal frame for all signaling traffic. Data is
// decoded per-type; see payload.go.
type Envelope struct {
	Type      MessageType     `json:"type"`
	From      string          `json:"from,omitempty"`
	To        string          `json:"to,omitempty"`
	RoomID    string          `json:"roomId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// Decode parses a raw text frame into an Envelope. Unparseable JSON or an
// empty type is malformed.
func Decode(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	}
	return &env, nil
}

// Encode serializes the envelope, stamping the send time if unset.
func (e *Envelope) Encode() ([]byte, error) {
	if e.Timestamp == 0 {
		e.Timestamp = NowMillis()
	}
	return json.Marshal(e)
}

// NowMillis is the producer-assigned timestamp for outbound envelopes.
// The relay never uses it for ordering.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
