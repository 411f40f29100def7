package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/pion/webrtc/v4"
)

// JoinPayload is carried by JOIN. Name is optional; the router falls back
// to a derived display name.
type JoinPayload struct {
	Name string `json:"name,omitempty"`
}

// SDPPayload is carried by OFFER and ANSWER. The SDP blob is opaque to the
// relay and forwarded verbatim.
type SDPPayload struct {
	Type string `json:"type,omitempty"`
	SDP  string `json:"sdp"`
}

// ICECandidatePayload is carried by ICE_CANDIDATE.
type ICECandidatePayload struct {
	Candidate     string  `json:"candidate"`
	SDPMid        *string `json:"sdpMid,omitempty"`
	SDPMLineIndex *uint16 `json:"sdpMLineIndex,omitempty"`
}

// MediaStatePayload is carried by inbound MEDIA_STATE. Absent flags mean
// enabled.
type MediaStatePayload struct {
	AudioEnabled *bool `json:"audioEnabled,omitempty"`
	VideoEnabled *bool `json:"videoEnabled,omitempty"`
}

func (p MediaStatePayload) Audio() bool { return p.AudioEnabled == nil || *p.AudioEnabled }
func (p MediaStatePayload) Video() bool { return p.VideoEnabled == nil || *p.VideoEnabled }

// DecodeJoin tolerates a missing data object; a JOIN without a name is
// valid.
func DecodeJoin(data json.RawMessage) (JoinPayload, error) {
	var p JoinPayload
	if len(data) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("%w: join payload: %v", ErrMalformedMessage, err)
	}
	return p, nil
}

func DecodeSDP(data json.RawMessage) (SDPPayload, error) {
	var p SDPPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("%w: sdp payload: %v", ErrMalformedMessage, err)
	}
	if p.SDP == "" {
		return p, fmt.Errorf("%w: sdp payload: missing sdp", ErrMalformedMessage)
	}
	return p, nil
}

func DecodeICECandidate(data json.RawMessage) (ICECandidatePayload, error) {
	var p ICECandidatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("%w: candidate payload: %v", ErrMalformedMessage, err)
	}
	if p.Candidate == "" {
		return p, fmt.Errorf("%w: candidate payload: missing candidate", ErrMalformedMessage)
	}
	return p, nil
}

func DecodeMediaState(data json.RawMessage) (MediaStatePayload, error) {
	var p MediaStatePayload
	if len(data) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("%w: media state payload: %v", ErrMalformedMessage, err)
	}
	return p, nil
}

// ParticipantInfo is the per-member entry of ROOM_INFO.
type ParticipantInfo struct {
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	AudioEnabled bool   `json:"audioEnabled"`
	VideoEnabled bool   `json:"videoEnabled"`
}

// RoomJoinedPayload confirms a join and advertises the ICE servers the
// client should use for its peer connections.
type RoomJoinedPayload struct {
	RoomID     string             `json:"roomId"`
	ICEServers []webrtc.ICEServer `json:"iceServers,omitempty"`
}

// RoomInfoPayload gives a new joiner the existing membership.
type RoomInfoPayload struct {
	RoomID           string            `json:"roomId"`
	ParticipantCount int               `json:"participantCount"`
	Participants     []ParticipantInfo `json:"participants"`
}

// UserJoinedPayload announces a new member to the rest of the room.
type UserJoinedPayload struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// UserLeftPayload announces a departure to the rest of the room.
type UserLeftPayload struct {
	UserID string `json:"userId"`
}

// MediaStateBroadcast is the outbound MEDIA_STATE fan-out shape.
type MediaStateBroadcast struct {
	UserID       string `json:"userId"`
	AudioEnabled bool   `json:"audioEnabled"`
	VideoEnabled bool   `json:"videoEnabled"`
}

// NewEnvelope builds an outbound envelope with a marshaled payload.
func NewEnvelope(t MessageType, from, to, roomID string, payload any) (*Envelope, error) {
	env := &Envelope{
		Type:      t,
		From:      from,
		To:        to,
		RoomID:    roomID,
		Timestamp: NowMillis(),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", t, err)
		}
		env.Data = data
	}
	return env, nil
}

// NewError builds an ERROR envelope addressed back to the originating user.
func NewError(roomID, to, message string) *Envelope {
	return &Envelope{
		Type:      TypeError,
		To:        to,
		RoomID:    roomID,
		Error:     message,
		Timestamp: NowMillis(),
	}
}
