package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeEnvelope(t *testing.T) {
	testCases := []struct {
		name    string
		raw     string
		wantErr bool
		want    MessageType
	}{
		{
			name: "join with payload",
			raw:  `{"type":"JOIN","from":"u1","roomId":"ABCD1234","data":{"name":"Alice"}}`,
			want: TypeJoin,
		},
		{
			name: "offer addressed to peer",
			raw:  `{"type":"OFFER","from":"u1","to":"u2","roomId":"ABCD1234","data":{"sdp":"v=0"}}`,
			want: TypeOffer,
		},
		{
			name:    "not json",
			raw:     `{{{`,
			wantErr: true,
		},
		{
			name:    "missing type",
			raw:     `{"from":"u1","roomId":"ABCD1234"}`,
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env, err := Decode([]byte(tc.raw))
			if tc.wantErr {
				if !errors.Is(err, ErrMalformedMessage) {
					t.Fatalf("expected ErrMalformedMessage, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if env.Type != tc.want {
				t.Errorf("type = %q, want %q", env.Type, tc.want)
			}
		})
	}
}

func TestEncodeStampsTimestamp(t *testing.T) {
	env := &Envelope{Type: TypeRoomJoined, RoomID: "ABCD1234"}
	data, err := env.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var round Envelope
	if err := json.Unmarshal(data, &round); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if round.Timestamp == 0 {
		t.Error("timestamp not stamped")
	}
}

func TestDecodeSDP(t *testing.T) {
	testCases := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{name: "valid", data: `{"sdp":"v=0...","type":"offer"}`},
		{name: "missing sdp", data: `{"type":"offer"}`, wantErr: true},
		{name: "wrong shape", data: `{"sdp":12}`, wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeSDP(json.RawMessage(tc.data))
			if tc.wantErr != (err != nil) {
				t.Fatalf("err = %v, wantErr = %v", err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, ErrMalformedMessage) {
				t.Errorf("expected ErrMalformedMessage, got %v", err)
			}
		})
	}
}

func TestDecodeICECandidate(t *testing.T) {
	mid := "0"
	p, err := DecodeICECandidate(json.RawMessage(`{"candidate":"candidate:1 1 udp","sdpMid":"0","sdpMLineIndex":0}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.SDPMid == nil || *p.SDPMid != mid {
		t.Errorf("sdpMid = %v, want %q", p.SDPMid, mid)
	}

	if _, err := DecodeICECandidate(json.RawMessage(`{"sdpMid":"0"}`)); !errors.Is(err, ErrMalformedMessage) {
		t.Errorf("missing candidate: expected ErrMalformedMessage, got %v", err)
	}
}

func TestDecodeMediaStateDefaults(t *testing.T) {
	testCases := []struct {
		name  string
		data  string
		audio bool
		video bool
	}{
		{name: "absent data", data: ``, audio: true, video: true},
		{name: "empty object", data: `{}`, audio: true, video: true},
		{name: "audio muted", data: `{"audioEnabled":false}`, audio: false, video: true},
		{name: "both explicit", data: `{"audioEnabled":true,"videoEnabled":false}`, audio: true, video: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := DecodeMediaState(json.RawMessage(tc.data))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Audio() != tc.audio || p.Video() != tc.video {
				t.Errorf("audio=%v video=%v, want %v/%v", p.Audio(), p.Video(), tc.audio, tc.video)
			}
		})
	}
}

func TestDecodeJoinTolerantOfMissingData(t *testing.T) {
	p, err := DecodeJoin(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "" {
		t.Errorf("name = %q, want empty", p.Name)
	}

	if _, err := DecodeJoin(json.RawMessage(`"not an object"`)); !errors.Is(err, ErrMalformedMessage) {
		t.Errorf("expected ErrMalformedMessage, got %v", err)
	}
}
