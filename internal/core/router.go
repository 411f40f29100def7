package core

import (
	"errors"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/Adi132004/Video-conference/internal/domain"
	"github.com/Adi132004/Video-conference/internal/metrics"
	"github.com/Adi132004/Video-conference/internal/protocol"
)

// Router is the signaling protocol state machine: a stateless dispatcher
// keyed by message type. All persistent state lives in the two registries.
type Router struct {
	rooms    *RoomRegistry
	sessions *SessionRegistry
	ice      []webrtc.ICEServer
	metrics  metrics.Collector
}

func NewRouter(rooms *RoomRegistry, sessions *SessionRegistry, ice []webrtc.ICEServer, mc metrics.Collector) *Router {
	if mc == nil {
		mc = metrics.Noop{}
	}
	return &Router{
		rooms:    rooms,
		sessions: sessions,
		ice:      ice,
		metrics:  mc,
	}
}

// Sessions exposes the session registry to the transport adapter.
func (rt *Router) Sessions() *SessionRegistry { return rt.sessions }

// HandleFrame consumes one inbound text frame from the transport. It never
// returns an error: every failure is local, logged, and answered with an
// ERROR envelope when attributable to the sender.
func (rt *Router) HandleFrame(sid SessionID, conn SignalConnection, raw []byte) {
	env, err := protocol.Decode(raw)
	if err != nil {
		log.Warn().Err(err).Str("module", "core.router").Str("sid", string(sid)).Msg("malformed envelope")
		rt.metrics.MessageError("unknown", "malformed")
		rt.sendDirect(conn, protocol.NewError("", "", "Invalid message format"))
		return
	}
	rt.metrics.MessageReceived(string(env.Type), len(raw))

	switch env.Type {
	case protocol.TypeJoin:
		rt.handleJoin(sid, conn, env)
	case protocol.TypeOffer, protocol.TypeAnswer, protocol.TypeICECandidate:
		rt.handleRelay(conn, env, raw)
	case protocol.TypeMediaState:
		rt.handleMediaState(conn, env)
	case protocol.TypeLeave:
		rt.handleLeave(conn, env)
	default:
		log.Warn().Str("module", "core.router").Str("type", string(env.Type)).Msg("unknown message type, dropping")
		rt.metrics.MessageDropped(string(env.Type), "unknown_type")
	}
}

// HandleDisconnect runs the LEAVE flow for a vanished transport handle.
// Idempotent: a handle already unregistered (explicit LEAVE first) is a
// no-op, so USER_LEFT is never broadcast twice.
func (rt *Router) HandleDisconnect(sid SessionID) {
	userID, roomID, ok := rt.sessions.UnregisterSID(sid)
	if !ok {
		log.Debug().Str("module", "core.router").Str("sid", string(sid)).Msg("disconnect for unknown session")
		return
	}
	log.Info().Str("module", "core.router").Str("user", userID).Str("room", roomID).Msg("transport disconnect")
	if roomID != "" {
		rt.departRoom(roomID, userID)
	}
}

func (rt *Router) handleJoin(sid SessionID, conn SignalConnection, env *protocol.Envelope) {
	roomID, userID := env.RoomID, env.From
	if roomID == "" || userID == "" {
		rt.sendDirect(conn, protocol.NewError(roomID, userID, "Invalid message format"))
		rt.metrics.MessageError(string(env.Type), "missing_fields")
		return
	}
	if !domain.ValidRoomID(roomID) {
		rt.sendDirect(conn, protocol.NewError(roomID, userID, "Invalid room id"))
		rt.metrics.MessageError(string(env.Type), "bad_room_id")
		return
	}
	join, err := protocol.DecodeJoin(env.Data)
	if err != nil {
		log.Warn().Err(err).Str("module", "core.router").Str("user", userID).Msg("bad join payload")
		rt.sendDirect(conn, protocol.NewError(roomID, userID, "Invalid message format"))
		rt.metrics.MessageError(string(env.Type), "malformed")
		return
	}

	// A participant belongs to exactly one room: a join while still bound
	// elsewhere departs the old room first.
	if prevRoom, ok := rt.sessions.RoomOf(userID); ok && prevRoom != "" && prevRoom != roomID {
		log.Info().Str("module", "core.router").Str("user", userID).Str("from_room", prevRoom).Str("to_room", roomID).Msg("rejoining, leaving previous room")
		rt.departRoom(prevRoom, userID)
	}

	participant := domain.NewParticipant(userID, join.Name, roomID)
	if err := rt.rooms.AddParticipant(roomID, participant); err != nil {
		if errors.Is(err, domain.ErrRoomFull) {
			log.Warn().Str("module", "core.router").Str("user", userID).Str("room", roomID).Msg("join rejected, room full")
			rt.sendDirect(conn, protocol.NewError(roomID, userID, "Room is full"))
			rt.metrics.MessageError(string(env.Type), "room_full")
			return
		}
		log.Error().Err(err).Str("module", "core.router").Str("room", roomID).Msg("add participant")
		return
	}

	rt.sessions.Register(userID, sid, roomID, conn)

	room, ok := rt.rooms.Get(roomID)
	if !ok {
		// Torn down between add and here; the disconnect path cleans up.
		log.Warn().Str("module", "core.router").Str("room", roomID).Msg("room vanished during join")
		return
	}

	joined, err := protocol.NewEnvelope(protocol.TypeRoomJoined, userID, "", roomID,
		protocol.RoomJoinedPayload{RoomID: roomID, ICEServers: rt.ice})
	if err == nil {
		rt.send(userID, joined)
	}

	rt.sendRoomInfo(room, userID)

	announce, err := protocol.NewEnvelope(protocol.TypeUserJoined, userID, "", roomID,
		protocol.UserJoinedPayload{UserID: userID, Name: participant.Name})
	if err == nil {
		rt.broadcastExcept(room, userID, announce)
	}

	log.Info().Str("module", "core.router").
		Str("user", userID).
		Str("name", participant.Name).
		Str("room", roomID).
		Int("participants", room.Count()).
		Msg("user joined room")
}

// sendRoomInfo gives a joiner the membership snapshot, excluding themselves.
func (rt *Router) sendRoomInfo(room *domain.Room, userID string) {
	snapshot := room.Snapshot()
	infos := make([]protocol.ParticipantInfo, 0, len(snapshot))
	for _, p := range snapshot {
		if p.UserID == userID {
			continue
		}
		infos = append(infos, protocol.ParticipantInfo{
			UserID:       p.UserID,
			Name:         p.Name,
			AudioEnabled: p.AudioEnabled,
			VideoEnabled: p.VideoEnabled,
		})
	}
	env, err := protocol.NewEnvelope(protocol.TypeRoomInfo, "", userID, room.ID,
		protocol.RoomInfoPayload{
			RoomID:           room.ID,
			ParticipantCount: len(snapshot),
			Participants:     infos,
		})
	if err != nil {
		return
	}
	rt.send(userID, env)
}

// handleRelay forwards OFFER/ANSWER/ICE_CANDIDATE to the addressed peer.
// The inbound frame is forwarded byte for byte; the relay only validates.
func (rt *Router) handleRelay(conn SignalConnection, env *protocol.Envelope, raw []byte) {
	if env.To == "" {
		rt.sendDirect(conn, protocol.NewError(env.RoomID, env.From, "Invalid message format"))
		rt.metrics.MessageError(string(env.Type), "missing_fields")
		return
	}

	var err error
	if env.Type == protocol.TypeICECandidate {
		_, err = protocol.DecodeICECandidate(env.Data)
	} else {
		_, err = protocol.DecodeSDP(env.Data)
	}
	if err != nil {
		log.Warn().Err(err).Str("module", "core.router").Str("type", string(env.Type)).Msg("malformed relay payload")
		rt.sendDirect(conn, protocol.NewError(env.RoomID, env.From, "Invalid message format"))
		rt.metrics.MessageError(string(env.Type), "malformed")
		return
	}

	if env.RoomID != "" {
		if room, ok := rt.rooms.Get(env.RoomID); ok {
			room.Touch()
		}
	}

	log.Debug().Str("module", "core.router").Str("type", string(env.Type)).Str("from", env.From).Str("to", env.To).Msg("relaying")
	if err := rt.sessions.Send(env.To, raw); err != nil {
		// Target gone or transport failed: drop, do not inform the sender.
		log.Warn().Err(err).Str("module", "core.router").Str("to", env.To).Msg("relay dropped")
		rt.metrics.MessageDropped(string(env.Type), dropReason(err))
		return
	}
	rt.metrics.MessageSent(string(env.Type), len(raw))
}

func (rt *Router) handleMediaState(conn SignalConnection, env *protocol.Envelope) {
	userID, roomID := env.From, env.RoomID
	if userID == "" || roomID == "" {
		rt.sendDirect(conn, protocol.NewError(roomID, userID, "Invalid message format"))
		rt.metrics.MessageError(string(env.Type), "missing_fields")
		return
	}
	state, err := protocol.DecodeMediaState(env.Data)
	if err != nil {
		log.Warn().Err(err).Str("module", "core.router").Str("user", userID).Msg("bad media state payload")
		rt.sendDirect(conn, protocol.NewError(roomID, userID, "Invalid message format"))
		rt.metrics.MessageError(string(env.Type), "malformed")
		return
	}
	audio, video := state.Audio(), state.Video()

	room, ok := rt.rooms.Get(roomID)
	if !ok {
		log.Warn().Str("module", "core.router").Str("room", roomID).Msg("media state for unknown room")
		return
	}
	if !room.SetMediaState(userID, audio, video) {
		log.Warn().Str("module", "core.router").Str("user", userID).Str("room", roomID).Msg("media state for unknown participant")
		return
	}
	log.Info().Str("module", "core.router").Str("user", userID).Bool("audio", audio).Bool("video", video).Msg("media state changed")

	out, err := protocol.NewEnvelope(protocol.TypeMediaState, userID, "", roomID,
		protocol.MediaStateBroadcast{UserID: userID, AudioEnabled: audio, VideoEnabled: video})
	if err != nil {
		return
	}
	rt.broadcastExcept(room, userID, out)
}

func (rt *Router) handleLeave(conn SignalConnection, env *protocol.Envelope) {
	userID, roomID := env.From, env.RoomID
	if userID == "" || roomID == "" {
		rt.sendDirect(conn, protocol.NewError(roomID, userID, "Invalid message format"))
		rt.metrics.MessageError(string(env.Type), "missing_fields")
		return
	}
	log.Info().Str("module", "core.router").Str("user", userID).Str("room", roomID).Msg("user leaving room")
	rt.departRoom(roomID, userID)
	rt.sessions.UnregisterUser(userID)
}

// departRoom notifies the remaining members before the departing user is
// removed from the membership, then removes them (deleting the room when it
// empties). The leaver is excluded from the recipient set.
func (rt *Router) departRoom(roomID, userID string) {
	room, ok := rt.rooms.Get(roomID)
	if !ok {
		log.Warn().Str("module", "core.rooms").Str("room", roomID).Msg("depart from unknown room")
		return
	}
	env, err := protocol.NewEnvelope(protocol.TypeUserLeft, userID, "", roomID,
		protocol.UserLeftPayload{UserID: userID})
	if err == nil {
		rt.broadcastExcept(room, userID, env)
	}
	rt.rooms.RemoveParticipant(roomID, userID)
}

// broadcastExcept fans env out to every room member except one. Each send
// is independent and best-effort: a dead peer never blocks the rest.
func (rt *Router) broadcastExcept(room *domain.Room, exclude string, env *protocol.Envelope) {
	data, err := env.Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "core.router").Msg("encode broadcast")
		return
	}
	sent := 0
	for _, p := range room.Snapshot() {
		if p.UserID == exclude {
			continue
		}
		if err := rt.sessions.Send(p.UserID, data); err != nil {
			log.Warn().Err(err).Str("module", "core.router").Str("to", p.UserID).Msg("broadcast delivery dropped")
			rt.metrics.MessageDropped(string(env.Type), dropReason(err))
			continue
		}
		rt.metrics.MessageSent(string(env.Type), len(data))
		sent++
	}
	log.Debug().Str("module", "core.router").Str("type", string(env.Type)).Str("room", room.ID).Int("sent_to", sent).Msg("broadcast")
}

// send delivers env to a registered user.
func (rt *Router) send(userID string, env *protocol.Envelope) {
	data, err := env.Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "core.router").Msg("encode envelope")
		return
	}
	if err := rt.sessions.Send(userID, data); err != nil {
		log.Warn().Err(err).Str("module", "core.router").Str("to", userID).Msg("delivery dropped")
		rt.metrics.MessageDropped(string(env.Type), dropReason(err))
		return
	}
	rt.metrics.MessageSent(string(env.Type), len(data))
}

// sendDirect answers on the originating connection, used before the sender
// has a registered session.
func (rt *Router) sendDirect(conn SignalConnection, env *protocol.Envelope) {
	data, err := env.Encode()
	if err != nil {
		return
	}
	if err := conn.TrySend(data); err != nil {
		log.Warn().Err(err).Str("module", "core.router").Msg("direct reply dropped")
		rt.metrics.MessageDropped(string(env.Type), "transport")
		return
	}
	rt.metrics.MessageSent(string(env.Type), len(data))
}

func dropReason(err error) string {
	if errors.Is(err, ErrNotConnected) {
		return "not_connected"
	}
	return "transport"
}
