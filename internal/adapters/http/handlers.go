package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Adi132004/Video-conference/internal/core"
)

type RoomHandlers struct {
	rooms    *core.RoomRegistry
	sessions *core.SessionRegistry
}

// CreateRoom provisions a room with a generated identifier.
// POST /api/rooms
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	room := h.rooms.Create("")
	log.Info().Str("module", "adapters.http").Str("room", room.ID).Msg("room created via API")
	c.JSON(http.StatusCreated, gin.H{
		"success":         true,
		"roomId":          room.ID,
		"createdAt":       room.CreatedAt,
		"maxParticipants": room.MaxParticipants,
	})
}

// GetRoom returns a room summary.
// GET /api/rooms/:roomId
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	roomID := c.Param("roomId")
	room, ok := h.rooms.Get(roomID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Room not found: " + roomID,
		})
		return
	}
	s := room.Summarize()
	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"roomId":           s.RoomID,
		"participantCount": s.ParticipantCount,
		"maxParticipants":  s.MaxParticipants,
		"createdAt":        s.CreatedAt,
		"lastActivity":     s.LastActivity,
		"isEmpty":          s.Empty,
		"isFull":           s.Full,
	})
}

// GetParticipants returns the membership snapshot. Transport handles are
// never exposed here.
// GET /api/rooms/:roomId/participants
func (h *RoomHandlers) GetParticipants(c *gin.Context) {
	roomID := c.Param("roomId")
	room, ok := h.rooms.Get(roomID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Room not found: " + roomID,
		})
		return
	}

	snapshot := room.Snapshot()
	participants := make([]gin.H, 0, len(snapshot))
	for _, p := range snapshot {
		_, connected := h.sessions.Lookup(p.UserID)
		participants = append(participants, gin.H{
			"userId":       p.UserID,
			"name":         p.Name,
			"joinedAt":     p.JoinedAt,
			"audioEnabled": p.AudioEnabled,
			"videoEnabled": p.VideoEnabled,
			"connected":    connected,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"roomId":           roomID,
		"participantCount": len(snapshot),
		"participants":     participants,
	})
}

// ListRooms returns summaries of every active room.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	summaries := h.rooms.List()
	rooms := make([]gin.H, 0, len(summaries))
	for _, s := range summaries {
		rooms = append(rooms, gin.H{
			"roomId":           s.RoomID,
			"participantCount": s.ParticipantCount,
			"createdAt":        s.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"totalRooms": len(summaries),
		"rooms":      rooms,
	})
}

// Health reports liveness and a couple of cheap gauges.
// GET /api/health
func (h *RoomHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "UP",
		"service":        "webrtc-signaling",
		"timestamp":      time.Now().UnixMilli(),
		"activeRooms":    h.rooms.Count(),
		"activeSessions": h.sessions.Count(),
	})
}
