// Package http is the administrative surface: room creation and
// inspection, health, metrics, and the signaling WebSocket endpoint.
package http

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/Adi132004/Video-conference/internal/adapters/ws"
	"github.com/Adi132004/Video-conference/internal/config"
	"github.com/Adi132004/Video-conference/internal/core"
	"github.com/Adi132004/Video-conference/internal/metrics"
)

func SetupRouter(ctx context.Context, cfg *config.Config, router *core.Router, rooms *core.RoomRegistry, mc metrics.Collector) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	h := &RoomHandlers{rooms: rooms, sessions: router.Sessions()}

	api := r.Group("/api")
	api.GET("/health", h.Health)
	api.POST("/rooms", h.CreateRoom)
	api.GET("/rooms", h.ListRooms)
	api.GET("/rooms/:roomId", h.GetRoom)
	api.GET("/rooms/:roomId/participants", h.GetParticipants)

	r.GET("/metrics", gin.WrapH(mc.Handler()))

	ctl := ws.NewController(router, cfg, mc)
	api.GET("/ws/signal", func(c *gin.Context) {
		ctl.HandleSignal(ctx, c)
	})

	return r
}
