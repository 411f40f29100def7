package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Adi132004/Video-conference/internal/config"
	"github.com/Adi132004/Video-conference/internal/core"
	"github.com/Adi132004/Video-conference/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Controller accepts signaling connections and pumps frames between the
// socket and the core router.
type Controller struct {
	router       *core.Router
	metrics      metrics.Collector
	readLimit    int64
	pingPeriod   time.Duration
	pongWait     time.Duration
	writeTimeout time.Duration
	sendBuffer   int
}

func NewController(router *core.Router, cfg *config.Config, mc metrics.Collector) *Controller {
	if mc == nil {
		mc = metrics.Noop{}
	}
	return &Controller{
		router:       router,
		metrics:      mc,
		readLimit:    cfg.ReadLimit,
		pingPeriod:   cfg.PingPeriod,
		pongWait:     cfg.PingPeriod * 10 / 9,
		writeTimeout: cfg.WriteTimeout,
		sendBuffer:   cfg.SendBuffer,
	}
}

// HandleSignal upgrades the request and starts the read/write pumps. Each
// connection gets its own opaque session handle; user identity arrives
// later, in-band, in the JOIN envelope.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	wsc, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("ws upgrade")
		return
	}

	sid := core.SessionID(uuid.NewString())
	conn := newConn(wsc, ctl.sendBuffer)
	ctl.metrics.SessionOpened()
	log.Info().Str("module", "adapters.ws").Str("sid", string(sid)).Msg("new signaling connection")

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, conn)
}

func (ctl *Controller) readPump(ctx context.Context, sid core.SessionID, c *Conn) {
	defer func() {
		c.Close()
		ctl.router.HandleDisconnect(sid)
		ctl.metrics.SessionClosed()
		log.Info().Str("module", "adapters.ws").Str("sid", string(sid)).Msg("signaling connection closed")
	}()

	c.conn.SetReadLimit(ctl.readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
					log.Warn().Err(err).Str("module", "adapters.ws").Str("sid", string(sid)).Msg("read error")
				}
				return
			}
			ctl.router.HandleFrame(sid, c, data)
		}
	}
}

func (ctl *Controller) writePump(ctx context.Context, c *Conn) {
	ticker := time.NewTicker(ctl.pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(ctl.writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "adapters.ws").Msg("write error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(ctl.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
