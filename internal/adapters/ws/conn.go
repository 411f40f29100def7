// Package ws is the WebSocket transport adapter: it owns connection
// lifecycle and hands raw frames to the core router.
package ws

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

var ErrBackpressure = errors.New("backpressure")

// Conn wraps a websocket connection with a buffered, non-blocking send
// path. A slow peer fills its own buffer and gets drops; it never stalls
// broadcast to the rest of a room.
type Conn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func newConn(wsc *websocket.Conn, buffer int) *Conn {
	return &Conn{
		conn: wsc,
		send: make(chan []byte, buffer),
	}
}

// TrySend enqueues a frame without blocking. ErrBackpressure when the
// buffer is full, an error when the connection is already closed.
func (c *Conn) TrySend(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

// Close is idempotent and safe from any goroutine.
func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}
