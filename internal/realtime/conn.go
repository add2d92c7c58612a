// Package realtime is the live-tracking layer: one authenticated connection
// per user, order subscriptions, and lifecycle event fan-out.
package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Close codes on the live channel.
const (
	CloseNormal      = websocket.CloseNormalClosure
	CloseAuthFailure = 4001
	CloseSuperseded  = 4002
)

const writeTimeout = 10 * time.Second

// Conn is the write side of a live connection as the registry sees it.
// Wrapping the websocket behind it keeps the registry testable with doubles.
type Conn interface {
	WriteJSON(v any) error
	Close(code int, reason string) error
	IsOpen() bool
}

// transport adds the read side used only by the gateway's session loop.
type transport interface {
	Conn
	ReadMessage() ([]byte, error)
}

// wsConn adapts a gorilla connection. Writes are serialized; gorilla permits
// only one concurrent writer.
type wsConn struct {
	ws     *websocket.Conn
	mu     sync.Mutex
	closed bool
}

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{ws: ws}
}

func (c *wsConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return websocket.ErrCloseSent
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.ws.WriteJSON(v); err != nil {
		c.closed = true
		return err
	}
	return nil
}

func (c *wsConn) Close(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = c.ws.WriteMessage(websocket.CloseMessage, msg)
	return c.ws.Close()
}

func (c *wsConn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
	}
	return data, err
}
