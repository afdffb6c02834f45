// Package wstransport carries the panel message bus over a WebSocket.
//
// One connection serves one surface: outbound messages are written as JSON,
// inbound frames are decoded as envelopes and handed to the router. Element
// focus inside the surface is driven by the "focus" notification; the Focus
// primitive here only verifies the conduit is still alive.
package wstransport

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/panelhost/internal/bus"
	"github.com/GriffinCanCode/panelhost/internal/logging"
)

// ErrClosed is returned when posting to a connection that has shut down.
var ErrClosed = errors.New("connection closed")

// Conn adapts one WebSocket connection to the panel surface contract.
type Conn struct {
	ws  *websocket.Conn
	log *logging.Logger

	writeMu sync.Mutex
	closed  atomic.Bool
}

func newConn(ws *websocket.Conn, log *logging.Logger) *Conn {
	return &Conn{ws: ws, log: log}
}

// PostMessage writes one outbound message. Gorilla allows a single concurrent
// writer, so writes are serialized here.
func (c *Conn) PostMessage(msg bus.Message) error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(msg)
}

// Focus reports whether the conduit can still carry the focus notification.
func (c *Conn) Focus() error {
	if c.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Close tears down the underlying connection.
func (c *Conn) Close() error {
	c.closed.Store(true)
	return c.ws.Close()
}

// readPump decodes inbound envelopes until the connection drops. Malformed
// frames are skipped; routing decides what is delivered.
func (c *Conn) readPump(router *bus.Router) {
	defer c.Close()

	for {
		var env bus.Envelope
		if err := c.ws.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
		router.Dispatch(env)
	}
}
