package wstransport

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/panelhost/internal/bus"
)

func dial(t *testing.T, srv *httptest.Server, id string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?id=" + id
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func newWSServer(t *testing.T, router *bus.Router, bind Binder) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.GET("/ws", NewHandler(router, bind, nil).HandleConnection)

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return srv
}

func TestInboundEnvelopeReachesSubscriber(t *testing.T) {
	router := bus.NewRouter(bus.Config{})
	port := router.Attach("p1")

	got := make(chan any, 1)
	port.Subscribe("ready", func(data any) { got <- data })

	srv := newWSServer(t, router, func(id string, conn *Conn) (func(), error) {
		port.BindSurface(conn)
		return func() { port.BindSurface(nil) }, nil
	})

	ws := dial(t, srv, "p1")
	require.NoError(t, ws.WriteJSON(bus.Envelope{
		Target:  "p1",
		Channel: "ready",
		Data:    "hello",
	}))

	select {
	case data := <-got:
		assert.Equal(t, "hello", data)
	case <-time.After(2 * time.Second):
		t.Fatal("envelope not delivered")
	}
}

func TestOutboundMessageReachesClient(t *testing.T) {
	router := bus.NewRouter(bus.Config{})
	port := router.Attach("p1")

	bound := make(chan struct{})
	srv := newWSServer(t, router, func(id string, conn *Conn) (func(), error) {
		port.BindSurface(conn)
		close(bound)
		return func() { port.BindSurface(nil) }, nil
	})

	ws := dial(t, srv, "p1")
	select {
	case <-bound:
	case <-time.After(2 * time.Second):
		t.Fatal("surface never bound")
	}

	port.Send("focus", nil)

	var msg bus.Message
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, "focus", msg.Channel)
}

func TestMissingIDRejected(t *testing.T) {
	router := bus.NewRouter(bus.Config{})
	srv := newWSServer(t, router, func(string, *Conn) (func(), error) {
		return func() {}, nil
	})

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	assert.Error(t, err)
	if resp != nil {
		resp.Body.Close()
	}
}

func TestPostAfterCloseReturnsErrClosed(t *testing.T) {
	router := bus.NewRouter(bus.Config{})

	conns := make(chan *Conn, 1)
	srv := newWSServer(t, router, func(id string, conn *Conn) (func(), error) {
		conns <- conn
		return func() {}, nil
	})

	ws := dial(t, srv, "p1")

	var conn *Conn
	select {
	case conn = <-conns:
	case <-time.After(2 * time.Second):
		t.Fatal("connection never bound")
	}

	ws.Close()
	require.Eventually(t, func() bool {
		return conn.Focus() != nil
	}, 2*time.Second, 10*time.Millisecond)

	assert.ErrorIs(t, conn.Focus(), ErrClosed)
	assert.ErrorIs(t, conn.PostMessage(bus.Message{Channel: "x"}), ErrClosed)
}
