package wstransport

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/panelhost/internal/bus"
	"github.com/GriffinCanCode/panelhost/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Binder attaches a live connection to the panel identified by id, returning
// an unbind func invoked when the connection drops. An error rejects the
// connection.
type Binder func(id string, conn *Conn) (unbind func(), err error)

// Handler upgrades panel surface connections and pumps their envelopes into
// the router.
type Handler struct {
	router *bus.Router
	bind   Binder
	log    *logging.Logger
}

// NewHandler creates a WebSocket handler.
func NewHandler(router *bus.Router, bind Binder, log *logging.Logger) *Handler {
	if log == nil {
		log = logging.NewNop()
	}
	return &Handler{router: router, bind: bind, log: log}
}

// HandleConnection serves one surface connection. The panel id arrives as a
// query parameter; the connection stays open until either side closes.
func (h *Handler) HandleConnection(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing id parameter"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := newConn(ws, h.log)
	unbind, err := h.bind(id, conn)
	if err != nil {
		h.log.Warn("surface rejected",
			zap.String("id", id),
			zap.Error(err))
		conn.Close()
		return
	}
	defer unbind()

	h.log.Info("surface connected", zap.String("id", id))
	conn.readPump(h.router)
	h.log.Info("surface disconnected", zap.String("id", id))
}
