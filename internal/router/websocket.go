package router

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
	wsMaxMessage = 4096
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// FeedHub fans out prediction-cache invalidation events to connected
// operator dashboards over WebSocket. It holds no prediction-path state —
// losing a connection or the hub itself never affects /predict.
type FeedHub struct {
	mu      sync.Mutex
	conns   map[*websocket.Conn]chan []byte
	logger  *zap.Logger
}

// NewFeedHub constructs an empty hub.
func NewFeedHub(logger *zap.Logger) *FeedHub {
	return &FeedHub{conns: make(map[*websocket.Conn]chan []byte), logger: logger}
}

// Broadcast sends payload to every currently connected client, dropping it
// for any client whose outbound buffer is full rather than blocking.
func (h *FeedHub) Broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.conns {
		select {
		case ch <- payload:
		default:
		}
	}
}

// HandleWS upgrades the connection and pumps broadcast messages to it until
// the client disconnects.
func (h *FeedHub) HandleWS(c *gin.Context) {
	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("feedHub: upgrade failed", zap.Error(err))
		return
	}

	ch := make(chan []byte, 16)
	h.mu.Lock()
	h.conns[conn] = ch
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.conns, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	conn.SetReadLimit(wsMaxMessage)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	go h.readPump(conn)
	h.writePump(conn, ch)
}

// readPump discards inbound messages but keeps reading so pong control
// frames are processed; it returns on any read error. It does not close the
// connection itself; HandleWS closes it once writePump exits.
func (h *FeedHub) readPump(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *FeedHub) writePump(conn *websocket.Conn, ch chan []byte) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
