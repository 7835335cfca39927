package http

import (
	"net/http"
	"time"

	"assessment-service/internal/app"
	"assessment-service/internal/observability"
	"assessment-service/internal/platform/logger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// FeedHandler streams newly stored submissions to admin dashboards.
type FeedHandler struct {
	feed     *app.Feed
	metrics  *observability.Metrics
	log      *logger.Logger
	upgrader websocket.Upgrader
}

func NewFeedHandler(feed *app.Feed, metrics *observability.Metrics, log *logger.Logger) *FeedHandler {
	return &FeedHandler{
		feed:    feed,
		metrics: metrics,
		log:     log.With("component", "feed"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Serve upgrades an authenticated request and forwards feed events until
// the client disconnects.
func (h *FeedHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	h.metrics.FeedClientConnected()
	defer h.metrics.FeedClientDisconnected()

	events, cancel := h.feed.Subscribe()
	defer cancel()

	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})

	// Single writer: gorilla connections allow one concurrent writer.
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		if err := h.write(conn, outboundMessage{Type: "connected", Payload: gin.H{"subscribers": h.feed.Subscribers()}}); err != nil {
			return
		}
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				if err := h.write(conn, outboundMessage{Type: "submission", Payload: ev}); err != nil {
					h.log.Debug("ws write error", "error", err)
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	// The dashboard never sends data; reading only drives control frames
	// and notices the disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	close(closeSignals)
	<-writerDone
}

func (h *FeedHandler) write(conn *websocket.Conn, msg outboundMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}
