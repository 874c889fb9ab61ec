package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/chattyapp/chatty/internal/bus"
	logger "github.com/chattyapp/chatty/middleware/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // must be less than pongWait
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client ties one websocket connection to one bus subscription. The
// identity was resolved at upgrade time and holds for the life of the
// connection; reconnecting re-resolves.
type Client struct {
	conn   *websocket.Conn
	sub    *bus.Subscriber
	broker *bus.Broker
	log    *logger.Logger
}

func newClient(conn *websocket.Conn, sub *bus.Subscriber, broker *bus.Broker, log *logger.Logger) *Client {
	return &Client{
		conn:   conn,
		sub:    sub,
		broker: broker,
		log:    log,
	}
}

func (c *Client) run() {
	go c.writePump()
	go c.readPump()
}

// readPump only watches for the peer going away; subscribers are
// push-only. Teardown unregisters the subscription so in-flight filter
// evaluation for this client is discarded.
func (c *Client) readPump() {
	defer func() {
		c.broker.Unsubscribe(c.sub)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug("subscriber read error", zap.Error(err))
			}
			return
		}
	}
}

// writePump drains the subscription channel onto the wire. The channel is
// closed by the broker on unsubscribe, shutdown, or backpressure drop.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.sub.Events():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			json.NewEncoder(w).Encode(event)

			// Flush whatever else is already queued.
			n := len(c.sub.Events())
			for range n {
				json.NewEncoder(w).Encode(<-c.sub.Events())
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
