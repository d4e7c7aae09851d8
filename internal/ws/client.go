package ws

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"knnect-svr/internal/hub"
	"knnect-svr/internal/pipeline"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// sendBuffer bounds how far a client may fall behind before it is
	// dropped from the hub.
	sendBuffer = 32
)

var errSlowClient = errors.New("ws: client too slow, send buffer full")

// Client is one live map-display session, registered on the hub as a
// Subscriber for the duration of its connection.
type Client struct {
	conn *websocket.Conn
	hub  *hub.Hub
	send chan *pipeline.Feature
	done chan struct{}
	log  *slog.Logger
	once sync.Once
}

func newClient(conn *websocket.Conn, h *hub.Hub, log *slog.Logger) *Client {
	return &Client{
		conn: conn,
		hub:  h,
		send: make(chan *pipeline.Feature, sendBuffer),
		done: make(chan struct{}),
		log:  log,
	}
}

// Send queues f for delivery. It never blocks: a full buffer fails the
// delivery, which makes the hub drop this client.
func (c *Client) Send(f *pipeline.Feature) error {
	select {
	case c.send <- f:
		return nil
	case <-c.done:
		return errors.New("ws: client closed")
	default:
		c.teardown()
		return errSlowClient
	}
}

func (c *Client) readPump() {
	defer c.teardown()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Inbound frames carry nothing we use; the read keeps the connection's
	// close/pong handling alive.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.teardown()

	for {
		select {
		case f := <-c.send:
			b, err := json.Marshal(f)
			if err != nil {
				c.log.Error("feature marshal failed", "err", err)
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) teardown() {
	c.once.Do(func() {
		c.hub.Unregister(c)
		close(c.done)
		_ = c.conn.Close()
	})
}
