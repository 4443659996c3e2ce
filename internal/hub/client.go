package hub

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/comment-sync-api/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

// Client is one WebSocket viewer. The read pump decodes commands and hands
// them to the hub; the write pump drains the send buffer onto the socket.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	log  zerolog.Logger

	// invokerID, channel and closed are guarded by hub.mu. closed marks a
	// client whose send channel is gone; it can never rejoin a channel.
	invokerID string
	channel   Channel
	closed    bool

	closeOnce sync.Once
}

// NewClient wraps an upgraded connection
func NewClient(h *Hub, conn *websocket.Conn, writeBuffer int, log zerolog.Logger) *Client {
	return &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, writeBuffer),
		log:  log.With().Str("component", "hub_client").Logger(),
	}
}

// Run services the connection until it closes. It starts the write pump and
// reads commands on the calling goroutine.
func (c *Client) Run(ctx context.Context) {
	go c.writePump()
	c.readPump(ctx)
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.drop(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug().Err(err).Msg("Viewer connection dropped")
			}
			return
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			// Malformed frames are logged and dropped, never fatal.
			c.log.Warn().Err(err).Msg("Dropping malformed frame")
			continue
		}

		c.hub.HandleCommand(ctx, c, msg)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			if !errors.Is(err, websocket.ErrCloseSent) {
				c.log.Debug().Err(err).Msg("Write to viewer failed")
			}
			return
		}
	}

	// Send channel closed: say goodbye properly.
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}
