package gateway

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/searchparty-game/searchparty/internal/model"
)

const (
	// writeWait is how long a single write may take
	writeWait = 10 * time.Second
	// pongWait is how long we wait for a pong before dropping the connection
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize is generous because history batches carry real URLs
	maxMessageSize = 512 * 1024
	// sendBufferSize bounds the per-connection outbound queue
	sendBufferSize = 256
)

// Client is one WebSocket connection. The fields below send are only
// touched from the connection's own readPump goroutine, so they need
// no lock.
type Client struct {
	id      model.ConnectionID
	conn    *websocket.Conn
	send    chan []byte
	gateway *Gateway
	logger  *slog.Logger

	connectedAt time.Time

	// Session state, set as the connection creates or joins a room
	roomID   model.RoomID
	playerID model.PlayerID
	isHost   bool
}

func newClient(id model.ConnectionID, conn *websocket.Conn, g *Gateway) *Client {
	return &Client{
		id:          id,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		gateway:     g,
		logger:      g.logger.With(slog.String("connection_id", string(id))),
		connectedAt: g.clock.Now(),
	}
}

// enqueue queues one outbound frame, dropping it if the client is too
// far behind to matter.
func (c *Client) enqueue(message []byte) {
	select {
	case c.send <- message:
	default:
		c.logger.Warn("send dropped - client buffer full")
	}
}

// readPump reads inbound frames and hands them to the gateway. It owns
// the connection's session state and runs until the peer goes away.
func (c *Client) readPump() {
	defer func() {
		c.gateway.disconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("unexpected close", slog.String("error", err.Error()))
			}
			return
		}
		c.gateway.dispatch(c, message)
	}
}

// writePump drains the send channel to the wire and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
