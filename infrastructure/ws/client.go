package ws

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chatter-box/contract"
	"chatter-box/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Client is one live websocket connection. Outbound frames go through the
// buffered send channel consumed by the write pump; Consume never blocks,
// a full buffer drops the frame for this subscriber only.
type Client struct {
	id       uuid.UUID
	identity domain.SessionIdentity
	conn     *websocket.Conn
	log      *slog.Logger
	send     chan []byte
	done     chan struct{}
	once     sync.Once
}

func NewClient(conn *websocket.Conn, identity domain.SessionIdentity, log *slog.Logger, bufferSize int) *Client {
	return &Client{
		id:       identity.ConnectionID,
		identity: identity,
		conn:     conn,
		log:      log,
		send:     make(chan []byte, bufferSize),
		done:     make(chan struct{}),
	}
}

func (c *Client) ID() uuid.UUID { return c.id }

func (c *Client) Identity() domain.SessionIdentity { return c.identity }

// Consume queues one broadcast frame for delivery. Called by the router on
// the publisher's goroutine, so it must never wait on this connection.
func (c *Client) Consume(out contract.Outbound) error {
	payload, err := json.Marshal(Broadcast{Topic: out.Topic, Payload: out.Payload})
	if err != nil {
		return fmt.Errorf("encoding broadcast: %w", err)
	}

	select {
	case <-c.done:
		return fmt.Errorf("connection %s is closed", c.id)
	case c.send <- payload:
		return nil
	default:
		return fmt.Errorf("connection %s send buffer full", c.id)
	}
}

// reply queues a direct frame (error reply or receipt) for this connection.
func (c *Client) reply(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.log.Error("Failed to encode reply", "err", err)
		return
	}
	select {
	case <-c.done:
	case c.send <- payload:
	default:
		c.log.Warn("Reply dropped, send buffer full", "connection_id", c.id)
	}
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
		if err := c.conn.Close(); err != nil {
			c.log.Debug("Closing connection", "err", err)
		}
	})
}

// writePump serializes all writes to the connection and keeps it alive
// with periodic pings. The read pump owns teardown; the write pump exits
// when done closes.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
