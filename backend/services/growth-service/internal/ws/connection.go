package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	maxMessageBytes = 4 * 1024
	pongWait        = 60 * time.Second
	pingPeriod      = 30 * time.Second
)

// MessageProcessor answers one inbound frame.
type MessageProcessor interface {
	Process(ctx context.Context, sessionID string, raw []byte) ([]byte, error)
}

// Connection is one chat websocket bound to a session.
type Connection struct {
	id           string
	sessionID    string
	ws           *websocket.Conn
	send         chan []byte
	done         chan struct{}
	closeOnce    sync.Once
	logger       *zap.Logger
	processor    MessageProcessor
	writeTimeout time.Duration
	onClose      func(id string)
}

// NewConnection builds connection wrapper.
func NewConnection(id, sessionID string, ws *websocket.Conn, processor MessageProcessor, writeTimeout time.Duration, logger *zap.Logger, onClose func(string)) *Connection {
	return &Connection{
		id:           id,
		sessionID:    sessionID,
		ws:           ws,
		send:         make(chan []byte, 16),
		done:         make(chan struct{}),
		logger:       logger,
		processor:    processor,
		writeTimeout: writeTimeout,
		onClose:      onClose,
	}
}

// ID returns the connection identifier.
func (c *Connection) ID() string { return c.id }

// Start runs the write pump in the background and the read pump until the peer goes away,
// Close is called or ctx is cancelled.
func (c *Connection) Start(ctx context.Context) {
	go c.writePump(ctx)
	c.readPump(ctx)
}

func (c *Connection) readPump(ctx context.Context) {
	defer c.Close()
	c.ws.SetReadLimit(maxMessageBytes)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info("chat connection read closed", zap.String("session_id", c.sessionID), zap.Error(err))
			}
			return
		}

		response, err := c.processor.Process(ctx, c.sessionID, message)
		if err != nil {
			c.logger.Warn("failed to process chat message", zap.String("session_id", c.sessionID), zap.Error(err))
		}
		if response != nil {
			c.Send(response)
		}
	}
}

func (c *Connection) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.Close()
			c.shutdown()
			return
		case <-c.done:
			c.shutdown()
			return
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				c.Close()
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.Close()
			}
		}
	}
}

// shutdown sends a close frame and releases the socket, which also unblocks readPump.
func (c *Connection) shutdown() {
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "connection closed"),
		time.Now().Add(c.writeTimeout))
	_ = c.ws.Close()
}

// Send enqueues a message; it is dropped when the buffer is full or the connection closed.
func (c *Connection) Send(msg []byte) {
	select {
	case <-c.done:
	case c.send <- msg:
	default:
		c.logger.Warn("dropping outgoing chat message, buffer full", zap.String("session_id", c.sessionID))
	}
}

func (c *Connection) write(messageType int, data []byte) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteMessage(messageType, data)
}

// Close stops both pumps. Safe to call more than once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.onClose != nil {
			c.onClose(c.id)
		}
	})
}
