package websocket

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chatrelay/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var (
	ErrConnClosed     = errors.New("connection closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

type Options struct {
	MaxMessageSize int64
	SendBuffer     int
}

// DefaultOptions leaves room for base64 encoded images.
var DefaultOptions = Options{MaxMessageSize: 8 << 20, SendBuffer: 256}

// Conn is one accepted client socket. All writes go through a single
// goroutine draining send, so concurrent Send calls never interleave frames.
type Conn struct {
	id       string
	ws       *websocket.Conn
	send     chan []byte
	done     chan struct{}
	stopped  chan struct{}
	registry domain.Registry
	handler  domain.MessageHandler
	opts     Options

	closeOnce sync.Once
	leaveOnce sync.Once
}

func NewConn(id string, ws *websocket.Conn, r domain.Registry, h domain.MessageHandler, opts Options) *Conn {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = DefaultOptions.SendBuffer
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = DefaultOptions.MaxMessageSize
	}
	return &Conn{
		id:       id,
		ws:       ws,
		send:     make(chan []byte, opts.SendBuffer),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		registry: r,
		handler:  h,
		opts:     opts,
	}
}

func (c *Conn) ID() string { return c.id }

func (c *Conn) Send(data []byte) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrConnClosed
	default:
		return ErrSendBufferFull
	}
}

// Close asks the write pump to flush what is queued, send a normal close
// frame and tear the socket down. It is safe to call from any goroutine, any
// number of times, and does not wait; see Wait.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	return nil
}

// Wait blocks until the write pump has closed the socket or ctx is done.
func (c *Conn) Wait(ctx context.Context) error {
	select {
	case <-c.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Conn) Start() error {
	if err := c.registry.Register(c); err != nil {
		c.Close()
		c.ws.Close()
		close(c.stopped)
		return err
	}
	go c.writePump()
	go c.readPump()
	return nil
}

// leave removes the session and announces it. Both pumps may fail at the
// same time; only the first call does anything.
func (c *Conn) leave() {
	c.leaveOnce.Do(func() {
		name, _ := c.registry.Remove(c)
		c.handler.Leave(c, name)
	})
}

func (c *Conn) readPump() {
	defer func() {
		c.leave()
		c.Close()
	}()

	c.ws.SetReadLimit(c.opts.MaxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("read error", "clientId", c.id, "error", err)
			}
			return
		}

		c.handler.Handle(c, data)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
		c.ws.Close()
		close(c.stopped)
	}()

	for {
		select {
		case <-c.done:
			c.flush()
			return
		case message := <-c.send:
			if err := c.write(message); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Conn) write(message []byte) error {
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
		slog.Debug("write error", "clientId", c.id, "error", err)
		return err
	}
	return nil
}

// flush writes the frames queued before Close, then the close frame.
func (c *Conn) flush() {
	for {
		select {
		case message := <-c.send:
			if err := c.write(message); err != nil {
				return
			}
		default:
			closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			c.ws.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(writeWait))
			return
		}
	}
}

// CloseAll closes every connection in r and waits, bounded by ctx, for their
// close frames to be written.
func CloseAll(ctx context.Context, r domain.Registry) {
	conns := r.Connections()
	for _, conn := range conns {
		conn.Close()
	}
	for _, conn := range conns {
		c, ok := conn.(*Conn)
		if !ok {
			continue
		}
		if err := c.Wait(ctx); err != nil {
			slog.Warn("connection not closed in time", "clientId", c.id, "error", err)
		}
	}
}
