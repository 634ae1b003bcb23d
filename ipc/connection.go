package ipc

import (
	"errors"
	"io"
	"log/slog"
	"time"
)

// Handler processes a received envelope. Return nil to send no reply.
type Handler func(env Envelope) (*Envelope, error)

// Connection represents a single controlled vehicle talking to the agent.
// Each vehicle gets its own connection and agent.
type Connection struct {
	conn     io.ReadWriteCloser
	handlers map[string]Handler
	Logger   *slog.Logger

	// IdleTimeout ends ReadLoop when the orchestrator sends nothing for this
	// long. Zero waits forever. Only streams with read deadlines honour it.
	IdleTimeout time.Duration
}

type deadliner interface {
	SetReadDeadline(t time.Time) error
}

func NewConnection(conn io.ReadWriteCloser, handlers map[string]Handler) *Connection {
	if handlers == nil {
		handlers = make(map[string]Handler)
	}
	return &Connection{
		conn:     conn,
		handlers: handlers,
		Logger:   slog.Default(),
	}
}

func (c *Connection) RegisterHandler(msgType string, handler Handler) {
	c.handlers[msgType] = handler
}

func (c *Connection) Send(msgType string, data any) error {
	env, err := NewEnvelope(msgType, data)
	if err != nil {
		return err
	}
	return WriteEnvelope(c.conn, env)
}

// Close closes the underlying stream, which ends ReadLoop.
func (c *Connection) Close() error {
	return c.conn.Close()
}

// ReadLoop blocks until the connection closes or errors. It owns the conn lifetime
// so callers don't need to track cleanup.
func (c *Connection) ReadLoop() {
	defer c.conn.Close()

	for {
		c.armDeadline()
		env, err := ReadEnvelope(c.conn)
		var frameErr *FrameError
		switch {
		case errors.As(err, &frameErr):
			// The payload was consumed whole, so the stream is still aligned.
			c.Logger.Warn("oversized frame dropped", "type", frameErr.Type, "size", frameErr.Size, "limit", frameErr.Limit)
			continue
		case err != nil:
			c.Logger.Info("connection read ended", "error", err)
			return
		}

		handler, ok := c.handlers[env.Type]
		if !ok {
			c.Logger.Warn("no handler for message type", "type", env.Type)
			continue
		}

		resp, err := handler(env)
		if err != nil {
			c.Logger.Error("handler error", "type", env.Type, "error", err)
			continue
		}

		if resp != nil {
			if err := WriteEnvelope(c.conn, *resp); err != nil {
				c.Logger.Error("failed to send response", "type", resp.Type, "error", err)
				return
			}
			c.Logger.Debug("sent response", "type", resp.Type)
		}
	}
}

func (c *Connection) armDeadline() {
	if c.IdleTimeout <= 0 {
		return
	}
	if d, ok := c.conn.(deadliner); ok {
		if err := d.SetReadDeadline(time.Now().Add(c.IdleTimeout)); err != nil {
			c.Logger.Debug("read deadline not set", "error", err)
		}
	}
}
