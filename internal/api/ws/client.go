// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/ManuGH/bbcd/internal/log"
	"github.com/ManuGH/bbcd/internal/metrics"
	"github.com/ManuGH/bbcd/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// client is one websocket connection. All writes go through send and are
// performed by writePump; a client whose buffer is full is disconnected so
// it never receives a stream with gaps.
type client struct {
	id      uint64
	hub     *Hub
	conn    *websocket.Conn
	send    chan outbound
	seq     *protocol.Sequencer
	limiter *rate.Limiter
	logger  zerolog.Logger

	done chan struct{}
	once sync.Once
}

type outbound struct {
	kind protocol.Kind
	data []byte
}

func newClient(h *Hub, id uint64, conn *websocket.Conn) *client {
	return &client{
		id:      id,
		hub:     h,
		conn:    conn,
		send:    make(chan outbound, h.cfg.SendBuffer),
		seq:     protocol.NewSequencer(),
		limiter: rate.NewLimiter(h.cfg.InboundRate, h.cfg.InboundBurst),
		logger:  h.logger.With().Uint64(log.FieldClientID, id).Logger(),
		done:    make(chan struct{}),
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// enqueue hands data to the writer without blocking.
func (c *client) enqueue(kind protocol.Kind, data []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- outbound{kind: kind, data: data}:
	case <-c.done:
	default:
		metrics.IncWSFrame("out", string(kind), "dropped")
		c.logger.Warn().
			Str(log.FieldEvent, "ws.client.slow").
			Str(log.FieldFrameType, string(kind)).
			Msg("send buffer full, disconnecting client")
		c.close()
	}
}

func (c *client) enqueueFrame(f protocol.Frame, err error) {
	if err == nil {
		var data []byte
		data, err = protocol.Encode(f)
		if err == nil {
			c.enqueue(f.Type, data)
			return
		}
	}
	c.logger.Error().Err(err).Msg("encode frame")
}

func (c *client) sendHello() {
	c.enqueueFrame(protocol.NewHello(c.id, c.hub.cfg.Version))
}

func (c *client) sendError(msg string) {
	c.enqueueFrame(protocol.NewError(msg))
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.hub.cfg.PongWait * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case out := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, out.data); err != nil {
				c.logger.Debug().Err(err).Msg("write failed")
				c.close()
				return
			}
			metrics.IncWSFrame("out", string(out.kind), "sent")
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.hub.cfg.WriteTimeout)); err != nil {
				c.close()
				return
			}
		}
	}
}

// readPump handles client frames until the connection fails. Unknown or
// malformed frames are answered with an Error frame.
func (c *client) readPump() {
	pongWait := c.hub.cfg.PongWait
	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) &&
				!errors.Is(err, websocket.ErrCloseSent) {
				c.logger.Debug().Err(err).Msg("read failed")
			}
			return
		}

		if !c.limiter.Allow() {
			metrics.IncWSFrame("in", "throttled", "rejected")
			c.sendError("too many messages")
			continue
		}

		frame, err := protocol.DecodeClientFrame(data)
		if err != nil {
			metrics.IncWSFrame("in", "invalid", "rejected")
			c.logger.Debug().Err(err).Msg("rejected client frame")
			c.sendError(err.Error())
			continue
		}
		metrics.IncWSFrame("in", string(frame.Type), "received")

		switch frame.Type {
		case protocol.ClientKindPing:
			c.sendHello()
		}
	}
}
