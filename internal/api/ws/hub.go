// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package ws serves the job-status channel: every connected client receives
// a ClientHello on open and a StageUpdate frame for each stage change.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/bbcd/internal/domain/recordings/model"
	"github.com/ManuGH/bbcd/internal/log"
	"github.com/ManuGH/bbcd/internal/metrics"
	"github.com/ManuGH/bbcd/internal/pipeline/bus"
	"github.com/ManuGH/bbcd/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// ErrHubClosed is returned by Run when the hub was already shut down.
var ErrHubClosed = errors.New("hub closed")

// Config tunes the per-connection behaviour of the hub.
type Config struct {
	Version        string
	SendBuffer     int
	WriteTimeout   time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
	InboundRate    rate.Limit
	InboundBurst   int
	AllowedOrigins []string
}

func (c *Config) defaults() {
	if c.SendBuffer <= 0 {
		c.SendBuffer = 32
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.PongWait <= 0 {
		c.PongWait = 60 * time.Second
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 4096
	}
	if c.InboundRate <= 0 {
		c.InboundRate = 5
	}
	if c.InboundBurst <= 0 {
		c.InboundBurst = 10
	}
}

// Hub fans bus stage updates out to websocket clients.
type Hub struct {
	cfg      Config
	bus      bus.Bus
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	nextID     atomic.Uint64
	subscribed chan struct{}
	subOnce    sync.Once

	mu      sync.RWMutex
	clients map[uint64]*client
	closed  bool
}

// NewHub creates a hub reading stage updates from b. Run must be called for
// updates to flow; ServeHTTP accepts clients either way.
func NewHub(cfg Config, b bus.Bus) *Hub {
	cfg.defaults()
	h := &Hub{
		cfg:        cfg,
		bus:        b,
		logger:     log.WithComponent("ws"),
		clients:    make(map[uint64]*client),
		subscribed: make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	return slices.ContainsFunc(h.cfg.AllowedOrigins, func(allowed string) bool {
		return allowed == "*" || strings.EqualFold(strings.TrimRight(allowed, "/"), origin)
	})
}

// Subscribed is closed once Run receives stage updates from the bus.
func (h *Hub) Subscribed() <-chan struct{} {
	return h.subscribed
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run subscribes to stage updates and delivers them until ctx is done. On
// return every client has been disconnected.
func (h *Hub) Run(ctx context.Context) error {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		return ErrHubClosed
	}

	sub, err := h.bus.Subscribe(ctx, bus.TopicRecordingStage)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", bus.TopicRecordingStage, err)
	}
	defer func() { _ = sub.Close() }()
	defer h.shutdown()
	h.subOnce.Do(func() { close(h.subscribed) })

	h.logger.Info().Str(log.FieldEvent, "ws.hub.started").Msg("job-status hub running")
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.C():
			if !ok {
				return nil
			}
			h.dispatch(msg)
		}
	}
}

func (h *Hub) dispatch(msg bus.Message) {
	var rec model.Recording
	if err := json.Unmarshal(msg.Payload, &rec); err != nil {
		h.logger.Warn().Err(err).Str(log.FieldJobID, msg.Key).Msg("discarding undecodable stage update")
		return
	}
	frame, err := protocol.NewStageUpdate(rec)
	if err != nil {
		h.logger.Error().Err(err).Str(log.FieldJobID, rec.UUID).Msg("build stage update")
		return
	}
	data, err := protocol.Encode(frame)
	if err != nil {
		h.logger.Error().Err(err).Str(log.FieldJobID, rec.UUID).Msg("encode stage update")
		return
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.seq.Admit(rec.UUID, rec.Stage); err != nil {
			metrics.IncWSFrame("out", string(protocol.KindStageUpdate), "rejected")
			c.logger.Debug().Err(err).Str(log.FieldJobID, rec.UUID).Msg("stage update out of sequence")
			continue
		}
		c.enqueue(protocol.KindStageUpdate, data)
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.id] = c
	metrics.WSClientConnected()
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		metrics.WSClientDisconnected()
	}
	h.mu.Unlock()
	c.close()
}

// shutdown disconnects every client with a going-away close frame and
// rejects new connections.
func (h *Hub) shutdown() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for id, c := range h.clients {
		clients = append(clients, c)
		delete(h.clients, id)
		metrics.WSClientDisconnected()
	}
	h.mu.Unlock()

	for _, c := range clients {
		deadline := time.Now().Add(time.Second)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), deadline)
		c.close()
	}
	h.logger.Info().Str(log.FieldEvent, "ws.hub.stopped").Int("clients", len(clients)).Msg("job-status hub stopped")
}

// ServeHTTP upgrades the request and serves the client until it disconnects.
// Disconnecting only removes the client; running jobs are unaffected.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		h.logger.Debug().Err(err).Str("remote_addr", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	id := h.nextID.Add(1)
	c := newClient(h, id, conn)
	if !h.register(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server shutting down"), time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}

	c.logger.Debug().Str(log.FieldEvent, "ws.client.connected").Str("remote_addr", r.RemoteAddr).Msg("client connected")

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.writePump()
	}()

	c.sendHello()
	c.readPump()

	h.unregister(c)
	<-done
	c.logger.Debug().Str(log.FieldEvent, "ws.client.disconnected").Msg("client disconnected")
}
