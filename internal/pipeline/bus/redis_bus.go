// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string // Redis server address (host:port)
	Password string // Redis password (optional)
	DB       int    // Redis database number
}

// RedisBus publishes over Redis pub/sub so several daemons sharing one store
// also share stage updates. Delivery is at-most-once: a subscriber that is not
// connected when a message is published never sees it.
type RedisBus struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisBus connects to Redis and verifies the connection.
func NewRedisBus(ctx context.Context, cfg RedisConfig, logger zerolog.Logger) (*RedisBus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info().
		Str("addr", cfg.Addr).
		Int("db", cfg.DB).
		Msg("connected to Redis bus")

	return &RedisBus{client: client, logger: logger}, nil
}

// Ping checks the connection; used by the readiness check.
func (b *RedisBus) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBus) Publish(ctx context.Context, topic string, msg Message) error {
	if ctx == nil {
		return fmt.Errorf("publish context is nil")
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message for %q: %w", topic, err)
	}
	if err := b.client.Publish(ctx, topic, data).Err(); err != nil {
		return fmt.Errorf("publish topic %q: %w", topic, err)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, topic string) (Subscriber, error) {
	ps := b.client.Subscribe(ctx, topic)
	// Wait for the subscription confirmation so that messages published after
	// Subscribe returns are not lost.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe topic %q: %w", topic, err)
	}

	sub := &redisSub{
		ps:     ps,
		ch:     make(chan Message, subscriberSize),
		done:   make(chan struct{}),
		logger: b.logger.With().Str("topic", topic).Logger(),
	}
	sub.wg.Add(1)
	go sub.pump(ps.Channel())
	return sub, nil
}

// Close releases the underlying client.
func (b *RedisBus) Close() error {
	return b.client.Close()
}

type redisSub struct {
	ps     *redis.PubSub
	ch     chan Message
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
	logger zerolog.Logger
}

func (s *redisSub) pump(in <-chan *redis.Message) {
	defer s.wg.Done()
	defer close(s.ch)
	for {
		select {
		case <-s.done:
			return
		case raw, ok := <-in:
			if !ok {
				return
			}
			var msg Message
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				s.logger.Warn().Err(err).Msg("dropping undecodable bus message")
				continue
			}
			select {
			case s.ch <- msg:
			case <-s.done:
				return
			}
		}
	}
}

func (s *redisSub) C() <-chan Message {
	return s.ch
}

func (s *redisSub) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
		s.wg.Wait()
	})
	return err
}

var _ Bus = (*RedisBus)(nil)
