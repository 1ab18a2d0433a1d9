// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package daemon owns the process lifecycle: the API server, background
// services and ordered shutdown.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ManuGH/bbcd/internal/log"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ShutdownHook is a function that performs cleanup during graceful shutdown.
// Hooks are executed in reverse registration order (LIFO).
type ShutdownHook func(ctx context.Context) error

type namedHook struct {
	name string
	hook ShutdownHook
}

// Manager runs the API server and background services until its context
// ends or one of them fails, then shuts everything down.
type Manager struct {
	serverCfg ServerConfig
	deps      Deps
	logger    zerolog.Logger

	mu            sync.Mutex
	started       bool
	stopping      bool
	apiServer     *http.Server
	listener      net.Listener
	shutdownHooks []namedHook
	ready         chan struct{}
}

// NewManager creates a new daemon manager with the given configuration and dependencies.
func NewManager(serverCfg ServerConfig, deps Deps) (*Manager, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	if serverCfg.ShutdownTimeout <= 0 {
		serverCfg.ShutdownTimeout = 15 * time.Second
	}
	return &Manager{
		serverCfg: serverCfg,
		deps:      deps,
		logger:    deps.Logger.With().Str(log.FieldComponent, "manager").Logger(),
		ready:     make(chan struct{}),
	}, nil
}

// Ready is closed once the API server is listening.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Addr returns the bound listen address, or "" before Start has bound it.
func (m *Manager) Addr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listener == nil {
		return ""
	}
	return m.listener.Addr().String()
}

// Start binds the listen address, starts the services and blocks until ctx
// is cancelled or a component fails. A bind failure is returned immediately.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return fmt.Errorf("manager already started")
	}
	m.started = true
	m.mu.Unlock()

	ln, err := net.Listen("tcp", m.serverCfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", m.serverCfg.ListenAddr, err)
	}

	srv := &http.Server{
		Handler:           m.deps.APIHandler,
		ReadTimeout:       m.serverCfg.ReadTimeout,
		ReadHeaderTimeout: m.serverCfg.ReadTimeout / 2,
		WriteTimeout:      m.serverCfg.WriteTimeout,
		IdleTimeout:       m.serverCfg.IdleTimeout,
		MaxHeaderBytes:    m.serverCfg.MaxHeaderBytes,
	}
	m.mu.Lock()
	m.apiServer = srv
	m.listener = ln
	m.mu.Unlock()

	svcCtx, cancelServices := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelServices()
	g, gctx := errgroup.WithContext(svcCtx)

	for _, svc := range m.deps.Services {
		g.Go(func() error {
			m.logger.Info().Str("service", svc.Name).Msg("service starting")
			if err := svc.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				m.logger.Error().Err(err).Str("service", svc.Name).Msg("service failed")
				return fmt.Errorf("service %s: %w", svc.Name, err)
			}
			m.logger.Info().Str("service", svc.Name).Msg("service stopped")
			return nil
		})
	}

	g.Go(func() error {
		m.logger.Info().
			Str(log.FieldEvent, "api.server.listening").
			Str("addr", ln.Addr().String()).
			Msg("API server listening (HTTP)")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error().Err(err).Str(log.FieldEvent, "api.server.failed").Msg("API server failed")
			return fmt.Errorf("API server: %w", err)
		}
		return nil
	})
	close(m.ready)

	select {
	case <-ctx.Done():
		m.logger.Info().Msg("Shutdown signal received")
	case <-gctx.Done():
		m.logger.Error().Msg("component failed, initiating shutdown")
	}

	// Use a detached-but-bounded context so shutdown can complete even if parent is canceled.
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.serverCfg.ShutdownTimeout)
	defer cancel()
	shutdownErr := m.Shutdown(shutdownCtx)

	cancelServices()
	return errors.Join(g.Wait(), shutdownErr)
}

// Shutdown stops the API server and runs the shutdown hooks in LIFO order.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		return nil
	}
	if !m.started {
		m.mu.Unlock()
		return ErrManagerNotStarted
	}
	m.stopping = true
	srv := m.apiServer
	hooks := append([]namedHook(nil), m.shutdownHooks...)
	m.mu.Unlock()

	m.logger.Info().Msg("Shutting down daemon manager")

	var errs []error
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("API server shutdown: %w", err))
		}
	}

	for i := len(hooks) - 1; i >= 0; i-- {
		hook := hooks[i]
		hookStart := time.Now()
		if err := hook.hook(ctx); err != nil {
			m.logger.Error().
				Err(err).
				Str("hook", hook.name).
				Dur("duration", time.Since(hookStart)).
				Msg("Shutdown hook failed")
			errs = append(errs, fmt.Errorf("hook %s: %w", hook.name, err))
			continue
		}
		m.logger.Debug().
			Str("hook", hook.name).
			Dur("duration", time.Since(hookStart)).
			Msg("Shutdown hook completed")
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	m.logger.Info().Msg("Daemon manager stopped cleanly")
	return nil
}

// RegisterShutdownHook registers a cleanup function to be called during shutdown.
// Hooks are executed in reverse registration order (LIFO).
func (m *Manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownHooks = append(m.shutdownHooks, namedHook{name: name, hook: hook})
}
