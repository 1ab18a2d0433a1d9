// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/bbcd/internal/log"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func testDeps(services ...Service) Deps {
	return Deps{
		Logger: log.WithComponent("test"),
		APIHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "ok")
		}),
		Services: services,
	}
}

func TestNewManager_InvalidDeps(t *testing.T) {
	_, err := NewManager(DefaultServerConfig(":0"), Deps{Logger: log.WithComponent("test")})
	assert.ErrorIs(t, err, ErrMissingAPIHandler)

	_, err = NewManager(DefaultServerConfig(":0"), Deps{
		Logger:     zerolog.New(io.Discard).Level(zerolog.Disabled),
		APIHandler: http.NotFoundHandler(),
	})
	assert.ErrorIs(t, err, ErrMissingLogger)
}

func TestManager_ServesAndStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var mu sync.Mutex
	var order []string
	record := func(name string) ShutdownHook {
		return func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	serviceStopped := make(chan struct{})
	m, err := NewManager(DefaultServerConfig("127.0.0.1:0"), testDeps(Service{
		Name: "hub",
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			close(serviceStopped)
			return nil
		},
	}))
	require.NoError(t, err)
	m.RegisterShutdownHook("store", record("store"))
	m.RegisterShutdownHook("orchestrator", record("orchestrator"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()
	<-m.Ready()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + m.Addr() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("manager did not stop")
	}

	<-serviceStopped
	assert.Equal(t, []string{"orchestrator", "store"}, order)
}

func TestManager_ServiceFailureStopsDaemon(t *testing.T) {
	boom := errors.New("bus lost")
	m, err := NewManager(DefaultServerConfig("127.0.0.1:0"), testDeps(Service{
		Name: "hub",
		Run:  func(context.Context) error { return boom },
	}))
	require.NoError(t, err)

	select {
	case err := <-startAsync(m):
		assert.ErrorIs(t, err, boom)
	case <-time.After(5 * time.Second):
		t.Fatal("manager did not stop after service failure")
	}
}

func startAsync(m *Manager) <-chan error {
	done := make(chan error, 1)
	go func() { done <- m.Start(context.Background()) }()
	return done
}

func TestManager_BindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	m, err := NewManager(DefaultServerConfig(ln.Addr().String()), testDeps())
	require.NoError(t, err)
	err = m.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen")
}

func TestManager_ShutdownBeforeStart(t *testing.T) {
	m, err := NewManager(DefaultServerConfig(":0"), testDeps())
	require.NoError(t, err)
	assert.ErrorIs(t, m.Shutdown(context.Background()), ErrManagerNotStarted)
}

func TestManager_HookErrorsAreReported(t *testing.T) {
	m, err := NewManager(DefaultServerConfig("127.0.0.1:0"), testDeps())
	require.NoError(t, err)
	m.RegisterShutdownHook("flaky", func(context.Context) error { return errors.New("close failed") })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()
	<-m.Ready()
	cancel()

	err = <-done
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hook flaky")
}
