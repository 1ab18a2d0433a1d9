// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package worker

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ManuGH/bbcd/internal/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type davRecorder struct {
	mu    sync.Mutex
	calls []string
	files map[string]string
}

func (d *davRecorder) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "clip" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		d.mu.Lock()
		defer d.mu.Unlock()
		d.calls = append(d.calls, r.Method+" "+r.URL.Path)
		switch r.Method {
		case "MKCOL":
			w.WriteHeader(http.StatusCreated)
		case http.MethodPut:
			d.files[r.URL.Path] = string(body)
			w.WriteHeader(http.StatusCreated)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func TestWebDAVUploaderPutsWorkDirFiles(t *testing.T) {
	rec := &davRecorder{files: map[string]string{}}
	srv := httptest.NewServer(rec.handler(t))
	defer srv.Close()

	up, err := NewWebDAVUploader(WebDAVConfig{URL: srv.URL + "/dav", Username: "clip", Password: "secret"})
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.mp4"), []byte("video"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("meta"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "segments"), 0o750))

	err = up.Upload(context.Background(), Job{UUID: "u-1", WorkDir: dir})
	require.NoError(t, err)

	assert.Equal(t, []string{"MKCOL /dav/u-1/", "PUT /dav/u-1/a.txt", "PUT /dav/u-1/b.mp4"}, rec.calls)
	assert.Equal(t, "video", rec.files["/dav/u-1/b.mp4"])
}

func TestWebDAVUploaderReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInsufficientStorage)
	}))
	defer srv.Close()

	up, err := NewWebDAVUploader(WebDAVConfig{URL: srv.URL})
	require.NoError(t, err)

	err = up.Upload(context.Background(), Job{UUID: "u-2", WorkDir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "507")
}

func TestWebDAVUploaderFailsFastWhileServerIsDown(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	up, err := NewWebDAVUploader(WebDAVConfig{URL: srv.URL, FailureThreshold: 2, BreakerCooldown: time.Hour})
	require.NoError(t, err)

	job := Job{UUID: "u-3", WorkDir: t.TempDir()}
	require.Error(t, up.Upload(context.Background(), job))
	require.Error(t, up.Upload(context.Background(), job))
	require.Equal(t, int32(2), hits.Load())

	err = up.Upload(context.Background(), job)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(2), hits.Load())
}

func TestNewWebDAVUploaderValidatesURL(t *testing.T) {
	_, err := NewWebDAVUploader(WebDAVConfig{})
	assert.Error(t, err)
	_, err = NewWebDAVUploader(WebDAVConfig{URL: "ftp://example.org/"})
	assert.Error(t, err)
}

func TestDefaultStepsUploadWithoutUploader(t *testing.T) {
	assert.NoError(t, DefaultSteps{}.Upload(context.Background(), Job{}))
	assert.ErrorIs(t, DefaultSteps{}.Download(context.Background(), Job{}), ErrStepNotImplemented)
}
