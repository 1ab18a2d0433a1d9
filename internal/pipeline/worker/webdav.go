// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ManuGH/bbcd/internal/resilience"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// WebDAVConfig points the uploader at a collection. Clips are stored under
// <URL>/<uuid>/.
type WebDAVConfig struct {
	URL      string
	Username string
	Password string
	Timeout  time.Duration
	// FailureThreshold consecutive failed uploads open the breaker for
	// BreakerCooldown. Zero values use 3 and 30s.
	FailureThreshold int
	BreakerCooldown  time.Duration
}

// WebDAVUploader pushes the files a job leaves in its work directory.
type WebDAVUploader struct {
	base     *url.URL
	username string
	password string
	client   *http.Client
	breaker  *resilience.CircuitBreaker
}

// NewWebDAVUploader validates cfg. The client transport is traced.
func NewWebDAVUploader(cfg WebDAVConfig) (*WebDAVUploader, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("webdav: url is empty")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("webdav: parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("webdav: unsupported scheme %q", u.Scheme)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &WebDAVUploader{
		base:     u,
		username: cfg.Username,
		password: cfg.Password,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: resilience.NewCircuitBreaker("webdav", cfg.FailureThreshold, cfg.BreakerCooldown),
	}, nil
}

func (w *WebDAVUploader) resolve(elems ...string) string {
	u := *w.base
	u.Path = path.Join(append([]string{"/", w.base.Path}, elems...)...)
	return u.String()
}

// Upload creates the job collection and PUTs every regular file of the work
// directory into it, in name order. While the server keeps failing, uploads
// fail fast with resilience.ErrCircuitOpen.
func (w *WebDAVUploader) Upload(ctx context.Context, job Job) error {
	err := w.breaker.Execute(func() error { return w.upload(ctx, job) })
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return fmt.Errorf("webdav: %w", err)
	}
	return err
}

func (w *WebDAVUploader) upload(ctx context.Context, job Job) error {
	entries, err := os.ReadDir(job.WorkDir)
	if err != nil {
		return fmt.Errorf("webdav: read work dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	if err := w.do(ctx, "MKCOL", w.resolve(job.UUID)+"/", nil, 0, http.StatusCreated, http.StatusMethodNotAllowed); err != nil {
		return err
	}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if err := w.put(ctx, filepath.Join(job.WorkDir, e.Name()), w.resolve(job.UUID, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (w *WebDAVUploader) put(ctx context.Context, src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("webdav: open %s: %w", filepath.Base(src), err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("webdav: stat %s: %w", filepath.Base(src), err)
	}
	return w.do(ctx, http.MethodPut, dst, f, info.Size(), http.StatusCreated, http.StatusNoContent, http.StatusOK)
}

// do sends one request and accepts any of the listed statuses.
// MKCOL answers 405 when the collection already exists.
func (w *WebDAVUploader) do(ctx context.Context, method, target string, body io.Reader, size int64, ok ...int) error {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("webdav: %s %s: %w", method, target, err)
	}
	if body != nil {
		req.ContentLength = size
	}
	if w.username != "" || w.password != "" {
		req.SetBasicAuth(w.username, w.password)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webdav: %s %s: %w", method, target, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	for _, code := range ok {
		if resp.StatusCode == code {
			return nil
		}
	}
	return fmt.Errorf("webdav: %s %s: unexpected status %s", method, target, resp.Status)
}
