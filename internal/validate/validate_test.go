// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package validate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_URL(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid http", "http://example.com", false},
		{"valid https with path", "https://dav.example.com/remote.php/dav", false},
		{"empty url", "", true},
		{"no host", "http://", true},
		{"invalid scheme", "ftp://example.com", true},
		{"no scheme", "example.com", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.URL("url", tt.value, []string{"http", "https"})
			assert.Equal(t, tt.wantErr, !v.IsValid(), "err: %v", v.Err())
		})
	}
}

func TestValidator_ListenAddr(t *testing.T) {
	for addr, wantErr := range map[string]bool{
		":8081":          false,
		"127.0.0.1:8081": false,
		"[::1]:0":        false,
		"8081":           true,
		":http":          true,
		":70000":         true,
	} {
		v := New()
		v.ListenAddr("listen", addr)
		assert.Equal(t, wantErr, !v.IsValid(), "addr %q", addr)
	}
}

func TestValidator_Directory(t *testing.T) {
	root := t.TempDir()

	v := New()
	created := filepath.Join(root, "data")
	v.Directory("data", created, false)
	require.True(t, v.IsValid(), v.Err())
	assert.DirExists(t, created)

	v = New()
	v.Directory("data", filepath.Join(root, "missing"), true)
	assert.False(t, v.IsValid())

	file := filepath.Join(root, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	v = New()
	v.Directory("data", file, false)
	assert.False(t, v.IsValid())

	v = New()
	v.Directory("data", "../escape", false)
	assert.False(t, v.IsValid())
}

func TestValidationErrorAggregates(t *testing.T) {
	v := New()
	v.Range("maxConcurrent", 0, 1, 64)
	v.OneOf("store", "bolt", []string{"memory", "sqlite"})
	v.NotEmpty("service", " ")
	v.Positive("rate", -1)
	v.FloatRange("sampling", 2, 0, 1)
	v.Custom("leapRule", "julian", func(any) error { return errors.New("unknown rule") })

	err := v.Err()
	require.Error(t, err)
	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Errors(), 6)
	assert.Contains(t, err.Error(), "validation failed for store")
	assert.Contains(t, err.Error(), "; ")

	assert.NoError(t, New().Err())
}
