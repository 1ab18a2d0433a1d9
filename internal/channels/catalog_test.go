// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package channels

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := New([]Group{
		{Name: "A", Sources: []Source{{Key: "x", Name: "x"}, {Key: "y", Name: "y"}}},
		{Name: "B", Sources: []Source{{Key: "z", Name: "z"}}},
	})
	require.NoError(t, err)
	return c
}

func TestResolveAcrossGroups(t *testing.T) {
	c := smallCatalog(t)

	for id, want := range []string{"x", "y", "z"} {
		got, err := c.Resolve(id)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := c.Resolve(3)
	assert.ErrorIs(t, err, ErrSourceIndexOutOfRange)
	_, err = c.Resolve(-1)
	assert.ErrorIs(t, err, ErrSourceIndexOutOfRange)
}

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	require.Equal(t, 30, c.Total())

	tests := []struct {
		id   int
		want string
	}{
		{0, "BBC NEWS CHANNEL HD"},
		{1, "BBC WORLD NEWS AMERICA HD"},
		{2, "BBC ONE HD"},
		{18, "BBC ONE YORKSHIRE HD"},
		{19, "BBC TWO HD"},
		{21, "BBC TWO WALES DIGITAL"},
		{22, "BBC THREE HD"},
		{29, "S4C"},
	}
	for _, tt := range tests {
		got, err := c.Resolve(tt.id)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "id %d", tt.id)
	}

	_, err := c.Resolve(c.Total())
	assert.ErrorIs(t, err, ErrSourceIndexOutOfRange)
	_, err = c.Resolve(-1)
	assert.ErrorIs(t, err, ErrSourceIndexOutOfRange)

	s, err := c.Source(29)
	require.NoError(t, err)
	assert.Equal(t, "https://vs-cmaf-pushb-uk-live.akamaized.net/x=4/i=urn:bbc:pips:service:s4cpbs/", s.URLPrefix)
}

func TestResolveIsStableUnderConcurrency(t *testing.T) {
	c := Default()
	want := make([]string, c.Total())
	for id := range want {
		name, err := c.Resolve(id)
		require.NoError(t, err)
		want[id] = name
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range want {
				name, err := c.Resolve(id)
				if assert.NoError(t, err) {
					assert.Equal(t, want[id], name)
				}
			}
		}()
	}
	wg.Wait()
}

func TestByKey(t *testing.T) {
	c := Default()
	s, err := c.ByKey("bbc_parliament")
	require.NoError(t, err)
	assert.Equal(t, "BBC PARLIAMENT", s.Name)

	id, err := c.IDOf("bbc_parliament")
	require.NoError(t, err)
	assert.Equal(t, 27, id)

	_, err = c.ByKey("itv1")
	assert.ErrorIs(t, err, ErrUnknownSourceKey)
}

func TestNewRejectsInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name   string
		groups []Group
	}{
		{"no groups", nil},
		{"empty group name", []Group{{Name: "", Sources: []Source{{Key: "a", Name: "a"}}}}},
		{"no sources", []Group{{Name: "A"}}},
		{"missing key", []Group{{Name: "A", Sources: []Source{{Name: "a"}}}}},
		{"duplicate key", []Group{
			{Name: "A", Sources: []Source{{Key: "a", Name: "a"}}},
			{Name: "B", Sources: []Source{{Key: "a", Name: "b"}}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.groups)
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestGroupsReturnsCopy(t *testing.T) {
	c := smallCatalog(t)
	groups := c.Groups()
	groups[0].Sources[0].Name = "mutated"

	got, err := c.Resolve(0)
	require.NoError(t, err)
	assert.Equal(t, "x", got)

	want := []Group{
		{Name: "A", Sources: []Source{{Key: "x", Name: "x"}, {Key: "y", Name: "y"}}},
		{Name: "B", Sources: []Source{{Key: "z", Name: "z"}}},
	}
	if diff := cmp.Diff(want, c.Groups()); diff != "" {
		t.Errorf("Groups() mismatch (-want +got):\n%s", diff)
	}
}
