// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package channels holds the catalog of recordable sources.
//
// A source is addressed by its position in the concatenation of all groups in
// declaration order. Positions are persisted with jobs, so the catalog is
// append-only: see CheckLock.
package channels

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSourceIndexOutOfRange is returned for ids outside [0, Total()).
	ErrSourceIndexOutOfRange = errors.New("source index out of range")
	// ErrUnknownSourceKey is returned when no source carries the requested key.
	ErrUnknownSourceKey = errors.New("unknown source key")
	// ErrInvalidCatalog is returned by New for empty or ambiguous definitions.
	ErrInvalidCatalog = errors.New("invalid catalog")
)

// Source is a single recordable channel.
type Source struct {
	Key       string `json:"key" yaml:"key"`
	Name      string `json:"name" yaml:"name"`
	URLPrefix string `json:"-" yaml:"urlPrefix"`
}

// Group is a named, ordered list of sources (usually one network).
type Group struct {
	Name    string   `json:"name" yaml:"name"`
	Sources []Source `json:"sources" yaml:"sources"`
}

// Catalog is immutable after New and safe for concurrent use.
type Catalog struct {
	groups []Group
	flat   []Source
	byKey  map[string]int
}

// New validates groups and builds the positional index.
// Keys must be unique and non-empty; names must be non-empty.
func New(groups []Group) (*Catalog, error) {
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: no groups", ErrInvalidCatalog)
	}
	c := &Catalog{
		groups: make([]Group, 0, len(groups)),
		byKey:  make(map[string]int),
	}
	for _, g := range groups {
		if strings.TrimSpace(g.Name) == "" {
			return nil, fmt.Errorf("%w: group without name", ErrInvalidCatalog)
		}
		cp := Group{Name: g.Name, Sources: append([]Source(nil), g.Sources...)}
		for _, s := range cp.Sources {
			if strings.TrimSpace(s.Name) == "" {
				return nil, fmt.Errorf("%w: source without name in group %q", ErrInvalidCatalog, g.Name)
			}
			if strings.TrimSpace(s.Key) == "" {
				return nil, fmt.Errorf("%w: source %q has no key", ErrInvalidCatalog, s.Name)
			}
			if _, dup := c.byKey[s.Key]; dup {
				return nil, fmt.Errorf("%w: duplicate source key %q", ErrInvalidCatalog, s.Key)
			}
			c.byKey[s.Key] = len(c.flat)
			c.flat = append(c.flat, s)
		}
		c.groups = append(c.groups, cp)
	}
	if len(c.flat) == 0 {
		return nil, fmt.Errorf("%w: no sources", ErrInvalidCatalog)
	}
	return c, nil
}

// Total is the number of addressable sources.
func (c *Catalog) Total() int {
	return len(c.flat)
}

// Source returns the entry at the positional id.
func (c *Catalog) Source(id int) (Source, error) {
	if id < 0 || id >= len(c.flat) {
		return Source{}, fmt.Errorf("%w: %d not in [0, %d)", ErrSourceIndexOutOfRange, id, len(c.flat))
	}
	return c.flat[id], nil
}

// Resolve maps a positional id to its display name.
func (c *Catalog) Resolve(id int) (string, error) {
	s, err := c.Source(id)
	if err != nil {
		return "", err
	}
	return s.Name, nil
}

// ByKey returns the source carrying key.
func (c *Catalog) ByKey(key string) (Source, error) {
	id, err := c.IDOf(key)
	if err != nil {
		return Source{}, err
	}
	return c.flat[id], nil
}

// IDOf returns the positional id of key.
func (c *Catalog) IDOf(key string) (int, error) {
	id, ok := c.byKey[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSourceKey, key)
	}
	return id, nil
}

// Groups returns a copy of the grouped view.
func (c *Catalog) Groups() []Group {
	out := make([]Group, len(c.groups))
	for i, g := range c.groups {
		out[i] = Group{Name: g.Name, Sources: append([]Source(nil), g.Sources...)}
	}
	return out
}

// Keys returns the source keys in positional order.
func (c *Catalog) Keys() []string {
	out := make([]string, len(c.flat))
	for i, s := range c.flat {
		out[i] = s.Key
	}
	return out
}
