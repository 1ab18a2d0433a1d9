// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package channels

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Groups []Group `yaml:"groups"`
}

// LoadFile reads a YAML catalog definition. Unknown fields are rejected.
//
//	groups:
//	  - name: BBC NEWS
//	    sources:
//	      - key: bbc_news_channel_hd
//	        name: BBC NEWS CHANNEL HD
//	        urlPrefix: https://...
func LoadFile(path string) (*Catalog, error) {
	// #nosec G304 -- catalog path is provided by the operator
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog definition.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty catalog file", ErrInvalidCatalog)
		}
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(f.Groups)
}
