// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package worker

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegmentIndex(t *testing.T) {
	tests := []struct {
		ts   int64
		want int64
	}{
		{0, 38},
		{3, 38},
		{4, 39},
		{384, 138},
		{1700000000, 38 + 1700000000*50/192},
		{-1, 37},
		{-4, 36},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SegmentIndex(tt.ts), "ts=%d", tt.ts)
	}
}

func TestSegmentIndexMatchesFloorFormula(t *testing.T) {
	for ts := int64(0); ts < 5000; ts += 7 {
		want := int64(math.Floor(float64(ts)*50/192)) + 38
		assert.Equal(t, want, SegmentIndex(ts), "ts=%d", ts)
	}
}

func TestSegmentRange(t *testing.T) {
	first, last := SegmentRange(0, 3840)
	assert.Equal(t, int64(38), first)
	assert.Equal(t, int64(1038), last)
}
