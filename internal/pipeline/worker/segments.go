// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package worker

// The stream is described by <SegmentTemplate timescale="50" duration="192"/>,
// so one segment covers 192/50 = 3.84 s.
const (
	segmentTimescale = 50
	segmentDuration  = 192
	// segmentOffset aligns the Unix epoch with the provider's segment numbering
	// (38 segments = 145.92 s).
	segmentOffset = 38
)

// SegmentIndex maps a Unix timestamp in seconds to the segment number that
// contains it: floor(ts / 3.84) + 38. Integer arithmetic keeps the boundaries exact.
func SegmentIndex(ts int64) int64 {
	n := ts * segmentTimescale
	q := n / segmentDuration
	if n%segmentDuration != 0 && n < 0 {
		q--
	}
	return q + segmentOffset
}

// SegmentRange returns the inclusive segment bounds of [start, end).
func SegmentRange(start, end int64) (first, last int64) {
	return SegmentIndex(start), SegmentIndex(end)
}
