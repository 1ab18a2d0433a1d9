// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package schedule

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/ManuGH/bbcd/internal/calendar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestResolveTimestamps(t *testing.T) {
	w, err := Request{StartTimestamp: ptr[int64](1700000000), EndTimestamp: ptr[int64](1700000600)}.Resolve(calendar.LeapRuleGregorian)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, w.Length())
	assert.Equal(t, time.UTC, w.Start.Location())
}

func TestResolveDateAndDuration(t *testing.T) {
	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{
		"start": {"year": 2024, "month": 2, "day": 29, "hour": 20, "minute": 30},
		"duration": {"value": 2, "unit": 2}
	}`), &req))

	w, err := req.Resolve(calendar.LeapRuleGregorian)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 20, 30, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2024, 2, 29, 22, 30, 0, 0, time.UTC), w.End)
}

func TestResolveRejects(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		rule calendar.LeapRule
		err  error
	}{
		{"missing start", Request{EndTimestamp: ptr[int64](10)}, calendar.LeapRuleGregorian, ErrInvalidWindow},
		{"missing end", Request{StartTimestamp: ptr[int64](10)}, calendar.LeapRuleGregorian, ErrInvalidWindow},
		{"end before start", Request{StartTimestamp: ptr[int64](10), EndTimestamp: ptr[int64](5)}, calendar.LeapRuleGregorian, ErrInvalidWindow},
		{"empty window", Request{StartTimestamp: ptr[int64](10), EndTimestamp: ptr[int64](10)}, calendar.LeapRuleGregorian, ErrInvalidWindow},
		{"both starts", Request{StartTimestamp: ptr[int64](10), Start: &Date{Year: 2024, Month: 1, Day: 1}, EndTimestamp: ptr[int64](20)}, calendar.LeapRuleGregorian, ErrInvalidWindow},
		{"both ends", Request{StartTimestamp: ptr[int64](10), EndTimestamp: ptr[int64](20), Duration: &Span{Value: 1}}, calendar.LeapRuleGregorian, ErrInvalidWindow},
		{"bad unit", Request{StartTimestamp: ptr[int64](10), Duration: &Span{Value: 1, Unit: 3}}, calendar.LeapRuleGregorian, ErrInvalidDurationUnit},
		{"negative magnitude", Request{StartTimestamp: ptr[int64](10), Duration: &Span{Value: -1, Unit: UnitMinutes}}, calendar.LeapRuleGregorian, ErrInvalidWindow},
		{"infinite magnitude", Request{StartTimestamp: ptr[int64](10), Duration: &Span{Value: math.Inf(1), Unit: UnitHours}}, calendar.LeapRuleGregorian, ErrInvalidWindow},
		{"overflowing magnitude", Request{StartTimestamp: ptr[int64](10), Duration: &Span{Value: 1e15, Unit: UnitHours}}, calendar.LeapRuleGregorian, ErrInvalidWindow},
		{"nonexistent day", Request{Start: &Date{Year: 2023, Month: 2, Day: 29}, Duration: &Span{Value: 1, Unit: UnitHours}}, calendar.LeapRuleGregorian, calendar.ErrInvalidDay},
		{"legacy century", Request{Start: &Date{Year: 2000, Month: 2, Day: 29}, Duration: &Span{Value: 1, Unit: UnitHours}}, calendar.LeapRuleLegacy, calendar.ErrInvalidDay},
		{"bad month", Request{Start: &Date{Year: 2023, Month: 13, Day: 1}, Duration: &Span{Value: 1, Unit: UnitHours}}, calendar.LeapRuleGregorian, calendar.ErrInvalidMonth},
		{"bad hour", Request{Start: &Date{Year: 2023, Month: 1, Day: 1, Hour: 24}, Duration: &Span{Value: 1, Unit: UnitHours}}, calendar.LeapRuleGregorian, ErrInvalidWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.Resolve(tt.rule)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}
