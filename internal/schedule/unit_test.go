// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package schedule

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSeconds(t *testing.T) {
	tests := []struct {
		magnitude float64
		unit      Unit
		want      float64
	}{
		{5, UnitMinutes, 300},
		{2, UnitHours, 7200},
		{10, UnitSeconds, 10},
		{1.5, UnitMinutes, 90},
		{0, UnitHours, 0},
	}
	for _, tt := range tests {
		got, err := ToSeconds(tt.magnitude, tt.unit)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%v %s", tt.magnitude, tt.unit)
	}
}

func TestToSecondsRejectsUnknownUnit(t *testing.T) {
	for _, u := range []Unit{-1, 3, 60} {
		_, err := ToSeconds(1, u)
		assert.ErrorIs(t, err, ErrInvalidDurationUnit)
	}
}

func TestParseUnit(t *testing.T) {
	tests := map[string]Unit{
		"0":       UnitSeconds,
		"1":       UnitMinutes,
		"2":       UnitHours,
		"seconds": UnitSeconds,
		"Minutes": UnitMinutes,
		" h ":     UnitHours,
	}
	for in, want := range tests {
		got, err := ParseUnit(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"3", "days", ""} {
		_, err := ParseUnit(in)
		assert.ErrorIs(t, err, ErrInvalidDurationUnit, in)
	}
}

func TestUnitUnmarshalJSON(t *testing.T) {
	var u Unit
	require.NoError(t, json.Unmarshal([]byte("2"), &u))
	assert.Equal(t, UnitHours, u)

	require.NoError(t, json.Unmarshal([]byte(`"minutes"`), &u))
	assert.Equal(t, UnitMinutes, u)

	assert.ErrorIs(t, json.Unmarshal([]byte("5"), &u), ErrInvalidDurationUnit)
	assert.ErrorIs(t, json.Unmarshal([]byte(`{}`), &u), ErrInvalidDurationUnit)
}
