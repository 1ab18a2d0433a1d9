// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package schedule turns user-facing recording requests into concrete time windows.
package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidDurationUnit is returned for units outside {0,1,2}.
var ErrInvalidDurationUnit = errors.New("invalid duration unit")

// Unit is a power-of-60 multiplier: a magnitude in unit u is magnitude·60^u seconds.
type Unit int

const (
	UnitSeconds Unit = 0
	UnitMinutes Unit = 1
	UnitHours   Unit = 2
)

var unitFactors = [...]float64{1, 60, 3600}

var unitNames = [...]string{"seconds", "minutes", "hours"}

// Valid reports whether u is one of the three defined units.
func (u Unit) Valid() bool {
	return u >= UnitSeconds && u <= UnitHours
}

func (u Unit) String() string {
	if !u.Valid() {
		return fmt.Sprintf("Unit(%d)", int(u))
	}
	return unitNames[u]
}

// ToSeconds converts magnitude in unit to seconds.
// The magnitude is not validated here; callers reject negative values.
func ToSeconds(magnitude float64, unit Unit) (float64, error) {
	if !unit.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidDurationUnit, int(unit))
	}
	return magnitude * unitFactors[unit], nil
}

// ParseUnit accepts a numeric code ("0".."2") or a unit name, singular or plural.
func ParseUnit(s string) (Unit, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		u := Unit(n)
		if !u.Valid() {
			return 0, fmt.Errorf("%w: %d", ErrInvalidDurationUnit, n)
		}
		return u, nil
	}
	switch s {
	case "s", "sec", "second", "seconds":
		return UnitSeconds, nil
	case "m", "min", "minute", "minutes":
		return UnitMinutes, nil
	case "h", "hour", "hours":
		return UnitHours, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDurationUnit, s)
}

// UnmarshalJSON accepts the numeric code used by web clients or a unit name.
func (u *Unit) UnmarshalJSON(data []byte) error {
	var code int
	if err := json.Unmarshal(data, &code); err == nil {
		parsed := Unit(code)
		if !parsed.Valid() {
			return fmt.Errorf("%w: %d", ErrInvalidDurationUnit, code)
		}
		*u = parsed
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDurationUnit, string(data))
	}
	parsed, err := ParseUnit(name)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
