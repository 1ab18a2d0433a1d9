// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package calendar bounds the day component of a scheduled recording date.
package calendar

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidMonth is returned for months outside 1..12.
	ErrInvalidMonth = errors.New("invalid month")
	// ErrInvalidDay is returned for days outside 1..MaxDay.
	ErrInvalidDay = errors.New("invalid day")
	// ErrUnknownLeapRule is returned by ParseLeapRule.
	ErrUnknownLeapRule = errors.New("unknown leap rule")
)

// LeapRule selects how February is sized.
type LeapRule string

const (
	// LeapRuleGregorian is the full Gregorian rule, including the divisible-by-400 exception.
	LeapRuleGregorian LeapRule = "gregorian"
	// LeapRuleLegacy treats every divisible-by-100 year as common (2000 has 28 days in February).
	// It matches the date picker of the first web client.
	LeapRuleLegacy LeapRule = "legacy"
)

// DefaultLeapRule is used when configuration does not choose one.
const DefaultLeapRule = LeapRuleGregorian

// ParseLeapRule accepts "gregorian" or "legacy" (case-insensitive); empty selects the default.
func ParseLeapRule(s string) (LeapRule, error) {
	switch LeapRule(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultLeapRule, nil
	case LeapRuleGregorian:
		return LeapRuleGregorian, nil
	case LeapRuleLegacy:
		return LeapRuleLegacy, nil
	default:
		return "", fmt.Errorf("%w: %q (supported: gregorian, legacy)", ErrUnknownLeapRule, s)
	}
}

// IsLeap reports whether year has a 29th of February under the rule.
func (r LeapRule) IsLeap(year int) bool {
	if year%4 != 0 {
		return false
	}
	if year%100 != 0 {
		return true
	}
	return r != LeapRuleLegacy && year%400 == 0
}

// monthDays is indexed by month; February holds the common-year length.
var monthDays = [13]int{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// MaxDay returns the number of days in (year, month).
func MaxDay(year, month int, rule LeapRule) (int, error) {
	if month < 1 || month > 12 {
		return 0, fmt.Errorf("%w: %d (want 1..12)", ErrInvalidMonth, month)
	}
	if month == 2 && rule.IsLeap(year) {
		return 29, nil
	}
	return monthDays[month], nil
}

// ValidateDate rejects a (year, month, day) tuple whose day does not exist.
func ValidateDate(year, month, day int, rule LeapRule) error {
	maxDay, err := MaxDay(year, month, rule)
	if err != nil {
		return err
	}
	if day < 1 || day > maxDay {
		return fmt.Errorf("%w: %04d-%02d has days 1..%d, got %d", ErrInvalidDay, year, month, maxDay, day)
	}
	return nil
}
