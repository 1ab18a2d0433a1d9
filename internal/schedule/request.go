// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package schedule

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ManuGH/bbcd/internal/calendar"
)

// ErrInvalidWindow covers missing, contradictory or empty time windows.
var ErrInvalidWindow = errors.New("invalid recording window")

// maxSeconds keeps conversions inside time.Duration.
const maxSeconds = float64(math.MaxInt64 / int64(time.Second))

// Date is a UTC wall-clock start as entered in a date picker.
type Date struct {
	Year   int `json:"year"`
	Month  int `json:"month"`
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Second int `json:"second"`
}

// Time validates d and converts it to a UTC instant.
func (d Date) Time(rule calendar.LeapRule) (time.Time, error) {
	if err := calendar.ValidateDate(d.Year, d.Month, d.Day, rule); err != nil {
		return time.Time{}, err
	}
	if d.Hour < 0 || d.Hour > 23 || d.Minute < 0 || d.Minute > 59 || d.Second < 0 || d.Second > 59 {
		return time.Time{}, fmt.Errorf("%w: time of day %02d:%02d:%02d", ErrInvalidWindow, d.Hour, d.Minute, d.Second)
	}
	return time.Date(d.Year, time.Month(d.Month), d.Day, d.Hour, d.Minute, d.Second, 0, time.UTC), nil
}

// Span is a duration as entered by a user: a magnitude and its unit.
type Span struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// Duration converts the span. Negative or non-finite magnitudes are rejected.
func (s Span) Duration() (time.Duration, error) {
	if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) || s.Value < 0 {
		return 0, fmt.Errorf("%w: duration magnitude %v", ErrInvalidWindow, s.Value)
	}
	secs, err := ToSeconds(s.Value, s.Unit)
	if err != nil {
		return 0, err
	}
	if secs > maxSeconds {
		return 0, fmt.Errorf("%w: duration of %.0fs is too long", ErrInvalidWindow, secs)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// Request describes a recording window. Exactly one start form and one end form must be set.
type Request struct {
	StartTimestamp *int64 `json:"start_timestamp,omitempty"`
	Start          *Date  `json:"start,omitempty"`
	EndTimestamp   *int64 `json:"end_timestamp,omitempty"`
	Duration       *Span  `json:"duration,omitempty"`
}

// Window is a resolved [Start, End) interval in UTC.
type Window struct {
	Start time.Time
	End   time.Time
}

// Length is End - Start.
func (w Window) Length() time.Duration {
	return w.End.Sub(w.Start)
}

// Resolve validates the request and returns the concrete window.
func (r Request) Resolve(rule calendar.LeapRule) (Window, error) {
	var w Window

	switch {
	case r.Start != nil && r.StartTimestamp != nil:
		return w, fmt.Errorf("%w: both start and start_timestamp set", ErrInvalidWindow)
	case r.Start != nil:
		start, err := r.Start.Time(rule)
		if err != nil {
			return w, err
		}
		w.Start = start
	case r.StartTimestamp != nil:
		if *r.StartTimestamp < 0 {
			return w, fmt.Errorf("%w: negative start_timestamp", ErrInvalidWindow)
		}
		w.Start = time.Unix(*r.StartTimestamp, 0).UTC()
	default:
		return w, fmt.Errorf("%w: missing start", ErrInvalidWindow)
	}

	switch {
	case r.EndTimestamp != nil && r.Duration != nil:
		return w, fmt.Errorf("%w: both end_timestamp and duration set", ErrInvalidWindow)
	case r.EndTimestamp != nil:
		w.End = time.Unix(*r.EndTimestamp, 0).UTC()
	case r.Duration != nil:
		d, err := r.Duration.Duration()
		if err != nil {
			return w, err
		}
		w.End = w.Start.Add(d)
	default:
		return w, fmt.Errorf("%w: missing end", ErrInvalidWindow)
	}

	if !w.End.After(w.Start) {
		return w, fmt.Errorf("%w: end %s is not after start %s", ErrInvalidWindow, w.End.Format(time.RFC3339), w.Start.Format(time.RFC3339))
	}
	return w, nil
}
