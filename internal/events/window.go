// SPDX-License-Identifier: MIT

package events

import "time"

// WindowMode selects how the event time window is anchored.
type WindowMode string

const (
	// ModeTodayPlusTomorrow covers [start of today UTC, start of today + 48h),
	// half-open on the right.
	ModeTodayPlusTomorrow WindowMode = "today-plus-tomorrow"
	// ModeSymmetricAroundNow covers [now - width, now + width], closed on
	// both sides.
	ModeSymmetricAroundNow WindowMode = "symmetric-around-now"
)

// Window is a concrete time interval with per-mode boundary rules.
type Window struct {
	Mode  WindowMode
	Start time.Time
	End   time.Time
}

// TodayPlusTomorrow builds the half-open two-day window anchored at the start
// of the current UTC day.
func TodayPlusTomorrow(clock Clock) Window {
	now := clock.Now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return Window{
		Mode:  ModeTodayPlusTomorrow,
		Start: start,
		End:   start.Add(48 * time.Hour),
	}
}

// SymmetricAroundNow builds the closed window [now-width, now+width].
func SymmetricAroundNow(clock Clock, width time.Duration) Window {
	now := clock.Now().UTC()
	return Window{
		Mode:  ModeSymmetricAroundNow,
		Start: now.Add(-width),
		End:   now.Add(width),
	}
}

// Contains reports whether t falls inside the window, honouring each mode's
// boundary rule: the two-day window excludes its end instant, the symmetric
// window includes both boundaries.
func (w Window) Contains(t time.Time) bool {
	if t.Before(w.Start) {
		return false
	}
	switch w.Mode {
	case ModeSymmetricAroundNow:
		return !t.After(w.End)
	default:
		return t.Before(w.End)
	}
}
