// SPDX-License-Identifier: MIT

// Package events defines the scheduled-event model and the time-window
// selection that decides which catalog entries are worth resolving.
package events

import (
	"fmt"
	"time"
)

// Event is one scheduled stream instance taken from a source catalog.
// Events are rebuilt on every fetch cycle and never mutated.
type Event struct {
	Key       string
	Category  string
	Name      string
	StartTime time.Time
	EmbedRef  string
	LogoRef   string
}

// Record is the durable, resolved counterpart of an Event. Field names match
// the on-disk cache blob.
type Record struct {
	URL       string  `json:"url"`
	Logo      string  `json:"logo,omitempty"`
	TvgID     string  `json:"id,omitempty"`
	Base      string  `json:"base,omitempty"`
	EmbedRef  string  `json:"link,omitempty"`
	Timestamp float64 `json:"timestamp,omitempty"`
}

// Resolved reports whether the record carries a playable direct URL.
func (r Record) Resolved() bool {
	return r.URL != ""
}

// EventKey builds the stable identity under which an event is cached and
// deduplicated: "[{category}] {name} ({tag})".
func EventKey(category, name, tag string) string {
	return fmt.Sprintf("[%s] %s (%s)", category, name, tag)
}

// Clock abstracts wall-clock access so window selection is testable.
type Clock interface {
	Now() time.Time
}

// RealClock is the production Clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }
