// SPDX-License-Identifier: MIT

// Package source fetches raw event catalogs from prioritized mirror lists and
// normalizes the per-provider payload shapes into one catalog model.
package source

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Entry is one scheduled stream inside a catalog group.
type Entry struct {
	ID       string
	Name     string
	Poster   string
	Iframe   string
	StartsAt int64 // epoch seconds, UTC
}

// Group is a category-labelled list of entries, in upstream order.
type Group struct {
	Category string
	Streams  []Entry
}

// Adapter normalizes one provider's payload shape. Each concrete source is a
// configuration value around an adapter, not its own pipeline.
type Adapter interface {
	// Tag is the short namespace appended to every event key.
	Tag() string
	// Decode parses a raw catalog payload into normalized groups.
	Decode(data []byte) ([]Group, error)
	// EmbedURL derives the embed page URL for an entry, given the selected
	// base mirror.
	EmbedURL(base string, e Entry) string
}

// GroupedAdapter decodes the grouped payload shape:
// {"streams":[{"category":"...","streams":[{...}]}]}.
type GroupedAdapter struct {
	SourceTag string
}

func (a GroupedAdapter) Tag() string { return a.SourceTag }

func (a GroupedAdapter) Decode(data []byte) ([]Group, error) {
	var payload struct {
		Streams []struct {
			Category string `json:"category"`
			Streams  []struct {
				ID       json.Number `json:"id"`
				Name     string      `json:"name"`
				Title    string      `json:"title"`
				Poster   string      `json:"poster"`
				Iframe   string      `json:"iframe"`
				URL      string      `json:"url"`
				StartsAt int64       `json:"starts_at"`
			} `json:"streams"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode grouped catalog: %w", err)
	}
	groups := make([]Group, 0, len(payload.Streams))
	for _, g := range payload.Streams {
		grp := Group{Category: g.Category, Streams: make([]Entry, 0, len(g.Streams))}
		for _, s := range g.Streams {
			name := s.Name
			if name == "" {
				name = s.Title
			}
			iframe := s.Iframe
			if iframe == "" {
				iframe = s.URL
			}
			grp.Streams = append(grp.Streams, Entry{
				ID:       s.ID.String(),
				Name:     name,
				Poster:   s.Poster,
				Iframe:   iframe,
				StartsAt: s.StartsAt,
			})
		}
		groups = append(groups, grp)
	}
	return groups, nil
}

// EmbedURL returns the entry's own iframe reference; grouped payloads carry
// absolute embed URLs.
func (a GroupedAdapter) EmbedURL(base string, e Entry) string {
	return e.Iframe
}

var leaguePrefix = regexp.MustCompile(`-+|\(`)

// FlatAdapter decodes the flat payload shape: a top-level array of matches
// with millisecond timestamps and relative stream links.
type FlatAdapter struct {
	SourceTag string
	// StreamPath is the embed path template joined with the match ID,
	// e.g. "stream/".
	StreamPath string
}

func (a FlatAdapter) Tag() string { return a.SourceTag }

func (a FlatAdapter) Decode(data []byte) ([]Group, error) {
	var payload []struct {
		MatchID   json.Number `json:"matchId"`
		Title     string      `json:"title"`
		League    string      `json:"league"`
		Poster    string      `json:"poster"`
		Timestamp int64       `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode flat catalog: %w", err)
	}
	// Group by derived sport label while preserving first-seen order.
	index := map[string]int{}
	var groups []Group
	for _, m := range payload {
		sport := strings.TrimSpace(leaguePrefix.Split(m.League, 2)[0])
		i, ok := index[sport]
		if !ok {
			i = len(groups)
			index[sport] = i
			groups = append(groups, Group{Category: sport})
		}
		groups[i].Streams = append(groups[i].Streams, Entry{
			ID:       m.MatchID.String(),
			Name:     m.Title,
			Poster:   m.Poster,
			StartsAt: m.Timestamp / 1000, // upstream reports milliseconds
		})
	}
	return groups, nil
}

// EmbedURL joins the base mirror with the stream path and match ID.
func (a FlatAdapter) EmbedURL(base string, e Entry) string {
	if e.Iframe != "" {
		return e.Iframe
	}
	b := strings.TrimRight(base, "/")
	p := strings.Trim(a.StreamPath, "/")
	if p == "" {
		p = "stream"
	}
	return b + "/" + p + "/" + e.ID
}
