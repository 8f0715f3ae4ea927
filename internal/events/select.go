// SPDX-License-Identifier: MIT

package events

import (
	"context"
	"time"

	"github.com/ev2m3u/ev2m3u/internal/log"
	"github.com/ev2m3u/ev2m3u/internal/source"
)

// SelectParams drives one selection pass over a decoded catalog.
type SelectParams struct {
	Tag                string
	Window             Window
	Excluded           map[string]struct{}
	ExcludedCategories map[string]struct{}
	// EmbedURL derives the embed reference for an entry. Entries whose
	// derived reference is empty are dropped as incomplete.
	EmbedURL func(e source.Entry) string
}

// Select filters a catalog into the ordered event list worth resolving this
// run. Check order is fixed so every rejection is attributable: incomplete
// entry, excluded category, out of window, already cached. Upstream catalog
// order is preserved; no sorting happens here.
func Select(ctx context.Context, groups []source.Group, p SelectParams) []Event {
	logger := log.WithComponentFromContext(ctx, "selector")
	var selected []Event
	for _, grp := range groups {
		_, categoryExcluded := p.ExcludedCategories[grp.Category]
		for _, entry := range grp.Streams {
			embed := ""
			if p.EmbedURL != nil {
				embed = p.EmbedURL(entry)
			}
			if entry.Name == "" || entry.StartsAt == 0 || embed == "" {
				logger.Debug().
					Str("event", "select.incomplete").
					Str("category", grp.Category).
					Str("name", entry.Name).
					Msg("skipping entry with missing fields")
				continue
			}
			if categoryExcluded {
				logger.Debug().
					Str("event", "select.category_excluded").
					Str("category", grp.Category).
					Str("name", entry.Name).
					Msg("skipping continuous-stream category")
				continue
			}
			start := time.Unix(entry.StartsAt, 0).UTC()
			key := EventKey(grp.Category, entry.Name, p.Tag)
			if !p.Window.Contains(start) {
				logger.Debug().
					Str("event", "select.out_of_window").
					Str("key", key).
					Time("start", start).
					Msg("skipping event outside window")
				continue
			}
			if _, cached := p.Excluded[key]; cached {
				logger.Debug().
					Str("event", "select.cached").
					Str("key", key).
					Msg("skipping already-cached event")
				continue
			}
			logger.Debug().
				Str("event", "select.added").
				Str("key", key).
				Time("start", start).
				Msg("event selected")
			selected = append(selected, Event{
				Key:       key,
				Category:  grp.Category,
				Name:      entry.Name,
				StartTime: start,
				EmbedRef:  embed,
				LogoRef:   entry.Poster,
			})
		}
	}
	return selected
}
