// SPDX-License-Identifier: MIT

// Package playlist renders resolved event records as an M3U playlist.
package playlist

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ev2m3u/ev2m3u/internal/store"
)

// DefaultTvgID is assigned when a record carries no guide identifier.
const DefaultTvgID = "Live.Event.us"

// FallbackMode controls what happens to records without a resolved URL.
type FallbackMode string

const (
	// FallbackOmit drops unresolved records from the playlist.
	FallbackOmit FallbackMode = "omit"
	// FallbackEmbedRef emits unresolved records with their original embed
	// reference as a degraded entry.
	FallbackEmbedRef FallbackMode = "include-embed-ref"
)

// Item is one playable playlist entry.
type Item struct {
	Name    string
	TvgID   string
	TvgLogo string
	Group   string
	URL     string
}

// WriteM3U renders items as an M3U document: a fixed header line, then two
// lines per entry.
func WriteM3U(w io.Writer, items []Item) error {
	buf := &bytes.Buffer{}
	buf.WriteString("#EXTM3U\n")
	for _, it := range items {
		buf.WriteString("#EXTINF:-1")
		if it.TvgID != "" {
			fmt.Fprintf(buf, " tvg-id=%q", it.TvgID)
		}
		if it.TvgLogo != "" {
			fmt.Fprintf(buf, " tvg-logo=%q", it.TvgLogo)
		}
		if it.Group != "" {
			fmt.Fprintf(buf, " group-title=%q", it.Group)
		}
		buf.WriteString("," + it.Name + "\n")
		buf.WriteString(it.URL + "\n")
	}
	_, err := io.Copy(w, buf)
	return err
}

// ItemsFromRecords converts cached records into playlist items. Resolved
// records always produce exactly one entry; unresolved records follow the
// fallback mode.
func ItemsFromRecords(records []store.KeyedRecord, mode FallbackMode) []Item {
	items := make([]Item, 0, len(records))
	for _, kr := range records {
		url := kr.Record.URL
		if url == "" {
			if mode != FallbackEmbedRef || kr.Record.EmbedRef == "" {
				continue
			}
			url = kr.Record.EmbedRef
		}
		tvgID := kr.Record.TvgID
		if tvgID == "" {
			tvgID = DefaultTvgID
		}
		items = append(items, Item{
			Name:    kr.Key,
			TvgID:   tvgID,
			TvgLogo: kr.Record.Logo,
			Group:   categoryFromKey(kr.Key),
			URL:     url,
		})
	}
	return items
}

// categoryFromKey recovers the category from the "[category] name (tag)" key
// format for the group-title attribute.
func categoryFromKey(key string) string {
	if !strings.HasPrefix(key, "[") {
		return ""
	}
	if i := strings.Index(key, "]"); i > 1 {
		return key[1:i]
	}
	return ""
}
