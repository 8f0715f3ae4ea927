// SPDX-License-Identifier: MIT

package playlist

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ev2m3u/ev2m3u/internal/events"
	"github.com/ev2m3u/ev2m3u/internal/store"
)

func TestWriteM3UTable(t *testing.T) {
	tests := []struct {
		name   string
		items  []Item
		expect []string
	}{
		{
			name: "full attributes",
			items: []Item{{
				Name: "[Boxing] Fight (PPV)", TvgID: "Live.Event.us", TvgLogo: "https://img/f.png", Group: "Boxing", URL: "https://cdn/f.m3u8",
			}},
			expect: []string{
				"#EXTM3U",
				`tvg-id="Live.Event.us"`,
				`tvg-logo="https://img/f.png"`,
				`group-title="Boxing"`,
				",[Boxing] Fight (PPV)",
				"https://cdn/f.m3u8",
			},
		},
		{
			name: "optional attributes omitted",
			items: []Item{{
				Name: "[MMA] Bout (PPV)", TvgID: "Live.Event.us", URL: "https://cdn/b.m3u8",
			}},
			expect: []string{
				`tvg-id="Live.Event.us"`,
				",[MMA] Bout (PPV)",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var b strings.Builder
			require.NoError(t, WriteM3U(&b, tc.items))
			out := b.String()
			for _, want := range tc.expect {
				assert.Contains(t, out, want)
			}
			assert.Equal(t, len(tc.items), strings.Count(out, "#EXTINF:"))
		})
	}
}

func TestWriteM3UEntryShape(t *testing.T) {
	var b strings.Builder
	require.NoError(t, WriteM3U(&b, []Item{
		{Name: "One", TvgID: "id1", URL: "https://cdn/1.m3u8"},
		{Name: "Two", TvgID: "id2", URL: "https://cdn/2.m3u8"},
	}))

	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	require.Len(t, lines, 5, "header plus two lines per entry")
	assert.Equal(t, "#EXTM3U", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "#EXTINF:-1 "))
	assert.Equal(t, "https://cdn/1.m3u8", lines[2])
	assert.Equal(t, "https://cdn/2.m3u8", lines[4])
}

func recordsFixture() []store.KeyedRecord {
	return []store.KeyedRecord{
		{Key: "[Boxing] Fight (PPV)", Record: events.Record{URL: "https://cdn/f.m3u8", Logo: "https://img/f.png"}},
		{Key: "[MMA] Bout (PPV)", Record: events.Record{EmbedRef: "https://embed/b"}},
	}
}

func TestItemsFromRecordsOmitMode(t *testing.T) {
	items := ItemsFromRecords(recordsFixture(), FallbackOmit)
	require.Len(t, items, 1)
	assert.Equal(t, "[Boxing] Fight (PPV)", items[0].Name)
	assert.Equal(t, "https://cdn/f.m3u8", items[0].URL)
	assert.Equal(t, DefaultTvgID, items[0].TvgID)
}

func TestItemsFromRecordsFallbackMode(t *testing.T) {
	items := ItemsFromRecords(recordsFixture(), FallbackEmbedRef)
	require.Len(t, items, 2, "fallback mode emits one entry per record")
	assert.Equal(t, "https://embed/b", items[1].URL, "unresolved record degrades to its embed reference")
}

func TestItemsFromRecordsSkipsEmptyEmbedRef(t *testing.T) {
	records := []store.KeyedRecord{{Key: "k", Record: events.Record{}}}
	assert.Empty(t, ItemsFromRecords(records, FallbackEmbedRef))
}
