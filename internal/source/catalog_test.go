// SPDX-License-Identifier: MIT

package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupedAdapterDecode(t *testing.T) {
	payload := []byte(`{
		"streams": [
			{
				"category": "Boxing",
				"streams": [
					{"id": 101, "name": "Main Event", "poster": "https://img/1.png", "iframe": "https://embed/101", "starts_at": 1770000000},
					{"id": 102, "title": "Fallback Title", "url": "https://embed/102", "starts_at": 1770003600}
				]
			},
			{"category": "Soccer", "streams": []}
		]
	}`)

	groups, err := GroupedAdapter{SourceTag: "PPV"}.Decode(payload)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "Boxing", groups[0].Category)
	require.Len(t, groups[0].Streams, 2)

	first := groups[0].Streams[0]
	assert.Equal(t, "101", first.ID)
	assert.Equal(t, "Main Event", first.Name)
	assert.Equal(t, int64(1770000000), first.StartsAt)
	assert.Equal(t, "https://embed/101", first.Iframe)

	// name falls back to title, iframe falls back to url
	second := groups[0].Streams[1]
	assert.Equal(t, "Fallback Title", second.Name)
	assert.Equal(t, "https://embed/102", second.Iframe)
}

func TestGroupedAdapterDecodeRejectsGarbage(t *testing.T) {
	_, err := GroupedAdapter{SourceTag: "PPV"}.Decode([]byte("<html>not json</html>"))
	assert.Error(t, err)
}

func TestGroupedAdapterEmbedURL(t *testing.T) {
	a := GroupedAdapter{SourceTag: "PPV"}
	u := a.EmbedURL("https://base", Entry{Iframe: "https://embed/101"})
	assert.Equal(t, "https://embed/101", u)
}

func TestFlatAdapterDecode(t *testing.T) {
	payload := []byte(`[
		{"matchId": 7, "title": "Derby", "league": "Premier League - England", "poster": "/img/7.png", "timestamp": 1770000000000},
		{"matchId": 8, "title": "Clasico", "league": "La Liga (Spain)", "timestamp": 1770003600000},
		{"matchId": 9, "title": "Rematch", "league": "Premier League - England", "timestamp": 1770007200000}
	]`)

	groups, err := FlatAdapter{SourceTag: "WFTY"}.Decode(payload)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	// Grouped by derived sport, first-seen order preserved.
	assert.Equal(t, "Premier League", groups[0].Category)
	assert.Equal(t, "La Liga", groups[1].Category)
	require.Len(t, groups[0].Streams, 2)

	// Millisecond timestamps are truncated to epoch seconds.
	assert.Equal(t, int64(1770000000), groups[0].Streams[0].StartsAt)
	assert.Equal(t, "7", groups[0].Streams[0].ID)
}

func TestFlatAdapterEmbedURL(t *testing.T) {
	a := FlatAdapter{SourceTag: "WFTY", StreamPath: "stream"}
	u := a.EmbedURL("https://www.example.test/", Entry{ID: "7"})
	assert.Equal(t, "https://www.example.test/stream/7", u)

	// empty StreamPath defaults to "stream"
	b := FlatAdapter{SourceTag: "WFTY"}
	assert.Equal(t, "https://x/stream/9", b.EmbedURL("https://x", Entry{ID: "9"}))
}
