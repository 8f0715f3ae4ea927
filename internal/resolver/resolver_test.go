// SPDX-License-Identifier: MIT

package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcherMatchURL(t *testing.T) {
	m, err := NewMatcher("")
	require.NoError(t, err)

	assert.True(t, m.MatchURL("https://cdn.example/live/master.m3u8"))
	assert.True(t, m.MatchURL("http://cdn.example/live.m3u8?token=abc"))
	assert.False(t, m.MatchURL("https://cdn.example/player.js"))
	assert.False(t, m.MatchURL("wss://cdn.example/socket"))
}

func TestMatcherCustomPattern(t *testing.T) {
	m, err := NewMatcher(`https?://[^"'\s>]+\.mpd[^"'\s>]*`)
	require.NoError(t, err)
	assert.True(t, m.MatchURL("https://cdn.example/stream.mpd"))
	assert.False(t, m.MatchURL("https://cdn.example/stream.m3u8"))

	_, err = NewMatcher("([")
	assert.Error(t, err)
}

func TestScanContentTakesDocumentOrder(t *testing.T) {
	m, err := NewMatcher("")
	require.NoError(t, err)

	html := `<html><body>
		<script>var a = "https://cdn.example/second/index.m3u8";</script>
	</body></html>`
	// Prepend an earlier candidate: document order, not discovery order,
	// decides the fallback tie-break.
	html = `<meta content="https://cdn.example/first/index.m3u8">` + html

	assert.Equal(t, "https://cdn.example/first/index.m3u8", m.ScanContent(html))
}

func TestScanContentNoMatch(t *testing.T) {
	m, err := NewMatcher("")
	require.NoError(t, err)
	assert.Empty(t, m.ScanContent("<html>nothing here</html>"))
}

func TestScanContentAllDeduplicates(t *testing.T) {
	m, err := NewMatcher("")
	require.NoError(t, err)

	html := `x "https://a/1.m3u8" y "https://b/2.m3u8" z "https://a/1.m3u8"`
	all := m.ScanContentAll(html)
	require.Len(t, all, 2)
	assert.Equal(t, "https://a/1.m3u8", all[0])
	assert.Equal(t, "https://b/2.m3u8", all[1])
}
