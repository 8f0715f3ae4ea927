// SPDX-License-Identifier: MIT

package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ev2m3u/ev2m3u/internal/events"
)

func TestLoadMissingFileFailsOpen(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "ppv.json"))
	s.Load()
	assert.Zero(t, s.Len())
}

func TestLoadCorruptFileFailsOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ppv.json")
	require.NoError(t, os.WriteFile(path, []byte("{{{not json"), 0o644))

	s := New(path)
	s.Load()
	assert.Zero(t, s.Len(), "corruption must never abort the pipeline")
}

func TestPersistLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ppv.json")
	s := New(path)
	s.Load()
	s.Merge(map[string]events.Record{
		"[Boxing] Fight (PPV)": {URL: "https://cdn/f.m3u8", EmbedRef: "https://e/f", Timestamp: 1770000000},
	})
	require.NoError(t, s.Persist())

	reloaded := New(path)
	reloaded.Load()
	rec, ok := reloaded.Get("[Boxing] Fight (PPV)")
	require.True(t, ok)
	assert.Equal(t, "https://cdn/f.m3u8", rec.URL)
	assert.Equal(t, "https://e/f", rec.EmbedRef)
}

func TestMergeIsIdempotent(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "ppv.json"))
	update := map[string]events.Record{"k": {URL: "https://cdn/a.m3u8"}}

	s.Merge(update)
	first := s.Records()
	s.Merge(update)
	assert.Equal(t, first, s.Records(), "merging the same records twice must not change state")
}

func TestMergeOverwritesWholesale(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "ppv.json"))
	s.Merge(map[string]events.Record{"k": {URL: "https://old", Logo: "https://logo"}})
	s.Merge(map[string]events.Record{"k": {URL: "https://new"}})

	rec, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "https://new", rec.URL)
	assert.Empty(t, rec.Logo, "no partial merge: the later record replaces the earlier one entirely")
}

func TestMergeKeepsUntouchedKeys(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "ppv.json"))
	s.Merge(map[string]events.Record{"old": {URL: ""}})
	s.Merge(map[string]events.Record{"new": {URL: "https://cdn/n.m3u8"}})

	_, ok := s.Get("old")
	assert.True(t, ok, "previously unresolved keys stay in the store")
}

func TestKeysReattemptPolicy(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "ppv.json"))
	s.Merge(map[string]events.Record{
		"resolved":   {URL: "https://cdn/r.m3u8"},
		"unresolved": {EmbedRef: "https://e/u"},
	})

	all := s.Keys(true)
	assert.Len(t, all, 2)

	onlyResolved := s.Keys(false)
	assert.Len(t, onlyResolved, 1)
	_, ok := onlyResolved["resolved"]
	assert.True(t, ok)
}

func TestRecordsDeterministicOrder(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "ppv.json"))
	s.Merge(map[string]events.Record{
		"b": {URL: "https://cdn/b.m3u8"},
		"a": {URL: "https://cdn/a.m3u8"},
		"c": {URL: "https://cdn/c.m3u8"},
	})

	records := s.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "a", records[0].Key)
	assert.Equal(t, "b", records[1].Key)
	assert.Equal(t, "c", records[2].Key)
}
