// SPDX-License-Identifier: MIT

package source

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ppv-api.json")
	c := Cache{Path: path, TTL: time.Hour}

	_, ok := c.Load()
	assert.False(t, ok, "missing cache must miss")

	require.NoError(t, c.Store([]byte(`{"streams":[]}`)))
	data, ok := c.Load()
	require.True(t, ok)
	assert.Equal(t, `{"streams":[]}`, string(data))
}

func TestCacheStaleness(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ppv-api.json")
	c := Cache{Path: path, TTL: time.Minute}
	require.NoError(t, c.Store([]byte("payload")))

	// Age the file past the TTL.
	old := time.Now().Add(-2 * time.Minute)
	require.NoError(t, os.Chtimes(path, old, old))

	_, ok := c.Load()
	assert.False(t, ok, "stale cache must miss")
}

func TestCacheStoreOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ppv-api.json")
	c := Cache{Path: path, TTL: time.Hour}
	require.NoError(t, c.Store([]byte("one")))
	require.NoError(t, c.Store([]byte("two")))

	data, ok := c.Load()
	require.True(t, ok)
	assert.Equal(t, "two", string(data))
}

func TestCacheEmptyPathIsNoop(t *testing.T) {
	c := Cache{}
	assert.NoError(t, c.Store([]byte("x")))
	_, ok := c.Load()
	assert.False(t, ok)
}
