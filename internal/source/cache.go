// SPDX-License-Identifier: MIT

package source

import (
	"fmt"
	"os"
	"time"

	"github.com/google/renameio/v2"
)

// Cache persists the last-fetched raw catalog payload so a run inside the
// staleness window skips the upstream fetch entirely.
type Cache struct {
	Path string
	TTL  time.Duration
}

// Load returns the cached payload if it exists and is younger than the TTL.
// A missing or stale file returns ok=false; read errors fail open the same
// way since the mirrors remain available as the authoritative path.
func (c Cache) Load() ([]byte, bool) {
	if c.Path == "" {
		return nil, false
	}
	info, err := os.Stat(c.Path)
	if err != nil {
		return nil, false
	}
	if c.TTL > 0 && time.Since(info.ModTime()) > c.TTL {
		return nil, false
	}
	data, err := os.ReadFile(c.Path)
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}

// Store atomically rewrites the cached payload, overwriting any previous
// value.
func (c Cache) Store(payload []byte) error {
	if c.Path == "" {
		return nil
	}
	if err := renameio.WriteFile(c.Path, payload, 0o644); err != nil {
		return fmt.Errorf("write source cache %s: %w", c.Path, err)
	}
	return nil
}
