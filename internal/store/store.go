// SPDX-License-Identifier: MIT

// Package store persists resolved-event records across pipeline runs. The
// whole mapping is loaded at run start and atomically rewritten at run end;
// nothing is ever appended in place.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/google/renameio/v2"

	"github.com/ev2m3u/ev2m3u/internal/events"
	"github.com/ev2m3u/ev2m3u/internal/log"
)

// Store is the durable key → record mapping for one source. It is owned by a
// single pipeline run at a time; no concurrent mutation is supported.
type Store struct {
	Path    string
	records map[string]events.Record
}

// New builds a Store backed by path. Call Load before first use.
func New(path string) *Store {
	return &Store{Path: path, records: map[string]events.Record{}}
}

// Load reads the backing file into memory. A missing or corrupt file fails
// open to an empty mapping; corruption must never abort the pipeline.
func (s *Store) Load() {
	logger := log.WithComponent("store")
	s.records = map[string]events.Record{}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn().
				Err(err).
				Str("event", "store.read_failed").
				Str("path", s.Path).
				Msg("cache unreadable; starting empty")
		}
		return
	}
	var loaded map[string]events.Record
	if err := json.Unmarshal(data, &loaded); err != nil {
		logger.Warn().
			Err(err).
			Str("event", "store.corrupt").
			Str("path", s.Path).
			Msg("cache corrupt; starting empty")
		return
	}
	if loaded != nil {
		s.records = loaded
	}
}

// Len returns the number of cached records.
func (s *Store) Len() int { return len(s.records) }

// Keys returns the set of keys that block re-selection this run. With
// includeUnresolved false, keys whose record never resolved stay selectable
// so the next run re-attempts them.
func (s *Store) Keys(includeUnresolved bool) map[string]struct{} {
	keys := make(map[string]struct{}, len(s.records))
	for k, rec := range s.records {
		if !includeUnresolved && !rec.Resolved() {
			continue
		}
		keys[k] = struct{}{}
	}
	return keys
}

// Get returns the record for key, if present.
func (s *Store) Get(key string) (events.Record, bool) {
	rec, ok := s.records[key]
	return rec, ok
}

// Merge overwrites matching keys wholesale and inserts new ones; records not
// named in updates are left untouched. Merging the same updates twice is a
// no-op the second time.
func (s *Store) Merge(updates map[string]events.Record) {
	for k, rec := range updates {
		s.records[k] = rec
	}
}

// Records returns the mapping snapshot in deterministic key order so playlist
// output is stable across runs.
func (s *Store) Records() []KeyedRecord {
	out := make([]KeyedRecord, 0, len(s.records))
	for k, rec := range s.records {
		out = append(out, KeyedRecord{Key: k, Record: rec})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// KeyedRecord pairs a record with its cache key.
type KeyedRecord struct {
	Key    string
	Record events.Record
}

// Persist atomically rewrites the whole mapping; the previous file content is
// superseded entirely.
func (s *Store) Persist() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := renameio.WriteFile(s.Path, data, 0o644); err != nil {
		return fmt.Errorf("write cache %s: %w", s.Path, err)
	}
	return nil
}
