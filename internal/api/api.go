// SPDX-License-Identifier: MIT

// Package api serves the generated playlists and run status over HTTP in
// daemon mode.
package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ev2m3u/ev2m3u/internal/jobs"
	"github.com/ev2m3u/ev2m3u/internal/log"
)

// StatusBoard holds the latest refresh status per source for /status.
type StatusBoard struct {
	mu       sync.RWMutex
	statuses map[string]jobs.Status
}

// NewStatusBoard returns an empty board.
func NewStatusBoard() *StatusBoard {
	return &StatusBoard{statuses: map[string]jobs.Status{}}
}

// Update replaces the stored statuses with the latest run results.
func (b *StatusBoard) Update(statuses []jobs.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, st := range statuses {
		b.statuses[st.Source] = st
	}
}

// Snapshot returns a copy of the board.
func (b *StatusBoard) Snapshot() map[string]jobs.Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]jobs.Status, len(b.statuses))
	for k, v := range b.statuses {
		out[k] = v
	}
	return out
}

// Handler builds the daemon router. dataDir is where playlists live; board
// feeds /status.
func Handler(dataDir string, board *StatusBoard) http.Handler {
	logger := log.WithComponent("api")
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(60, time.Minute))

		r.Get("/playlist/{tag}.m3u", func(w http.ResponseWriter, req *http.Request) {
			tag := strings.ToLower(chi.URLParam(req, "tag"))
			path := filepath.Join(dataDir, tag+".m3u")
			if _, err := os.Stat(path); err != nil {
				http.NotFound(w, req)
				return
			}
			w.Header().Set("Content-Type", "audio/x-mpegurl")
			http.ServeFile(w, req, path)
		})

		r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(board.Snapshot()); err != nil {
				logger.Error().Err(err).Str("event", "api.status_encode_failed").Msg("failed to encode status")
			}
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
