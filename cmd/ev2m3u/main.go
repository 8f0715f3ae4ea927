// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ev2m3u/ev2m3u/internal/api"
	"github.com/ev2m3u/ev2m3u/internal/config"
	"github.com/ev2m3u/ev2m3u/internal/jobs"
	xlog "github.com/ev2m3u/ev2m3u/internal/log"
)

var (
	version   = "v1.1.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	once := flag.Bool("once", false, "run one refresh cycle and exit, even if daemon mode is configured")
	flag.Parse()

	if *showVersion {
		fmt.Printf("ev2m3u %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	xlog.Configure(xlog.Config{Level: "info", Service: "ev2m3u", Version: version})
	logger := xlog.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", *configPath).
			Msg("failed to load configuration")
	}
	xlog.Configure(xlog.Config{Level: cfg.LogLevel})
	logger.Info().
		Str("event", "config.loaded").
		Str("path", *configPath).
		Int("sources", len(cfg.Sources)).
		Msg("configuration loaded")

	deps := jobs.Deps{}

	if *once || !cfg.Daemon.Enabled {
		statuses := jobs.RunAll(ctx, cfg, deps)
		exit := 0
		for _, st := range statuses {
			if st.Error != "" {
				exit = 1
			}
		}
		os.Exit(exit)
	}

	runDaemon(ctx, cfg, *configPath, deps)
}

// runDaemon refreshes on an interval, serves playlists over HTTP, and reloads
// configuration when the config file changes on disk.
func runDaemon(ctx context.Context, cfg config.Config, configPath string, deps jobs.Deps) {
	logger := xlog.WithComponent("daemon")
	board := api.NewStatusBoard()

	srv := &http.Server{
		Addr:              cfg.Daemon.Listen,
		Handler:           api.Handler(cfg.DataDir, board),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().
			Str("event", "http.listen").
			Str("addr", cfg.Daemon.Listen).
			Msg("serving playlists")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("event", "http.failed").Msg("HTTP server stopped")
		}
	}()

	reload := watchConfig(ctx, configPath)

	ticker := time.NewTicker(cfg.Daemon.RefreshInterval.Std())
	defer ticker.Stop()

	board.Update(jobs.RunAll(ctx, cfg, deps))

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn().Err(err).Str("event", "http.shutdown_failed").Msg("forced HTTP shutdown")
			}
			logger.Info().Str("event", "daemon.stopped").Msg("daemon stopped")
			return
		case <-ticker.C:
			board.Update(jobs.RunAll(ctx, cfg, deps))
		case <-reload:
			next, err := config.Load(configPath)
			if err != nil {
				logger.Warn().
					Err(err).
					Str("event", "config.reload_failed").
					Msg("keeping previous configuration")
				continue
			}
			// The HTTP server and its handler are built once; listen
			// address and data dir changes only apply after a restart, so
			// the running values are pinned to keep writes and serving
			// consistent.
			if fields := restartOnlyChanges(cfg, next); len(fields) > 0 {
				logger.Warn().
					Strs("fields", fields).
					Str("event", "config.restart_required").
					Msg("changed fields ignored until restart")
			}
			next.Daemon.Listen = cfg.Daemon.Listen
			next.DataDir = cfg.DataDir
			cfg = next
			xlog.Configure(xlog.Config{Level: cfg.LogLevel})
			ticker.Reset(cfg.Daemon.RefreshInterval.Std())
			logger.Info().Str("event", "config.reloaded").Msg("configuration reloaded")
			board.Update(jobs.RunAll(ctx, cfg, deps))
		}
	}
}

// restartOnlyChanges lists reloaded fields that cannot take effect while the
// daemon is running.
func restartOnlyChanges(prev, next config.Config) []string {
	var fields []string
	if prev.Daemon.Listen != next.Daemon.Listen {
		fields = append(fields, "daemon.listen")
	}
	if prev.DataDir != next.DataDir {
		fields = append(fields, "dataDir")
	}
	return fields
}

// watchConfig emits on the returned channel whenever the config file is
// rewritten. A nil path or watcher failure degrades to a channel that never
// fires.
func watchConfig(ctx context.Context, path string) <-chan struct{} {
	logger := xlog.WithComponent("daemon")
	ch := make(chan struct{}, 1)
	if path == "" {
		return ch
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn().Err(err).Str("event", "config.watch_failed").Msg("config watching disabled")
		return ch
	}
	if err := watcher.Add(path); err != nil {
		logger.Warn().Err(err).Str("event", "config.watch_failed").Msg("config watching disabled")
		_ = watcher.Close()
		return ch
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) {
					select {
					case ch <- struct{}{}:
					default:
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Debug().Err(err).Str("event", "config.watch_error").Msg("config watcher error")
			}
		}
	}()
	return ch
}
