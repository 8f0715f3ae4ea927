// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/ev2m3u/ev2m3u/internal/log"
)

// applyEnv overlays EV2M3U_* environment variables onto cfg. Environment
// values win over file values; malformed values are logged and ignored.
func applyEnv(cfg *Config) {
	logger := log.WithComponent("config")

	if v := os.Getenv("EV2M3U_DATA"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("EV2M3U_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("EV2M3U_LISTEN"); v != "" {
		cfg.Daemon.Listen = v
	}
	if v := os.Getenv("EV2M3U_WINDOW_MODE"); v != "" {
		cfg.Window.Mode = v
	}
	if v := os.Getenv("EV2M3U_PLAYLIST_FALLBACK"); v != "" {
		cfg.Playlist.Fallback = v
	}
	if d, ok := envDuration(logger.Warn, "EV2M3U_WINDOW_WIDTH"); ok {
		cfg.Window.Width = Duration(d)
	}
	if d, ok := envDuration(logger.Warn, "EV2M3U_RESOLVE_TIMEOUT"); ok {
		cfg.Resolve.Timeout = Duration(d)
	}
	if d, ok := envDuration(logger.Warn, "EV2M3U_SOURCE_TTL"); ok {
		cfg.Cache.SourceTTL = Duration(d)
	}
	if d, ok := envDuration(logger.Warn, "EV2M3U_REFRESH_INTERVAL"); ok {
		cfg.Daemon.RefreshInterval = Duration(d)
	}
	if v := os.Getenv("EV2M3U_RESOLVE_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			cfg.Resolve.Concurrency = n
		} else {
			logger.Warn().
				Str("key", "EV2M3U_RESOLVE_CONCURRENCY").
				Str("value", v).
				Msg("ignoring invalid integer override")
		}
	}
	if v := os.Getenv("EV2M3U_REATTEMPT_UNRESOLVED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Resolve.ReattemptUnresolved = b
		} else {
			logger.Warn().
				Str("key", "EV2M3U_REATTEMPT_UNRESOLVED").
				Str("value", v).
				Msg("ignoring invalid boolean override")
		}
	}
}

type warnFunc = func() *zerolog.Event

// envDuration reads a duration-valued environment variable.
func envDuration(warn warnFunc, key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		warn().Str("key", key).Str("value", v).Msg("ignoring invalid duration override")
		return 0, false
	}
	return d, true
}
