// SPDX-License-Identifier: MIT

// Package jobs orchestrates the refresh cycle: fetch catalog → select events
// → resolve embeds → merge cache → write playlist.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ev2m3u/ev2m3u/internal/config"
	"github.com/ev2m3u/ev2m3u/internal/events"
	"github.com/ev2m3u/ev2m3u/internal/log"
	"github.com/ev2m3u/ev2m3u/internal/metrics"
	"github.com/ev2m3u/ev2m3u/internal/playlist"
	"github.com/ev2m3u/ev2m3u/internal/resolver"
	"github.com/ev2m3u/ev2m3u/internal/scheduler"
	"github.com/ev2m3u/ev2m3u/internal/source"
	"github.com/ev2m3u/ev2m3u/internal/store"
)

// Status summarizes one refresh run for a source.
type Status struct {
	Source   string    `json:"source"`
	LastRun  time.Time `json:"last_run"`
	Selected int       `json:"selected"`
	Resolved int       `json:"resolved"`
	Cached   int       `json:"cached"`
	Error    string    `json:"error,omitempty"`
}

// Deps are the injected collaborators of a refresh run.
type Deps struct {
	Client   *source.Client
	Resolver resolver.Resolver
	Clock    events.Clock
}

func (d *Deps) defaults() {
	if d.Client == nil {
		d.Client = source.NewClient(10 * time.Second)
	}
	if d.Clock == nil {
		d.Clock = events.RealClock{}
	}
}

// Refresh runs one full cycle for a single source. Mirror exhaustion is a
// graceful abort: the existing cache is re-persisted unchanged and the
// playlist regenerated from it before the error is reported, so output files
// are never left stale.
func Refresh(ctx context.Context, cfg config.Config, src config.SourceConfig, deps Deps) (*Status, error) {
	deps.defaults()
	ctx = log.ContextWithSource(ctx, src.Tag)
	logger := log.WithComponentFromContext(ctx, "jobs")
	logger.Info().Str("event", "refresh.start").Msg("starting refresh")

	adapter, err := adapterFor(src)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	st := store.New(filepath.Join(cfg.DataDir, strings.ToLower(src.Tag)+".json"))
	st.Load()
	logger.Info().
		Str("event", "cache.loaded").
		Int("records", st.Len()).
		Msg("loaded event cache")

	status := &Status{Source: src.Tag, LastRun: deps.Clock.Now()}

	groups, base, err := loadCatalog(ctx, cfg, src, adapter, deps)
	if err != nil {
		metrics.MirrorErrorsTotal.WithLabelValues(src.Tag).Inc()
		logger.Warn().
			Err(err).
			Str("event", "refresh.no_mirror").
			Msg("no working mirrors; re-exporting existing cache")
		status.Error = err.Error()
		status.Cached = st.Len()
		if perr := exportRun(ctx, cfg, src, st); perr != nil {
			return status, perr
		}
		return status, err
	}

	window, err := buildWindow(cfg.Window, deps.Clock)
	if err != nil {
		return nil, err
	}

	excluded := st.Keys(!cfg.Resolve.ReattemptUnresolved)
	selected := events.Select(ctx, groups, events.SelectParams{
		Tag:                src.Tag,
		Window:             window,
		Excluded:           excluded,
		ExcludedCategories: categorySet(src.ExcludedCategories),
		EmbedURL: func(e source.Entry) string {
			return adapter.EmbedURL(base, e)
		},
	})
	status.Selected = len(selected)
	metrics.EventsSelectedTotal.WithLabelValues(src.Tag).Add(float64(len(selected)))

	if len(selected) == 0 {
		logger.Info().Str("event", "refresh.no_new_events").Msg("no new events")
	} else {
		logger.Info().
			Str("event", "refresh.selected").
			Int("count", len(selected)).
			Msg("processing new events")
		updates, err := resolveBatch(ctx, cfg, src, deps, base, selected, status)
		if err != nil {
			status.Error = err.Error()
			return status, err
		}
		st.Merge(updates)
	}

	status.Cached = st.Len()
	if err := exportRun(ctx, cfg, src, st); err != nil {
		status.Error = err.Error()
		return status, err
	}

	metrics.LastRefreshTimestamp.WithLabelValues(src.Tag).Set(float64(status.LastRun.Unix()))
	logger.Info().
		Str("event", "refresh.success").
		Int("selected", status.Selected).
		Int("resolved", status.Resolved).
		Int("cached", status.Cached).
		Msg("refresh completed")
	return status, nil
}

// RunAll refreshes every configured source in order. Per-source failures are
// collected in the statuses, never aborting the remaining sources. Every log
// entry of the run carries the same run ID, derived from the start time.
func RunAll(ctx context.Context, cfg config.Config, deps Deps) []Status {
	deps.defaults()
	ctx = log.ContextWithRunID(ctx, deps.Clock.Now().UTC().Format("20060102T150405Z"))
	logger := log.WithComponentFromContext(ctx, "jobs")
	statuses := make([]Status, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		st, err := Refresh(ctx, cfg, src, deps)
		if err != nil && st == nil {
			st = &Status{Source: src.Tag, Error: err.Error()}
		}
		if err != nil && !errors.Is(err, source.ErrNoMirror) {
			logger.Error().
				Err(err).
				Str("event", "refresh.failed").
				Str("source", src.Tag).
				Msg("refresh failed")
		}
		statuses = append(statuses, *st)
	}
	return statuses
}

// loadCatalog serves the catalog from the source cache while fresh, otherwise
// fetches from the mirror list and refreshes the cache.
func loadCatalog(ctx context.Context, cfg config.Config, src config.SourceConfig, adapter source.Adapter, deps Deps) ([]source.Group, string, error) {
	logger := log.WithComponentFromContext(ctx, "jobs")

	base := deps.Client.PickBase(ctx, src.BaseMirrors)
	logger.Info().
		Str("event", "source.base_selected").
		Str("base", base).
		Msg("selected base mirror")

	sc := source.Cache{
		Path: filepath.Join(cfg.DataDir, strings.ToLower(src.Tag)+"-api.json"),
		TTL:  cfg.Cache.SourceTTL.Std(),
	}
	if payload, ok := sc.Load(); ok {
		if groups, err := adapter.Decode(payload); err == nil {
			logger.Info().
				Str("event", "source.cache_hit").
				Str("path", sc.Path).
				Msg("using cached catalog payload")
			return groups, base, nil
		}
		logger.Warn().
			Str("event", "source.cache_undecodable").
			Str("path", sc.Path).
			Msg("cached payload undecodable; refetching")
	}

	payload, groups, err := deps.Client.Fetch(ctx, src.APIMirrors, adapter)
	if err != nil {
		return nil, base, err
	}
	if err := sc.Store(payload); err != nil {
		logger.Warn().
			Err(err).
			Str("event", "source.cache_write_failed").
			Msg("failed to write source cache")
	}
	return groups, base, nil
}

// resolveBatch drives the scheduler over the selected events and converts
// outcomes into cache records. Unresolved events keep their embed reference
// in the record so degraded playlist modes and reattempt policy can use it.
func resolveBatch(ctx context.Context, cfg config.Config, src config.SourceConfig, deps Deps, base string, selected []events.Event, status *Status) (map[string]events.Record, error) {
	res := deps.Resolver
	if res == nil {
		// The browser only starts when there is something to resolve.
		matcher, err := resolver.NewMatcher(src.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile stream pattern for %q: %w", src.Tag, err)
		}
		chrome, err := resolver.NewChrome(ctx, resolver.ChromeConfig{
			Matcher:    matcher,
			Timeout:    cfg.Resolve.Timeout.Std(),
			NavTimeout: cfg.Resolve.NavTimeout.Std(),
			Settle:     cfg.Resolve.Settle.Std(),
			ExecPath:   cfg.Resolve.BrowserPath,
		})
		if err != nil {
			return nil, fmt.Errorf("start browser: %w", err)
		}
		defer chrome.Close()
		res = chrome
	}

	opts := []scheduler.Option{
		scheduler.WithConcurrency(cfg.Resolve.Concurrency),
	}
	if interval := cfg.Resolve.Interval.Std(); interval > 0 {
		opts = append(opts, scheduler.WithLimiter(rate.NewLimiter(rate.Every(interval), 1)))
	}
	sched := scheduler.New(res, opts...)
	outcomes := sched.Run(ctx, selected)

	updates := make(map[string]events.Record, len(selected))
	for _, ev := range selected {
		out := outcomes[ev.Key]
		switch {
		case out.Err == nil && out.URL != "":
			status.Resolved++
			metrics.ResolvedTotal.WithLabelValues(src.Tag).Inc()
		case errors.Is(out.Err, resolver.ErrTimeout):
			metrics.ResolveTimeoutsTotal.WithLabelValues(src.Tag).Inc()
		case errors.Is(out.Err, resolver.ErrNotFound):
			metrics.ResolveNotFoundTotal.WithLabelValues(src.Tag).Inc()
		default:
			metrics.ResolveFailuresTotal.WithLabelValues(src.Tag).Inc()
		}
		updates[ev.Key] = events.Record{
			URL:       out.URL,
			Logo:      ev.LogoRef,
			Base:      base,
			EmbedRef:  ev.EmbedRef,
			Timestamp: float64(ev.StartTime.Unix()),
		}
	}
	return updates, nil
}

// exportRun persists the cache and regenerates the playlist; both writes are
// atomic full rewrites.
func exportRun(ctx context.Context, cfg config.Config, src config.SourceConfig, st *store.Store) error {
	logger := log.WithComponentFromContext(ctx, "jobs")

	if err := st.Persist(); err != nil {
		return err
	}

	mode := playlist.FallbackMode(cfg.Playlist.Fallback)
	items := playlist.ItemsFromRecords(st.Records(), mode)
	path := filepath.Join(cfg.DataDir, strings.ToLower(src.Tag)+".m3u")
	if err := writeM3U(ctx, path, items); err != nil {
		return err
	}
	logger.Info().
		Str("event", "playlist.write").
		Str("path", path).
		Int("entries", len(items)).
		Msg("playlist written")
	return nil
}

func buildWindow(wc config.WindowConfig, clock events.Clock) (events.Window, error) {
	switch events.WindowMode(wc.Mode) {
	case events.ModeTodayPlusTomorrow:
		return events.TodayPlusTomorrow(clock), nil
	case events.ModeSymmetricAroundNow:
		return events.SymmetricAroundNow(clock, wc.Width.Std()), nil
	default:
		return events.Window{}, fmt.Errorf("unknown window mode %q", wc.Mode)
	}
}

func categorySet(categories []string) map[string]struct{} {
	if len(categories) == 0 {
		categories = []string{"24/7 Streams"}
	}
	set := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		set[c] = struct{}{}
	}
	return set
}

func adapterFor(src config.SourceConfig) (source.Adapter, error) {
	switch src.Shape {
	case "", "grouped":
		return source.GroupedAdapter{SourceTag: src.Tag}, nil
	case "flat":
		return source.FlatAdapter{SourceTag: src.Tag, StreamPath: src.StreamPath}, nil
	default:
		return nil, fmt.Errorf("unknown source shape %q", src.Shape)
	}
}
