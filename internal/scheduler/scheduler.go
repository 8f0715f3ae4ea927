// SPDX-License-Identifier: MIT

// Package scheduler sequences resolver calls over a batch of selected events,
// isolating per-event failures so one bad embed page never aborts the run.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ev2m3u/ev2m3u/internal/events"
	"github.com/ev2m3u/ev2m3u/internal/log"
	"github.com/ev2m3u/ev2m3u/internal/resolver"
)

// Outcome is the keyed result of one resolution attempt. URL is empty when
// the attempt failed; Err distinguishes expected failures (timeout, not
// found) from unexpected resolver faults in diagnostics.
type Outcome struct {
	URL string
	Err error
}

// Scheduler runs a Resolver over event batches.
type Scheduler struct {
	resolver    resolver.Resolver
	concurrency int
	limiter     *rate.Limiter
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithConcurrency bounds how many events resolve in parallel. Values below 2
// keep the sequential single-session mode.
func WithConcurrency(n int) Option {
	return func(s *Scheduler) {
		if n > 1 {
			s.concurrency = n
		}
	}
}

// WithLimiter paces resolve launches, mirroring the polite inter-event delay
// of sequential scraping.
func WithLimiter(l *rate.Limiter) Option {
	return func(s *Scheduler) { s.limiter = l }
}

// New builds a Scheduler around r.
func New(r resolver.Resolver, opts ...Option) *Scheduler {
	s := &Scheduler{resolver: r, concurrency: 1}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run resolves every event and returns outcomes keyed by event key, never by
// position. The batch always completes: expected resolver failures and
// unexpected faults alike are contained at the event boundary.
func (s *Scheduler) Run(ctx context.Context, batch []events.Event) map[string]Outcome {
	if s.concurrency > 1 {
		return s.runParallel(ctx, batch)
	}
	return s.runSequential(ctx, batch)
}

func (s *Scheduler) runSequential(ctx context.Context, batch []events.Event) map[string]Outcome {
	results := make(map[string]Outcome, len(batch))
	for i, ev := range batch {
		if err := s.pace(ctx); err != nil {
			results[ev.Key] = Outcome{Err: err}
			continue
		}
		results[ev.Key] = s.resolveOne(ctx, i+1, len(batch), ev)
	}
	return results
}

func (s *Scheduler) runParallel(ctx context.Context, batch []events.Event) map[string]Outcome {
	// Each worker writes only its own slot; the shared map is assembled
	// after every worker has finished.
	partial := make([]Outcome, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, ev := range batch {
		g.Go(func() error {
			if err := s.pace(gctx); err != nil {
				partial[i] = Outcome{Err: err}
				return nil
			}
			partial[i] = s.resolveOne(gctx, i+1, len(batch), ev)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures live in outcomes

	results := make(map[string]Outcome, len(batch))
	for i, ev := range batch {
		results[ev.Key] = partial[i]
	}
	return results
}

func (s *Scheduler) pace(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

// resolveOne wraps a single resolver call with panic containment and outcome
// classification.
func (s *Scheduler) resolveOne(ctx context.Context, n, total int, ev events.Event) (out Outcome) {
	logger := log.WithComponentFromContext(ctx, "scheduler")
	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Str("event", "resolve.panic").
				Str("key", ev.Key).
				Int("n", n).
				Int("total", total).
				Interface("panic", r).
				Msg("resolver panicked; treating as unresolved")
			out = Outcome{Err: fmt.Errorf("resolver panic: %v", r)}
		}
	}()

	url, err := s.resolver.Resolve(ctx, ev.EmbedRef)
	switch {
	case err == nil:
		logger.Info().
			Str("event", "resolve.success").
			Str("key", ev.Key).
			Int("n", n).
			Int("total", total).
			Msg("resolved direct stream URL")
		return Outcome{URL: url}
	case errors.Is(err, resolver.ErrTimeout), errors.Is(err, resolver.ErrNotFound):
		logger.Warn().
			Err(err).
			Str("event", "resolve.unresolved").
			Str("key", ev.Key).
			Int("n", n).
			Int("total", total).
			Msg("no stream URL for event")
		return Outcome{Err: err}
	default:
		logger.Error().
			Err(err).
			Str("event", "resolve.failed").
			Str("key", ev.Key).
			Int("n", n).
			Int("total", total).
			Msg("unexpected resolver failure; treating as unresolved")
		return Outcome{Err: err}
	}
}
