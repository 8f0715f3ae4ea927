// SPDX-License-Identifier: MIT

// Package metrics provides Prometheus metrics for the resolution pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsSelectedTotal counts catalog entries that survived selection.
	EventsSelectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ev2m3u_events_selected_total",
		Help: "Total number of events selected for resolution, by source.",
	}, []string{"source"})

	// ResolvedTotal counts successful embed resolutions.
	ResolvedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ev2m3u_resolved_total",
		Help: "Total number of embeds resolved to a direct stream URL, by source.",
	}, []string{"source"})

	// ResolveTimeoutsTotal counts resolve attempts that hit the race timeout.
	ResolveTimeoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ev2m3u_resolve_timeouts_total",
		Help: "Total number of resolve attempts that timed out, by source.",
	}, []string{"source"})

	// ResolveNotFoundTotal counts attempts where neither capture nor scan matched.
	ResolveNotFoundTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ev2m3u_resolve_notfound_total",
		Help: "Total number of resolve attempts with no candidate, by source.",
	}, []string{"source"})

	// ResolveFailuresTotal counts unexpected resolver faults.
	ResolveFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ev2m3u_resolve_failures_total",
		Help: "Total number of unexpected resolver failures, by source.",
	}, []string{"source"})

	// MirrorErrorsTotal counts failed mirror attempts.
	MirrorErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ev2m3u_mirror_errors_total",
		Help: "Total number of failed catalog mirror attempts, by source.",
	}, []string{"source"})

	// LastRefreshTimestamp records when a source last completed a run.
	LastRefreshTimestamp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ev2m3u_last_refresh_timestamp_seconds",
		Help: "Unix timestamp of the last completed refresh, by source.",
	}, []string{"source"})
)
