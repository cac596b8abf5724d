// Package metrics defines the Prometheus collectors exported by folio.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scan metrics
var (
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_scans_total",
			Help: "Total number of photo scans",
		},
		[]string{"status"},
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "folio_scan_duration_seconds",
			Help:    "Duration of a full photo scan in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)

	// ScanPhotos holds the outcome counts of the most recent scan.
	ScanPhotos = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "folio_scan_photos",
			Help: "Number of photos in the last scan by outcome",
		},
		[]string{"outcome"}, // "ok", "failed"
	)

	DuplicatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_duplicates_total",
			Help: "Duplicate photos detected",
		},
		[]string{"kind"}, // "id", "token", "fingerprint"
	)
)

// Derivative metrics
var (
	DerivativesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_derivatives_total",
			Help: "Derivatives produced or reused",
		},
		[]string{"kind", "action"}, // kind: "optimized", "thumbnail"; action: "generated", "reused"
	)

	DerivativeErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_derivative_errors_total",
			Help: "Per-photo derivative failures",
		},
		[]string{"stage"}, // "decode", "encode"
	)

	PlaceholderErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_placeholder_errors_total",
			Help: "Blur placeholders that could not be generated",
		},
	)
)

// Cache metrics
var (
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_cache_lookups_total",
			Help: "Photo cache lookups",
		},
		[]string{"result"}, // "hit", "miss"
	)
)
