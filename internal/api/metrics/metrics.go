// Package metrics defines and registers all custom Prometheus metrics for the
// datafill API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default registry at package init through
// promauto; HTTP request metrics come from echoprometheus in the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "datafill"

// ── Dataset metrics ───────────────────────────────────────────────────────────

// DatasetsCreatedTotal counts newly created datasets.
// Label:
//   - backend: "redis" or "mongo"
var DatasetsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "datasets_created_total",
		Help:      "Total number of datasets created, by backing store.",
	},
	[]string{"backend"},
)

// ── Store metrics ─────────────────────────────────────────────────────────────

// StoreOperationDuration measures one call into the backing store.
// Labels:
//   - backend:   "redis" or "mongo"
//   - operation: store method name (e.g. "list", "update")
//   - result:    "ok", "not_found", "duplicate" or "error"
var StoreOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "store_operation_duration_seconds",
		Help:      "Duration of dataset store operations.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"backend", "operation", "result"},
)

// StoreScannedRecords counts records the Redis store decoded while walking
// its index for filtered listings. A steadily growing rate means filtered
// queries are outgrowing the in-memory scan.
var StoreScannedRecords = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_scanned_records_total",
		Help:      "Records decoded by index scans in the key-value store.",
	},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// SignInsTotal counts provider sign-in attempts.
// Label:
//   - result: "ok", "rejected" or "error"
var SignInsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sign_ins_total",
		Help:      "Total number of sign-in attempts, by result.",
	},
	[]string{"result"},
)
