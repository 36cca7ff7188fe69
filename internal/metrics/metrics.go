// Package metrics holds the Prometheus collectors and the ops HTTP router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsFetchedTotal counts price records fetched, by exchange.
	RecordsFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crypto",
		Name:      "records_fetched_total",
		Help:      "Total number of price records fetched, by exchange.",
	}, []string{"exchange"})

	// SourceErrorsTotal counts failed source fetches, by exchange and reason.
	SourceErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crypto",
		Name:      "source_errors_total",
		Help:      "Total number of failed source fetches, by exchange and reason.",
	}, []string{"exchange", "reason"})

	// RowsIngestedTotal counts rows written to QuestDB.
	RowsIngestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "crypto",
		Name:      "rows_ingested_total",
		Help:      "Total number of price rows written to QuestDB.",
	})

	// IngestFailuresTotal counts INSERT statements QuestDB rejected or never received.
	IngestFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "crypto",
		Name:      "ingest_failures_total",
		Help:      "Total number of failed ingest batches.",
	})

	// CycleDuration observes the wall time of one collect+ingest cycle.
	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "crypto",
		Name:      "ingest_cycle_duration_seconds",
		Help:      "Duration of a collect and ingest cycle.",
		Buckets:   prometheus.DefBuckets,
	})

	// AnalystQueriesTotal counts analyst questions, by detected intent and outcome.
	AnalystQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crypto",
		Name:      "analyst_queries_total",
		Help:      "Total number of analyst questions, by intent and outcome.",
	}, []string{"intent", "outcome"})
)

// QueryDuration observes the latency of QuestDB statements.
var QueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "crypto",
	Name:      "query_duration_seconds",
	Help:      "Duration of QuestDB statements.",
	Buckets:   prometheus.DefBuckets,
})
