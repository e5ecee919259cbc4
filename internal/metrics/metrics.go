// Package metrics provides Prometheus instrumentation for the pipeline.
//
// Metrics are registered on the default registry via promauto and exposed
// at GET /metrics when a listen address is configured. The exporter is
// optional; when no address is set the counters still accumulate but are
// never served.
//
// Exposed metrics:
//
//	streamcat_sources_fetched_total     — counter: source documents fetched, by outcome
//	streamcat_records_parsed_total      — counter: channel records parsed
//	streamcat_duplicates_dropped_total  — counter: duplicate URLs dropped during merge
//	streamcat_probes_total              — counter: latency probes, by outcome
//	streamcat_probe_duration_seconds    — histogram: probe round-trip latency
//	streamcat_entries_written_total     — counter: catalog entries written
package metrics

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SourcesFetched counts source document fetches by outcome ("ok" / "failed").
var SourcesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "streamcat_sources_fetched_total",
	Help: "Source documents fetched, by outcome.",
}, []string{"outcome"})

// RecordsParsed counts channel records produced by the parser.
var RecordsParsed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "streamcat_records_parsed_total",
	Help: "Channel records parsed from source documents.",
})

// DuplicatesDropped counts URLs dropped during merge because an earlier
// source already claimed them.
var DuplicatesDropped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "streamcat_duplicates_dropped_total",
	Help: "Duplicate stream URLs dropped during merge.",
})

// Probes counts latency probes by outcome ("ok" / "failed").
var Probes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "streamcat_probes_total",
	Help: "Stream latency probes, by outcome.",
}, []string{"outcome"})

// ProbeDuration tracks successful probe round-trip latency.
var ProbeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "streamcat_probe_duration_seconds",
	Help:    "Round-trip latency of successful stream probes.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 4, 8},
})

// EntriesWritten counts entries in the assembled output catalog.
var EntriesWritten = promauto.NewCounter(prometheus.CounterOpts{
	Name: "streamcat_entries_written_total",
	Help: "Catalog entries written to output files.",
})

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes GET /metrics on addr in a background goroutine. It returns
// immediately; a listen failure is logged, not fatal, since the exporter is
// a convenience alongside a batch run.
func Serve(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", Handler())
	go func() {
		log.Printf("metrics: listening on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("metrics: exporter stopped: %v", err)
		}
	}()
}
