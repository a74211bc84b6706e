package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "duml_scan_file_seconds",
		Help:    "Time spent scanning one source file.",
		Buckets: prometheus.DefBuckets,
	})

	FilesScannedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "duml_files_scanned_total",
		Help: "Source files scanned, by outcome (ok or failed).",
	}, []string{"outcome"})

	DiagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "duml_diagnostics_total",
		Help: "Recoverable scan diagnostics, by kind.",
	}, []string{"kind"})

	TreeModules = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "duml_tree_modules",
		Help: "Modules in the current declaration tree.",
	})

	TreeTypes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "duml_tree_types",
		Help: "Classes, structs, interfaces, enums and unions in the current tree.",
	})

	GraphEdges = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "duml_graph_edges",
		Help: "Relationship edges in the current graph, by kind.",
	}, []string{"kind"})

	ImportCycles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "duml_import_cycles",
		Help: "Import cycles detected in the last build.",
	})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "duml_analysis_seconds",
		Help:    "Time spent on high-level tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "duml_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	RebuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "duml_rebuilds_total",
		Help: "Watch mode rebuilds, by outcome (ok, failed or throttled).",
	}, []string{"outcome"})

	HeapAllocMB = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "duml_heap_alloc_megabytes",
		Help: "Heap allocation sampled after each build.",
	})
)
