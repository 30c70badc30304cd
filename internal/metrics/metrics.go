package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the simulator
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// Mutations counts route mutations by kind and outcome
	Mutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "route_mutations_total", Help: "Route mutations by kind and outcome."},
		[]string{"kind", "outcome"},
	)
	// StopsRevisited records how many stops one propagation pass touched
	StopsRevisited = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "propagation_stops_revisited", Help: "Stops revisited per propagation.", Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64, 128, 256}},
	)
	// ScoreEvaluations counts score computations by mode (full, incremental)
	ScoreEvaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "score_evaluations_total", Help: "Score evaluations by mode."},
		[]string{"mode"},
	)
	// ScoreMismatches counts incremental scores that drifted from a full recomputation
	ScoreMismatches = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "score_mismatches_total", Help: "Incremental vs full score mismatches."},
	)
	// Score is the latest observed score, by level
	Score = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "solution_score", Help: "Latest solution score by level."},
		[]string{"level"},
	)
	// RunDuration tracks construction and verification time in seconds
	RunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "run_phase_duration_seconds", Help: "Run phase duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"phase"},
	)
)

// RegisterDefault registers collectors to the dedicated registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(Mutations)
		Registry.MustRegister(StopsRevisited)
		Registry.MustRegister(ScoreEvaluations)
		Registry.MustRegister(ScoreMismatches)
		Registry.MustRegister(Score)
		Registry.MustRegister(RunDuration)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
