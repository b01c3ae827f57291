package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"ride-dispatch/internal/models"
)

var (
	// Registry is the dedicated Prometheus registry for the dispatch engine
	Registry = prometheus.NewRegistry()

	// SearchNodes counts expanded search states by algorithm
	SearchNodes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "dispatch_search_nodes_total", Help: "Search states expanded."},
		[]string{"algorithm"},
	)
	// SearchPrunes counts abandoned search states by algorithm and reason
	SearchPrunes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "dispatch_search_prunes_total", Help: "Search states abandoned before expansion."},
		[]string{"algorithm", "reason"},
	)
	// DispatchRounds counts simulated dispatcher rounds
	DispatchRounds = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "dispatch_rounds_total", Help: "Greedy dispatcher rounds simulated."},
	)
	// DistanceTravelled sums planned travel distance by algorithm
	DistanceTravelled = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "dispatch_distance_total", Help: "Planned travel distance in grid units."},
		[]string{"algorithm"},
	)
	// SolveDuration records how long each algorithm run took
	SolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "dispatch_solve_duration_seconds", Help: "Algorithm run duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"algorithm", "status"},
	)
	// ScenariosRun counts scenarios by outcome
	ScenariosRun = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "dispatch_scenarios_total", Help: "Scenarios processed by outcome."},
		[]string{"status"},
	)
)

var regOnce sync.Once

// RegisterDefault registers all collectors on Registry. Safe to call more than once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(SearchNodes)
		Registry.MustRegister(SearchPrunes)
		Registry.MustRegister(DispatchRounds)
		Registry.MustRegister(DistanceTravelled)
		Registry.MustRegister(SolveDuration)
		Registry.MustRegister(ScenariosRun)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// ObserveSearch records the counters of one exhaustive search
func ObserveSearch(algorithm string, stats models.SearchStats) {
	SearchNodes.WithLabelValues(algorithm).Add(float64(stats.Nodes))
	SearchPrunes.WithLabelValues(algorithm, "bound").Add(float64(stats.BoundPrunes))
	SearchPrunes.WithLabelValues(algorithm, "memo").Add(float64(stats.MemoPrunes))
}

// ObserveSolve records the duration of one algorithm run
func ObserveSolve(algorithm string, started time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	SolveDuration.WithLabelValues(algorithm, status).Observe(time.Since(started).Seconds())
}

// WriteTextfile writes the registry in text exposition format, for node_exporter's textfile collector
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
