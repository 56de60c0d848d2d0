package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Runner metrics

	RunnerTickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "waterfall",
		Name:      "runner_tick_duration_seconds",
		Help:      "Time taken to recompute target state and generate Actions on each tick.",
		Buckets:   prometheus.DefBuckets,
	})

	RunnerActionsByState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "waterfall",
		Name:      "runner_actions",
		Help:      "Number of Actions currently in each state.",
	}, []string{"state"})

	RunnerActionsCompletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "waterfall",
		Name:      "runner_actions_completed_total",
		Help:      "Total Actions resolved, by outcome.",
	}, []string{"outcome"})

	RunnerActionRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "waterfall",
		Name:      "runner_action_retries_total",
		Help:      "Total times an errored Action was re-queued after the retry back-off.",
	})

	// Executor metrics

	ExecutorTaskDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "waterfall",
		Name:      "executor_task_duration_seconds",
		Help:      "Duration of a single task invocation (up, down, or check).",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"backend"})

	ExecutorTasksInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "waterfall",
		Name:      "executor_tasks_in_flight",
		Help:      "Number of task invocations currently running.",
	})

	ExecutorTasksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "waterfall",
		Name:      "executor_tasks_total",
		Help:      "Total task invocations, by backend and outcome.",
	}, []string{"backend", "outcome"})

	// Storage metrics

	StorageOpsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "waterfall",
		Name:      "storage_ops_total",
		Help:      "Total storage backend operations, by op and outcome.",
	}, []string{"op", "outcome"})

	// Process lifecycle

	ProcessStartTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "waterfall",
		Name:      "process_start_time_seconds",
		Help:      "Unix timestamp when the process started.",
	})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "waterfall",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "waterfall",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

// Register registers every collector with the default Prometheus
// registry. Grounded on the teacher's metrics.Register — called once from
// each cmd/*/main.go before serving traffic.
func Register() {
	prometheus.MustRegister(
		RunnerTickDuration,
		RunnerActionsByState,
		RunnerActionsCompletedTotal,
		RunnerActionRetriesTotal,
		ExecutorTaskDuration,
		ExecutorTasksInFlight,
		ExecutorTasksTotal,
		StorageOpsTotal,
		ProcessStartTime,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// NewServer returns a standalone metrics listener exposing /metrics,
// separate from the management/agent HTTP routers, matching the
// teacher's own metrics.NewServer.
func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{Addr: addr, Handler: mux}
}
