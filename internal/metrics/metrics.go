package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Command metrics
var (
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blazecut_commands_total",
			Help: "Total number of backend command invocations",
		},
		[]string{"command", "status"},
	)

	CommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blazecut_command_duration_seconds",
			Help:    "Backend command duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"command"},
	)

	FramesExtractedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blazecut_frames_extracted_total",
			Help: "Total number of still frames written by keyframe extraction",
		},
	)
)

// External tool metrics
var (
	ToolInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blazecut_tool_invocations_total",
			Help: "Total number of external tool invocations",
		},
		[]string{"tool", "operation", "status"},
	)

	ToolAvailable = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "blazecut_tool_available",
			Help: "Whether an external tool was found at startup (1) or not (0)",
		},
		[]string{"tool"},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blazecut_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blazecut_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "blazecut_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// StatusOf maps an error to a status label.
func StatusOf(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}

// SetToolAvailable records startup availability for a tool.
func SetToolAvailable(tool string, ok bool) {
	v := 0.0
	if ok {
		v = 1
	}
	ToolAvailable.WithLabelValues(tool).Set(v)
}
