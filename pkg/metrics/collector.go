// Package metrics exposes Prometheus collectors for the bot's operational telemetry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/applygate/applybot/internal/state"
)

var (
	botCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of bot updates handled labeled by action and status",
		},
		[]string{"command", "status"},
	)
	commandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "command_duration_seconds",
			Help:    "Duration of bot update handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	stateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "state_transitions_total",
			Help: "Total number of conversation state transitions",
		},
		[]string{"from", "to"},
	)
	membershipChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "membership_checks_total",
			Help: "Membership verification outcomes: allowed, denied, or lookup_error",
		},
		[]string{"result"},
	)
	sourceScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_scans_total",
			Help: "Per-source scan outcomes during the fan-out search",
		},
		[]string{"source", "status"},
	)
	searchMatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_matches_total",
			Help: "Qualifying messages forwarded to requesters per source",
		},
		[]string{"source"},
	)
	searchJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_jobs_total",
			Help: "Dispatched search jobs labeled by terminal status",
		},
		[]string{"status"},
	)
	sinkAppendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sink_appends_total",
			Help: "Journal and spreadsheet append attempts labeled by sink and status",
		},
		[]string{"sink", "status"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by type and severity",
		},
		[]string{"type", "severity"},
	)
)

func init() {
	state.RegisterTransitionRecorder(RecordStateTransition)
}

// RecordCommand increments command counters and records duration.
func RecordCommand(command, status string, duration time.Duration) {
	botCommandsTotal.WithLabelValues(command, status).Inc()
	commandDurationSeconds.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordStateTransition counts a conversation FSM transition.
func RecordStateTransition(from, to string) {
	stateTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordMembershipCheck counts a verification outcome. The result label keeps
// honest denials distinguishable from directory lookup failures even though
// users see the same rejection for both.
func RecordMembershipCheck(result string) {
	membershipChecksTotal.WithLabelValues(result).Inc()
}

// RecordSourceScan counts one per-source scan outcome.
func RecordSourceScan(source, status string) {
	sourceScansTotal.WithLabelValues(source, status).Inc()
}

// RecordSearchMatch counts a forwarded match for the given source.
func RecordSearchMatch(source string) {
	searchMatchesTotal.WithLabelValues(source).Inc()
}

// RecordSearchJob counts a completed search job with its terminal status.
func RecordSearchJob(status string) {
	searchJobsTotal.WithLabelValues(status).Inc()
}

// RecordSinkAppend counts a journal or spreadsheet append attempt.
func RecordSinkAppend(sink, status string) {
	sinkAppendsTotal.WithLabelValues(sink, status).Inc()
}

// RecordError counts an application error by type and severity.
func RecordError(errType, severity string) {
	errorsTotal.WithLabelValues(errType, severity).Inc()
}
