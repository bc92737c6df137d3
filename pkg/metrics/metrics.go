package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the muezzin reminder bot
var (
	// Alert metrics
	AlertsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "muezzin_bot_alerts_sent_total",
			Help: "Total number of prayer alerts dispatched",
		},
		[]string{"prayer", "status"},
	)

	ActiveAlertLoops = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "muezzin_bot_active_alert_loops",
			Help: "Number of chats with a running alert loop",
		},
	)

	// Timetable metrics
	TimetableFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "muezzin_bot_timetable_fetches_total",
			Help: "Total number of timetable fetch attempts",
		},
		[]string{"status"},
	)

	TimetableFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "muezzin_bot_timetable_fetch_duration_seconds",
			Help:    "Duration of timetable fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Availability sub-flow metrics
	AvailabilityPrompts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "muezzin_bot_availability_prompts_total",
			Help: "Total number of availability prompts sent",
		},
	)

	AvailabilityOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "muezzin_bot_availability_outcomes_total",
			Help: "Terminal availability sub-flow outcomes",
		},
		[]string{"outcome"}, // confirmed, declined, expired
	)

	PendingAvailabilityPrompts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "muezzin_bot_pending_availability_prompts",
			Help: "Number of availability prompts awaiting a reply",
		},
	)

	// Command metrics
	CommandsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "muezzin_bot_commands_processed_total",
			Help: "Total number of processed bot commands",
		},
		[]string{"command", "status"},
	)

	// Database metrics
	DatabaseOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "muezzin_bot_database_operations_total",
			Help: "Total number of database operations",
		},
		[]string{"operation", "status"},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "muezzin_bot_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// HTTP server metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "muezzin_bot_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "muezzin_bot_http_request_duration_seconds",
			Help:    "Duration of HTTP request handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// RecordAlert records a dispatched prayer alert
func RecordAlert(prayer, status string) {
	AlertsSent.WithLabelValues(prayer, status).Inc()
}

// RecordTimetableFetch records a timetable fetch attempt
func RecordTimetableFetch(status string) {
	TimetableFetches.WithLabelValues(status).Inc()
}

// RecordAvailabilityOutcome records a terminal availability outcome
func RecordAvailabilityOutcome(outcome string) {
	AvailabilityOutcomes.WithLabelValues(outcome).Inc()
}

// RecordCommand records a processed bot command
func RecordCommand(command, status string) {
	CommandsProcessed.WithLabelValues(command, status).Inc()
}

// RecordDatabaseOperation records a database operation
func RecordDatabaseOperation(operation, status string) {
	DatabaseOperations.WithLabelValues(operation, status).Inc()
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method, endpoint, status string) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
}

// SetActiveAlertLoops sets the number of running alert loops
func SetActiveAlertLoops(count float64) {
	ActiveAlertLoops.Set(count)
}

// SetPendingAvailabilityPrompts sets the number of outstanding prompts
func SetPendingAvailabilityPrompts(count float64) {
	PendingAvailabilityPrompts.Set(count)
}
