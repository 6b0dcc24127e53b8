// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Estimation metrics
	FitsTotal     *prometheus.CounterVec
	FitFailures   *prometheus.CounterVec
	FitDuration   *prometheus.HistogramVec
	FitIterations *prometheus.HistogramVec

	// Forecast evaluation metrics
	EvaluationsTotal   *prometheus.CounterVec
	ForecastsProduced  prometheus.Counter
	EvaluationFailures *prometheus.CounterVec

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  *prometheus.HistogramVec
	SymbolsProcessed  prometheus.Counter
	ReportsGenerated  prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulPipeline prometheus.Gauge
	UptimeSeconds          prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "crypto_volatility_lab"
	}

	return &Metrics{
		// Estimation metrics
		FitsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "estimation",
			Name:      "fits_total",
			Help:      "Total number of completed fits by family and convergence",
		}, []string{"family", "converged"}),
		FitFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "estimation",
			Name:      "fit_failures_total",
			Help:      "Total number of fits that returned an error, by family",
		}, []string{"family"}),
		FitDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "estimation",
			Name:      "fit_duration_seconds",
			Help:      "Fit wall time in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}, []string{"family"}),
		FitIterations: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "estimation",
			Name:      "fit_iterations",
			Help:      "Optimizer iterations per fit",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2000},
		}, []string{"family"}),

		// Forecast evaluation metrics
		EvaluationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "evaluations_total",
			Help:      "Total number of walk-forward evaluations by family",
		}, []string{"family"}),
		ForecastsProduced: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "forecasts_produced_total",
			Help:      "Total number of one-step variance forecasts produced",
		}),
		EvaluationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "evaluation_failures_total",
			Help:      "Total number of failed walk-forward evaluations by family",
		}, []string{"family"}),

		// Pipeline metrics
		PipelineRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline phase runs by status",
		}, []string{"phase", "status"}),
		PipelineDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline phase duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}, []string{"phase"}),
		SymbolsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "symbols_processed_total",
			Help:      "Total number of symbols run through the pipeline",
		}),
		ReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulPipeline: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_pipeline_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordFit records a completed fit.
func RecordFit(family string, converged bool, iterations int, seconds float64) {
	label := "false"
	if converged {
		label = "true"
	}
	DefaultMetrics.FitsTotal.WithLabelValues(family, label).Inc()
	DefaultMetrics.FitDuration.WithLabelValues(family).Observe(seconds)
	DefaultMetrics.FitIterations.WithLabelValues(family).Observe(float64(iterations))
}

// RecordFitFailure records a fit that returned an error.
func RecordFitFailure(family string) {
	DefaultMetrics.FitFailures.WithLabelValues(family).Inc()
}

// RecordEvaluation records a finished walk-forward evaluation.
func RecordEvaluation(family string, forecasts int) {
	DefaultMetrics.EvaluationsTotal.WithLabelValues(family).Inc()
	DefaultMetrics.ForecastsProduced.Add(float64(forecasts))
}

// RecordEvaluationFailure records a walk-forward evaluation that
// produced no forecasts.
func RecordEvaluationFailure(family string) {
	DefaultMetrics.EvaluationFailures.WithLabelValues(family).Inc()
}

// RecordPipelineRun records a pipeline phase run.
func RecordPipelineRun(phase, status string, durationSeconds float64) {
	DefaultMetrics.PipelineRunsTotal.WithLabelValues(phase, status).Inc()
	DefaultMetrics.PipelineDuration.WithLabelValues(phase).Observe(durationSeconds)
}

// RecordSymbolProcessed increments the processed-symbols counter.
func RecordSymbolProcessed() {
	DefaultMetrics.SymbolsProcessed.Inc()
}

// RecordReportGenerated increments the generated-reports counter.
func RecordReportGenerated() {
	DefaultMetrics.ReportsGenerated.Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// MarkPipelineSuccess updates the last-successful-pipeline timestamp.
func MarkPipelineSuccess(unixSeconds float64) {
	DefaultMetrics.LastSuccessfulPipeline.Set(unixSeconds)
}
