package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Turn outcome labels for TurnsTotal.
const (
	OutcomeSuccess        = "success"
	OutcomeBoundaryError  = "boundary_error"
	OutcomeSchemaMismatch = "schema_mismatch"
	OutcomeRejectedBusy   = "rejected_busy"
	OutcomeRejectedEmpty  = "rejected_empty"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveSessions      prometheus.Gauge
	SessionEvents       *prometheus.CounterVec
	TurnsTotal          *prometheus.CounterVec
	TurnLatency         prometheus.Histogram
	HistorySaveFailures prometheus.Counter
	WSMessages          *prometheus.CounterVec
	TurnStages          *TurnStageWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of active tutoring chat sessions.",
		}),
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session events by type.",
		}, []string{"event"}),
		TurnsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Submitted tutoring turns by outcome.",
		}, []string{"outcome"}),
		TurnLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_latency_ms",
			Help:      "Latency of one full request/response turn in milliseconds.",
			Buckets:   []float64{250, 500, 1000, 2000, 4000, 8000, 15000, 30000},
		}),
		HistorySaveFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_save_failures_total",
			Help:      "Fire-and-forget history saves that failed and were swallowed.",
		}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket event messages by direction and type.",
		}, []string{"direction", "type"}),
		TurnStages: NewTurnStageWindow(256),
	}
}

func (m *Metrics) ObserveTurnLatency(d time.Duration) {
	m.TurnLatency.Observe(float64(d.Milliseconds()))
	m.TurnStages.Observe(StageTurnTotal, float64(d.Milliseconds()))
}

// ObserveTurnStage records one stage duration in the sliding perf window.
func (m *Metrics) ObserveTurnStage(stage string, d time.Duration) {
	m.TurnStages.Observe(stage, float64(d.Milliseconds()))
}

// SnapshotTurnStages reports the sliding-window stage percentiles and
// outcome indicators for the perf endpoint.
func (m *Metrics) SnapshotTurnStages() TurnStageSnapshot {
	return m.TurnStages.Snapshot()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
