package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a structured zap logger. debug level switches to a
// colorized console encoder; anything else emits compact JSON.
func NewLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if level == "debug" {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := cfg.Build()
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	return logger
}

// Metrics holds the Prometheus metrics for the ledger engine.
type Metrics struct {
	// Registry owns these metrics. A private registry avoids "duplicate
	// collector" panics when NewMetrics is called more than once in tests.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	accrualsTotal   prometheus.Counter
	paymentsTotal   *prometheus.CounterVec
	adjustments     *prometheus.CounterVec
}

// NewMetrics creates a dedicated registry with all engine metrics registered.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lendflow_request_duration_seconds",
				Help:    "Duration of ledger operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		accrualsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "lendflow_accruals_total",
				Help: "Total interest accrual syncs that added interest.",
			},
		),
		paymentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lendflow_payments_total",
				Help: "Total payment applications by outcome.",
			},
			[]string{"outcome"},
		),
		adjustments: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lendflow_liability_adjustments_total",
				Help: "Total liability partial payments by resolution case.",
			},
			[]string{"case"},
		),
	}
}

// RecordRequestDuration records the duration of a ledger operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrAccrual increments the accrual counter.
func (m *Metrics) IncrAccrual() {
	m.accrualsTotal.Inc()
}

// IncrPayment increments the payment counter with an outcome label
// ("applied", "closed", "rejected").
func (m *Metrics) IncrPayment(outcome string) {
	m.paymentsTotal.WithLabelValues(outcome).Inc()
}

// IncrAdjustment increments the liability adjustment counter with the
// resolution case ("cleared", "backdated", "undefined").
func (m *Metrics) IncrAdjustment(c string) {
	m.adjustments.WithLabelValues(c).Inc()
}
