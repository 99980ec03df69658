package session

import (
	"context"

	"github.com/grafana/dskit/instrument"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/grafana/cqlcursor/pkg/cqlerr"
)

type metrics struct {
	requestDuration  *instrument.HistogramCollector
	keyspaceSwitches prometheus.Counter
	schemaCache      *prometheus.CounterVec
	errors           *prometheus.CounterVec
}

func newMetrics(r prometheus.Registerer) *metrics {
	return &metrics{
		requestDuration: instrument.NewHistogramCollector(promauto.With(r).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cqlcursor",
			Name:      "session_request_duration_seconds",
			Help:      "Time spent in session operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "status"})),
		keyspaceSwitches: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Namespace: "cqlcursor",
			Name:      "session_keyspace_switches_total",
			Help:      "Total number of keyspace switch round trips.",
		}),
		schemaCache: promauto.With(r).NewCounterVec(prometheus.CounterOpts{
			Namespace: "cqlcursor",
			Name:      "session_schema_cache_requests_total",
			Help:      "Schema lookups by cache result.",
		}, []string{"result"}),
		errors: promauto.With(r).NewCounterVec(prometheus.CounterOpts{
			Namespace: "cqlcursor",
			Name:      "session_errors_total",
			Help:      "Failures returned to callers by kind.",
		}, []string{"kind"}),
	}
}

// instrument runs f as operation, recording its duration and outcome. A
// failure is returned classified.
func (m *metrics) instrument(ctx context.Context, operation string, f func(context.Context) error) error {
	return instrument.CollectedRequest(ctx, operation, m.requestDuration, m.status, func(ctx context.Context) error {
		if err := f(ctx); err != nil {
			return cqlerr.Classify(err)
		}
		return nil
	})
}

// status is the outcome label: "success" or the error kind.
func (m *metrics) status(err error) string {
	if err == nil {
		return "success"
	}
	kind := cqlerr.Classify(err).Kind.String()
	m.errors.WithLabelValues(kind).Inc()
	return kind
}
