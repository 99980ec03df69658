package cassandra

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gocql/gocql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type observer struct {
	requestDuration *prometheus.HistogramVec
}

func newObserver(r prometheus.Registerer) *observer {
	return &observer{
		requestDuration: promauto.With(r).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cqlcursor",
			Name:      "cassandra_request_duration_seconds",
			Help:      "Time spent doing Cassandra requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 9),
		}, []string{"operation", "status_code"}),
	}
}

func statusCode(err error) string {
	if err != nil {
		return "500"
	}
	return "200"
}

// operation is the statement's leading keyword, e.g. SELECT.
func operation(statement string) string {
	fields := strings.Fields(statement)
	if len(fields) == 0 {
		return "QUERY"
	}
	return strings.ToUpper(fields[0])
}

func (o *observer) ObserveQuery(_ context.Context, q gocql.ObservedQuery) {
	o.requestDuration.WithLabelValues(operation(q.Statement), statusCode(q.Err)).Observe(q.End.Sub(q.Start).Seconds())
}

// gocqlLogger routes gocql's internal logging to a go-kit logger.
type gocqlLogger struct {
	logger log.Logger
}

// NewGocqlLogger returns a logger suitable for gocql.Logger.
func NewGocqlLogger(logger log.Logger) gocql.StdLogger {
	return gocqlLogger{logger: log.With(logger, "component", "gocql")}
}

func (l gocqlLogger) Print(v ...interface{}) {
	level.Debug(l.logger).Log("msg", fmt.Sprint(v...))
}

func (l gocqlLogger) Printf(format string, v ...interface{}) {
	level.Debug(l.logger).Log("msg", fmt.Sprintf(format, v...))
}

func (l gocqlLogger) Println(v ...interface{}) {
	level.Debug(l.logger).Log("msg", strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}
