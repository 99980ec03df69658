package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/grafana/cqlcursor/pkg/cqlerr"
	"github.com/grafana/cqlcursor/pkg/resultset"
	"github.com/grafana/cqlcursor/pkg/schema"
	"github.com/grafana/cqlcursor/pkg/session"
	"github.com/grafana/cqlcursor/pkg/session/sessiontest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newSession(t *testing.T, cfg session.Config) (*session.Session, *sessiontest.MockTransport, *prometheus.Registry) {
	t.Helper()
	transport := sessiontest.NewMockTransport()
	reg := prometheus.NewRegistry()
	s, err := session.New(cfg, transport, log.NewNopLogger(), reg)
	require.NoError(t, err)
	return s, transport, reg
}

func row(cols ...resultset.Column) resultset.Row {
	return resultset.Row{Columns: cols}
}

func TestExecuteOpensLazily(t *testing.T) {
	s, transport, _ := newSession(t, session.Config{})
	transport.Results["SELECT * FROM t"] = session.RowSet{
		row(resultset.Column{Name: "id", Value: []byte("1")}),
		row(resultset.Column{Name: "id", Value: []byte("2")}),
	}

	rs, err := s.Execute(context.Background(), "SELECT * FROM t", true)
	require.NoError(t, err)
	assert.Equal(t, 2, rs.RowCount())
	assert.Equal(t, []sessiontest.Call{
		{Op: "open"},
		{Op: "execute", Arg: "SELECT * FROM t", Compression: true},
	}, transport.Calls())

	// Already open: no second open.
	_, err = s.Execute(context.Background(), "SELECT * FROM t", false)
	require.NoError(t, err)
	assert.Equal(t, 1, transport.Count("open"))
	require.NoError(t, s.Open(context.Background()))
	assert.Equal(t, 1, transport.Count("open"))
}

func TestKeyspaceSwitchRoundTrips(t *testing.T) {
	s, transport, reg := newSession(t, session.Config{})
	ctx := context.Background()

	_, ok := s.ActiveKeyspace()
	assert.False(t, ok)

	_, err := s.Execute(ctx, "USE a; SELECT * FROM t", false)
	require.NoError(t, err)
	assert.Equal(t, 1, transport.Count("use"))

	transport.ResetCalls()
	_, err = s.Execute(ctx, "USE b; SELECT * FROM t", false)
	require.NoError(t, err)
	assert.Equal(t, []sessiontest.Call{
		{Op: "use", Arg: "b"},
		{Op: "execute", Arg: "SELECT * FROM t"},
	}, transport.Calls())

	transport.ResetCalls()
	_, err = s.Execute(ctx, "USE b; SELECT * FROM u", false)
	require.NoError(t, err)
	_, err = s.Execute(ctx, "use B; SELECT * FROM u", false)
	require.NoError(t, err)
	assert.Zero(t, transport.Count("use"))

	ks, ok := s.ActiveKeyspace()
	require.True(t, ok)
	assert.Equal(t, "b", ks)
	assert.Equal(t, float64(2), counterValue(t, reg, "cqlcursor_session_keyspace_switches_total"))
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestBareUseStatement(t *testing.T) {
	s, transport, _ := newSession(t, session.Config{})

	rs, err := s.Execute(context.Background(), "USE events", false)
	require.NoError(t, err)
	assert.Zero(t, rs.RowCount())
	assert.Equal(t, []sessiontest.Call{
		{Op: "open"},
		{Op: "use", Arg: "events"},
	}, transport.Calls())
	assert.Equal(t, "events", transport.Keyspace())
}

func TestKeyspaceSwitchFailureLeavesStateUnchanged(t *testing.T) {
	s, transport, _ := newSession(t, session.Config{})
	ctx := context.Background()

	_, err := s.Execute(ctx, "USE a; SELECT 1", false)
	require.NoError(t, err)

	transport.UseErr = cqlerr.NewProtocolError(cqlerr.CondInvalidRequest, "keyspace b does not exist")
	transport.ResetCalls()
	rs, err := s.Execute(ctx, "USE b; SELECT 1", false)
	require.Error(t, err)
	assert.Nil(t, rs)
	assert.True(t, cqlerr.Is(err, cqlerr.InvalidRequest))
	assert.Zero(t, transport.Count("execute"), "query must not run after a failed switch")

	ks, _ := s.ActiveKeyspace()
	assert.Equal(t, "a", ks)

	// The switch is retried on the next query since state never changed.
	transport.UseErr = nil
	_, err = s.Execute(ctx, "USE b; SELECT 1", false)
	require.NoError(t, err)
	assert.Equal(t, 2, transport.Count("use"))
}

func TestConfiguredKeyspace(t *testing.T) {
	s, transport, _ := newSession(t, session.Config{Keyspace: "metrics"})

	require.NoError(t, s.Open(context.Background()))
	ks, ok := s.ActiveKeyspace()
	require.True(t, ok)
	assert.Equal(t, "metrics", ks)

	_, err := s.Execute(context.Background(), "SELECT 1", false)
	require.NoError(t, err)
	assert.Equal(t, 1, transport.Count("use"))
}

func TestExecuteErrorKinds(t *testing.T) {
	for _, tc := range []struct {
		name     string
		injected error
		expected cqlerr.Kind
	}{
		{"not found", cqlerr.NewProtocolError(cqlerr.CondNotFound, "x"), cqlerr.NotFound},
		{"invalid request", cqlerr.NewProtocolError(cqlerr.CondInvalidRequest, "line 1:0 no viable alternative"), cqlerr.InvalidRequest},
		{"unavailable", cqlerr.NewProtocolError(cqlerr.CondUnavailable, "x"), cqlerr.Unavailable},
		{"timed out", cqlerr.NewProtocolError(cqlerr.CondTimedOut, "x"), cqlerr.TimedOut},
		{"authentication", cqlerr.NewProtocolError(cqlerr.CondAuthentication, "bad credentials"), cqlerr.AuthenticationError},
		{"authorization", cqlerr.NewProtocolError(cqlerr.CondAuthorization, "no SELECT permission"), cqlerr.AuthorizationError},
		{"schema disagreement", cqlerr.NewProtocolError(cqlerr.CondSchemaDisagreement, "x"), cqlerr.SchemaDisagreement},
		{"transport", cqlerr.NewProtocolError(cqlerr.CondTransport, "connection reset"), cqlerr.TransportError},
		{"protocol", cqlerr.NewProtocolError(cqlerr.CondProtocol, "x"), cqlerr.GeneralError},
		{"unstructured", errors.New("panic averted"), cqlerr.GeneralError},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s, transport, reg := newSession(t, session.Config{})
			transport.ExecuteErr = tc.injected

			rs, err := s.Execute(context.Background(), "SELECT * FROM t", false)
			assert.Nil(t, rs)
			var cerr *cqlerr.Error
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tc.expected, cerr.Kind)
			assert.Equal(t, tc.injected.Error(), cerr.Message)

			count, err := testutil.GatherAndCount(reg, "cqlcursor_session_errors_total")
			require.NoError(t, err)
			assert.Equal(t, 1, count)
		})
	}
}

func TestOpenFailureIsTransportError(t *testing.T) {
	s, transport, _ := newSession(t, session.Config{})
	transport.OpenErr = errors.New("dial tcp 127.0.0.1:9042: connect: connection refused")

	err := s.Open(context.Background())
	assert.True(t, cqlerr.Is(err, cqlerr.TransportError))

	_, err = s.Execute(context.Background(), "SELECT 1", false)
	assert.True(t, cqlerr.Is(err, cqlerr.TransportError))
	assert.Zero(t, transport.Count("execute"))

	transport.OpenErr = cqlerr.NewProtocolError(cqlerr.CondAuthentication, "Provided username and/or password are incorrect")
	err = s.Open(context.Background())
	assert.True(t, cqlerr.Is(err, cqlerr.AuthenticationError))
}

func TestDescribeKeyspaceCache(t *testing.T) {
	s, transport, _ := newSession(t, session.Config{})
	ctx := context.Background()
	transport.Schemas["a"] = &schema.Keyspace{Name: "a"}
	transport.Schemas["b"] = &schema.Keyspace{Name: "b"}

	ks, err := s.DescribeKeyspace(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", ks.Name)
	_, err = s.DescribeKeyspace(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, transport.Count("describe"))

	// Switching keyspace invalidates the cache.
	_, err = s.Execute(ctx, "USE b", false)
	require.NoError(t, err)
	_, err = s.DescribeKeyspace(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, transport.Count("describe"))

	// Reopening starts a new generation.
	require.NoError(t, s.Close())
	_, err = s.DescribeKeyspace(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 3, transport.Count("describe"))
	assert.Equal(t, 2, transport.Count("open"))
}

func TestDescribeKeyspaceMissing(t *testing.T) {
	s, _, _ := newSession(t, session.Config{})
	_, err := s.DescribeKeyspace(context.Background(), "nope")
	assert.True(t, cqlerr.Is(err, cqlerr.NotFound))
}

func TestCompression(t *testing.T) {
	s, _, _ := newSession(t, session.Config{Compression: true})
	assert.True(t, s.Compression())
}

func TestRequestDurationByStatus(t *testing.T) {
	s, transport, reg := newSession(t, session.Config{})
	ctx := context.Background()

	_, err := s.Execute(ctx, "SELECT * FROM t", false)
	require.NoError(t, err)
	transport.ExecuteErr = cqlerr.NewProtocolError(cqlerr.CondInvalidRequest, "line 1:0 no viable alternative")
	_, err = s.Execute(ctx, "SELEC broken", false)
	require.Error(t, err)
	_, err = s.DescribeKeyspace(ctx, "nope")
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	observed := map[string]uint64{}
	for _, mf := range families {
		if mf.GetName() != "cqlcursor_session_request_duration_seconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			observed[labels["operation"]+"/"+labels["status"]] = m.GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, map[string]uint64{
		"execute/success":             1,
		"execute/invalid_request":     1,
		"describe_keyspace/not_found": 1,
	}, observed)

	count, err := testutil.GatherAndCount(reg, "cqlcursor_session_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
