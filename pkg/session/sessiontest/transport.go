// Package sessiontest provides an in-memory Transport for tests.
package sessiontest

import (
	"context"
	"sync"

	"github.com/grafana/cqlcursor/pkg/cqlerr"
	"github.com/grafana/cqlcursor/pkg/schema"
	"github.com/grafana/cqlcursor/pkg/session"
)

// Call records one round trip made through a MockTransport.
type Call struct {
	Op          string
	Arg         string
	Compression bool
}

// MockTransport serves canned responses and records every round trip.
type MockTransport struct {
	mtx sync.Mutex

	open     bool
	keyspace string
	calls    []Call

	// Results maps a query to the rows it returns. Unknown queries return no rows.
	Results map[string]session.RowSet
	// Schemas maps a keyspace to its schema. Unknown keyspaces fail with NotFound.
	Schemas map[string]*schema.Keyspace

	// Errors injected per operation: "open", "use", "execute", "describe".
	OpenErr     error
	UseErr      error
	ExecuteErr  error
	DescribeErr error
}

// NewMockTransport returns an empty, closed MockTransport.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		Results: map[string]session.RowSet{},
		Schemas: map[string]*schema.Keyspace{},
	}
}

func (m *MockTransport) record(op, arg string, compression bool) {
	m.calls = append(m.calls, Call{Op: op, Arg: arg, Compression: compression})
}

func (m *MockTransport) Open(_ context.Context) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.record("open", "", false)
	if m.OpenErr != nil {
		return m.OpenErr
	}
	m.open = true
	return nil
}

func (m *MockTransport) IsOpen() bool {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.open
}

func (m *MockTransport) UseKeyspace(_ context.Context, keyspace string) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.record("use", keyspace, false)
	if m.UseErr != nil {
		return m.UseErr
	}
	m.keyspace = keyspace
	return nil
}

func (m *MockTransport) ExecuteQuery(_ context.Context, query string, compression bool) (session.RowSet, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.record("execute", query, compression)
	if m.ExecuteErr != nil {
		return nil, m.ExecuteErr
	}
	return m.Results[query], nil
}

func (m *MockTransport) DescribeKeyspace(_ context.Context, keyspace string) (*schema.Keyspace, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.record("describe", keyspace, false)
	if m.DescribeErr != nil {
		return nil, m.DescribeErr
	}
	ks, ok := m.Schemas[keyspace]
	if !ok {
		return nil, cqlerr.NewProtocolError(cqlerr.CondNotFound, "keyspace %s does not exist", keyspace)
	}
	return ks, nil
}

func (m *MockTransport) Close() error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.record("close", "", false)
	m.open = false
	return nil
}

// Keyspace returns the keyspace last selected on the transport.
func (m *MockTransport) Keyspace() string {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.keyspace
}

// Calls returns the round trips made so far.
func (m *MockTransport) Calls() []Call {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return append([]Call(nil), m.calls...)
}

// Count returns how many round trips of op were made.
func (m *MockTransport) Count(op string) int {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// ResetCalls forgets recorded round trips.
func (m *MockTransport) ResetCalls() {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.calls = nil
}

var _ session.Transport = (*MockTransport)(nil)
