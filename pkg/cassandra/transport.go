// Package cassandra implements session.Transport on top of gocql.
package cassandra

import (
	"context"
	"sort"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gocql/gocql"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/grafana/cqlcursor/pkg/cqlerr"
	"github.com/grafana/cqlcursor/pkg/resultset"
	"github.com/grafana/cqlcursor/pkg/schema"
	"github.com/grafana/cqlcursor/pkg/session"
)

// Transport owns one gocql session. The native protocol negotiates
// compression when a connection starts up, so switching compression or
// keyspace replaces the connection.
//
// A Transport is not safe for concurrent use.
type Transport struct {
	cfg      Config
	logger   log.Logger
	observer *observer

	session     *gocql.Session
	keyspace    string
	compression bool
}

// NewTransport returns a closed Transport.
func NewTransport(cfg Config, compression bool, logger log.Logger, reg prometheus.Registerer) (*Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid cassandra config")
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Transport{
		cfg:         cfg,
		logger:      log.With(logger, "component", "cassandra-transport"),
		observer:    newObserver(reg),
		compression: compression,
	}, nil
}

func (t *Transport) connect(keyspace string, compression bool) (*gocql.Session, error) {
	cluster, err := t.cfg.clusterConfig(keyspace, compression)
	if err != nil {
		return nil, err
	}
	cluster.QueryObserver = t.observer
	s, err := cluster.CreateSession()
	if err != nil {
		return nil, toProtocolError(err)
	}
	return s, nil
}

// reconnect replaces the open connection. On failure the current connection
// and its settings are kept.
func (t *Transport) reconnect(keyspace string, compression bool) error {
	s, err := t.connect(keyspace, compression)
	if err != nil {
		return err
	}
	if t.session != nil {
		t.session.Close()
	}
	t.session, t.keyspace, t.compression = s, keyspace, compression
	level.Debug(t.logger).Log("msg", "connected", "keyspace", keyspace, "compression", compression)
	return nil
}

// Open connects if not already connected.
func (t *Transport) Open(_ context.Context) error {
	if t.IsOpen() {
		return nil
	}
	return t.reconnect(t.keyspace, t.compression)
}

// IsOpen reports whether the connection is usable.
func (t *Transport) IsOpen() bool {
	return t.session != nil && !t.session.Closed()
}

// UseKeyspace reconnects with keyspace selected. gocql refuses USE
// statements, the keyspace is set when the connection starts up instead.
func (t *Transport) UseKeyspace(_ context.Context, keyspace string) error {
	if t.IsOpen() && t.keyspace == keyspace {
		return nil
	}
	return t.reconnect(keyspace, t.compression)
}

// ExecuteQuery runs query and returns every row with each value re-encoded
// to its wire bytes.
func (t *Transport) ExecuteQuery(ctx context.Context, query string, compression bool) (session.RowSet, error) {
	if !t.IsOpen() || compression != t.compression {
		if err := t.reconnect(t.keyspace, compression); err != nil {
			return nil, err
		}
	}

	iter := t.session.Query(query).WithContext(ctx).Iter()
	rows, err := readRows(iter)
	if closeErr := iter.Close(); closeErr != nil {
		return nil, toProtocolError(closeErr)
	}
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func readRows(iter *gocql.Iter) (session.RowSet, error) {
	columns := iter.Columns()
	rd, err := iter.RowData()
	if err != nil {
		return nil, toProtocolError(err)
	}

	rows := session.RowSet{}
	for iter.Scan(rd.Values...) {
		values, err := columnValues(columns, rd.Values)
		if err != nil {
			return nil, err
		}
		row := resultset.Row{Columns: make([]resultset.Column, len(columns))}
		for i, col := range columns {
			// Marshal dereferences the scanned pointer; nulls encode as nil.
			value, err := gocql.Marshal(col.TypeInfo, values[i])
			if err != nil {
				return nil, cqlerr.NewProtocolError(cqlerr.CondProtocol, "encoding column %s: %v", col.Name, err)
			}
			row.Columns[i] = resultset.Column{Name: col.Name, Value: value}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// columnValues regroups scanned values, one per column. RowData expands a
// tuple column into one value per element; those are gathered back into the
// slice form tuples marshal from.
func columnValues(columns []gocql.ColumnInfo, scanned []interface{}) ([]interface{}, error) {
	values := make([]interface{}, 0, len(columns))
	next := 0
	for _, col := range columns {
		n := 1
		tuple, isTuple := col.TypeInfo.(gocql.TupleTypeInfo)
		if isTuple {
			n = len(tuple.Elems)
		}
		if next+n > len(scanned) {
			return nil, cqlerr.NewProtocolError(cqlerr.CondProtocol, "column %s: have %d scanned values, need %d", col.Name, len(scanned)-next, n)
		}
		if isTuple {
			values = append(values, append([]interface{}(nil), scanned[next:next+n]...))
		} else {
			values = append(values, scanned[next])
		}
		next += n
	}
	return values, nil
}

// DescribeKeyspace fetches the schema of keyspace. Column families are sorted
// by name so lookups over them are deterministic.
func (t *Transport) DescribeKeyspace(_ context.Context, keyspace string) (*schema.Keyspace, error) {
	if !t.IsOpen() {
		return nil, toProtocolError(gocql.ErrSessionClosed)
	}
	md, err := t.session.KeyspaceMetadata(keyspace)
	if err != nil {
		return nil, toProtocolError(err)
	}
	return convertKeyspace(md), nil
}

func convertKeyspace(md *gocql.KeyspaceMetadata) *schema.Keyspace {
	names := make([]string, 0, len(md.Tables))
	for name := range md.Tables {
		names = append(names, name)
	}
	sort.Strings(names)

	ks := &schema.Keyspace{Name: md.Name}
	for _, name := range names {
		ks.ColumnFamilies = append(ks.ColumnFamilies, convertTable(md.Tables[name]))
	}
	return ks
}

func convertTable(tm *gocql.TableMetadata) schema.ColumnFamily {
	cf := schema.ColumnFamily{
		Name:                   tm.Name,
		Comparator:             tm.Comparator,
		DefaultValidationClass: tm.DefaultValidator,
		KeyValidationClass:     tm.KeyValidator,
		KeyAlias:               strings.Join(tm.KeyAliases, ","),
	}
	if cf.KeyAlias == "" {
		keys := make([]string, 0, len(tm.PartitionKey))
		for _, col := range tm.PartitionKey {
			keys = append(keys, col.Name)
		}
		cf.KeyAlias = strings.Join(keys, ",")
	}

	ordered := tm.OrderedColumns
	if len(ordered) == 0 {
		for name := range tm.Columns {
			ordered = append(ordered, name)
		}
		sort.Strings(ordered)
	}
	for _, name := range ordered {
		col, ok := tm.Columns[name]
		if !ok {
			continue
		}
		class := col.Validator
		if class == "" && col.Type != nil {
			class = col.Type.Type().String()
		}
		cf.Columns = append(cf.Columns, schema.ColumnDef{Name: col.Name, ValidationClass: class})
	}
	return cf
}

// Close releases the connection.
func (t *Transport) Close() error {
	if t.session != nil {
		t.session.Close()
		t.session = nil
	}
	return nil
}

var _ session.Transport = (*Transport)(nil)
