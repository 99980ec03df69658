package driver

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"math"
	"math/big"
	"reflect"
	"strings"

	"github.com/go-kit/log"
	"github.com/gocql/gocql"
	"github.com/pkg/errors"

	"github.com/grafana/cqlcursor/pkg/cassandra"
	"github.com/grafana/cqlcursor/pkg/resultset"
	"github.com/grafana/cqlcursor/pkg/schema"
	"github.com/grafana/cqlcursor/pkg/session"
)

// DriverName is the name the driver is registered under with database/sql.
const DriverName = "cassandra-cursor"

func init() {
	sql.Register(DriverName, &Driver{})
}

// Driver opens sessions from a DSN, see ParseDSN. Connections opened through
// a Driver are not instrumented; use NewConnector to supply sessions that are.
type Driver struct {
	Logger log.Logger
}

// Open implements driver.Driver.
func (d *Driver) Open(dsn string) (driver.Conn, error) {
	c, err := d.OpenConnector(dsn)
	if err != nil {
		return nil, err
	}
	return c.Connect(context.Background())
}

// OpenConnector implements driver.DriverContext.
func (d *Driver) OpenConnector(dsn string) (driver.Connector, error) {
	cfg, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	return &connector{
		driver: d,
		open: func() (*session.Session, error) {
			transport, err := cassandra.NewTransport(cfg.Cassandra, cfg.Session.Compression, d.Logger, nil)
			if err != nil {
				return nil, err
			}
			return session.New(cfg.Session, transport, d.Logger, nil)
		},
	}, nil
}

// NewConnector returns a connector whose connections use sessions built by
// open, for use with sql.OpenDB.
func NewConnector(open func() (*session.Session, error)) driver.Connector {
	return &connector{driver: &Driver{}, open: open}
}

type connector struct {
	driver *Driver
	open   func() (*session.Session, error)
}

func (c *connector) Connect(_ context.Context) (driver.Conn, error) {
	s, err := c.open()
	if err != nil {
		return nil, err
	}
	return &conn{session: s}, nil
}

func (c *connector) Driver() driver.Driver {
	return c.driver
}

type conn struct {
	session *session.Session
}

func (c *conn) Prepare(query string) (driver.Stmt, error) {
	return &stmt{conn: c, query: query}, nil
}

func (c *conn) Close() error {
	return c.session.Close()
}

func (c *conn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions are not supported")
}

func (c *conn) Ping(ctx context.Context) error {
	return c.session.Open(ctx)
}

// stmt takes no placeholders; database/sql rejects calls with arguments.
type stmt struct {
	conn  *conn
	query string
}

func (s *stmt) Close() error {
	return nil
}

func (s *stmt) NumInput() int {
	return 0
}

func (s *stmt) Exec(_ []driver.Value) (driver.Result, error) {
	return s.ExecContext(context.Background(), nil)
}

func (s *stmt) ExecContext(ctx context.Context, _ []driver.NamedValue) (driver.Result, error) {
	st := NewStatement(s.conn.session)
	if err := st.Execute(ctx, s.query); err != nil {
		return nil, err
	}
	defer st.Close()
	return driver.RowsAffected(st.RowCount()), nil
}

func (s *stmt) Query(_ []driver.Value) (driver.Rows, error) {
	return s.QueryContext(context.Background(), nil)
}

func (s *stmt) QueryContext(ctx context.Context, _ []driver.NamedValue) (driver.Rows, error) {
	st := NewStatement(s.conn.session)
	if err := st.Execute(ctx, s.query); err != nil {
		return nil, err
	}
	return newRows(ctx, st), nil
}

// rows presents a Statement's result. Column names and types come from the
// first row; rows with fewer columns are padded with NULL.
type rows struct {
	ctx   context.Context
	st    *Statement
	first resultset.Row
	types []schema.LogicalType
	metas []schema.Metadata
}

func newRows(ctx context.Context, st *Statement) *rows {
	first, _ := st.ResultSet().Row(0)
	return &rows{ctx: ctx, st: st, first: first}
}

func (r *rows) Columns() []string {
	names := make([]string, len(r.first.Columns))
	for i, col := range r.first.Columns {
		names[i] = col.Name
	}
	return names
}

func (r *rows) Close() error {
	r.st.Close()
	return nil
}

// resolve describes the columns of the first row once.
func (r *rows) resolve() error {
	if r.types != nil {
		return nil
	}
	types := make([]schema.LogicalType, len(r.first.Columns))
	metas := make([]schema.Metadata, len(r.first.Columns))
	for i := range r.first.Columns {
		desc, ok, err := r.st.resolver.DescribeColumn(r.ctx, r.first, i)
		if err != nil {
			return err
		}
		if ok {
			types[i] = desc.Type
		}
		meta, _, err := r.st.resolver.DescribeColumnMeta(r.ctx, r.first, i)
		if err != nil {
			return err
		}
		metas[i] = meta
	}
	r.types, r.metas = types, metas
	return nil
}

func (r *rows) Next(dest []driver.Value) error {
	if err := r.resolve(); err != nil {
		return err
	}
	if !r.st.Fetch() {
		return io.EOF
	}
	for i := range dest {
		b, ok := r.st.GetColumn(i)
		if !ok || b == nil {
			dest[i] = nil
			continue
		}
		v, err := DecodeValue(r.types[i], b)
		if err != nil {
			return err
		}
		dest[i] = v
	}
	return nil
}

var varintType = gocql.NewNativeType(4, gocql.TypeVarint, "")

// DecodeValue converts raw column bytes to a driver.Value. Integers are
// decoded as varints, which also covers 8 byte bigints.
func DecodeValue(t schema.LogicalType, b []byte) (driver.Value, error) {
	switch t {
	case schema.TypeInteger:
		if len(b) == 0 {
			return nil, nil
		}
		n := new(big.Int)
		if err := gocql.Unmarshal(varintType, b, n); err != nil {
			return nil, errors.Wrap(err, "decoding integer column")
		}
		if n.IsInt64() {
			return n.Int64(), nil
		}
		return n.String(), nil
	case schema.TypeBinary:
		return append([]byte(nil), b...), nil
	default:
		return string(b), nil
	}
}

func (r *rows) ColumnTypeDatabaseTypeName(index int) string {
	if err := r.resolve(); err != nil || index >= len(r.metas) {
		return ""
	}
	native := r.metas[index].NativeType
	return strings.ToUpper(native[strings.LastIndex(native, ".")+1:])
}

func (r *rows) ColumnTypeScanType(index int) reflect.Type {
	if err := r.resolve(); err != nil || index >= len(r.types) {
		return reflect.TypeOf("")
	}
	switch r.types[index] {
	case schema.TypeInteger:
		return reflect.TypeOf(int64(0))
	case schema.TypeBinary:
		return reflect.TypeOf([]byte(nil))
	default:
		return reflect.TypeOf("")
	}
}

// ColumnTypeLength reports string and binary columns as unbounded.
func (r *rows) ColumnTypeLength(index int) (int64, bool) {
	if err := r.resolve(); err != nil || index >= len(r.types) {
		return 0, false
	}
	if r.types[index] == schema.TypeInteger {
		return 0, false
	}
	return math.MaxInt64, true
}

var (
	_ driver.DriverContext                  = (*Driver)(nil)
	_ driver.Pinger                         = (*conn)(nil)
	_ driver.StmtQueryContext               = (*stmt)(nil)
	_ driver.StmtExecContext                = (*stmt)(nil)
	_ driver.RowsColumnTypeDatabaseTypeName = (*rows)(nil)
	_ driver.RowsColumnTypeScanType         = (*rows)(nil)
	_ driver.RowsColumnTypeLength           = (*rows)(nil)
)
