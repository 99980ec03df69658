// Package driver exposes a Session to database-access layers: a Statement with
// the entry points such layers bind to, and a database/sql driver built on it.
package driver

import (
	"context"

	"github.com/grafana/cqlcursor/pkg/resultset"
	"github.com/grafana/cqlcursor/pkg/schema"
	"github.com/grafana/cqlcursor/pkg/session"
)

// Statement executes queries on a session and walks their results.
//
// A Statement is not safe for concurrent use.
type Statement struct {
	session  *session.Session
	resolver *TypeResolver
	cursor   *resultset.Cursor
	rowCount int
}

// NewStatement returns a Statement with no result.
func NewStatement(s *session.Session) *Statement {
	return &Statement{
		session:  s,
		resolver: NewTypeResolver(s),
		cursor:   resultset.NewCursor(resultset.Empty()),
	}
}

// Execute runs query and replaces the current result. On failure the
// statement is left with an empty result.
func (st *Statement) Execute(ctx context.Context, query string) error {
	rs, err := st.session.Execute(ctx, query, st.session.Compression())
	if err != nil {
		st.cursor.Reset(resultset.Empty())
		st.rowCount = 0
		return err
	}
	st.cursor.Reset(rs)
	st.rowCount = rs.RowCount()
	return nil
}

// RowCount returns the number of rows of the last successful Execute.
func (st *Statement) RowCount() int {
	return st.rowCount
}

// ResultSet returns the current result.
func (st *Statement) ResultSet() *resultset.ResultSet {
	return st.cursor.ResultSet()
}

// Fetch advances to the next row. After the last row it returns false and
// the next Fetch starts over from the first row.
func (st *Statement) Fetch() bool {
	return st.cursor.Advance()
}

// ColumnCount returns the number of columns of the current row.
func (st *Statement) ColumnCount() (int, bool) {
	return st.cursor.ColumnCount()
}

// Describe describes column colno of the current row.
func (st *Statement) Describe(ctx context.Context, colno int) (schema.ColumnDescriptor, bool, error) {
	row, ok := st.cursor.Current()
	if !ok {
		return schema.ColumnDescriptor{}, false, nil
	}
	return st.resolver.DescribeColumn(ctx, row, colno)
}

// GetColumn returns the raw bytes of column colno of the current row. The
// slice is only valid until the statement moves or is executed again.
func (st *Statement) GetColumn(colno int) ([]byte, bool) {
	return st.cursor.Value(colno)
}

// GetColumnMeta returns the native metadata of column colno of the current row.
func (st *Statement) GetColumnMeta(ctx context.Context, colno int) (schema.Metadata, bool, error) {
	row, ok := st.cursor.Current()
	if !ok {
		return schema.Metadata{}, false, nil
	}
	return st.resolver.DescribeColumnMeta(ctx, row, colno)
}

// CursorClose rewinds the cursor, keeping the result for re-iteration.
func (st *Statement) CursorClose() {
	st.cursor.Close()
}

// Close drops the result. The session stays open.
func (st *Statement) Close() {
	st.cursor.Reset(resultset.Empty())
	st.rowCount = 0
}
