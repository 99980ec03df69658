// Package resultset holds the immutable rows returned by one query and the
// cursor used to walk them.
package resultset

// Column is one named value of a row. Value holds the column's raw bytes.
type Column struct {
	Name  string
	Value []byte
}

// Row is an ordered sequence of columns, in server response order.
type Row struct {
	Columns []Column
}

// ResultSet owns the rows of a single query. It is immutable once built and
// may be read from several goroutines.
type ResultSet struct {
	rows []Row
}

// New wraps rows. The ResultSet takes ownership of the slice.
func New(rows []Row) *ResultSet {
	return &ResultSet{rows: rows}
}

// Empty returns a ResultSet with no rows.
func Empty() *ResultSet {
	return &ResultSet{}
}

// RowCount returns the number of rows.
func (r *ResultSet) RowCount() int {
	if r == nil {
		return 0
	}
	return len(r.rows)
}

// Row returns the row at index i.
func (r *ResultSet) Row(i int) (Row, bool) {
	if r == nil || i < 0 || i >= len(r.rows) {
		return Row{}, false
	}
	return r.rows[i], true
}
