package resultset

import "fmt"

// Position is the kind of place a cursor can be in.
type Position int

const (
	BeforeFirst Position = iota
	At
)

// State is a cursor position. Index is meaningful only when Position is At.
type State struct {
	Position Position
	Index    int
}

func (s State) String() string {
	if s.Position == At {
		return fmt.Sprintf("at(%d)", s.Index)
	}
	return "before-first"
}

// Cursor is a forward-only, restartable iterator over a ResultSet.
//
// Accessing columns while the cursor is not on a row reports "no data"
// rather than failing. A Cursor is not safe for concurrent use.
type Cursor struct {
	rs    *ResultSet
	state State
}

// NewCursor returns a cursor positioned before the first row of rs.
func NewCursor(rs *ResultSet) *Cursor {
	return &Cursor{rs: rs}
}

// Reset points the cursor at rs and rewinds it.
func (c *Cursor) Reset(rs *ResultSet) {
	c.rs = rs
	c.state = State{}
}

// ResultSet returns the rows the cursor walks.
func (c *Cursor) ResultSet() *ResultSet {
	return c.rs
}

// State returns the current position.
func (c *Cursor) State() State {
	return c.state
}

// Advance moves to the next row and reports whether one is available. The
// call that runs past the last row returns false and rewinds the cursor, so
// the rows can be iterated again.
func (c *Cursor) Advance() bool {
	next := 0
	if c.state.Position == At {
		next = c.state.Index + 1
	}
	if next >= c.rs.RowCount() {
		c.state = State{}
		return false
	}
	c.state = State{Position: At, Index: next}
	return true
}

// Close rewinds the cursor without discarding the ResultSet.
func (c *Cursor) Close() {
	c.state = State{}
}

// Current returns the row the cursor is on.
func (c *Cursor) Current() (Row, bool) {
	if c.state.Position != At {
		return Row{}, false
	}
	return c.rs.Row(c.state.Index)
}

// ColumnCount returns the number of columns of the current row.
func (c *Cursor) ColumnCount() (int, bool) {
	row, ok := c.Current()
	if !ok {
		return 0, false
	}
	return len(row.Columns), true
}

// Column returns column i of the current row.
func (c *Cursor) Column(i int) (Column, bool) {
	row, ok := c.Current()
	if !ok || i < 0 || i >= len(row.Columns) {
		return Column{}, false
	}
	return row.Columns[i], true
}

// Value returns the raw bytes of column i of the current row. The slice is
// owned by the ResultSet and must not be modified.
func (c *Cursor) Value(i int) ([]byte, bool) {
	col, ok := c.Column(i)
	if !ok {
		return nil, false
	}
	return col.Value, true
}
