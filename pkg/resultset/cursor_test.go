package resultset

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRows(n int) []Row {
	rows := make([]Row, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, Row{Columns: []Column{
			{Name: "id", Value: []byte(fmt.Sprintf("%d", i))},
			{Name: "payload", Value: []byte{byte(i), 0xff}},
		}})
	}
	return rows
}

func collect(c *Cursor) []string {
	var ids []string
	for c.Advance() {
		v, ok := c.Value(0)
		if !ok {
			break
		}
		ids = append(ids, string(v))
	}
	return ids
}

func TestCursorAdvanceCount(t *testing.T) {
	for _, n := range []int{0, 1, 2, 7} {
		t.Run(fmt.Sprintf("rows=%d", n), func(t *testing.T) {
			c := NewCursor(New(makeRows(n)))
			for i := 0; i < n; i++ {
				require.True(t, c.Advance(), "advance %d", i)
				assert.Equal(t, State{Position: At, Index: i}, c.State())
			}
			assert.False(t, c.Advance())
			assert.Equal(t, BeforeFirst, c.State().Position)

			// The next call starts over.
			if n > 0 {
				require.True(t, c.Advance())
				assert.Equal(t, State{Position: At, Index: 0}, c.State())
			}
		})
	}
}

func TestCursorAdvanceSequence(t *testing.T) {
	for _, tc := range []struct {
		rows int
		want []bool
	}{
		{0, []bool{false, false, false}},
		{1, []bool{true, false, true, false}},
		{2, []bool{true, true, false, true, true, false}},
	} {
		t.Run(fmt.Sprintf("rows=%d", tc.rows), func(t *testing.T) {
			c := NewCursor(New(makeRows(tc.rows)))
			got := make([]bool, 0, len(tc.want))
			for range tc.want {
				got = append(got, c.Advance())
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCursorRestartAfterExhaustion(t *testing.T) {
	c := NewCursor(New(makeRows(3)))
	first := collect(c)
	assert.Equal(t, []string{"0", "1", "2"}, first)
	assert.Equal(t, BeforeFirst, c.State().Position)

	// A second loop walks the same rows without an extra call in between.
	assert.Equal(t, first, collect(c))
	assert.Equal(t, first, collect(c))
}

func TestCursorCloseRestarts(t *testing.T) {
	c := NewCursor(New(makeRows(4)))
	first := collect(c)

	c.Close()
	assert.Equal(t, BeforeFirst, c.State().Position)
	assert.Equal(t, first, collect(c))

	// Close half way through.
	c.Close()
	require.True(t, c.Advance())
	require.True(t, c.Advance())
	c.Close()
	assert.Equal(t, first, collect(c))
	assert.Equal(t, 4, c.ResultSet().RowCount())
}

func TestCursorEmptyResultSet(t *testing.T) {
	c := NewCursor(Empty())

	n, ok := c.ColumnCount()
	assert.False(t, ok)
	assert.Zero(t, n)

	assert.False(t, c.Advance())
	assert.Equal(t, BeforeFirst, c.State().Position)
	_, ok = c.Value(0)
	assert.False(t, ok)
}

func TestCursorColumnBounds(t *testing.T) {
	c := NewCursor(New(makeRows(1)))

	// Before the first row nothing is readable.
	_, ok := c.Column(0)
	assert.False(t, ok)

	require.True(t, c.Advance())
	n, ok := c.ColumnCount()
	require.True(t, ok)
	assert.Equal(t, 2, n)

	for _, idx := range []int{-1, 2, 3, 1 << 20} {
		v, ok := c.Value(idx)
		assert.False(t, ok, "index %d", idx)
		assert.Nil(t, v)
	}

	col, ok := c.Column(1)
	require.True(t, ok)
	assert.Equal(t, "payload", col.Name)
	assert.Equal(t, []byte{0, 0xff}, col.Value)

	// After exhaustion nothing is readable.
	assert.False(t, c.Advance())
	_, ok = c.Column(0)
	assert.False(t, ok)
	_, ok = c.ColumnCount()
	assert.False(t, ok)
}

func TestCursorReset(t *testing.T) {
	c := NewCursor(New(makeRows(2)))
	require.True(t, c.Advance())

	c.Reset(New(makeRows(1)))
	assert.Equal(t, BeforeFirst, c.State().Position)
	assert.Equal(t, []string{"0"}, collect(c))
}

func TestNilResultSet(t *testing.T) {
	var rs *ResultSet
	assert.Zero(t, rs.RowCount())
	_, ok := rs.Row(0)
	assert.False(t, ok)

	c := NewCursor(nil)
	assert.False(t, c.Advance())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "before-first", State{}.String())
	assert.Equal(t, "at(3)", State{Position: At, Index: 3}.String())
}
