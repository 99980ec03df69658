package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"

	"github.com/grafana/cqlcursor/pkg/driver"
	"github.com/grafana/cqlcursor/pkg/schema"
	"github.com/grafana/cqlcursor/pkg/session"
)

// queryCommand executes one query and prints its result.
type queryCommand struct {
	opts  *options
	query string
	meta  bool
}

func addQueryCommand(app *kingpin.Application, opts *options) {
	cmd := &queryCommand{opts: opts}
	c := app.Command("query", "Execute a query and print the rows it returns.")
	c.Flag("meta", "Print the native metadata of every column.").BoolVar(&cmd.meta)
	c.Arg("query", "Query to execute, optionally prefixed with `USE <keyspace>;`.").Required().StringVar(&cmd.query)
	c.Action(cmd.run)
}

func (cmd *queryCommand) run(_ *kingpin.ParseContext) error {
	c, logger, err := cmd.opts.load()
	if err != nil {
		exitWithErr(err)
	}
	s, err := openSession(c, logger)
	if err != nil {
		exitWithErr(err)
	}
	if err := withSession(s, func(s *session.Session) error {
		return runQuery(context.Background(), os.Stdout, s, cmd.query, cmd.meta)
	}); err != nil {
		exitWithErr(err)
	}
	return nil
}

func runQuery(ctx context.Context, w io.Writer, s *session.Session, query string, meta bool) error {
	st := driver.NewStatement(s)
	if err := st.Execute(ctx, query); err != nil {
		return err
	}
	return printResult(ctx, w, st, meta)
}

// printResult prints the column header and descriptions of the first row,
// then every row.
func printResult(ctx context.Context, w io.Writer, st *driver.Statement, meta bool) error {
	bold := color.New(color.Bold)
	if !st.Fetch() {
		bold.Fprintf(w, "(%d rows)\n", st.RowCount())
		return nil
	}

	n, _ := st.ColumnCount()
	first, _ := st.ResultSet().Row(0)
	names := make([]string, n)
	types := make([]schema.LogicalType, n)
	for i := 0; i < n; i++ {
		names[i] = first.Columns[i].Name
		desc, ok, err := st.Describe(ctx, i)
		if err != nil {
			return err
		}
		if ok {
			types[i] = desc.Type
		}
	}
	bold.Fprintln(w, strings.Join(names, "\t"))

	for i := 0; i < n; i++ {
		if !meta {
			fmt.Fprintf(w, "# %s: %s\n", names[i], types[i])
			continue
		}
		m, _, err := st.GetColumnMeta(ctx, i)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "# %s: %s\n", names[i], formatMeta(m.Map()))
	}

	for {
		values := make([]string, n)
		for i := 0; i < n; i++ {
			b, ok := st.GetColumn(i)
			if !ok || b == nil {
				values[i] = "null"
				continue
			}
			v, err := driver.DecodeValue(types[i], b)
			if err != nil {
				return err
			}
			values[i] = formatValue(v)
		}
		fmt.Fprintln(w, strings.Join(values, "\t"))
		if !st.Fetch() {
			break
		}
	}
	bold.Fprintf(w, "(%d rows)\n", st.RowCount())
	return nil
}

func formatMeta(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+m[k])
	}
	return strings.Join(parts, " ")
}

func formatValue(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case []byte:
		return fmt.Sprintf("0x%x", v)
	default:
		return fmt.Sprint(v)
	}
}
