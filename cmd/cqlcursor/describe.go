package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"

	"github.com/grafana/cqlcursor/pkg/schema"
	"github.com/grafana/cqlcursor/pkg/session"
)

// describeCommand prints the schema of a keyspace.
type describeCommand struct {
	opts     *options
	keyspace string
}

func addDescribeCommand(app *kingpin.Application, opts *options) {
	cmd := &describeCommand{opts: opts}
	c := app.Command("describe", "Print the column families of a keyspace.")
	c.Arg("keyspace", "Keyspace to describe.").Required().StringVar(&cmd.keyspace)
	c.Action(cmd.run)
}

func (cmd *describeCommand) run(_ *kingpin.ParseContext) error {
	c, logger, err := cmd.opts.load()
	if err != nil {
		exitWithErr(err)
	}
	s, err := openSession(c, logger)
	if err != nil {
		exitWithErr(err)
	}
	if err := withSession(s, func(s *session.Session) error {
		return runDescribe(context.Background(), os.Stdout, s, cmd.keyspace)
	}); err != nil {
		exitWithErr(err)
	}
	return nil
}

func runDescribe(ctx context.Context, w io.Writer, s *session.Session, keyspace string) error {
	ks, err := s.DescribeKeyspace(ctx, keyspace)
	if err != nil {
		return err
	}
	printKeyspace(w, ks)
	return nil
}

func printKeyspace(w io.Writer, ks *schema.Keyspace) {
	bold := color.New(color.Bold)
	bold.Fprintf(w, "Keyspace %s:\n", ks.Name)
	for _, cf := range ks.ColumnFamilies {
		bold.Fprintf(w, "  %s\n", cf.Name)
		fmt.Fprintf(w, "    key: %s (%s)\n", cf.KeyAlias, cf.KeyValidationClass)
		for _, col := range cf.Columns {
			fmt.Fprintf(w, "    %s: %s (%s)\n", col.Name, col.ValidationClass, schema.ResolveValidationClass(col.ValidationClass))
		}
	}
}
