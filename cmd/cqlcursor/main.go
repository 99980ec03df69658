// Command cqlcursor runs queries against Cassandra and walks their results
// with a restartable cursor.
package main

import (
	"errors"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"

	"github.com/grafana/cqlcursor/pkg/cqlerr"
)

func main() {
	app := kingpin.New("cqlcursor", "Run queries against Cassandra through a restartable cursor.")
	opts := registerOptions(app)

	addQueryCommand(app, opts)
	addDescribeCommand(app, opts)

	kingpin.MustParse(app.Parse(os.Args[1:]))
}

// exitWithErr prints err, with its kind when it came from the store, and exits.
func exitWithErr(err error) {
	red := color.New(color.FgRed)
	var cerr *cqlerr.Error
	if errors.As(err, &cerr) {
		red.Fprintf(os.Stderr, "%s: %s\n", cerr.Kind, cerr.Message)
	} else {
		red.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(1)
}
