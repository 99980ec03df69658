package session

import (
	"context"

	"github.com/grafana/cqlcursor/pkg/resultset"
	"github.com/grafana/cqlcursor/pkg/schema"
)

// RowSet is the raw rows of one query response, in server order.
type RowSet []resultset.Row

// Transport is the protocol client a Session drives. Implementations return
// *cqlerr.ProtocolError for failures they can identify; anything else is
// classified as a general error.
type Transport interface {
	Open(ctx context.Context) error
	IsOpen() bool
	// UseKeyspace selects the keyspace subsequent queries run against.
	UseKeyspace(ctx context.Context, keyspace string) error
	ExecuteQuery(ctx context.Context, query string, compression bool) (RowSet, error)
	DescribeKeyspace(ctx context.Context, keyspace string) (*schema.Keyspace, error)
	Close() error
}
