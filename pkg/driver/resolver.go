package driver

import (
	"context"

	"github.com/grafana/cqlcursor/pkg/resultset"
	"github.com/grafana/cqlcursor/pkg/schema"
	"github.com/grafana/cqlcursor/pkg/session"
)

// TypeResolver describes result columns using the schema of the session's
// active keyspace.
type TypeResolver struct {
	session *session.Session
}

// NewTypeResolver returns a resolver backed by s.
func NewTypeResolver(s *session.Session) *TypeResolver {
	return &TypeResolver{session: s}
}

// keyspace returns the schema of the active keyspace, nil when none is
// selected.
func (r *TypeResolver) keyspace(ctx context.Context) (*schema.Keyspace, error) {
	name, ok := r.session.ActiveKeyspace()
	if !ok {
		return nil, nil
	}
	return r.session.DescribeKeyspace(ctx, name)
}

// DescribeColumn describes column index of row. Out of range indexes and
// unnamed columns have no data.
func (r *TypeResolver) DescribeColumn(ctx context.Context, row resultset.Row, index int) (schema.ColumnDescriptor, bool, error) {
	if index < 0 || index >= len(row.Columns) || row.Columns[index].Name == "" {
		return schema.ColumnDescriptor{}, false, nil
	}
	ks, err := r.keyspace(ctx)
	if err != nil {
		return schema.ColumnDescriptor{}, false, err
	}
	return schema.Describe(ks, row.Columns[index].Name), true, nil
}

// DescribeColumnMeta returns the native metadata of column index of row. A
// column missing from the schema is reported with an unknown native type.
func (r *TypeResolver) DescribeColumnMeta(ctx context.Context, row resultset.Row, index int) (schema.Metadata, bool, error) {
	if index < 0 || index >= len(row.Columns) {
		return schema.Metadata{}, false, nil
	}
	ks, err := r.keyspace(ctx)
	if err != nil {
		return schema.Metadata{}, false, err
	}
	return schema.DescribeMeta(ks, row.Columns[index].Name), true, nil
}
