package schema

import "strings"

const marshalPrefix = "org.apache.cassandra.db.marshal."

// UnknownNativeType is reported for columns absent from the keyspace schema.
const UnknownNativeType = "unknown"

// LogicalType is the type a column's raw bytes are presented as.
type LogicalType int

const (
	TypeString LogicalType = iota
	TypeInteger
	TypeBinary
)

func (t LogicalType) String() string {
	switch t {
	case TypeInteger:
		return "integer"
	case TypeBinary:
		return "binary"
	default:
		return "string"
	}
}

// Keyspace is the read-only schema of one keyspace.
type Keyspace struct {
	Name           string
	ColumnFamilies []ColumnFamily
}

// ColumnFamily describes one column family (table) of a keyspace.
type ColumnFamily struct {
	Name                   string
	Comparator             string
	DefaultValidationClass string
	KeyValidationClass     string
	KeyAlias               string
	Columns                []ColumnDef
}

// ColumnDef is a column's declared validation class.
type ColumnDef struct {
	Name            string
	ValidationClass string
}

// Lookup scans the column families in order and returns the first column
// named name.
func (k *Keyspace) Lookup(name string) (ColumnFamily, ColumnDef, bool) {
	if k == nil {
		return ColumnFamily{}, ColumnDef{}, false
	}
	for _, cf := range k.ColumnFamilies {
		for _, col := range cf.Columns {
			if col.Name == name {
				return cf, col, true
			}
		}
	}
	return ColumnFamily{}, ColumnDef{}, false
}

// ResolveValidationClass maps a validation class onto a logical type. Both the
// marshal class names and their CQL spellings are understood.
func ResolveValidationClass(class string) LogicalType {
	switch strings.ToLower(strings.TrimPrefix(class, marshalPrefix)) {
	case "longtype", "integertype", "bigint", "varint":
		return TypeInteger
	case "bytestype", "blob":
		return TypeBinary
	default:
		return TypeString
	}
}
