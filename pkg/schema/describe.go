package schema

// ColumnDescriptor is what a host needs to present a result column.
type ColumnDescriptor struct {
	Name      string
	Type      LogicalType
	MaxLen    int
	Precision int
}

// Metadata is the native metadata of a result column. On a schema miss only
// NativeType is set.
type Metadata struct {
	NativeType             string
	Comparator             string
	DefaultValidationClass string
	KeyValidationClass     string
	KeyAlias               string

	found bool
}

// Found reports whether the column was present in the schema.
func (m Metadata) Found() bool {
	return m.found
}

// Map returns the fields that are present, keyed the way database-access
// layers expect them.
func (m Metadata) Map() map[string]string {
	if !m.found {
		return map[string]string{"native_type": m.NativeType}
	}
	return map[string]string{
		"native_type":              m.NativeType,
		"comparator":               m.Comparator,
		"default_validation_class": m.DefaultValidationClass,
		"key_validation_class":     m.KeyValidationClass,
		"key_alias":                m.KeyAlias,
	}
}

// Describe derives the descriptor of column name from ks. Columns missing from
// the schema, or a nil schema, describe as strings.
func Describe(ks *Keyspace, name string) ColumnDescriptor {
	desc := ColumnDescriptor{
		Name:   name,
		Type:   TypeString,
		MaxLen: -1,
	}
	if _, col, ok := ks.Lookup(name); ok {
		desc.Type = ResolveValidationClass(col.ValidationClass)
	}
	return desc
}

// DescribeMeta returns the native metadata of column name.
func DescribeMeta(ks *Keyspace, name string) Metadata {
	cf, col, ok := ks.Lookup(name)
	if !ok {
		return Metadata{NativeType: UnknownNativeType}
	}
	return Metadata{
		NativeType:             col.ValidationClass,
		Comparator:             cf.Comparator,
		DefaultValidationClass: cf.DefaultValidationClass,
		KeyValidationClass:     cf.KeyValidationClass,
		KeyAlias:               cf.KeyAlias,
		found:                  true,
	}
}
