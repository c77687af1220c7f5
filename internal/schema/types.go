package schema

// ScalarType is the value kind a column round-trips as.
type ScalarType int

const (
	Integer ScalarType = iota
	Text
)

func (t ScalarType) String() string {
	if t == Text {
		return "text"
	}
	return "integer"
}

// Column describes a single column in a table
type Column struct {
	Name          string
	Bind          string // bind token, e.g. ":emp_no"
	Type          ScalarType
	Nullable      bool
	Position      int     // zero-based catalog position
	DeclaredType  string  // catalog type, e.g. "varchar(14)"
	Default       *string // nil if no default
	AutoIncrement bool
}

// PrimaryKey is one column of a table's primary key.
type PrimaryKey struct {
	Column        string
	AutoIncrement bool
}

// Relation is a foreign key declared by RefererTable that points at this
// table.
type Relation struct {
	RefererTable     string
	RefererColumn    string
	ReferencedColumn string
}

// Table is the introspected schema of one table. It is immutable once
// built and may be shared.
type Table struct {
	Name        string
	Columns     []Column     // catalog order
	PrimaryKeys []PrimaryKey // catalog order
	Relations   []Relation
	index       map[string]int // column name -> position in Columns
}

// Column returns the named column.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.Columns[i], true
}

// HasColumn reports whether name is a column of t.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ColumnNames returns the column names in catalog order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}
