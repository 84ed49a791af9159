package catalog

import (
	"nimbusdb/dbtypes"
)

// Column is one named, typed attribute of a table.
type Column struct {
	Name   string         `json:"name"`
	TypeID dbtypes.TypeID `json:"type_id"`
}

func NewColumn(name string, typeID dbtypes.TypeID) Column {
	return Column{Name: name, TypeID: typeID}
}

// Schema is a table's ordered column list. Immutable once the table is
// created.
type Schema struct {
	columns []Column
}

func NewSchema(columns []Column) Schema {
	return Schema{columns: append([]Column(nil), columns...)}
}

func (s Schema) GetColumns() []Column {
	return s.columns
}

func (s Schema) GetColumn(idx int) Column {
	return s.columns[idx]
}

func (s Schema) ColumnCount() int {
	return len(s.columns)
}

// ColIdx resolves a column name to its position, ErrColumnNotFound when the
// schema has no such column.
func (s Schema) ColIdx(name string) (int, error) {
	for i, column := range s.columns {
		if column.Name == name {
			return i, nil
		}
	}
	return 0, ErrColumnNotFound
}
