package catalog

import (
	"fmt"

	"nimbusdb/dbtypes"
)

// EncodeTuple serializes values against the schema: fixed-width integers,
// length-prefixed varchars, in column order. Fails with ErrTypeMismatch when
// a value's type does not match its column.
func EncodeTuple(schema Schema, values []*dbtypes.Value) ([]byte, error) {
	cols := schema.GetColumns()
	if len(values) != len(cols) {
		return nil, fmt.Errorf("expected %d values, got %d: %w", len(cols), len(values), dbtypes.ErrTypeMismatch)
	}

	size := 0
	for i, v := range values {
		if v.GetTypeID() != cols[i].TypeID {
			return nil, fmt.Errorf("column %q is %v: %w", cols[i].Name, cols[i].TypeID, dbtypes.ErrTypeMismatch)
		}
		size += v.Length()
	}

	data := make([]byte, size)
	offset := 0
	for _, v := range values {
		offset += v.Serialize(data[offset:])
	}
	return data, nil
}

// DecodeTuple deserializes a record produced by EncodeTuple. Trailing bytes
// beyond the schema's columns are ignored; the heap pads short records.
func DecodeTuple(schema Schema, data []byte) []*dbtypes.Value {
	values := make([]*dbtypes.Value, 0, schema.ColumnCount())
	offset := 0
	for _, col := range schema.GetColumns() {
		v, n := dbtypes.Deserialize(col.TypeID, data[offset:])
		values = append(values, v)
		offset += n
	}
	return values
}
