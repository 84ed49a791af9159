package dbtypes

import "errors"

// TypeID identifies a column's physical type.
type TypeID uint8

const (
	// IntegerTypeID is a fixed-width 32 bit signed integer (surface type INT).
	IntegerTypeID TypeID = iota + 1

	// VarcharTypeID is a length-prefixed variable-width string (surface type VARCHAR).
	VarcharTypeID
)

// ErrTypeMismatch is returned when a value does not match a column's type.
var ErrTypeMismatch = errors.New("value does not match column type")

func (t TypeID) String() string {
	switch t {
	case IntegerTypeID:
		return "INT"
	case VarcharTypeID:
		return "VARCHAR"
	default:
		return "UNKNOWN"
	}
}

// DbType is implemented by every type supported by the database.
type DbType interface {
	Less(this, than *Value) bool
	Serialize(dest []byte, src *Value) int

	// Deserialize decodes one value from src and returns it together with the
	// number of bytes consumed.
	Deserialize(src []byte) (*Value, int)

	// Length returns the encoded size of the value.
	Length(val *Value) int

	TypeID() TypeID
}

func GetType(typeID TypeID) DbType {
	switch typeID {
	case IntegerTypeID:
		return &IntegerType{}
	case VarcharTypeID:
		return &VarcharType{}
	default:
		return nil
	}
}
