package dbtypes

import "fmt"

// Value is a single typed cell of a tuple.
type Value struct {
	typeID TypeID
	value  interface{}
}

func NewIntValue(v int32) *Value {
	return &Value{typeID: IntegerTypeID, value: v}
}

func NewVarcharValue(v string) *Value {
	return &Value{typeID: VarcharTypeID, value: v}
}

func (v *Value) GetTypeID() TypeID {
	return v.typeID
}

func (v *Value) GetAsInterface() interface{} {
	return v.value
}

func (v *Value) AsInt() int32 {
	return v.value.(int32)
}

func (v *Value) AsVarchar() string {
	return v.value.(string)
}

func (v *Value) Less(than *Value) bool {
	return GetType(v.typeID).Less(v, than)
}

func (v *Value) Equals(other *Value) bool {
	if v.typeID != other.typeID {
		return false
	}
	return v.value == other.value
}

func (v *Value) Serialize(dest []byte) int {
	return GetType(v.typeID).Serialize(dest, v)
}

func (v *Value) Length() int {
	return GetType(v.typeID).Length(v)
}

func (v *Value) String() string {
	return fmt.Sprintf("%v", v.value)
}

// Deserialize decodes one value of the given type from src, returning the
// value and the number of bytes consumed.
func Deserialize(typeID TypeID, src []byte) (*Value, int) {
	return GetType(typeID).Deserialize(src)
}
