package dbtypes

import "encoding/binary"

const integerSize = 4

type IntegerType struct{}

func (i *IntegerType) Less(this, than *Value) bool {
	return this.AsInt() < than.AsInt()
}

func (i *IntegerType) Serialize(dest []byte, src *Value) int {
	binary.BigEndian.PutUint32(dest, uint32(src.AsInt()))
	return integerSize
}

func (i *IntegerType) Deserialize(src []byte) (*Value, int) {
	return NewIntValue(int32(binary.BigEndian.Uint32(src))), integerSize
}

func (i *IntegerType) Length(val *Value) int {
	return integerSize
}

func (i *IntegerType) TypeID() TypeID {
	return IntegerTypeID
}
