package dbtypes

import "encoding/binary"

const varcharLenSize = 2

type VarcharType struct{}

func (c *VarcharType) Less(this, than *Value) bool {
	return this.AsVarchar() < than.AsVarchar()
}

// Serialize writes the string as a u16 length prefix followed by its bytes.
func (c *VarcharType) Serialize(dest []byte, src *Value) int {
	str := src.AsVarchar()
	binary.BigEndian.PutUint16(dest, uint16(len(str)))
	copy(dest[varcharLenSize:], str)
	return varcharLenSize + len(str)
}

func (c *VarcharType) Deserialize(src []byte) (*Value, int) {
	l := int(binary.BigEndian.Uint16(src))
	str := string(src[varcharLenSize : varcharLenSize+l])
	return NewVarcharValue(str), varcharLenSize + l
}

func (c *VarcharType) Length(val *Value) int {
	return varcharLenSize + len(val.AsVarchar())
}

func (c *VarcharType) TypeID() TypeID {
	return VarcharTypeID
}
