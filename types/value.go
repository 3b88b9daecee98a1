package types

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

// A Value is one decoded cell. Values are immutable; setters on rows replace them.
type Value struct {
	valueType TypeID
	integer   int64
	uinteger  uint64
	float     float32
	varchar   string
	bytes     []byte
}

func NewInt8(value int8) Value {
	return Value{valueType: Int8, integer: int64(value)}
}

func NewUInt8(value uint8) Value {
	return Value{valueType: UInt8, uinteger: uint64(value)}
}

func NewInt16(value int16) Value {
	return Value{valueType: Int16, integer: int64(value)}
}

func NewUInt16(value uint16) Value {
	return Value{valueType: UInt16, uinteger: uint64(value)}
}

func NewInteger(value int32) Value {
	return Value{valueType: Int32, integer: int64(value)}
}

func NewUInt32(value uint32) Value {
	return Value{valueType: UInt32, uinteger: uint64(value)}
}

func NewInt64(value int64) Value {
	return Value{valueType: Int64, integer: value}
}

func NewUInt64(value uint64) Value {
	return Value{valueType: UInt64, uinteger: value}
}

func NewFloat(value float32) Value {
	return Value{valueType: Float, float: value}
}

func NewVarchar(value string) Value {
	return Value{valueType: StringRef, varchar: value}
}

func NewByteArray(value []byte) Value {
	b := make([]byte, len(value))
	copy(b, value)
	return Value{valueType: ByteArray, bytes: b}
}

// NewIntegerValue builds an integer value of any integer kind. v is truncated to the kind.
func NewIntegerValue(valueType TypeID, v int64) Value {
	switch valueType {
	case Int8:
		return NewInt8(int8(v))
	case UInt8:
		return NewUInt8(uint8(v))
	case Int16:
		return NewInt16(int16(v))
	case UInt16:
		return NewUInt16(uint16(v))
	case Int32:
		return NewInteger(int32(v))
	case UInt32:
		return NewUInt32(uint32(v))
	case Int64:
		return NewInt64(v)
	case UInt64:
		return NewUInt64(uint64(v))
	}
	panic(fmt.Sprintf("%v is not an integer type", valueType))
}

// NewZeroValue is the default cell of a column. length is used by ByteArray only.
func NewZeroValue(valueType TypeID, length uint32) Value {
	switch valueType {
	case Float:
		return NewFloat(0)
	case StringRef:
		return NewVarchar("")
	case ByteArray:
		return NewByteArray(make([]byte, length))
	}
	return NewIntegerValue(valueType, 0)
}

// NewValueFromBytes is used for deserialization of fixed width cells. Integer kinds accept
// any width from 1 to 8 bytes and are sign or zero extended. StringRef is resolved by the
// row codec and is not handled here.
func NewValueFromBytes(data []byte, valueType TypeID) (ret *Value) {
	switch {
	case valueType.IsInteger():
		if len(data) == 0 || len(data) > 8 {
			return nil
		}
		var buf [8]byte
		copy(buf[:], data)
		raw := binary.LittleEndian.Uint64(buf[:])
		var v Value
		if valueType.IsSigned() {
			shift := uint(64 - 8*len(data))
			v = NewIntegerValue(valueType, int64(raw<<shift)>>shift)
		} else {
			v = Value{valueType: valueType, uinteger: raw}
		}
		ret = &v
	case valueType == Float:
		if len(data) != 4 {
			return nil
		}
		v := NewFloat(math.Float32frombits(binary.LittleEndian.Uint32(data)))
		ret = &v
	case valueType == ByteArray:
		v := NewByteArray(data)
		ret = &v
	}
	return ret
}

// Fits reports whether the value can be stored in width bytes without loss.
func (v Value) Fits(width uint32) bool {
	switch {
	case v.valueType.IsInteger():
		if width >= 8 {
			return true
		}
		bits := 8 * width
		if v.valueType.IsSigned() {
			limit := int64(1) << (bits - 1)
			return v.integer >= -limit && v.integer < limit
		}
		return v.uinteger < uint64(1)<<bits
	case v.valueType == Float:
		return width == 4
	case v.valueType == ByteArray:
		return uint32(len(v.bytes)) == width
	}
	return false
}

// SerializeTo writes the value into dst using len(dst) as the stored width.
// It returns false when the value does not fit.
func (v Value) SerializeTo(dst []byte) bool {
	width := uint32(len(dst))
	if !v.Fits(width) {
		return false
	}
	switch {
	case v.valueType.IsInteger():
		var buf [8]byte
		if v.valueType.IsSigned() {
			binary.LittleEndian.PutUint64(buf[:], uint64(v.integer))
		} else {
			binary.LittleEndian.PutUint64(buf[:], v.uinteger)
		}
		copy(dst, buf[:width])
	case v.valueType == Float:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(v.float))
	case v.valueType == ByteArray:
		copy(dst, v.bytes)
	}
	return true
}

// Serialize returns a canonical encoding used for hashing and comparison.
// Strings are encoded by content, not by string block offset.
func (v Value) Serialize() []byte {
	buf := new(bytes.Buffer)
	buf.WriteByte(byte(v.valueType))
	switch {
	case v.valueType.IsInteger() && v.valueType.IsSigned():
		binary.Write(buf, binary.LittleEndian, v.integer)
	case v.valueType.IsInteger():
		binary.Write(buf, binary.LittleEndian, v.uinteger)
	case v.valueType == Float:
		binary.Write(buf, binary.LittleEndian, math.Float32bits(v.float))
	case v.valueType == StringRef:
		buf.WriteString(v.varchar)
		buf.WriteByte(0)
	case v.valueType == ByteArray:
		binary.Write(buf, binary.LittleEndian, uint32(len(v.bytes)))
		buf.Write(v.bytes)
	}
	return buf.Bytes()
}

// CompareEquals compares type and content. Floats compare by bit pattern so that
// a NaN read from a file equals itself after a round trip.
func (v Value) CompareEquals(right Value) bool {
	if v.valueType != right.valueType {
		return false
	}
	switch {
	case v.valueType.IsInteger() && v.valueType.IsSigned():
		return v.integer == right.integer
	case v.valueType.IsInteger():
		return v.uinteger == right.uinteger
	case v.valueType == Float:
		return math.Float32bits(v.float) == math.Float32bits(right.float)
	case v.valueType == StringRef:
		return v.varchar == right.varchar
	case v.valueType == ByteArray:
		return bytes.Equal(v.bytes, right.bytes)
	}
	return true
}

func (v Value) IsZero() bool {
	switch {
	case v.valueType.IsInteger():
		return v.integer == 0 && v.uinteger == 0
	case v.valueType == Float:
		return math.Float32bits(v.float) == 0
	case v.valueType == StringRef:
		return v.varchar == ""
	case v.valueType == ByteArray:
		for _, b := range v.bytes {
			if b != 0 {
				return false
			}
		}
	}
	return true
}

func (v Value) ValueType() TypeID {
	return v.valueType
}

func (v Value) ToInt64() int64 {
	if v.valueType.IsSigned() {
		return v.integer
	}
	return int64(v.uinteger)
}

func (v Value) ToUInt64() uint64 {
	if v.valueType.IsSigned() {
		return uint64(v.integer)
	}
	return v.uinteger
}

func (v Value) ToInteger() int32 {
	return int32(v.ToInt64())
}

func (v Value) ToUInt32() uint32 {
	return uint32(v.ToUInt64())
}

func (v Value) ToFloat() float32 {
	return v.float
}

func (v Value) ToVarchar() string {
	return v.varchar
}

func (v Value) ToBytes() []byte {
	return v.bytes
}

func (v Value) ToString() string {
	switch {
	case v.valueType.IsInteger() && v.valueType.IsSigned():
		return strconv.FormatInt(v.integer, 10)
	case v.valueType.IsInteger():
		return strconv.FormatUint(v.uinteger, 10)
	case v.valueType == Float:
		return strconv.FormatFloat(float64(v.float), 'g', -1, 32)
	case v.valueType == StringRef:
		return v.varchar
	case v.valueType == ByteArray:
		return fmt.Sprintf("%x", v.bytes)
	}
	return ""
}
