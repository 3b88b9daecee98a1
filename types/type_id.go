package types

import "strings"

// TypeID is the primitive kind of a table cell.
type TypeID int

const (
	Invalid TypeID = iota
	Int8
	UInt8
	Int16
	UInt16
	Int32
	UInt32
	Int64
	UInt64
	Float
	StringRef // 4 byte offset into the string block
	ByteArray // fixed length raw bytes
)

// Size is the natural width in bytes. ByteArray has no natural width.
func (t TypeID) Size() uint32 {
	switch t {
	case Int8, UInt8:
		return 1
	case Int16, UInt16:
		return 2
	case Int32, UInt32, Float, StringRef:
		return 4
	case Int64, UInt64:
		return 8
	}
	return 0
}

func (t TypeID) IsInteger() bool {
	switch t {
	case Int8, UInt8, Int16, UInt16, Int32, UInt32, Int64, UInt64:
		return true
	}
	return false
}

func (t TypeID) IsSigned() bool {
	switch t {
	case Int8, Int16, Int32, Int64:
		return true
	}
	return false
}

func (t TypeID) String() string {
	switch t {
	case Int8:
		return "int8"
	case UInt8:
		return "uint8"
	case Int16:
		return "int16"
	case UInt16:
		return "uint16"
	case Int32:
		return "int32"
	case UInt32:
		return "uint32"
	case Int64:
		return "int64"
	case UInt64:
		return "uint64"
	case Float:
		return "float"
	case StringRef:
		return "string"
	case ByteArray:
		return "bytes"
	}
	return "invalid"
}

var typeNames = map[string]TypeID{
	"int8":   Int8,
	"sbyte":  Int8,
	"uint8":  UInt8,
	"byte":   UInt8,
	"int16":  Int16,
	"short":  Int16,
	"uint16": UInt16,
	"ushort": UInt16,
	"int32":  Int32,
	"int":    Int32,
	"uint32": UInt32,
	"uint":   UInt32,
	"int64":  Int64,
	"long":   Int64,
	"uint64": UInt64,
	"ulong":  UInt64,
	"float":  Float,
	"single": Float,
	"string": StringRef,
	"bytes":  ByteArray,
}

// TypeIDFromName parses the type names used by field definition files.
func TypeIDFromName(name string) (TypeID, bool) {
	t, ok := typeNames[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}
