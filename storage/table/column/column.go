// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package column

import (
	"fmt"

	"github.com/ryogrid/wdbx/types"
)

// FieldDescriptor is one entry of an externally supplied field definition. It is
// untrusted until a schema has been resolved from it.
type FieldDescriptor struct {
	Name          string
	Kind          types.TypeID
	ArraySize     uint32 // 0 is treated as 1
	Length        uint32 // element length of ByteArray fields
	IsKey         bool
	IsStringIndex bool // the integer field is an offset into the string block
	Sparse        bool // stored in the sparse block (WDB6)
}

type Column struct {
	columnName   string
	columnType   types.TypeID
	arraySize    uint32
	elemWidth    uint32 // stored bytes per element
	length       uint32 // ByteArray element length
	columnOffset uint32 // offset in the record, meaningless when not inlined
	cellIndex    uint32 // index of the first cell of this column in a row
	isKey        bool
	inlined      bool // stored in the record block
	sparse       bool // stored in the sparse block
}

// NewColumn checks a descriptor and builds a column with the natural element width of
// its kind. The schema may narrow the width afterwards.
func NewColumn(desc FieldDescriptor) (*Column, error) {
	if desc.Name == "" {
		return nil, fmt.Errorf("field has no name")
	}
	kind := desc.Kind
	if desc.IsStringIndex {
		if kind != types.Int32 && kind != types.UInt32 && kind != types.StringRef {
			return nil, fmt.Errorf("field %q: string index flag on %v field", desc.Name, kind)
		}
		kind = types.StringRef
	}
	arraySize := desc.ArraySize
	if arraySize == 0 {
		arraySize = 1
	}

	width := kind.Size()
	switch {
	case kind == types.ByteArray:
		if desc.Length == 0 {
			return nil, fmt.Errorf("field %q: byte array without length", desc.Name)
		}
		width = desc.Length
	case width == 0:
		return nil, fmt.Errorf("field %q: unsupported type %v", desc.Name, desc.Kind)
	}
	if desc.IsKey && !CanBeKey(kind, arraySize) {
		return nil, fmt.Errorf("field %q: key must be a scalar integer of at most 32 bits, got %v", desc.Name, kind)
	}

	return &Column{
		columnName: desc.Name,
		columnType: kind,
		arraySize:  arraySize,
		elemWidth:  width,
		length:     desc.Length,
		isKey:      desc.IsKey,
		inlined:    true,
	}, nil
}

// CanBeKey reports whether a field of kind and arraySize can hold row ids. Ids are 32 bit
// on disk in the index table, the copy block and the sparse block.
func CanBeKey(kind types.TypeID, arraySize uint32) bool {
	return kind.IsInteger() && kind.Size() <= 4 && arraySize == 1
}

func (c *Column) IsInlined() bool {
	return c.inlined
}

func (c *Column) SetInlined(inlined bool) {
	c.inlined = inlined
}

func (c *Column) IsSparse() bool {
	return c.sparse
}

func (c *Column) SetSparse(sparse bool) {
	c.sparse = sparse
	if sparse {
		c.inlined = false
	}
}

func (c *Column) GetType() types.TypeID {
	return c.columnType
}

func (c *Column) GetOffset() uint32 {
	return c.columnOffset
}

func (c *Column) SetOffset(offset uint32) {
	c.columnOffset = offset
}

// FixedLength is the number of record bytes the column takes. Columns which are not
// inlined take none.
func (c *Column) FixedLength() uint32 {
	if !c.inlined {
		return 0
	}
	return c.elemWidth * c.arraySize
}

func (c *Column) ElementWidth() uint32 {
	return c.elemWidth
}

func (c *Column) SetElementWidth(width uint32) {
	c.elemWidth = width
}

// ByteLength is the length of ByteArray elements.
func (c *Column) ByteLength() uint32 {
	return c.length
}

func (c *Column) ArraySize() uint32 {
	return c.arraySize
}

func (c *Column) GetCellIndex() uint32 {
	return c.cellIndex
}

func (c *Column) SetCellIndex(idx uint32) {
	c.cellIndex = idx
}

func (c *Column) GetColumnName() string {
	return c.columnName
}

func (c *Column) IsKey() bool {
	return c.isKey
}

func (c *Column) SetIsKey(isKey bool) {
	c.isKey = isKey
}

// ZeroValue is the default cell value of the column.
func (c *Column) ZeroValue() types.Value {
	return types.NewZeroValue(c.columnType, c.length)
}

// Descriptor returns the descriptor equivalent of the column.
func (c *Column) Descriptor() FieldDescriptor {
	return FieldDescriptor{
		Name:      c.columnName,
		Kind:      c.columnType,
		ArraySize: c.arraySize,
		Length:    c.length,
		IsKey:     c.isKey,
		Sparse:    c.sparse,
	}
}
