// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package tuple

import (
	"encoding/binary"

	"github.com/ryogrid/wdbx/common"
	"github.com/ryogrid/wdbx/storage/string_table"
	"github.com/ryogrid/wdbx/storage/table/schema"
	"github.com/ryogrid/wdbx/types"
)

/**
 * Tuple is one decoded row. Cells are laid out in column order with arrays expanded,
 * so column i starts at schema.GetColumn(i).GetCellIndex(). String cells hold the
 * resolved content, never a string block offset.
 */
type Tuple struct {
	values []types.Value
}

func NewTuple(values []types.Value) *Tuple {
	return &Tuple{values}
}

// NewDefaultTuple returns a row of zero cells.
func NewDefaultTuple(schema_ *schema.Schema) *Tuple {
	values := make([]types.Value, 0, schema_.CellCount())
	for _, c := range schema_.GetColumns() {
		for i := uint32(0); i < c.ArraySize(); i++ {
			values = append(values, c.ZeroValue())
		}
	}
	return &Tuple{values}
}

// DecodeTuple decodes one record. Columns which are not stored in the record (index
// table key, sparse fields) get zero cells and are filled by the caller.
// recordOffset is the file position of the record and is used for error reports.
func DecodeTuple(record []byte, schema_ *schema.Schema, strings *string_table.StringTable, recordOffset int64) (*Tuple, error) {
	if uint32(len(record)) != schema_.Length() {
		return nil, common.NewCodecError(common.TruncatedStream, "record", recordOffset,
			"record is %d bytes, layout needs %d", len(record), schema_.Length()).
			WithSizes(int64(schema_.Length()), int64(len(record)))
	}
	tuple_ := NewDefaultTuple(schema_)
	for _, col := range schema_.GetColumns() {
		if !col.IsInlined() {
			continue
		}
		w := col.ElementWidth()
		for i := uint32(0); i < col.ArraySize(); i++ {
			off := col.GetOffset() + i*w
			raw := record[off : off+w]
			cell := col.GetCellIndex() + i
			if col.GetType() == types.StringRef {
				strOffset := binary.LittleEndian.Uint32(raw)
				str, ok := strings.Lookup(strOffset)
				if !ok {
					return nil, common.NewCodecError(common.StringOffsetUnresolved, col.GetColumnName(), recordOffset+int64(off),
						"string offset %d does not start a string of the string block", strOffset)
				}
				tuple_.values[cell] = types.NewVarchar(str)
				continue
			}
			v := types.NewValueFromBytes(raw, col.GetType())
			if v == nil {
				return nil, common.NewCodecError(common.LayoutMismatch, col.GetColumnName(), recordOffset+int64(off),
					"cannot decode %v from %d bytes", col.GetType(), w)
			}
			tuple_.values[cell] = *v
		}
	}
	return tuple_, nil
}

// EncodeTuple writes the record of a row into dst, which must be exactly the record
// size. Strings are interned into strings as a side effect.
func EncodeTuple(tuple_ *Tuple, schema_ *schema.Schema, strings *string_table.StringTable, allowDuplicates bool, dst []byte) error {
	common.SH_Assert(uint32(len(dst)) == schema_.Length(), "record buffer does not match the record size")
	if uint32(len(tuple_.values)) != schema_.CellCount() {
		return common.NewCodecError(common.InvalidValue, "row", -1,
			"row has %d cells, layout has %d", len(tuple_.values), schema_.CellCount()).
			WithSizes(int64(schema_.CellCount()), int64(len(tuple_.values)))
	}
	for _, col := range schema_.GetColumns() {
		if !col.IsInlined() {
			continue
		}
		w := col.ElementWidth()
		for i := uint32(0); i < col.ArraySize(); i++ {
			v := tuple_.values[col.GetCellIndex()+i]
			if v.ValueType() != col.GetType() {
				return common.NewCodecError(common.InvalidValue, col.GetColumnName(), -1,
					"cell %d holds a %v, column is %v", i, v.ValueType(), col.GetType())
			}
			off := col.GetOffset() + i*w
			out := dst[off : off+w]
			if col.GetType() == types.StringRef {
				binary.LittleEndian.PutUint32(out, strings.Intern(v.ToVarchar(), allowDuplicates))
				continue
			}
			if !v.SerializeTo(out) {
				return common.NewCodecError(common.InvalidValue, col.GetColumnName(), -1,
					"value %s does not fit in %d bytes", v.ToString(), w)
			}
		}
	}
	return nil
}

func (t *Tuple) Cells() []types.Value {
	return t.values
}

func (t *Tuple) CellCount() uint32 {
	return uint32(len(t.values))
}

// GetValue returns the first cell of a column.
func (t *Tuple) GetValue(schema_ *schema.Schema, colIndex uint32) types.Value {
	return t.values[schema_.GetColumn(colIndex).GetCellIndex()]
}

// GetArray returns all cells of a column.
func (t *Tuple) GetArray(schema_ *schema.Schema, colIndex uint32) []types.Value {
	col := schema_.GetColumn(colIndex)
	start := col.GetCellIndex()
	ret := make([]types.Value, col.ArraySize())
	copy(ret, t.values[start:start+col.ArraySize()])
	return ret
}

func (t *Tuple) GetCell(cellIndex uint32) types.Value {
	return t.values[cellIndex]
}

// SetValue replaces element elem of a column. The value must be of the column's type.
func (t *Tuple) SetValue(schema_ *schema.Schema, colIndex uint32, elem uint32, value types.Value) error {
	col := schema_.GetColumn(colIndex)
	if elem >= col.ArraySize() {
		return common.NewCodecError(common.InvalidValue, col.GetColumnName(), -1,
			"element %d of a %d element field", elem, col.ArraySize())
	}
	if value.ValueType() != col.GetType() {
		return common.NewCodecError(common.InvalidValue, col.GetColumnName(), -1,
			"%v value for a %v field", value.ValueType(), col.GetType())
	}
	t.values[col.GetCellIndex()+elem] = value
	return nil
}

// GetKey returns the id of the row.
func (t *Tuple) GetKey(schema_ *schema.Schema) uint32 {
	return t.GetValue(schema_, schema_.GetKeyIndex()).ToUInt32()
}

func (t *Tuple) SetKey(schema_ *schema.Schema, id uint32) {
	col := schema_.GetKeyColumn()
	t.values[col.GetCellIndex()] = types.NewIntegerValue(col.GetType(), int64(id))
}

func (t *Tuple) GetDeepCopy() *Tuple {
	ret := make([]types.Value, len(t.values))
	for i, v := range t.values {
		if v.ValueType() == types.ByteArray {
			ret[i] = types.NewByteArray(v.ToBytes())
		} else {
			ret[i] = v
		}
	}
	return &Tuple{ret}
}

func (t *Tuple) CompareEquals(other *Tuple) bool {
	return t.equalsSkipping(other, -1)
}

// EqualsIgnoringKey compares every cell but the id.
func (t *Tuple) EqualsIgnoringKey(other *Tuple, schema_ *schema.Schema) bool {
	return t.equalsSkipping(other, int(schema_.GetKeyColumn().GetCellIndex()))
}

func (t *Tuple) equalsSkipping(other *Tuple, skip int) bool {
	if len(t.values) != len(other.values) {
		return false
	}
	for i := range t.values {
		if i == skip {
			continue
		}
		if !t.values[i].CompareEquals(other.values[i]) {
			return false
		}
	}
	return true
}
