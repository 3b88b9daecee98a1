// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package schema

import (
	"math"

	"github.com/ryogrid/wdbx/common"
	"github.com/ryogrid/wdbx/storage/format"
	"github.com/ryogrid/wdbx/storage/table/column"
	"github.com/ryogrid/wdbx/types"
)

// Schema is the resolved field layout of a table file: every column with its byte offset
// in the record. It is immutable once resolved.
type Schema struct {
	length        uint32           // bytes used by one record, equals the header's record size
	columns       []*column.Column // all columns in descriptor order
	keyIndex      uint32
	cellCount     uint32 // cells of a row, arrays expanded
	sparseColumns []uint32
}

func layoutError(field string, format_ string, a ...interface{}) *common.CodecError {
	return common.NewCodecError(common.LayoutMismatch, field, -1, format_, a...)
}

func isSparseKind(t types.TypeID) bool {
	switch t {
	case types.Int8, types.UInt8, types.Int16, types.UInt16, types.Int32, types.UInt32, types.Float, types.StringRef:
		return true
	}
	return false
}

// buildColumns validates the descriptors, picks the key and marks which columns are
// stored outside the record block.
func buildColumns(header *format.Header, descs []column.FieldDescriptor) ([]*column.Column, uint32, error) {
	if len(descs) == 0 {
		return nil, 0, layoutError("", "no field descriptors supplied for %s file", header.Variant)
	}
	columns := make([]*column.Column, 0, len(descs))
	keyIndex := -1
	for i, d := range descs {
		c, err := column.NewColumn(d)
		if err != nil {
			return nil, 0, layoutError(d.Name, "invalid field descriptor %d", i).Wrap(err)
		}
		if c.IsKey() {
			if keyIndex >= 0 {
				return nil, 0, layoutError(d.Name, "more than one key field (%q and %q)", descs[keyIndex].Name, d.Name)
			}
			keyIndex = i
		}
		if header.Variant.HasFieldStructure() && c.GetType() == types.ByteArray {
			return nil, 0, layoutError(d.Name, "byte array fields are not supported by %s", header.Variant)
		}
		columns = append(columns, c)
	}
	if keyIndex < 0 {
		first := columns[0]
		if !column.CanBeKey(first.GetType(), first.ArraySize()) {
			return nil, 0, layoutError(first.GetColumnName(), "no key field flagged and the first field is not a scalar integer of at most 32 bits")
		}
		first.SetIsKey(true)
		keyIndex = 0
	}
	if header.HasIndexTable() {
		columns[keyIndex].SetInlined(false)
	}

	inline := make([]*column.Column, 0, len(columns))
	for _, c := range columns {
		if c.IsInlined() {
			inline = append(inline, c)
		}
	}

	if header.Variant.HasFieldStructure() {
		n := len(header.FieldStructure)
		if len(inline) < n {
			return nil, 0, layoutError("fieldStructure", "definition has %d stored fields but the file's field structure has %d", len(inline), n).
				WithSizes(int64(n), int64(len(inline)))
		}
		if len(inline) > n && !header.Variant.HasSparseBlock() {
			return nil, 0, layoutError("fieldStructure", "definition has %d stored fields but the file's field structure has %d", len(inline), n).
				WithSizes(int64(n), int64(len(inline)))
		}
		for _, c := range inline[n:] {
			c.SetSparse(true)
		}
	}

	if header.Variant.HasSparseBlock() {
		if header.TotalFieldCount != uint32(len(descs)) {
			return nil, 0, layoutError("totalFieldCount", "definition has %d fields but the header declares %d", len(descs), header.TotalFieldCount).
				WithSizes(int64(header.TotalFieldCount), int64(len(descs)))
		}
		for i, c := range columns {
			if c.IsSparse() != descs[i].Sparse {
				return nil, 0, layoutError(c.GetColumnName(), "definition sparse flag (%v) disagrees with the file layout (%v)", descs[i].Sparse, c.IsSparse())
			}
			if !c.IsSparse() {
				continue
			}
			if c.IsKey() {
				return nil, 0, layoutError(c.GetColumnName(), "key field cannot be sparse")
			}
			if !isSparseKind(c.GetType()) || c.ArraySize() != 1 {
				return nil, 0, layoutError(c.GetColumnName(), "%v[%d] cannot be stored in the sparse block", c.GetType(), c.ArraySize())
			}
		}
	}
	return columns, uint32(keyIndex), nil
}

// NewSchema resolves the byte layout of a record from the header and an externally
// supplied descriptor list. Any disagreement between the two is a LayoutMismatch:
// a definition for the wrong build must never be used to decode a file.
func NewSchema(header *format.Header, descs []column.FieldDescriptor) (*Schema, error) {
	columns, keyIndex, err := buildColumns(header, descs)
	if err != nil {
		return nil, err
	}

	var cursor uint64
	structIdx := 0
	for _, c := range columns {
		if !c.IsInlined() {
			continue
		}
		if header.Variant.HasFieldStructure() {
			e := header.FieldStructure[structIdx]
			structIdx++
			if uint64(e.Offset) != cursor {
				return nil, layoutError(c.GetColumnName(), "field starts at record byte %d by the definition but at %d by the field structure", cursor, e.Offset).
					WithSizes(int64(e.Offset), int64(cursor))
			}
			w := e.ByteWidth()
			switch t := c.GetType(); {
			case t.IsInteger():
				if w > t.Size() {
					return nil, layoutError(c.GetColumnName(), "stored width %d exceeds the %d bytes of %v", w, t.Size(), t)
				}
				c.SetElementWidth(w)
			case t == types.Float, t == types.StringRef:
				if w != 4 {
					return nil, layoutError(c.GetColumnName(), "%v must be stored in 4 bytes, field structure says %d", t, w).
						WithSizes(4, int64(w))
				}
			}
		}
		c.SetOffset(uint32(cursor))
		cursor += uint64(c.FixedLength())
		if cursor > math.MaxUint32 {
			return nil, layoutError(c.GetColumnName(), "record layout overflows")
		}
	}

	if cursor != uint64(header.RecordSize) {
		return nil, layoutError("recordSize",
			"%d field descriptors consume %d bytes per record but the %s header declares %d; the field definition is probably stale for this build",
			len(descs), cursor, header.Variant, header.RecordSize).
			WithSizes(int64(header.RecordSize), int64(cursor))
	}

	s := &Schema{length: uint32(cursor), columns: columns, keyIndex: keyIndex}
	for i, c := range columns {
		c.SetCellIndex(s.cellCount)
		s.cellCount += c.ArraySize()
		if c.IsSparse() {
			s.sparseColumns = append(s.sparseColumns, uint32(i))
		}
	}
	common.ShPrintf(common.DEBUG_INFO, "resolved %s layout: %d fields, %d cells, %d bytes per record\n",
		header.Variant, len(columns), s.cellCount, s.length)
	return s, nil
}

// PrepareHeader fills the layout fields of a new header (record size, field count, field
// structure, total field count) from descriptors, using natural widths. The header's
// flags must be set before calling it.
func PrepareHeader(header *format.Header, descs []column.FieldDescriptor) error {
	columns, _, err := buildSparseAware(header, descs)
	if err != nil {
		return err
	}
	var recordSize uint64
	var cells uint32
	structure := make([]format.FieldStructureEntry, 0)
	for _, c := range columns {
		if !c.IsInlined() {
			continue
		}
		if header.Variant.HasFieldStructure() {
			if recordSize > math.MaxUint16 {
				return layoutError(c.GetColumnName(), "field offset %d does not fit the field structure", recordSize)
			}
			structure = append(structure, format.FieldStructureEntry{
				Bits:   format.BitsForWidth(c.ElementWidth()),
				Offset: uint16(recordSize),
			})
		}
		recordSize += uint64(c.FixedLength())
		cells += c.ArraySize()
	}
	if recordSize == 0 || recordSize > math.MaxUint32 {
		return layoutError("recordSize", "descriptors give an unusable record size of %d", recordSize)
	}
	header.RecordSize = uint32(recordSize)
	if header.Variant.HasFieldStructure() {
		header.FieldStructure = structure
		header.FieldCount = uint32(len(structure))
	} else {
		header.FieldStructure = nil
		header.FieldCount = cells
	}
	if header.Variant.HasSparseBlock() {
		header.TotalFieldCount = uint32(len(descs))
	}
	return nil
}

// buildSparseAware is buildColumns for a header without a field structure yet: the
// descriptors' sparse flags decide which fields leave the record.
func buildSparseAware(header *format.Header, descs []column.FieldDescriptor) ([]*column.Column, uint32, error) {
	probe := header.Clone()
	probe.FieldStructure = nil
	probe.TotalFieldCount = uint32(len(descs))
	for _, d := range descs {
		if d.Sparse && !header.Variant.HasSparseBlock() {
			return nil, 0, layoutError(d.Name, "%s has no sparse block", header.Variant)
		}
	}
	if header.Variant.HasFieldStructure() {
		// one placeholder entry per stored field, so buildColumns splits at the same place
		stored := 0
		for i, d := range descs {
			if d.Sparse {
				continue
			}
			if header.HasIndexTable() && isKeyDescriptor(descs, i) {
				continue
			}
			stored++
		}
		probe.FieldStructure = make([]format.FieldStructureEntry, stored)
	}
	return buildColumns(probe, descs)
}

func isKeyDescriptor(descs []column.FieldDescriptor, i int) bool {
	for j, d := range descs {
		if d.IsKey {
			return j == i
		}
	}
	return i == 0
}

func (s *Schema) GetColumn(colIndex uint32) *column.Column {
	return s.columns[colIndex]
}

func (s *Schema) GetColumns() []*column.Column {
	return s.columns
}

func (s *Schema) GetColumnCount() uint32 {
	return uint32(len(s.columns))
}

// Length is the record size in bytes.
func (s *Schema) Length() uint32 {
	return s.length
}

// CellCount is the number of cells of a row, with arrays expanded.
func (s *Schema) CellCount() uint32 {
	return s.cellCount
}

func (s *Schema) GetKeyIndex() uint32 {
	return s.keyIndex
}

func (s *Schema) GetKeyColumn() *column.Column {
	return s.columns[s.keyIndex]
}

// SparseColumns returns the indexes of the columns stored in the sparse block.
func (s *Schema) SparseColumns() []uint32 {
	return s.sparseColumns
}

func (s *Schema) GetColIndex(columnName string) uint32 {
	for i := uint32(0); i < s.GetColumnCount(); i++ {
		if s.columns[i].GetColumnName() == columnName {
			return i
		}
	}

	return math.MaxUint32
}

func (s *Schema) IsHaveColumn(columnName string) bool {
	return s.GetColIndex(columnName) != math.MaxUint32
}

// Descriptors returns the descriptor list the schema was resolved from.
func (s *Schema) Descriptors() []column.FieldDescriptor {
	ret := make([]column.FieldDescriptor, len(s.columns))
	for i, c := range s.columns {
		ret[i] = c.Descriptor()
	}
	return ret
}
