package block

import (
	"encoding/binary"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ryogrid/wdbx/common"
	"github.com/ryogrid/wdbx/storage/string_table"
	"github.com/ryogrid/wdbx/storage/table/schema"
	"github.com/ryogrid/wdbx/storage/tuple"
	"github.com/ryogrid/wdbx/types"
)

// SparseType is the value type tag of a sparse block column.
type SparseType uint8

const (
	SparseString SparseType = iota
	SparseInt16
	SparseInt8
	SparseFloat
	SparseInt32
)

// SparseTypeOf maps a column kind to its sparse tag. Kinds the block cannot carry map
// to SparseInt32 with ok false.
func SparseTypeOf(t types.TypeID) (SparseType, bool) {
	switch t {
	case types.StringRef:
		return SparseString, true
	case types.Int16, types.UInt16:
		return SparseInt16, true
	case types.Int8, types.UInt8:
		return SparseInt8, true
	case types.Float:
		return SparseFloat, true
	case types.Int32, types.UInt32:
		return SparseInt32, true
	}
	return SparseInt32, false
}

type SparseEntry struct {
	ID    uint32
	Value uint32 // raw 4 byte value, string block offset for strings
}

type SparseColumn struct {
	Type    SparseType
	Entries []SparseEntry
}

// SparseTable is the decoded sparse block. Column i is descriptor i of the table.
type SparseTable struct {
	Columns []SparseColumn
}

func (st *SparseTable) EntryCount() int {
	n := 0
	for _, c := range st.Columns {
		n += len(c.Entries)
	}
	return n
}

// ReadSparseTable decodes the sparse block layout: u32 column count, then per column
// u32 entry count, u8 type and the (u32 id, 4 byte value) entries.
func ReadSparseTable(data []byte, blockOffset int64) (*SparseTable, error) {
	pos := 0
	need := func(n int, what string) error {
		if len(data)-pos < n {
			return common.NewCodecError(common.TruncatedStream, "sparse block", blockOffset+int64(pos),
				"%s extends past the end of the sparse block", what).
				WithSizes(int64(pos+n), int64(len(data)))
		}
		return nil
	}
	if err := need(4, "column count"); err != nil {
		return nil, err
	}
	columnCount := binary.LittleEndian.Uint32(data[pos:])
	pos += 4

	st := &SparseTable{}
	for ci := uint32(0); ci < columnCount; ci++ {
		if err := need(5, "column header"); err != nil {
			return nil, err
		}
		count := binary.LittleEndian.Uint32(data[pos:])
		typ := SparseType(data[pos+4])
		pos += 5
		if typ > SparseInt32 {
			return nil, common.NewCodecError(common.HeaderInconsistent, "sparse block", blockOffset+int64(pos-1),
				"column %d has unknown value type %d", ci, typ)
		}
		if uint64(count)*common.SparseEntrySize > uint64(len(data)-pos) {
			return nil, common.NewCodecError(common.TruncatedStream, "sparse block", blockOffset+int64(pos),
				"%d entries of column %d extend past the end of the sparse block", count, ci).
				WithSizes(int64(pos)+int64(count)*common.SparseEntrySize, int64(len(data)))
		}
		col := SparseColumn{Type: typ}
		if count > 0 {
			col.Entries = make([]SparseEntry, count)
		}
		for i := range col.Entries {
			col.Entries[i] = SparseEntry{
				ID:    binary.LittleEndian.Uint32(data[pos:]),
				Value: binary.LittleEndian.Uint32(data[pos+4:]),
			}
			pos += common.SparseEntrySize
		}
		st.Columns = append(st.Columns, col)
	}
	if pos != len(data) {
		return nil, common.NewCodecError(common.HeaderInconsistent, "sparse block", blockOffset+int64(pos),
			"%d unused bytes at the end of the sparse block", len(data)-pos).
			WithSizes(int64(pos), int64(len(data)))
	}
	return st, nil
}

// Encode serializes the table in the layout ReadSparseTable reads.
func (st *SparseTable) Encode() []byte {
	size := 4
	for _, c := range st.Columns {
		size += 5 + len(c.Entries)*common.SparseEntrySize
	}
	buf := make([]byte, size)
	binary.LittleEndian.PutUint32(buf, uint32(len(st.Columns)))
	pos := 4
	for _, c := range st.Columns {
		binary.LittleEndian.PutUint32(buf[pos:], uint32(len(c.Entries)))
		buf[pos+4] = byte(c.Type)
		pos += 5
		for _, e := range c.Entries {
			binary.LittleEndian.PutUint32(buf[pos:], e.ID)
			binary.LittleEndian.PutUint32(buf[pos+4:], e.Value)
			pos += common.SparseEntrySize
		}
	}
	return buf
}

// Check verifies the table against the layout: column count, that only sparse columns
// have entries, and that each tag matches the column kind.
func (st *SparseTable) Check(schema_ *schema.Schema) error {
	if uint32(len(st.Columns)) > schema_.GetColumnCount() {
		return common.NewCodecError(common.LayoutMismatch, "sparse block", -1,
			"sparse block has %d columns, definition has %d fields", len(st.Columns), schema_.GetColumnCount()).
			WithSizes(int64(schema_.GetColumnCount()), int64(len(st.Columns)))
	}
	for ci, c := range st.Columns {
		if len(c.Entries) == 0 {
			continue
		}
		col := schema_.GetColumn(uint32(ci))
		if !col.IsSparse() {
			return common.NewCodecError(common.LayoutMismatch, col.GetColumnName(), -1,
				"sparse block holds %d values for a field the definition stores in the record", len(c.Entries))
		}
		if typ, _ := SparseTypeOf(col.GetType()); typ != c.Type {
			return common.NewCodecError(common.LayoutMismatch, col.GetColumnName(), -1,
				"sparse value type %d does not match %v", c.Type, col.GetType())
		}
	}
	return nil
}

func sparseValue(raw uint32, kind types.TypeID, strings *string_table.StringTable) (types.Value, bool) {
	if kind == types.StringRef {
		str, ok := strings.Lookup(raw)
		return types.NewVarchar(str), ok
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], raw)
	v := types.NewValueFromBytes(buf[:kind.Size()], kind)
	if v == nil {
		return types.Value{}, false
	}
	return *v, true
}

// Merge writes the sparse values into the rows with matching ids and returns the
// entries whose id matched no row. Check must have passed.
func (st *SparseTable) Merge(rows []*tuple.Tuple, schema_ *schema.Schema, strings *string_table.StringTable) (*SparseTable, error) {
	byID := make(map[uint32]*tuple.Tuple, len(rows))
	for _, r := range rows {
		byID[r.GetKey(schema_)] = r
	}
	rest := &SparseTable{Columns: make([]SparseColumn, len(st.Columns))}
	merged := 0
	for ci, c := range st.Columns {
		rest.Columns[ci].Type = c.Type
		if len(c.Entries) == 0 {
			continue
		}
		col := schema_.GetColumn(uint32(ci))
		for _, e := range c.Entries {
			row, ok := byID[e.ID]
			if !ok {
				rest.Columns[ci].Entries = append(rest.Columns[ci].Entries, e)
				continue
			}
			v, ok := sparseValue(e.Value, col.GetType(), strings)
			if !ok {
				return nil, common.NewCodecError(common.StringOffsetUnresolved, col.GetColumnName(), -1,
					"sparse value of id %d references string offset %d", e.ID, e.Value)
			}
			if err := row.SetValue(schema_, uint32(ci), 0, v); err != nil {
				return nil, err
			}
			merged++
		}
	}
	common.ShPrintf(common.DEBUG_INFO_DETAIL, "merged %d sparse values\n", merged)
	return rest, nil
}

// IDs returns the distinct ids referenced by the table, ascending.
func (st *SparseTable) IDs() []uint32 {
	set := mapset.NewThreadUnsafeSet[uint32]()
	for _, c := range st.Columns {
		for _, e := range c.Entries {
			set.Add(e.ID)
		}
	}
	ids := set.ToSlice()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CollectSparse builds the sparse block of rows: one column per field, entries only for
// non zero values of sparse fields. String values are interned into strings.
func CollectSparse(rows []*tuple.Tuple, schema_ *schema.Schema, strings *string_table.StringTable, allowDuplicates bool) (*SparseTable, error) {
	st := &SparseTable{Columns: make([]SparseColumn, schema_.GetColumnCount())}
	for ci, col := range schema_.GetColumns() {
		typ, _ := SparseTypeOf(col.GetType())
		st.Columns[ci].Type = typ
		if !col.IsSparse() {
			continue
		}
		for _, r := range rows {
			v := r.GetValue(schema_, uint32(ci))
			if v.IsZero() {
				continue
			}
			if v.ValueType() != col.GetType() {
				return nil, common.NewCodecError(common.InvalidValue, col.GetColumnName(), -1,
					"%v value for a %v field", v.ValueType(), col.GetType())
			}
			var raw uint32
			if col.GetType() == types.StringRef {
				raw = strings.Intern(v.ToVarchar(), allowDuplicates)
			} else {
				var buf [4]byte
				if !v.SerializeTo(buf[:col.ElementWidth()]) {
					return nil, common.NewCodecError(common.InvalidValue, col.GetColumnName(), -1,
						"value %s does not fit the sparse block", v.ToString())
				}
				raw = binary.LittleEndian.Uint32(buf[:])
			}
			st.Columns[ci].Entries = append(st.Columns[ci].Entries, SparseEntry{ID: r.GetKey(schema_), Value: raw})
		}
	}
	return st, nil
}
