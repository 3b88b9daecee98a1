// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package table

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ryogrid/wdbx/common"
	"github.com/ryogrid/wdbx/storage/format"
	"github.com/ryogrid/wdbx/storage/string_table"
	"github.com/ryogrid/wdbx/storage/table/column"
	"github.com/ryogrid/wdbx/storage/table/schema"
	"github.com/ryogrid/wdbx/storage/tuple"
)

// TableFile is one decoded table: its header as read, the resolved layout and the rows.
// Copy rows are ordinary rows here. A TableFile is not safe for concurrent mutation;
// the owner serializes edits.
type TableFile struct {
	path            string
	tableName       string
	header          *format.Header
	schema_         *schema.Schema
	rows            []*tuple.Tuple
	index           map[uint32]int // id -> position in rows, nil when stale
	strings         *string_table.StringTable
	orphanSparseIDs []uint32
	changed         bool
}

// NewTableFile creates an empty table of the given variant.
func NewTableFile(variant format.Variant, build uint32, descs []column.FieldDescriptor) (*TableFile, error) {
	h, err := format.NewHeader(variant, build)
	if err != nil {
		return nil, err
	}
	return NewTableFileWithHeader(h, descs)
}

// NewTableFileWithHeader creates an empty table from a header template, which lets the
// caller choose flags, hashes and locale. The layout fields of the header are filled
// from descs.
func NewTableFileWithHeader(header *format.Header, descs []column.FieldDescriptor) (*TableFile, error) {
	h := header.Clone()
	if err := schema.PrepareHeader(h, descs); err != nil {
		return nil, err
	}
	s, err := schema.NewSchema(h, descs)
	if err != nil {
		return nil, err
	}
	return &TableFile{
		header:  h,
		schema_: s,
		rows:    make([]*tuple.Tuple, 0),
		strings: string_table.NewStringTable(),
		changed: true,
	}, nil
}

func (tf *TableFile) GetPath() string {
	return tf.path
}

func (tf *TableFile) SetPath(path string) {
	tf.path = path
}

func (tf *TableFile) GetTableName() string {
	return tf.tableName
}

func (tf *TableFile) SetTableName(name string) {
	tf.tableName = name
}

func (tf *TableFile) GetVariant() format.Variant {
	return tf.header.Variant
}

// GetHeader returns a copy of the header the table was loaded or created with. Counts
// in it describe the file as read, not the rows as edited.
func (tf *TableFile) GetHeader() *format.Header {
	return tf.header.Clone()
}

func (tf *TableFile) GetSchema() *schema.Schema {
	return tf.schema_
}

// GetStringTable returns the string block as decoded.
func (tf *TableFile) GetStringTable() *string_table.StringTable {
	return tf.strings
}

// GetOrphanSparseIDs returns the ids of sparse block entries that matched no row.
func (tf *TableFile) GetOrphanSparseIDs() []uint32 {
	return tf.orphanSparseIDs
}

func (tf *TableFile) RowCount() int {
	return len(tf.rows)
}

// GetRow returns the row at position i. Rows are shared: change ids through UpdateRow.
func (tf *TableFile) GetRow(i int) *tuple.Tuple {
	return tf.rows[i]
}

// Rows returns the rows in table order.
func (tf *TableFile) Rows() []*tuple.Tuple {
	ret := make([]*tuple.Tuple, len(tf.rows))
	copy(ret, tf.rows)
	return ret
}

func (tf *TableFile) buildIndex() {
	tf.index = make(map[uint32]int, len(tf.rows))
	for i, r := range tf.rows {
		tf.index[r.GetKey(tf.schema_)] = i
	}
}

func (tf *TableFile) position(id uint32) (int, bool) {
	if tf.index == nil {
		tf.buildIndex()
	}
	i, ok := tf.index[id]
	return i, ok
}

func (tf *TableFile) FindRow(id uint32) (*tuple.Tuple, bool) {
	i, ok := tf.position(id)
	if !ok {
		return nil, false
	}
	return tf.rows[i], true
}

func (tf *TableFile) checkRow(row *tuple.Tuple) error {
	if row.CellCount() != tf.schema_.CellCount() {
		return common.NewCodecError(common.InvalidValue, "row", -1,
			"row has %d cells, layout has %d", row.CellCount(), tf.schema_.CellCount()).
			WithSizes(int64(tf.schema_.CellCount()), int64(row.CellCount()))
	}
	for _, col := range tf.schema_.GetColumns() {
		for i := uint32(0); i < col.ArraySize(); i++ {
			if v := row.GetCell(col.GetCellIndex() + i); v.ValueType() != col.GetType() {
				return common.NewCodecError(common.InvalidValue, col.GetColumnName(), -1,
					"%v value for a %v field", v.ValueType(), col.GetType())
			}
		}
	}
	return nil
}

// InsertRow appends a row. Its id must not be in use.
func (tf *TableFile) InsertRow(row *tuple.Tuple) error {
	if err := tf.checkRow(row); err != nil {
		return err
	}
	id := row.GetKey(tf.schema_)
	if _, ok := tf.position(id); ok {
		return common.NewCodecError(common.DuplicateKey, tf.schema_.GetKeyColumn().GetColumnName(), -1,
			"id %d is already in use", id)
	}
	tf.rows = append(tf.rows, row)
	tf.index[id] = len(tf.rows) - 1
	tf.changed = true
	return nil
}

// UpdateRow replaces the row with the same id.
func (tf *TableFile) UpdateRow(row *tuple.Tuple) error {
	if err := tf.checkRow(row); err != nil {
		return err
	}
	id := row.GetKey(tf.schema_)
	i, ok := tf.position(id)
	if !ok {
		return fmt.Errorf("no row with id %d", id)
	}
	tf.rows[i] = row
	tf.changed = true
	return nil
}

// ChangeID moves a row to a new id.
func (tf *TableFile) ChangeID(oldID uint32, newID uint32) error {
	i, ok := tf.position(oldID)
	if !ok {
		return fmt.Errorf("no row with id %d", oldID)
	}
	if _, taken := tf.position(newID); taken && newID != oldID {
		return common.NewCodecError(common.DuplicateKey, tf.schema_.GetKeyColumn().GetColumnName(), -1,
			"id %d is already in use", newID)
	}
	tf.rows[i].SetKey(tf.schema_, newID)
	tf.index = nil
	tf.changed = true
	return nil
}

// DeleteRow removes the row with the given id and reports whether it existed.
func (tf *TableFile) DeleteRow(id uint32) bool {
	i, ok := tf.position(id)
	if !ok {
		return false
	}
	tf.rows = append(tf.rows[:i], tf.rows[i+1:]...)
	tf.index = nil
	tf.changed = true
	return true
}

// NextID is one more than the largest id, or 1 for an empty table.
func (tf *TableFile) NextID() uint32 {
	var max uint32
	for _, r := range tf.rows {
		if id := r.GetKey(tf.schema_); id > max {
			max = id
		}
	}
	return max + 1
}

// NewRow returns a zero row carrying the next free id. It is not inserted.
func (tf *TableFile) NewRow() *tuple.Tuple {
	row := tuple.NewDefaultTuple(tf.schema_)
	row.SetKey(tf.schema_, tf.NextID())
	return row
}

// ValidateKeys reports the first id used by more than one row.
func (tf *TableFile) ValidateKeys() error {
	seen := mapset.NewThreadUnsafeSet[uint32]()
	for i, r := range tf.rows {
		id := r.GetKey(tf.schema_)
		if !seen.Add(id) {
			return common.NewCodecError(common.DuplicateKey, tf.schema_.GetKeyColumn().GetColumnName(), -1,
				"id %d of row %d is already used by an earlier row", id, i)
		}
	}
	return nil
}

// Clone returns a deep copy of the table.
func (tf *TableFile) Clone() *TableFile {
	rows := make([]*tuple.Tuple, len(tf.rows))
	for i, r := range tf.rows {
		rows[i] = r.GetDeepCopy()
	}
	return &TableFile{
		path:            tf.path,
		tableName:       tf.tableName,
		header:          tf.header.Clone(),
		schema_:         tf.schema_,
		rows:            rows,
		strings:         tf.strings,
		orphanSparseIDs: append([]uint32(nil), tf.orphanSparseIDs...),
		changed:         tf.changed,
	}
}

func (tf *TableFile) IsChanged() bool {
	return tf.changed
}

func (tf *TableFile) MarkChanged() {
	tf.changed = true
}

func (tf *TableFile) MarkSaved() {
	tf.changed = false
}

// Begin returns an iterator positioned on the first row.
func (tf *TableFile) Begin() *TableFileIterator {
	return NewTableFileIterator(tf)
}
