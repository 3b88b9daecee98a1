package table

import (
	"time"

	"github.com/ryogrid/wdbx/common"
	"github.com/ryogrid/wdbx/storage/block"
	"github.com/ryogrid/wdbx/storage/format"
	"github.com/ryogrid/wdbx/storage/string_table"
	"github.com/ryogrid/wdbx/storage/table/column"
	"github.com/ryogrid/wdbx/storage/table/schema"
	"github.com/ryogrid/wdbx/storage/tuple"
	"github.com/ryogrid/wdbx/types"
)

// Decode decodes a complete table file. descs is the field definition for the file's
// table and build. Decoding fails fast: no partially populated table is ever returned.
func Decode(data []byte, descs []column.FieldDescriptor) (*TableFile, error) {
	h, err := format.DecodeHeader(data)
	if err != nil {
		return nil, err
	}
	return DecodeWithHeader(data, h, descs)
}

// DecodeWithHeader decodes data whose header was already decoded and validated by
// format.DecodeHeader. The table keeps h as its header.
func DecodeWithHeader(data []byte, h *format.Header, descs []column.FieldDescriptor) (*TableFile, error) {
	start := time.Now()
	s, err := schema.NewSchema(h, descs)
	if err != nil {
		return nil, err
	}

	strBlock, _ := h.Block(format.BlockStrings)
	strings, err := string_table.ReadStringTable(strBlock.Slice(data), int64(strBlock.Offset))
	if err != nil {
		return nil, err
	}

	recBlock, _ := h.Block(format.BlockRecords)
	rows := make([]*tuple.Tuple, 0, h.RecordCount)
	for i := uint32(0); i < h.RecordCount; i++ {
		off := recBlock.Offset + uint64(i)*uint64(h.RecordSize)
		row, err := tuple.DecodeTuple(data[off:off+uint64(h.RecordSize)], s, strings, int64(off))
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	if idxBlock, ok := h.Block(format.BlockIndexTable); ok {
		for i, row := range rows {
			row.SetKey(s, uint32(types.NewWord32FromBytes(data[idxBlock.Offset+4*uint64(i):])))
		}
	}
	if legacy, ok := h.Block(format.BlockLegacyIndex); ok {
		// positions and string lengths are derived data; the records are authoritative
		common.ShPrintf(common.DEBUG_INFO_DETAIL, "skipping %d byte id index\n", legacy.Size)
	}

	tf := &TableFile{
		header:  h,
		schema_: s,
		rows:    rows,
		strings: strings,
	}
	if err := tf.ValidateKeys(); err != nil {
		return nil, err
	}

	var pending *block.SparseTable
	if spBlock, ok := h.Block(format.BlockSparse); ok {
		sparse, err := block.ReadSparseTable(spBlock.Slice(data), int64(spBlock.Offset))
		if err != nil {
			return nil, err
		}
		if err := sparse.Check(s); err != nil {
			return nil, err
		}
		if pending, err = sparse.Merge(tf.rows, s, strings); err != nil {
			return nil, err
		}
	}

	if cpBlock, ok := h.Block(format.BlockCopyTable); ok {
		entries, err := block.ReadCopyTable(cpBlock.Slice(data), int64(cpBlock.Offset))
		if err != nil {
			return nil, err
		}
		if tf.rows, err = block.ExpandCopies(tf.rows, s, entries, int64(cpBlock.Offset)); err != nil {
			return nil, err
		}
	}

	if pending != nil && pending.EntryCount() > 0 {
		rest, err := pending.Merge(tf.rows, s, strings)
		if err != nil {
			return nil, err
		}
		tf.orphanSparseIDs = rest.IDs()
		if len(tf.orphanSparseIDs) > 0 {
			common.ShLog(common.WARN, "sparse block entries for ids without a row were skipped",
				"entries", rest.EntryCount(), "ids", len(tf.orphanSparseIDs))
		}
	}

	common.ShTrace("decode", start, "variant", h.Variant.String(), "rows", len(tf.rows))
	return tf, nil
}

// Load decodes data, whose header h has already been decoded, and records where it came
// from.
func Load(path string, tableName string, data []byte, h *format.Header, descs []column.FieldDescriptor) (*TableFile, error) {
	tf, err := DecodeWithHeader(data, h, descs)
	if err != nil {
		return nil, err
	}
	tf.path = path
	tf.tableName = tableName
	return tf, nil
}
