package table_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/ryogrid/wdbx/common"
	"github.com/ryogrid/wdbx/storage/block"
	"github.com/ryogrid/wdbx/storage/format"
	"github.com/ryogrid/wdbx/storage/string_table"
	"github.com/ryogrid/wdbx/storage/table"
	"github.com/ryogrid/wdbx/storage/table/column"
	"github.com/ryogrid/wdbx/storage/table/schema"
	testingpkg "github.com/ryogrid/wdbx/testing/testing_assert"
	"github.com/ryogrid/wdbx/testing/testing_tbl_gen"
	"github.com/ryogrid/wdbx/testing/testing_util"
	"github.com/ryogrid/wdbx/types"
)

func spellDescs() []column.FieldDescriptor {
	return []column.FieldDescriptor{
		{Name: "ID", Kind: types.Int32, IsKey: true},
		{Name: "Name", Kind: types.Int32, IsStringIndex: true},
	}
}

func newSpellTable(t *testing.T, v format.Variant) *table.TableFile {
	tf, err := table.NewTableFile(v, testing_tbl_gen.BuildFor(v), spellDescs())
	testingpkg.Ok(t, err)
	testingpkg.Ok(t, tf.InsertRow(testing_util.Row(int32(1), "Fire")))
	testingpkg.Ok(t, tf.InsertRow(testing_util.Row(int32(2), "Ice")))
	testingpkg.Ok(t, tf.InsertRow(testing_util.Row(int32(3), "Fire")))
	return tf
}

func TestRoundTripAllVariants(t *testing.T) {
	for _, v := range format.AllVariants {
		tf, err := testing_tbl_gen.GenerateTestTable(v, testing_tbl_gen.BuildFor(v), testing_tbl_gen.TEST1_SIZE, 42)
		testingpkg.Ok(t, err)

		data, err := table.Encode(tf)
		testingpkg.Ok(t, err)
		decoded, err := table.Decode(data, tf.GetSchema().Descriptors())
		testingpkg.Ok(t, err)

		testingpkg.Equals(t, v, decoded.GetVariant())
		testingpkg.Assert(t, testing_util.SameRows(tf, decoded), "%s: rows differ after round trip", v)
		testingpkg.Ok(t, decoded.ValidateKeys())
		testingpkg.Equals(t, 0, len(decoded.GetOrphanSparseIDs()))

		// a second save of the decoded table is byte identical
		again, err := table.Encode(decoded)
		testingpkg.Ok(t, err)
		testingpkg.Assert(t, bytes.Equal(data, again), "%s: second save differs", v)
	}
}

func TestFireIceScenario(t *testing.T) {
	tf := newSpellTable(t, format.WDBC)
	data, err := table.Encode(tf)
	testingpkg.Ok(t, err)

	h, err := format.DecodeHeader(data)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, uint32(3), h.RecordCount)
	testingpkg.Equals(t, uint32(8), h.RecordSize)

	strBlock, _ := h.Block(format.BlockStrings)
	testingpkg.Equals(t, []byte("\x00Fire\x00Ice\x00"), strBlock.Slice(data))
	testingpkg.Equals(t, 1, bytes.Count(strBlock.Slice(data), []byte("Fire")))

	recBlock, _ := h.Block(format.BlockRecords)
	rec := recBlock.Slice(data)
	testingpkg.Equals(t, binary.LittleEndian.Uint32(rec[4:]), binary.LittleEndian.Uint32(rec[20:]))
	testingpkg.Assert(t, binary.LittleEndian.Uint32(rec[12:]) != binary.LittleEndian.Uint32(rec[4:]), "Ice shares the Fire offset")

	decoded, err := table.Decode(data, spellDescs())
	testingpkg.Ok(t, err)
	row, ok := decoded.FindRow(3)
	testingpkg.SimpleAssert(t, ok)
	testingpkg.Equals(t, "Fire", row.GetValue(decoded.GetSchema(), 1).ToVarchar())
}

func TestDuplicateStringsUnderIDRange(t *testing.T) {
	h, err := format.NewHeader(format.WDB2Ext, 15595)
	testingpkg.Ok(t, err)
	h.MinID, h.MaxID = 1, 1
	tf, err := table.NewTableFileWithHeader(h, spellDescs())
	testingpkg.Ok(t, err)
	testingpkg.Ok(t, tf.InsertRow(testing_util.Row(int32(1), "Fire")))
	testingpkg.Ok(t, tf.InsertRow(testing_util.Row(int32(2), "Ice")))
	testingpkg.Ok(t, tf.InsertRow(testing_util.Row(int32(4), "Fire")))

	data, err := table.Encode(tf)
	testingpkg.Ok(t, err)
	out, err := format.DecodeHeader(data)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, uint32(1), out.MinID)
	testingpkg.Equals(t, uint32(4), out.MaxID)

	strBlock, _ := out.Block(format.BlockStrings)
	testingpkg.Equals(t, 2, bytes.Count(strBlock.Slice(data), []byte("Fire")))

	// id index: row positions for ids 1..4, then the string lengths
	legacy, ok := out.Block(format.BlockLegacyIndex)
	testingpkg.SimpleAssert(t, ok)
	idx := legacy.Slice(data)
	testingpkg.Equals(t, 24, len(idx))
	testingpkg.Equals(t, uint32(2), binary.LittleEndian.Uint32(idx[12:]))
	testingpkg.Equals(t, uint16(4), binary.LittleEndian.Uint16(idx[16:]))
	testingpkg.Equals(t, uint16(0), binary.LittleEndian.Uint16(idx[20:]))

	denied, err := table.EncodeWithOptions(tf, table.SaveOptions{DuplicateStrings: table.DuplicateStringsDeny})
	testingpkg.Ok(t, err)
	deniedHeader, err := format.DecodeHeader(denied)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, uint32(len("\x00Fire\x00Ice\x00")), deniedHeader.StringBlockSize)

	decoded, err := table.Decode(data, spellDescs())
	testingpkg.Ok(t, err)
	testingpkg.SimpleAssert(t, testing_util.SameRows(tf, decoded))
}

func TestCopyCompaction(t *testing.T) {
	for _, v := range []format.Variant{format.WDB5, format.WDB6} {
		tf := newSpellTable(t, v)
		data, err := table.Encode(tf)
		testingpkg.Ok(t, err)

		h, err := format.DecodeHeader(data)
		testingpkg.Ok(t, err)
		testingpkg.Equals(t, uint32(2), h.RecordCount)
		testingpkg.Equals(t, uint32(common.CopyEntrySize), h.CopyTableSize)
		cp, _ := h.Block(format.BlockCopyTable)
		entries, err := block.ReadCopyTable(cp.Slice(data), 0)
		testingpkg.Ok(t, err)
		testingpkg.Equals(t, []block.CopyEntry{block.NewCopyEntry(3, 1)}, entries)

		decoded, err := table.Decode(data, spellDescs())
		testingpkg.Ok(t, err)
		testingpkg.Equals(t, 3, decoded.RowCount())
		one, _ := decoded.FindRow(1)
		three, _ := decoded.FindRow(3)
		testingpkg.SimpleAssert(t, one.EqualsIgnoringKey(three, decoded.GetSchema()))
		testingpkg.Equals(t, uint32(3), three.GetKey(decoded.GetSchema()))

		full, err := table.EncodeWithOptions(tf, table.SaveOptions{NoCopyCompaction: true})
		testingpkg.Ok(t, err)
		fh, err := format.DecodeHeader(full)
		testingpkg.Ok(t, err)
		testingpkg.Equals(t, uint32(3), fh.RecordCount)
		testingpkg.Equals(t, uint32(0), fh.CopyTableSize)
	}
}

func TestIndexTable(t *testing.T) {
	h, err := format.NewHeader(format.WDB5, 0)
	testingpkg.Ok(t, err)
	h.Flags = format.FlagIndexTable
	tf, err := table.NewTableFileWithHeader(h, spellDescs())
	testingpkg.Ok(t, err)
	testingpkg.Ok(t, tf.InsertRow(testing_util.Row(int32(10), "Fire")))
	testingpkg.Ok(t, tf.InsertRow(testing_util.Row(int32(20), "Ice")))

	data, err := table.Encode(tf)
	testingpkg.Ok(t, err)
	out, err := format.DecodeHeader(data)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, uint32(4), out.RecordSize)
	testingpkg.Equals(t, uint32(10), out.MinID)
	testingpkg.Equals(t, uint32(20), out.MaxID)

	idx, ok := out.Block(format.BlockIndexTable)
	testingpkg.SimpleAssert(t, ok)
	testingpkg.Equals(t, uint32(20), binary.LittleEndian.Uint32(idx.Slice(data)[4:]))

	decoded, err := table.Decode(data, spellDescs())
	testingpkg.Ok(t, err)
	testingpkg.SimpleAssert(t, testing_util.SameRows(tf, decoded))
}

func TestTruncationRejected(t *testing.T) {
	for _, v := range format.AllVariants {
		tf := newSpellTable(t, v)
		data, err := table.Encode(tf)
		testingpkg.Ok(t, err)
		h, err := format.DecodeHeader(data)
		testingpkg.Ok(t, err)
		rec, _ := h.Block(format.BlockRecords)
		str, _ := h.Block(format.BlockStrings)

		for pos := rec.Offset; pos < str.End(); pos++ {
			cut := append(append([]byte(nil), data[:pos]...), data[pos+1:]...)
			decoded, err := table.Decode(cut, spellDescs())
			testingpkg.Assert(t, err != nil, "%s: dropping byte %d decoded", v, pos)
			testingpkg.Assert(t, decoded == nil, "%s: partial table returned", v)
		}
		_, err = table.Decode(data[:len(data)-1], spellDescs())
		testingpkg.ErrorIs(t, err, common.ErrTruncatedStream)
	}
}

func TestDecodeRejectsWrongDefinition(t *testing.T) {
	for _, v := range format.AllVariants {
		data, err := table.Encode(newSpellTable(t, v))
		testingpkg.Ok(t, err)

		stale := append(spellDescs(), column.FieldDescriptor{Name: "Extra", Kind: types.Int32})
		_, err = table.Decode(data, stale)
		testingpkg.ErrorIs(t, err, common.ErrLayoutMismatch)
	}
}

func TestDecodeUnrecognized(t *testing.T) {
	_, err := table.Decode([]byte("WDB9 and some more bytes to be safe"), spellDescs())
	testingpkg.ErrorIs(t, err, common.ErrUnrecognizedFormat)
}

func TestDuplicateKeys(t *testing.T) {
	tf := newSpellTable(t, format.WDBC)
	err := tf.InsertRow(testing_util.Row(int32(2), "Again"))
	testingpkg.ErrorIs(t, err, common.ErrDuplicateKey)

	// a shared row whose id was changed behind the table's back
	row, _ := tf.FindRow(3)
	row.SetKey(tf.GetSchema(), 1)
	_, err = table.Encode(tf)
	testingpkg.ErrorIs(t, err, common.ErrDuplicateKey)

	// a file with a repeated id is rejected on load
	h, err := format.NewHeader(format.WDBC, 0)
	testingpkg.Ok(t, err)
	testingpkg.Ok(t, schema.PrepareHeader(h, spellDescs()))
	h.RecordCount = 2
	h.StringBlockSize = 1
	data := append(h.Encode(), make([]byte, 17)...)
	_, err = table.Decode(data, spellDescs())
	testingpkg.ErrorIs(t, err, common.ErrDuplicateKey)
}

func TestSparseOrphans(t *testing.T) {
	descs := []column.FieldDescriptor{
		{Name: "ID", Kind: types.UInt32, IsKey: true},
		{Name: "Level", Kind: types.Int32},
		{Name: "Bonus", Kind: types.Int16, Sparse: true},
	}
	h, err := format.NewHeader(format.WDB6, 0)
	testingpkg.Ok(t, err)
	testingpkg.Ok(t, schema.PrepareHeader(h, descs))

	sparse := &block.SparseTable{Columns: []block.SparseColumn{
		{Type: block.SparseInt32},
		{Type: block.SparseInt32},
		{Type: block.SparseInt16, Entries: []block.SparseEntry{{ID: 1, Value: 7}, {ID: 2, Value: 9}, {ID: 99, Value: 3}}},
	}}
	copies := block.WriteCopyTable([]block.CopyEntry{block.NewCopyEntry(2, 1)})
	sparseData := sparse.Encode()

	h.RecordCount = 1
	h.StringBlockSize = 1
	h.MinID, h.MaxID = 1, 2
	h.CopyTableSize = uint32(len(copies))
	h.CommonDataSize = uint32(len(sparseData))
	record := make([]byte, 8)
	binary.LittleEndian.PutUint32(record, 1)
	binary.LittleEndian.PutUint32(record[4:], 40)

	data := h.Encode()
	data = append(data, record...)
	data = append(data, 0)
	data = append(data, copies...)
	data = append(data, sparseData...)

	tf, err := table.Decode(data, descs)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, 2, tf.RowCount())
	testingpkg.Equals(t, []uint32{99}, tf.GetOrphanSparseIDs())

	s := tf.GetSchema()
	one, _ := tf.FindRow(1)
	two, _ := tf.FindRow(2)
	testingpkg.Equals(t, int64(7), one.GetValue(s, 2).ToInt64())
	// the copy row inherits from its source and then takes its own sparse value
	testingpkg.Equals(t, int64(9), two.GetValue(s, 2).ToInt64())
	testingpkg.Equals(t, int64(40), two.GetValue(s, 1).ToInt64())
}

func TestSparseStringsShareTheStringBlock(t *testing.T) {
	descs := []column.FieldDescriptor{
		{Name: "ID", Kind: types.UInt32, IsKey: true},
		{Name: "Name", Kind: types.StringRef},
		{Name: "Note", Kind: types.StringRef, Sparse: true},
	}
	tf, err := table.NewTableFile(format.WDB6, 0, descs)
	testingpkg.Ok(t, err)
	testingpkg.Ok(t, tf.InsertRow(testing_util.Row(uint32(1), "Fire", "Ice")))
	testingpkg.Ok(t, tf.InsertRow(testing_util.Row(uint32(2), "Ice", "")))

	data, err := table.Encode(tf)
	testingpkg.Ok(t, err)
	h, err := format.DecodeHeader(data)
	testingpkg.Ok(t, err)
	str, _ := h.Block(format.BlockStrings)
	strings, err := string_table.ReadStringTable(str.Slice(data), 0)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, 3, strings.Len())

	decoded, err := table.Decode(data, descs)
	testingpkg.Ok(t, err)
	testingpkg.SimpleAssert(t, testing_util.SameRows(tf, decoded))
}

func TestTableFileOperations(t *testing.T) {
	tf := newSpellTable(t, format.WDBC)
	s := tf.GetSchema()
	testingpkg.Equals(t, uint32(4), tf.NextID())

	row := tf.NewRow()
	testingpkg.Equals(t, uint32(4), row.GetKey(s))
	testingpkg.Ok(t, row.SetValue(s, 1, 0, types.NewVarchar("Arcane")))
	testingpkg.Ok(t, tf.InsertRow(row))
	testingpkg.Equals(t, 4, tf.RowCount())

	updated := row.GetDeepCopy()
	testingpkg.Ok(t, updated.SetValue(s, 1, 0, types.NewVarchar("Shadow")))
	testingpkg.Ok(t, tf.UpdateRow(updated))
	found, ok := tf.FindRow(4)
	testingpkg.SimpleAssert(t, ok)
	testingpkg.Equals(t, "Shadow", found.GetValue(s, 1).ToVarchar())

	testingpkg.Nok(t, tf.UpdateRow(testing_util.Row(int32(50), "Nope")))
	testingpkg.ErrorIs(t, tf.InsertRow(testing_util.Row(int32(9))), common.ErrInvalidValue)
	testingpkg.ErrorIs(t, tf.InsertRow(testing_util.Row(int32(9), float32(1))), common.ErrInvalidValue)

	testingpkg.SimpleAssert(t, tf.DeleteRow(2))
	testingpkg.SimpleAssert(t, !tf.DeleteRow(2))
	_, ok = tf.FindRow(2)
	testingpkg.SimpleAssert(t, !ok)
	found, ok = tf.FindRow(3)
	testingpkg.SimpleAssert(t, ok)
	testingpkg.Equals(t, "Fire", found.GetValue(s, 1).ToVarchar())

	testingpkg.ErrorIs(t, tf.ChangeID(3, 1), common.ErrDuplicateKey)
	testingpkg.Ok(t, tf.ChangeID(3, 30))
	_, ok = tf.FindRow(30)
	testingpkg.SimpleAssert(t, ok)

	clone := tf.Clone()
	cloned, _ := clone.FindRow(30)
	testingpkg.Ok(t, cloned.SetValue(s, 1, 0, types.NewVarchar("Holy")))
	original, _ := tf.FindRow(30)
	testingpkg.Equals(t, "Fire", original.GetValue(s, 1).ToVarchar())

	testingpkg.SimpleAssert(t, tf.IsChanged())
	tf.MarkSaved()
	testingpkg.SimpleAssert(t, !tf.IsChanged())

	n := 0
	for it := tf.Begin(); !it.End(); it.Next() {
		n++
	}
	testingpkg.Equals(t, tf.RowCount(), n)
}

func TestEncodeDoesNotMutate(t *testing.T) {
	tf := newSpellTable(t, format.WDB5)
	before := tf.GetHeader()
	rows := tf.Rows()
	_, err := table.Encode(tf)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, before, tf.GetHeader())
	testingpkg.Equals(t, 3, tf.RowCount())
	for i, r := range rows {
		testingpkg.SimpleAssert(t, r.CompareEquals(tf.GetRow(i)))
	}
	testingpkg.SimpleAssert(t, rows[2] == tf.GetRow(2))
}

func TestLoadReusesDecodedHeader(t *testing.T) {
	tf, err := testing_tbl_gen.GenerateTestTable(format.WDB6, testing_tbl_gen.BuildFor(format.WDB6), 50, 11)
	testingpkg.Ok(t, err)
	data, err := table.Encode(tf)
	testingpkg.Ok(t, err)

	h, err := format.DecodeHeader(data)
	testingpkg.Ok(t, err)
	loaded, err := table.Load("/data/Item.db2", "Item", data, h, tf.GetSchema().Descriptors())
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, h, loaded.GetHeader())
	testingpkg.Equals(t, "/data/Item.db2", loaded.GetPath())
	testingpkg.Equals(t, "Item", loaded.GetTableName())
	testingpkg.SimpleAssert(t, testing_util.SameRows(tf, loaded))
}
