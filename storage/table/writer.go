package table

import (
	"math"
	"time"

	"github.com/ryogrid/wdbx/common"
	"github.com/ryogrid/wdbx/storage/block"
	"github.com/ryogrid/wdbx/storage/disk"
	"github.com/ryogrid/wdbx/storage/format"
	"github.com/ryogrid/wdbx/storage/string_table"
	"github.com/ryogrid/wdbx/storage/tuple"
	"github.com/ryogrid/wdbx/types"
)

// DuplicateStrings selects how strings are interned on save.
type DuplicateStrings int

const (
	// DuplicateStringsAuto follows the variant: only WDB2 files with an id range keep
	// one string block entry per occurrence.
	DuplicateStringsAuto DuplicateStrings = iota
	DuplicateStringsAllow
	DuplicateStringsDeny
)

type SaveOptions struct {
	DuplicateStrings DuplicateStrings
	// NoCopyCompaction writes every row in full even when the variant has a copy block.
	NoCopyCompaction bool
}

// Encode serializes the table with default options.
func Encode(tf *TableFile) ([]byte, error) {
	return EncodeWithOptions(tf, SaveOptions{})
}

// EncodeWithOptions writes the blocks in file order after a header placeholder, then
// recomputes the header from what was emitted and writes it over the placeholder. The
// table itself is not modified.
func EncodeWithOptions(tf *TableFile, opts SaveOptions) ([]byte, error) {
	start := time.Now()
	if err := tf.ValidateKeys(); err != nil {
		return nil, err
	}
	s := tf.schema_
	h := tf.header.Clone()

	stored := tf.rows
	var copies []block.CopyEntry
	if h.Variant.HasCopyBlock() && !opts.NoCopyCompaction {
		stored, copies = block.CollapseCopies(tf.rows, s)
	}

	if h.Variant.HasIDRange() && (h.Variant != format.WDB2Ext || tf.header.MaxID != 0) {
		h.MinID, h.MaxID = idRange(tf.rows, tf)
	}
	if h.HasLegacyIndex() && h.LegacyIndexCount() > common.LegacyIndexMaxEntries {
		return nil, common.NewCodecError(common.InvalidValue, "maxId", -1,
			"id range %d..%d is too large for the id index", h.MinID, h.MaxID).
			WithSizes(common.LegacyIndexMaxEntries, int64(h.LegacyIndexCount()))
	}

	allowDup := h.AllowsDuplicateStrings()
	switch opts.DuplicateStrings {
	case DuplicateStringsAllow:
		allowDup = true
	case DuplicateStringsDeny:
		allowDup = false
	}

	h.RecordCount = uint32(len(stored))
	h.RecordSize = s.Length()
	vf := disk.NewVirtualFile()
	vf.Append(make([]byte, h.Size()))

	var legacyOffset int64
	if h.HasLegacyIndex() {
		legacyOffset = vf.Append(make([]byte, h.LegacyIndexCount()*6))
	}

	strings := string_table.NewStringTable()
	records := make([]byte, uint64(len(stored))*uint64(s.Length()))
	for i, row := range stored {
		rec := records[uint64(i)*uint64(s.Length()) : uint64(i+1)*uint64(s.Length())]
		if err := tuple.EncodeTuple(row, s, strings, allowDup, rec); err != nil {
			return nil, err
		}
	}
	vf.Append(records)

	// sparse strings go to the string block, so the sparse block is built before it is emitted
	var sparseData []byte
	if h.Variant.HasSparseBlock() && len(s.SparseColumns()) > 0 {
		sparse, err := block.CollectSparse(stored, s, strings, allowDup)
		if err != nil {
			return nil, err
		}
		sparseData = sparse.Encode()
	}

	h.StringBlockSize = strings.Size()
	vf.Append(strings.Bytes())

	if h.HasIndexTable() {
		ids := make([]byte, 0, 4*len(stored))
		for _, row := range stored {
			ids = append(ids, types.Word32(row.GetKey(s)).Serialize()...)
		}
		vf.Append(ids)
	}

	if h.Variant.HasCopyBlock() {
		h.CopyTableSize = uint32(len(copies) * common.CopyEntrySize)
		vf.Append(block.WriteCopyTable(copies))
	}

	if h.Variant.HasSparseBlock() {
		h.CommonDataSize = uint32(len(sparseData))
		vf.Append(sparseData)
	}

	if h.HasLegacyIndex() {
		vf.WriteAt(legacyIndex(h, stored, tf), legacyOffset)
	}

	vf.WriteAt(h.Encode(), 0)
	if err := h.Validate(vf.Size()); err != nil {
		// the header was computed from the emitted blocks, so this is a codec bug
		common.ShPrintf(common.ERROR, "written header does not describe the output: %v\n", err)
		return nil, err
	}

	common.ShTrace("encode", start, "variant", h.Variant.String(), "rows", len(tf.rows),
		"stored", len(stored), "copies", len(copies), "bytes", vf.Size())
	return vf.Bytes(), nil
}

func idRange(rows []*tuple.Tuple, tf *TableFile) (uint32, uint32) {
	if len(rows) == 0 {
		return 0, 0
	}
	min, max := uint32(math.MaxUint32), uint32(0)
	for _, r := range rows {
		id := r.GetKey(tf.schema_)
		if id < min {
			min = id
		}
		if id > max {
			max = id
		}
	}
	return min, max
}

// legacyIndex builds the WDB2 id index: one u32 record position per id of the range,
// then one u16 per id with the byte length of the row's strings.
func legacyIndex(h *format.Header, stored []*tuple.Tuple, tf *TableFile) []byte {
	count := h.LegacyIndexCount()
	buf := make([]byte, count*6)
	lengths := buf[count*4:]
	s := tf.schema_
	for i, row := range stored {
		slot := uint64(row.GetKey(s) - h.MinID)
		copy(buf[slot*4:], types.Word32(i).Serialize())

		total := 0
		for ci, col := range s.GetColumns() {
			if col.GetType() != types.StringRef {
				continue
			}
			for _, v := range row.GetArray(s, uint32(ci)) {
				total += len(v.ToVarchar())
			}
		}
		if total > math.MaxUint16 {
			total = math.MaxUint16
		}
		copy(lengths[slot*2:], types.Word16(total).Serialize())
	}
	return buf
}
