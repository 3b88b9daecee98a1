package block

import (
	pair "github.com/notEpsilon/go-pair"
	"github.com/ryogrid/wdbx/common"
	"github.com/ryogrid/wdbx/container/hash"
	"github.com/ryogrid/wdbx/storage/table/schema"
	"github.com/ryogrid/wdbx/storage/tuple"
	"github.com/ryogrid/wdbx/types"
)

// CopyEntry is one entry of the copy block: First is the id of the synthetic row,
// Second the id of the stored row it duplicates.
type CopyEntry = pair.Pair[uint32, uint32]

func NewCopyEntry(newID uint32, sourceID uint32) CopyEntry {
	return CopyEntry{First: newID, Second: sourceID}
}

// ReadCopyTable decodes a copy block. blockOffset is used for error reports.
func ReadCopyTable(data []byte, blockOffset int64) ([]CopyEntry, error) {
	if len(data)%common.CopyEntrySize != 0 {
		return nil, common.NewCodecError(common.HeaderInconsistent, "copy block", blockOffset,
			"copy block size %d is not a multiple of %d", len(data), common.CopyEntrySize)
	}
	entries := make([]CopyEntry, 0, len(data)/common.CopyEntrySize)
	for off := 0; off < len(data); off += common.CopyEntrySize {
		entries = append(entries, NewCopyEntry(
			uint32(types.NewWord32FromBytes(data[off:])),
			uint32(types.NewWord32FromBytes(data[off+4:])),
		))
	}
	return entries, nil
}

func WriteCopyTable(entries []CopyEntry) []byte {
	buf := make([]byte, 0, len(entries)*common.CopyEntrySize)
	for _, e := range entries {
		buf = append(buf, types.Word32(e.First).Serialize()...)
		buf = append(buf, types.Word32(e.Second).Serialize()...)
	}
	return buf
}

// ExpandCopies appends one row per copy entry, cloned from its source with the id
// replaced. Sources may be rows produced by earlier entries.
func ExpandCopies(rows []*tuple.Tuple, schema_ *schema.Schema, entries []CopyEntry, blockOffset int64) ([]*tuple.Tuple, error) {
	byID := make(map[uint32]*tuple.Tuple, len(rows)+len(entries))
	for _, r := range rows {
		byID[r.GetKey(schema_)] = r
	}
	for i, e := range entries {
		entryOffset := blockOffset + int64(i*common.CopyEntrySize)
		src, ok := byID[e.Second]
		if !ok {
			return nil, common.NewCodecError(common.HeaderInconsistent, "copy block", entryOffset,
				"copy entry %d refers to missing source id %d", i, e.Second)
		}
		if _, dup := byID[e.First]; dup {
			return nil, common.NewCodecError(common.DuplicateKey, "copy block", entryOffset,
				"copy entry %d creates id %d which already exists", i, e.First)
		}
		row := src.GetDeepCopy()
		row.SetKey(schema_, e.First)
		byID[e.First] = row
		rows = append(rows, row)
	}
	common.ShPrintf(common.DEBUG_INFO, "expanded %d copy rows\n", len(entries))
	return rows, nil
}

// CollapseCopies splits rows into rows to store and copy entries. A row becomes a copy
// entry only when all of its cells but the id equal those of an earlier stored row.
func CollapseCopies(rows []*tuple.Tuple, schema_ *schema.Schema) ([]*tuple.Tuple, []CopyEntry) {
	keyCell := int(schema_.GetKeyColumn().GetCellIndex())
	buckets := make(map[uint64][]*tuple.Tuple)
	stored := make([]*tuple.Tuple, 0, len(rows))
	entries := make([]CopyEntry, 0)

	for _, r := range rows {
		fp := hash.FingerprintCells(r.Cells(), keyCell)
		var source *tuple.Tuple
		for _, candidate := range buckets[fp] {
			if candidate.EqualsIgnoringKey(r, schema_) {
				source = candidate
				break
			}
		}
		if source != nil {
			entries = append(entries, NewCopyEntry(r.GetKey(schema_), source.GetKey(schema_)))
			continue
		}
		buckets[fp] = append(buckets[fp], r)
		stored = append(stored, r)
	}
	common.ShPrintf(common.DEBUG_INFO, "collapsed %d of %d rows into copy entries\n", len(entries), len(rows))
	return stored, entries
}
