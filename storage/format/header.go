package format

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ryogrid/wdbx/common"
)

const (
	// records are addressed through an offset map instead of a fixed record block
	FlagOffsetMap uint16 = 0x01
	// ids are stored in an index table after the string block instead of in the records
	FlagIndexTable uint16 = 0x04
)

// FieldStructureEntry is one entry of the bit width table of WDB5 and WDB6.
type FieldStructureEntry struct {
	Bits   int16
	Offset uint16
}

// ByteWidth is the stored width of one element of the field.
func (e FieldStructureEntry) ByteWidth() uint32 {
	w := (32 - int32(e.Bits)) / 8
	if w < 0 {
		return 0
	}
	return uint32(w)
}

func BitsForWidth(width uint32) int16 {
	return int16(32 - int32(width)*8)
}

func validStructureWidth(w uint32) bool {
	switch w {
	case 1, 2, 3, 4, 8:
		return true
	}
	return false
}

// Header is the decoded header of any variant. Fields a variant does not carry stay zero.
type Header struct {
	Variant         Variant
	RecordCount     uint32
	FieldCount      uint32
	RecordSize      uint32
	StringBlockSize uint32
	TableHash       uint32
	LayoutHash      uint32 // WDB5, WDB6
	Build           uint32 // WDB2, WDB2Ext
	Timestamp       uint32 // WDB2Ext
	MinID           uint32
	MaxID           uint32
	Locale          uint32
	CopyTableSize   uint32
	Flags           uint16
	IDIndex         uint16
	TotalFieldCount uint32 // WDB6
	CommonDataSize  uint32 // WDB6
	FieldStructure  []FieldStructureEntry
}

// NewHeader returns an empty header for creating a table from scratch.
func NewHeader(variant Variant, build uint32) (*Header, error) {
	switch variant {
	case WDBC, WDB5, WDB6:
	case WDB2:
		if build > common.WDB2ExtendedHeaderBuild {
			return nil, fmt.Errorf("build %d implies the extended WDB2 header", build)
		}
	case WDB2Ext:
		if build <= common.WDB2ExtendedHeaderBuild {
			return nil, fmt.Errorf("build %d implies the short WDB2 header", build)
		}
	default:
		return nil, fmt.Errorf("unknown variant %d", int(variant))
	}
	h := &Header{Variant: variant}
	if variant == WDB2 || variant == WDB2Ext {
		h.Build = build
	}
	return h, nil
}

func (h *Header) Clone() *Header {
	ret := *h
	ret.FieldStructure = append([]FieldStructureEntry(nil), h.FieldStructure...)
	return &ret
}

// Size is the number of bytes taken by the header and the field structure.
func (h *Header) Size() uint32 {
	size := h.Variant.HeaderSize()
	if h.Variant.HasFieldStructure() {
		size += 4 * h.FieldCount
	}
	return size
}

func (h *Header) HasIndexTable() bool {
	return h.Variant.SupportsIndexTable() && h.Flags&FlagIndexTable != 0
}

// HasLegacyIndex reports whether the id index and string length table are present.
func (h *Header) HasLegacyIndex() bool {
	return h.Variant.HasLegacyIndex() && h.MaxID != 0
}

// LegacyIndexCount is the number of ids covered by the legacy index.
func (h *Header) LegacyIndexCount() uint64 {
	if !h.HasLegacyIndex() || h.MinID > h.MaxID {
		return 0
	}
	return uint64(h.MaxID) - uint64(h.MinID) + 1
}

// AllowsDuplicateStrings is the per-variant toggle of the string table's duplicate mode.
// Only the extended WDB2 layout with an explicit id range stores every string occurrence.
func (h *Header) AllowsDuplicateStrings() bool {
	return h.HasLegacyIndex()
}

func satAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

func satMul(a, b uint64) uint64 {
	if a != 0 && b > math.MaxUint64/a {
		return math.MaxUint64
	}
	return a * b
}

func toOffset(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

// Blocks lists the blocks the header declares, in file order.
func (h *Header) Blocks() []Block {
	blocks := make([]Block, 0, 8)
	var cursor uint64
	add := func(kind BlockKind, size uint64) {
		blocks = append(blocks, Block{Kind: kind, Offset: cursor, Size: size})
		cursor = satAdd(cursor, size)
	}

	add(BlockHeader, uint64(h.Variant.HeaderSize()))
	if h.Variant.HasFieldStructure() {
		add(BlockFieldStructure, 4*uint64(h.FieldCount))
	}
	if h.HasLegacyIndex() {
		add(BlockLegacyIndex, satMul(h.LegacyIndexCount(), 4+2))
	}
	add(BlockRecords, satMul(uint64(h.RecordCount), uint64(h.RecordSize)))
	add(BlockStrings, uint64(h.StringBlockSize))
	if h.HasIndexTable() {
		add(BlockIndexTable, 4*uint64(h.RecordCount))
	}
	if h.Variant.HasCopyBlock() && h.CopyTableSize > 0 {
		add(BlockCopyTable, uint64(h.CopyTableSize))
	}
	if h.Variant.HasSparseBlock() && h.CommonDataSize > 0 {
		add(BlockSparse, uint64(h.CommonDataSize))
	}
	return blocks
}

// Block returns the block of the given kind if the header declares it.
func (h *Header) Block(kind BlockKind) (Block, bool) {
	for _, b := range h.Blocks() {
		if b.Kind == kind {
			return b, true
		}
	}
	return Block{}, false
}

// ExpectedFileSize is the total length the header declares.
func (h *Header) ExpectedFileSize() uint64 {
	blocks := h.Blocks()
	return blocks[len(blocks)-1].End()
}

// Validate checks the internal consistency of the header and that its blocks tile
// exactly streamLen bytes.
func (h *Header) Validate(streamLen int64) error {
	if h.RecordSize == 0 {
		return common.NewCodecError(common.HeaderInconsistent, "recordSize", 12, "record size must be positive")
	}
	if h.Variant.HasIDRange() && h.MaxID != 0 && h.MinID > h.MaxID {
		return common.NewCodecError(common.HeaderInconsistent, "minId", h.fieldOffset("minId"),
			"min id %d is greater than max id %d", h.MinID, h.MaxID)
	}
	if h.Variant.SupportsIndexTable() && h.Flags&FlagOffsetMap != 0 {
		return common.NewCodecError(common.HeaderInconsistent, "flags", h.fieldOffset("flags"),
			"offset map tables (flags 0x%x) are not supported", h.Flags)
	}
	if h.Variant.HasSparseBlock() && h.TotalFieldCount < h.FieldCount {
		return common.NewCodecError(common.HeaderInconsistent, "totalFieldCount", h.fieldOffset("totalFieldCount"),
			"total field count is smaller than field count").
			WithSizes(int64(h.FieldCount), int64(h.TotalFieldCount))
	}
	if h.Variant.HasCopyBlock() && h.CopyTableSize%common.CopyEntrySize != 0 {
		return common.NewCodecError(common.HeaderInconsistent, "copyTableSize", h.fieldOffset("copyTableSize"),
			"copy table size is not a multiple of %d", common.CopyEntrySize)
	}
	if h.Variant.HasFieldStructure() {
		if uint32(len(h.FieldStructure)) != h.FieldCount {
			return common.NewCodecError(common.HeaderInconsistent, "fieldStructure", int64(h.Variant.HeaderSize()),
				"field structure entry count does not match field count").
				WithSizes(int64(h.FieldCount), int64(len(h.FieldStructure)))
		}
		for i, e := range h.FieldStructure {
			name := fmt.Sprintf("fieldStructure[%d]", i)
			offset := int64(h.Variant.HeaderSize()) + 4*int64(i)
			if (32-int32(e.Bits))%8 != 0 || !validStructureWidth(e.ByteWidth()) {
				return common.NewCodecError(common.HeaderInconsistent, name, offset,
					"bit count %d gives an unsupported width of %d bytes", e.Bits, e.ByteWidth())
			}
			if uint32(e.Offset) >= h.RecordSize {
				return common.NewCodecError(common.HeaderInconsistent, name, offset,
					"field offset %d lies outside the %d byte record", e.Offset, h.RecordSize)
			}
			if i > 0 && e.Offset <= h.FieldStructure[i-1].Offset {
				return common.NewCodecError(common.HeaderInconsistent, name, offset,
					"field offsets are not increasing (%d after %d)", e.Offset, h.FieldStructure[i-1].Offset)
			}
		}
	}

	length := uint64(streamLen)
	blocks := h.Blocks()
	for _, b := range blocks {
		if b.End() > length {
			return common.NewCodecError(common.TruncatedStream, b.Kind.String(), toOffset(b.Offset),
				"block extends past the end of the input").
				WithSizes(toOffset(b.End()), streamLen)
		}
	}
	if end := blocks[len(blocks)-1].End(); end != length {
		return common.NewCodecError(common.HeaderInconsistent, "fileSize", toOffset(end),
			"%d trailing bytes after the last declared block", length-end).
			WithSizes(toOffset(end), streamLen)
	}
	return nil
}

// fieldOffset locates named header fields for error reports.
func (h *Header) fieldOffset(name string) int64 {
	switch h.Variant {
	case WDB2Ext:
		switch name {
		case "minId":
			return 32
		case "copyTableSize":
			return 44
		}
	case WDB5, WDB6:
		switch name {
		case "minId":
			return 28
		case "copyTableSize":
			return 40
		case "flags":
			return 44
		case "totalFieldCount":
			return 48
		}
	}
	return -1
}

// DecodeHeader detects the variant, decodes the header and validates it against the
// length of data, which must hold the whole file.
func DecodeHeader(data []byte) (*Header, error) {
	variant, err := DetectVariant(data)
	if err != nil {
		return nil, err
	}
	size := variant.HeaderSize()
	if uint64(len(data)) < uint64(size) {
		return nil, common.NewCodecError(common.TruncatedStream, BlockHeader.String(), 0,
			"input is shorter than the %s header", variant).
			WithSizes(int64(size), int64(len(data)))
	}

	u32 := func(off int) uint32 { return binary.LittleEndian.Uint32(data[off:]) }
	u16 := func(off int) uint16 { return binary.LittleEndian.Uint16(data[off:]) }

	h := &Header{
		Variant:         variant,
		RecordCount:     u32(4),
		FieldCount:      u32(8),
		RecordSize:      u32(12),
		StringBlockSize: u32(16),
	}
	switch variant {
	case WDBC:
	case WDB2, WDB2Ext:
		h.TableHash = u32(20)
		h.Build = u32(24)
		if variant == WDB2Ext {
			h.Timestamp = u32(28)
			h.MinID = u32(32)
			h.MaxID = u32(36)
			h.Locale = u32(40)
			h.CopyTableSize = u32(44)
		}
	case WDB5, WDB6:
		h.TableHash = u32(20)
		h.LayoutHash = u32(24)
		h.MinID = u32(28)
		h.MaxID = u32(32)
		h.Locale = u32(36)
		h.CopyTableSize = u32(40)
		h.Flags = u16(44)
		h.IDIndex = u16(46)
		if variant == WDB6 {
			h.TotalFieldCount = u32(48)
			h.CommonDataSize = u32(52)
		}
	}

	if variant.HasFieldStructure() {
		end := uint64(size) + 4*uint64(h.FieldCount)
		if end > uint64(len(data)) {
			return nil, common.NewCodecError(common.TruncatedStream, BlockFieldStructure.String(), int64(size),
				"field structure of %d entries extends past the end of the input", h.FieldCount).
				WithSizes(toOffset(end), int64(len(data)))
		}
		h.FieldStructure = make([]FieldStructureEntry, h.FieldCount)
		for i := range h.FieldStructure {
			off := int(size) + 4*i
			h.FieldStructure[i] = FieldStructureEntry{Bits: int16(u16(off)), Offset: u16(off + 2)}
		}
	}

	if err := h.Validate(int64(len(data))); err != nil {
		return nil, err
	}
	return h, nil
}

// Encode serializes the header and the field structure.
func (h *Header) Encode() []byte {
	if h.Variant.HasFieldStructure() {
		common.SH_Assert(uint32(len(h.FieldStructure)) == h.FieldCount, "field structure does not match field count")
	}
	buf := make([]byte, h.Size())
	put32 := func(off int, v uint32) { binary.LittleEndian.PutUint32(buf[off:], v) }
	put16 := func(off int, v uint16) { binary.LittleEndian.PutUint16(buf[off:], v) }

	copy(buf, h.Variant.Signature())
	put32(4, h.RecordCount)
	put32(8, h.FieldCount)
	put32(12, h.RecordSize)
	put32(16, h.StringBlockSize)
	switch h.Variant {
	case WDBC:
	case WDB2, WDB2Ext:
		put32(20, h.TableHash)
		put32(24, h.Build)
		if h.Variant == WDB2Ext {
			put32(28, h.Timestamp)
			put32(32, h.MinID)
			put32(36, h.MaxID)
			put32(40, h.Locale)
			put32(44, h.CopyTableSize)
		}
	case WDB5, WDB6:
		put32(20, h.TableHash)
		put32(24, h.LayoutHash)
		put32(28, h.MinID)
		put32(32, h.MaxID)
		put32(36, h.Locale)
		put32(40, h.CopyTableSize)
		put16(44, h.Flags)
		put16(46, h.IDIndex)
		if h.Variant == WDB6 {
			put32(48, h.TotalFieldCount)
			put32(52, h.CommonDataSize)
		}
	}
	if h.Variant.HasFieldStructure() {
		base := int(h.Variant.HeaderSize())
		for i, e := range h.FieldStructure {
			put16(base+4*i, uint16(e.Bits))
			put16(base+4*i+2, e.Offset)
		}
	}
	return buf
}
