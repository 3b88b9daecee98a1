package format

type BlockKind int

const (
	BlockHeader BlockKind = iota
	BlockFieldStructure
	BlockLegacyIndex
	BlockRecords
	BlockStrings
	BlockIndexTable
	BlockCopyTable
	BlockSparse
)

func (k BlockKind) String() string {
	switch k {
	case BlockHeader:
		return "header"
	case BlockFieldStructure:
		return "field structure"
	case BlockLegacyIndex:
		return "id index"
	case BlockRecords:
		return "record block"
	case BlockStrings:
		return "string block"
	case BlockIndexTable:
		return "index table"
	case BlockCopyTable:
		return "copy block"
	case BlockSparse:
		return "sparse block"
	}
	return "unknown block"
}

// Block is a byte range of a table file.
type Block struct {
	Kind   BlockKind
	Offset uint64
	Size   uint64
}

func (b Block) End() uint64 {
	return satAdd(b.Offset, b.Size)
}

// Slice returns the bytes of the block. The header must have been validated against data.
func (b Block) Slice(data []byte) []byte {
	return data[b.Offset:b.End()]
}
