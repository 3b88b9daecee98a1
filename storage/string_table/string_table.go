package string_table

import (
	"bytes"
	"unicode/utf8"

	"github.com/ryogrid/wdbx/common"
)

// StringTable is the string block of a table file. On the write path it is an append
// only buffer of NUL terminated strings; on the read path it maps block relative
// offsets to the strings which start there.
type StringTable struct {
	buf     *bytes.Buffer
	lookup  map[string]uint32 // content -> offset, non duplicate path only
	entries map[uint32]string // offset -> content, read path
}

// NewStringTable returns an empty write table. Offset 0 holds the empty string.
func NewStringTable() *StringTable {
	buf := new(bytes.Buffer)
	buf.WriteByte(0)
	return &StringTable{
		buf:     buf,
		lookup:  make(map[string]uint32),
		entries: map[uint32]string{0: ""},
	}
}

// Intern appends str and returns its offset. The empty string is always 0 and never
// grows the buffer. Without allowDuplicates a previously interned string keeps its
// first offset.
func (st *StringTable) Intern(str string, allowDuplicates bool) uint32 {
	if str == "" {
		return 0
	}
	if !allowDuplicates {
		if offset, ok := st.lookup[str]; ok {
			return offset
		}
	}
	offset := uint32(st.buf.Len())
	st.buf.WriteString(str)
	st.buf.WriteByte(0)
	if !allowDuplicates {
		st.lookup[str] = offset
	}
	st.entries[offset] = str
	return offset
}

// Size is the byte length of the block.
func (st *StringTable) Size() uint32 {
	return uint32(st.buf.Len())
}

func (st *StringTable) Bytes() []byte {
	return st.buf.Bytes()
}

// Len is the number of distinct offsets holding a string.
func (st *StringTable) Len() int {
	return len(st.entries)
}

// Lookup resolves a string reference. Only offsets at which a string starts resolve.
func (st *StringTable) Lookup(offset uint32) (string, bool) {
	str, ok := st.entries[offset]
	return str, ok
}

// ReadStringTable scans a string block. blockOffset is the position of the block in the
// file and is only used for error reports. The scan must consume the block exactly: a
// string whose terminator lies past the end is a truncated stream. A non empty block
// must start with the NUL of the empty string, since offset 0 always means "".
func ReadStringTable(block []byte, blockOffset int64) (*StringTable, error) {
	st := &StringTable{
		buf:     bytes.NewBuffer(append([]byte(nil), block...)),
		lookup:  make(map[string]uint32),
		entries: make(map[uint32]string),
	}
	// an absent block still resolves the empty string
	st.entries[0] = ""
	if len(block) > 0 && block[0] != 0 {
		return nil, common.NewCodecError(common.HeaderInconsistent, "string block", blockOffset,
			"string block starts with byte 0x%02x instead of the NUL of the empty string", block[0])
	}

	pos := 1
	for pos < len(block) {
		end := bytes.IndexByte(block[pos:], 0)
		if end < 0 {
			return nil, common.NewCodecError(common.TruncatedStream, "string block", blockOffset+int64(pos),
				"string at block offset %d has no terminator before the block end", pos).
				WithSizes(int64(len(block)), int64(len(block)-pos))
		}
		raw := block[pos : pos+end]
		if !utf8.Valid(raw) {
			common.ShPrintf(common.WARN, "string at block offset %d is not valid UTF-8\n", pos)
		}
		st.entries[uint32(pos)] = string(raw)
		pos += end + 1
	}
	common.ShPrintf(common.DEBUG_INFO_DETAIL, "read %d strings from a %d byte string block\n", len(st.entries), len(block))
	return st, nil
}
