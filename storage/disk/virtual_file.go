package disk

import (
	"github.com/dsnet/golib/memfile"
)

// VirtualFile is a growable in-memory file. The writer emits blocks in order and then
// rewrites the header in place once the block sizes are known.
type VirtualFile struct {
	f    *memfile.File
	size int64
}

func NewVirtualFile() *VirtualFile {
	return &VirtualFile{f: memfile.New(make([]byte, 0))}
}

// Append writes data at the end of the file and returns the offset it was written at.
func (v *VirtualFile) Append(data []byte) int64 {
	offset := v.size
	v.WriteAt(data, offset)
	return offset
}

// WriteAt writes data at offset, growing the file when needed.
func (v *VirtualFile) WriteAt(data []byte, offset int64) {
	// memfile grows on WriteAt and never fails for non negative offsets
	if _, err := v.f.WriteAt(data, offset); err != nil {
		panic(err)
	}
	if end := offset + int64(len(data)); end > v.size {
		v.size = end
	}
}

func (v *VirtualFile) Size() int64 {
	return v.size
}

func (v *VirtualFile) Bytes() []byte {
	return v.f.Bytes()
}
