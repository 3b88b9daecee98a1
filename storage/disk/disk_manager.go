package disk

// DiskManager is responsible for moving whole table files between storage and memory.
// The codec works on complete byte buffers; a DiskManager never hands out partial files.
type DiskManager interface {
	ReadFile(path string) ([]byte, error)
	// WriteFile replaces the file at path. Readers never observe a partially written file.
	WriteFile(path string, data []byte) error
	Exists(path string) bool
	GetNumWrites() uint64
	ShutDown()
}
