package disk

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/dsnet/golib/memfile"
)

// VirtualDiskManagerImpl keeps files in memory. It serves tests and streams which were
// extracted from archives by a caller and never touch the file system.
type VirtualDiskManagerImpl struct {
	files     map[string]*memfile.File
	numWrites uint64
	mutex     *sync.Mutex
}

func NewVirtualDiskManagerImpl() DiskManager {
	return &VirtualDiskManagerImpl{files: make(map[string]*memfile.File), mutex: new(sync.Mutex)}
}

func (d *VirtualDiskManagerImpl) ReadFile(path string) ([]byte, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	f, ok := d.files[filepath.Clean(path)]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", path, fs.ErrNotExist)
	}
	return append([]byte(nil), f.Bytes()...), nil
}

func (d *VirtualDiskManagerImpl) WriteFile(path string, data []byte) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.files[filepath.Clean(path)] = memfile.New(append([]byte(nil), data...))
	d.numWrites++
	return nil
}

func (d *VirtualDiskManagerImpl) Exists(path string) bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	_, ok := d.files[filepath.Clean(path)]
	return ok
}

// GetNumWrites returns the number of files written
func (d *VirtualDiskManagerImpl) GetNumWrites() uint64 {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.numWrites
}

// ShutDown closes of the database file
func (d *VirtualDiskManagerImpl) ShutDown() {
	// do nothing
}
