// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package disk

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/ryogrid/wdbx/common"
)

// DiskManagerImpl is the disk implementation of DiskManager
type DiskManagerImpl struct {
	numWrites atomic.Uint64
	dirMutex  *sync.Mutex // serializes temp file creation and rename per manager
}

// NewDiskManagerImpl returns a DiskManager instance
func NewDiskManagerImpl() DiskManager {
	return &DiskManagerImpl{dirMutex: new(sync.Mutex)}
}

func (d *DiskManagerImpl) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	common.ShPrintf(common.DEBUG_INFO, "read %d bytes from %s\n", len(data), path)
	return data, nil
}

// WriteFile writes to a temporary file in the destination directory and renames it over
// the destination.
func (d *DiskManagerImpl) WriteFile(path string, data []byte) error {
	d.dirMutex.Lock()
	defer d.dirMutex.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	d.numWrites.Add(1)
	common.ShPrintf(common.DEBUG_INFO, "wrote %d bytes to %s\n", len(data), path)
	return nil
}

func (d *DiskManagerImpl) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// GetNumWrites returns the number of files written
func (d *DiskManagerImpl) GetNumWrites() uint64 {
	return d.numWrites.Load()
}

// ShutDown does nothing; no file is held open between calls
func (d *DiskManagerImpl) ShutDown() {
}
