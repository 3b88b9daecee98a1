// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package disk

import (
	"os"
)

// DiskManagerTest is the disk implementation of DiskManager for testing purposes. Files
// go to a temporary directory removed on ShutDown.
type DiskManagerTest struct {
	dir string
	DiskManager
}

// NewDiskManagerTest returns a DiskManager instance for testing purposes
func NewDiskManagerTest() *DiskManagerTest {
	dir, err := os.MkdirTemp("", "wdbx")
	if err != nil {
		panic(err)
	}
	return &DiskManagerTest{dir, NewDiskManagerImpl()}
}

func (d *DiskManagerTest) Dir() string {
	return d.dir
}

func (d *DiskManagerTest) ShutDown() {
	d.DiskManager.ShutDown()
	os.RemoveAll(d.dir)
}
