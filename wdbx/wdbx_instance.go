package wdbx

import (
	"github.com/ryogrid/wdbx/catalog/catalog_interface"
	"github.com/ryogrid/wdbx/common"
	"github.com/ryogrid/wdbx/storage/disk"
)

// WdbxInstance bundles the collaborators a workspace works with.
type WdbxInstance struct {
	disk_manager disk.DiskManager
	catalog_     catalog_interface.CatalogInterface
}

// NewWdbxInstance reads and writes table files on the file system.
func NewWdbxInstance(catalog_ catalog_interface.CatalogInterface) *WdbxInstance {
	return &WdbxInstance{disk.NewDiskManagerImpl(), catalog_}
}

// NewWdbxInstanceOnMemory keeps every file in memory.
func NewWdbxInstanceOnMemory(catalog_ catalog_interface.CatalogInterface) *WdbxInstance {
	return &WdbxInstance{disk.NewVirtualDiskManagerImpl(), catalog_}
}

func NewWdbxInstanceWithDiskManager(disk_manager disk.DiskManager, catalog_ catalog_interface.CatalogInterface) *WdbxInstance {
	common.SH_Assert(disk_manager != nil && catalog_ != nil, "disk manager and catalog are required")
	return &WdbxInstance{disk_manager, catalog_}
}

func (wi *WdbxInstance) GetDiskManager() disk.DiskManager {
	return wi.disk_manager
}

func (wi *WdbxInstance) GetCatalog() catalog_interface.CatalogInterface {
	return wi.catalog_
}

func (wi *WdbxInstance) Shutdown() {
	wi.disk_manager.ShutDown()
}
