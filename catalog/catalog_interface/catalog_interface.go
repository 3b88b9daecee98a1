package catalog_interface

import "github.com/ryogrid/wdbx/storage/table/column"

// CatalogInterface supplies the field definition of a table for a build.
type CatalogInterface interface {
	GetDescriptors(table string, build uint32) ([]column.FieldDescriptor, error)
}
