package wdbx_util

import (
	"testing"

	"github.com/ryogrid/wdbx/storage/format"
	"github.com/ryogrid/wdbx/storage/table/column"
	"github.com/ryogrid/wdbx/storage/table/schema"
	"github.com/ryogrid/wdbx/storage/tuple"
	testingpkg "github.com/ryogrid/wdbx/testing/testing_assert"
	"github.com/ryogrid/wdbx/types"
)

func TestTableNameFromPath(t *testing.T) {
	testingpkg.Equals(t, "Spell", TableNameFromPath("Spell.dbc"))
	testingpkg.Equals(t, "Spell", TableNameFromPath("/data/DBFilesClient/Spell.dbc"))
	testingpkg.Equals(t, "Item", TableNameFromPath("DBFilesClient\\Item.db2"))
	testingpkg.Equals(t, "Item.sparse", TableNameFromPath("Item.sparse.db2"))
	testingpkg.Equals(t, "Map", TableNameFromPath("Map"))
	testingpkg.Equals(t, ".hidden", TableNameFromPath(".hidden"))
}

func TestConvRowToStrings(t *testing.T) {
	descs := []column.FieldDescriptor{
		{Name: "ID", Kind: types.UInt32, IsKey: true},
		{Name: "Name", Kind: types.StringRef},
		{Name: "Effects", Kind: types.Int16, ArraySize: 2},
		{Name: "Power", Kind: types.Float},
	}
	h, err := format.NewHeader(format.WDBC, 0)
	testingpkg.Ok(t, err)
	testingpkg.Ok(t, schema.PrepareHeader(h, descs))
	s, err := schema.NewSchema(h, descs)
	testingpkg.Ok(t, err)

	row := tuple.NewTuple([]types.Value{
		types.NewUInt32(7),
		types.NewVarchar("Fire\tBall"),
		types.NewInt16(-3),
		types.NewInt16(4),
		types.NewFloat(1.5),
	})
	testingpkg.Equals(t, []string{"7", "Fire\\tBall", "-3,4", "1.5"}, ConvRowToStrings(s, row))
}

func TestRemoveFromList(t *testing.T) {
	list := []uint32{1, 2, 3}
	testingpkg.Equals(t, []uint32{1, 3}, RemoveFromList(list, 2))
	testingpkg.Equals(t, []uint32{1, 2, 3}, list)
	testingpkg.Equals(t, []uint32{1, 2, 3}, RemoveFromList(list, 9))

	type key struct {
		path  string
		build uint32
	}
	keys := []key{{"a", 1}, {"a", 2}, {"b", 1}}
	testingpkg.Equals(t, []key{{"a", 1}, {"b", 1}}, RemoveFromList(keys, key{"a", 2}))
}
