package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ryogrid/wdbx/catalog/catalog_interface"
	testingpkg "github.com/ryogrid/wdbx/testing/testing_assert"
	"github.com/ryogrid/wdbx/types"
)

const spellDefinitions = `
version: 1
tables:
  - name: Spell
    builds: [12340]
    fields:
      - {name: ID, type: uint32, key: true}
      - {name: Name, type: int, string_index: true}
      - {name: Effects, type: short, array: 3}
  - name: Spell
    min_build: 15000
    fields:
      - {name: ID, type: uint32, key: true}
      - {name: Name, type: string}
      - {name: Power, type: float}
      - {name: Note, type: string, sparse: true}
  - name: Map
    fields:
      - {name: ID, type: int32}
      - {name: Blob, type: bytes, length: 16}
`

func TestParseDefinitions(t *testing.T) {
	def, err := ParseDefinitionBytes([]byte(spellDefinitions))
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, 3, len(def.Tables))

	descs, err := def.Tables[0].Descriptors()
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, types.UInt32, descs[0].Kind)
	testingpkg.SimpleAssert(t, descs[0].IsKey)
	testingpkg.Equals(t, types.Int32, descs[1].Kind)
	testingpkg.SimpleAssert(t, descs[1].IsStringIndex)
	testingpkg.Equals(t, types.Int16, descs[2].Kind)
	testingpkg.Equals(t, uint32(3), descs[2].ArraySize)

	descs, err = def.Tables[1].Descriptors()
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, types.StringRef, descs[1].Kind)
	testingpkg.SimpleAssert(t, descs[3].Sparse)
}

func TestParseDefinitionsRejects(t *testing.T) {
	bad := []string{
		"version: 2\ntables: []\n",
		"version: 1\ntables:\n  - name: X\n    fields: []\n",
		"version: 1\ntables:\n  - fields: [{name: ID, type: int}]\n",
		"version: 1\ntables:\n  - name: X\n    fields: [{name: ID, type: quad}]\n",
		"version: 1\ntables:\n  - name: X\n    min_build: 5\n    max_build: 4\n    fields: [{name: ID, type: int}]\n",
		"version: 1\ntables:\n  - name: X\n    builds: [1]\n    min_build: 1\n    fields: [{name: ID, type: int}]\n",
		"version: [\n",
	}
	for _, src := range bad {
		_, err := ParseDefinitionBytes([]byte(src))
		testingpkg.Nok(t, err)
	}
}

func TestCatalogLookupByBuild(t *testing.T) {
	def, err := ParseDefinitionBytes([]byte(spellDefinitions))
	testingpkg.Ok(t, err)
	c := NewCatalog()
	testingpkg.Ok(t, c.AddDefinitions(def, "test"))
	testingpkg.Equals(t, 3, c.Count())
	testingpkg.Equals(t, []string{"Map", "Spell"}, c.TableNames())

	meta, err := c.GetTableByName("spell", 12340)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, 3, len(meta.Descriptors()))

	meta, err = c.GetTableByName("Spell", 15595)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, 4, len(meta.Descriptors()))

	_, err = c.GetTableByName("Spell", 13000)
	testingpkg.Nok(t, err)
	_, err = c.GetTableByName("Item", 12340)
	testingpkg.Nok(t, err)

	// a definition without builds applies everywhere
	meta, err = c.GetTableByName("Map", 0)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, uint32(16), meta.Descriptors()[1].Length)

	// callers may modify what they get back
	descs := meta.Descriptors()
	descs[0].Name = "Changed"
	testingpkg.Equals(t, "ID", meta.Descriptors()[0].Name)

	var ci catalog_interface.CatalogInterface = c
	descs, err = ci.GetDescriptors("Spell", 12340)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, "Effects", descs[2].Name)
}

func TestCatalogAmbiguousAndReplace(t *testing.T) {
	c := NewCatalog()
	one := &DefinitionFile{Version: 1, Tables: []TableConfig{
		{Name: "Item", MinBuild: 100, Fields: []FieldConfig{{Name: "ID", Type: "int"}}},
		{Name: "Item", MinBuild: 200, MaxBuild: 300, Fields: []FieldConfig{{Name: "ID", Type: "int"}}},
	}}
	testingpkg.Ok(t, c.AddDefinitions(one, "one"))
	_, err := c.GetTableByName("Item", 250)
	testingpkg.Nok(t, err)
	meta, err := c.GetTableByName("Item", 150)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, "one", meta.Source())

	two := &DefinitionFile{Version: 1, Tables: []TableConfig{
		{Name: "Item", MinBuild: 100, Fields: []FieldConfig{{Name: "ID", Type: "uint"}}},
	}}
	testingpkg.Ok(t, c.AddDefinitions(two, "two"))
	testingpkg.Equals(t, 2, c.Count())
	meta, err = c.GetTableByName("Item", 150)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, "two", meta.Source())
	testingpkg.Equals(t, types.UInt32, meta.Descriptors()[0].Kind)
}

func TestLoadCatalogDirectory(t *testing.T) {
	dir := t.TempDir()
	testingpkg.Ok(t, os.WriteFile(filepath.Join(dir, "spell.yaml"), []byte(spellDefinitions), 0o644))
	testingpkg.Ok(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("not a definition"), 0o644))
	testingpkg.Ok(t, os.Mkdir(filepath.Join(dir, "nested.yml"), 0o755))

	c, err := LoadCatalog(dir)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, 3, c.Count())

	testingpkg.Ok(t, os.WriteFile(filepath.Join(dir, "broken.yml"), []byte("version: 7\n"), 0o644))
	_, err = LoadCatalog(dir)
	testingpkg.Nok(t, err)

	_, err = LoadCatalog(filepath.Join(dir, "missing"))
	testingpkg.Nok(t, err)
}
