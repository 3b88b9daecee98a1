package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ryogrid/wdbx/common"
	"github.com/ryogrid/wdbx/storage/table/column"
)

// Catalog holds the field definitions known to the process, keyed by table name and
// build. Table names compare case-insensitively.
// A Catalog is filled once and then only read, so lookups need no latch.
type Catalog struct {
	tables map[string][]*TableMetadata
}

func NewCatalog() *Catalog {
	return &Catalog{make(map[string][]*TableMetadata)}
}

// LoadCatalog reads every .yaml and .yml file of dir, in name order.
func LoadCatalog(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition directory: %w", err)
	}
	c := NewCatalog()
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		if err := c.AddFile(filepath.Join(dir, name)); err != nil {
			return nil, err
		}
	}
	common.ShPrintf(common.INFO, "loaded %d table definitions from %d files in %s\n", c.Count(), len(names), dir)
	return c, nil
}

// AddFile parses a definition file and adds its tables.
func (c *Catalog) AddFile(path string) error {
	def, err := ParseDefinitionFile(path)
	if err != nil {
		return err
	}
	return c.AddDefinitions(def, path)
}

// AddDefinitions adds the tables of a parsed definition file. A later definition for a
// table and build set identical to an earlier one replaces it.
func (c *Catalog) AddDefinitions(def *DefinitionFile, source string) error {
	for i := range def.Tables {
		tbl := &def.Tables[i]
		descs, err := tbl.Descriptors()
		if err != nil {
			return fmt.Errorf("%s: table %q: %w", source, tbl.Name, err)
		}
		meta := &TableMetadata{
			name:        tbl.Name,
			builds:      append([]uint32(nil), tbl.Builds...),
			minBuild:    tbl.MinBuild,
			maxBuild:    tbl.MaxBuild,
			descriptors: descs,
			source:      source,
		}
		c.CreateTable(meta)
	}
	return nil
}

// CreateTable registers a table definition.
func (c *Catalog) CreateTable(meta *TableMetadata) {
	key := strings.ToLower(meta.name)
	list := c.tables[key]
	for i, old := range list {
		if sameBuilds(old, meta) {
			common.ShPrintf(common.DEBUG_INFO, "definition of %s from %s replaces %s\n", meta.name, meta.source, old.source)
			list[i] = meta
			return
		}
	}
	c.tables[key] = append(list, meta)
}

func sameBuilds(a *TableMetadata, b *TableMetadata) bool {
	if a.minBuild != b.minBuild || a.maxBuild != b.maxBuild || len(a.builds) != len(b.builds) {
		return false
	}
	for i := range a.builds {
		if a.builds[i] != b.builds[i] {
			return false
		}
	}
	return true
}

// GetTableByName returns the definition of table for build. A definition listing the
// build wins over one whose range covers it, which wins over one without builds. Two
// equally specific candidates are ambiguous.
func (c *Catalog) GetTableByName(table string, build uint32) (*TableMetadata, error) {
	var best *TableMetadata
	bestRank := noMatch
	ambiguous := false
	for _, meta := range c.tables[strings.ToLower(table)] {
		r := meta.rank(build)
		switch {
		case r == noMatch:
		case r > bestRank:
			best, bestRank, ambiguous = meta, r, false
		case r == bestRank:
			ambiguous = true
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no field definition for table %q at build %d", table, build)
	}
	if ambiguous {
		return nil, fmt.Errorf("more than one field definition for table %q matches build %d", table, build)
	}
	return best, nil
}

// GetDescriptors implements catalog_interface.CatalogInterface.
func (c *Catalog) GetDescriptors(table string, build uint32) ([]column.FieldDescriptor, error) {
	meta, err := c.GetTableByName(table, build)
	if err != nil {
		return nil, err
	}
	return meta.Descriptors(), nil
}

// Count is the number of table definitions.
func (c *Catalog) Count() int {
	n := 0
	for _, list := range c.tables {
		n += len(list)
	}
	return n
}

// TableNames lists the defined tables in name order.
func (c *Catalog) TableNames() []string {
	ret := make([]string, 0, len(c.tables))
	for _, list := range c.tables {
		ret = append(ret, list[0].name)
	}
	sort.Strings(ret)
	return ret
}
