// Parses field definition YAML files.

package catalog

import (
	"errors"
	"fmt"
	"os"

	"github.com/ryogrid/wdbx/storage/table/column"
	"github.com/ryogrid/wdbx/types"
	"gopkg.in/yaml.v3"
)

// DefinitionFile is the top level of a definition file. One file may describe any
// number of tables and builds.
type DefinitionFile struct {
	Version int           `yaml:"version"`
	Tables  []TableConfig `yaml:"tables"`
}

// TableConfig is the layout of one table for a set of builds. A table with neither
// builds nor a build range applies to every build.
type TableConfig struct {
	Name     string        `yaml:"name"`
	Builds   []uint32      `yaml:"builds,omitempty"`
	MinBuild uint32        `yaml:"min_build,omitempty"`
	MaxBuild uint32        `yaml:"max_build,omitempty"` // 0 leaves the range open
	Fields   []FieldConfig `yaml:"fields"`
}

// FieldConfig is one field. Type takes the names understood by types.TypeIDFromName.
type FieldConfig struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Array       uint32 `yaml:"array,omitempty"`
	Length      uint32 `yaml:"length,omitempty"`
	Key         bool   `yaml:"key,omitempty"`
	StringIndex bool   `yaml:"string_index,omitempty"`
	Sparse      bool   `yaml:"sparse,omitempty"`
}

// ParseDefinitionFile reads and parses a definition file.
func ParseDefinitionFile(path string) (*DefinitionFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions: %w", err)
	}
	def, err := ParseDefinitionBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// ParseDefinitionBytes parses a definition file from bytes.
func ParseDefinitionBytes(data []byte) (*DefinitionFile, error) {
	var def DefinitionFile
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse definitions: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("invalid definitions: %w", err)
	}
	return &def, nil
}

// Validate checks the file for what can be told without a table file at hand. Whether a
// definition fits a file is only known once a schema is resolved against its header.
func (d *DefinitionFile) Validate() error {
	if d.Version != 1 {
		return fmt.Errorf("unsupported definition version: %d", d.Version)
	}
	for i := range d.Tables {
		tbl := &d.Tables[i]
		if tbl.Name == "" {
			return fmt.Errorf("table %d: name is required", i)
		}
		if len(tbl.Fields) == 0 {
			return fmt.Errorf("table %q: no fields", tbl.Name)
		}
		if tbl.MaxBuild != 0 && tbl.MinBuild > tbl.MaxBuild {
			return fmt.Errorf("table %q: min_build %d is greater than max_build %d", tbl.Name, tbl.MinBuild, tbl.MaxBuild)
		}
		if len(tbl.Builds) > 0 && (tbl.MinBuild != 0 || tbl.MaxBuild != 0) {
			return errors.New("table " + tbl.Name + ": builds and a build range are exclusive")
		}
		for j := range tbl.Fields {
			if _, err := tbl.Fields[j].Descriptor(); err != nil {
				return fmt.Errorf("table %q, field %d: %w", tbl.Name, j, err)
			}
		}
	}
	return nil
}

// Descriptor converts the field to the form the codec consumes.
func (f *FieldConfig) Descriptor() (column.FieldDescriptor, error) {
	if f.Name == "" {
		return column.FieldDescriptor{}, errors.New("name is required")
	}
	kind, ok := types.TypeIDFromName(f.Type)
	if !ok {
		return column.FieldDescriptor{}, fmt.Errorf("field %q: unknown type %q", f.Name, f.Type)
	}
	return column.FieldDescriptor{
		Name:          f.Name,
		Kind:          kind,
		ArraySize:     f.Array,
		Length:        f.Length,
		IsKey:         f.Key,
		IsStringIndex: f.StringIndex,
		Sparse:        f.Sparse,
	}, nil
}

// Descriptors converts every field of the table.
func (t *TableConfig) Descriptors() ([]column.FieldDescriptor, error) {
	ret := make([]column.FieldDescriptor, 0, len(t.Fields))
	for i := range t.Fields {
		d, err := t.Fields[i].Descriptor()
		if err != nil {
			return nil, err
		}
		ret = append(ret, d)
	}
	return ret, nil
}
