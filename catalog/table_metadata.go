package catalog

import (
	"github.com/ryogrid/wdbx/storage/table/column"
)

// matchRank orders how specifically a definition names a build.
type matchRank int

const (
	noMatch matchRank = iota
	matchAnyBuild
	matchBuildRange
	matchExactBuild
)

// TableMetadata is the field definition of one table for a set of builds.
type TableMetadata struct {
	name        string
	builds      []uint32
	minBuild    uint32
	maxBuild    uint32
	descriptors []column.FieldDescriptor
	source      string
}

func (t *TableMetadata) GetName() string {
	return t.name
}

// Descriptors returns a copy of the field list, which callers may modify.
func (t *TableMetadata) Descriptors() []column.FieldDescriptor {
	ret := make([]column.FieldDescriptor, len(t.descriptors))
	copy(ret, t.descriptors)
	return ret
}

// Source is the definition file the table came from.
func (t *TableMetadata) Source() string {
	return t.source
}

func (t *TableMetadata) rank(build uint32) matchRank {
	if len(t.builds) > 0 {
		for _, b := range t.builds {
			if b == build {
				return matchExactBuild
			}
		}
		return noMatch
	}
	if t.minBuild == 0 && t.maxBuild == 0 {
		return matchAnyBuild
	}
	if build >= t.minBuild && (t.maxBuild == 0 || build <= t.maxBuild) {
		return matchBuildRange
	}
	return noMatch
}
