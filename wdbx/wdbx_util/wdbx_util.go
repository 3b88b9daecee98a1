package wdbx_util

import (
	"path"
	"strings"

	"github.com/ryogrid/wdbx/storage/table/schema"
	"github.com/ryogrid/wdbx/storage/tuple"
	"github.com/ryogrid/wdbx/types"
)

// TableNameFromPath derives the table name from a file name: the base name without its
// extension. Archive style paths with backslashes are accepted.
func TableNameFromPath(p string) string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	if ext := path.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// ConvRowToStrings renders the cells of a row in column order. Array elements are
// separated by commas.
func ConvRowToStrings(schema_ *schema.Schema, tuple_ *tuple.Tuple) []string {
	ret := make([]string, 0, schema_.GetColumnCount())
	for idx := uint32(0); idx < schema_.GetColumnCount(); idx++ {
		vals := tuple_.GetArray(schema_, idx)
		parts := make([]string, len(vals))
		for i, v := range vals {
			parts[i] = ValueToString(v)
		}
		ret = append(ret, strings.Join(parts, ","))
	}
	return ret
}

// ValueToString is Value.ToString with control characters in strings escaped, so one
// row stays on one line.
func ValueToString(v types.Value) string {
	if v.ValueType() != types.StringRef {
		return v.ToString()
	}
	return strings.NewReplacer("\\", "\\\\", "\t", "\\t", "\n", "\\n", "\r", "\\r").Replace(v.ToVarchar())
}

// RemoveFromList returns a copy of list without the first occurrence of elem.
func RemoveFromList[T comparable](list []T, elem T) []T {
	list_ := append(make([]T, 0), list...)
	for i, r := range list_ {
		if r == elem {
			list_ = append(list_[:i], list_[i+1:]...)
			break
		}
	}
	return list_
}
