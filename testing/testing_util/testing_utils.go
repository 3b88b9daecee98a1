// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package testing_util

import (
	"github.com/ryogrid/wdbx/storage/table"
	"github.com/ryogrid/wdbx/storage/tuple"
	"github.com/ryogrid/wdbx/types"
)

func GetValue(data interface{}) (value types.Value) {
	switch v := data.(type) {
	case int:
		value = types.NewInteger(int32(v))
	case int8:
		value = types.NewInt8(v)
	case uint8:
		value = types.NewUInt8(v)
	case int16:
		value = types.NewInt16(v)
	case uint16:
		value = types.NewUInt16(v)
	case int32:
		value = types.NewInteger(v)
	case uint32:
		value = types.NewUInt32(v)
	case int64:
		value = types.NewInt64(v)
	case uint64:
		value = types.NewUInt64(v)
	case float32:
		value = types.NewFloat(v)
	case string:
		value = types.NewVarchar(v)
	case []byte:
		value = types.NewByteArray(v)
	case *types.Value:
		return *v
	case types.Value:
		return v
	}
	return
}

func GetValueType(data interface{}) (value types.TypeID) {
	switch data.(type) {
	case int, int32:
		return types.Int32
	case int8:
		return types.Int8
	case uint8:
		return types.UInt8
	case int16:
		return types.Int16
	case uint16:
		return types.UInt16
	case uint32:
		return types.UInt32
	case int64:
		return types.Int64
	case uint64:
		return types.UInt64
	case float32:
		return types.Float
	case string:
		return types.StringRef
	case []byte:
		return types.ByteArray
	case *types.Value:
		val := data.(*types.Value)
		return val.ValueType()
	}
	panic("not implemented")
}

// Row builds a tuple from Go values, one per cell.
func Row(data ...interface{}) *tuple.Tuple {
	values := make([]types.Value, len(data))
	for i, d := range data {
		values[i] = GetValue(d)
	}
	return tuple.NewTuple(values)
}

// RowsByID indexes the rows of a table by id, for comparisons which ignore row order.
func RowsByID(tf *table.TableFile) map[uint32]*tuple.Tuple {
	ret := make(map[uint32]*tuple.Tuple, tf.RowCount())
	for it := tf.Begin(); !it.End(); it.Next() {
		ret[it.Current().GetKey(tf.GetSchema())] = it.Current()
	}
	return ret
}

// SameRows reports whether both tables hold the same ids with equal cells.
func SameRows(a *table.TableFile, b *table.TableFile) bool {
	ra, rb := RowsByID(a), RowsByID(b)
	if len(ra) != len(rb) || a.RowCount() != b.RowCount() {
		return false
	}
	for id, row := range ra {
		other, ok := rb[id]
		if !ok || !row.CompareEquals(other) {
			return false
		}
	}
	return true
}
