package testing_tbl_gen

import (
	"fmt"
	"math/rand"

	"github.com/ryogrid/wdbx/storage/format"
	"github.com/ryogrid/wdbx/storage/table"
	"github.com/ryogrid/wdbx/storage/table/column"
	"github.com/ryogrid/wdbx/storage/tuple"
	"github.com/ryogrid/wdbx/types"
)

type ColumnInsertMeta struct {
	/**
	 * Name of the column
	 */
	Name_ string
	/**
	 * Type of the column
	 */
	Type_ types.TypeID
	/**
	 * Number of elements of the column
	 */
	ArraySize_ uint32
	/**
	 * Whether the column lives in the sparse block
	 */
	Sparse_ bool
	/**
	 * Distribution of values
	 */
	Dist_ int32
	/**
	 * min value of the column
	 */
	Min_ int64
	/**
	 * max value of the column
	 */
	Max_ int64
	/**
	 * Counter to generate serial data
	 */
	Serial_counter_ int64
}

type TableInsertMeta struct {
	/**
	 * Name of the table
	 */
	Name_ string
	/**
	 * Number of rows
	 */
	Num_rows_ uint32
	/**
	 * Columns, the first one is the key
	 */
	Col_meta_ []*ColumnInsertMeta
}

const DistSerial int32 = 0
const DistUniform int32 = 1

// DistMostlyZero gives zero for three of four values, like the fields of sparse blocks.
const DistMostlyZero int32 = 2

const TEST1_SIZE uint32 = 1000
const TEST2_SIZE uint32 = 100

// small pool so that strings and whole rows repeat
var stringPool = []string{"", "Fire", "Ice", "Arcane", "Shadow", "Nature", "Holy", "áé&@#+\\çç"}

func genInteger(col_meta *ColumnInsertMeta, rnd *rand.Rand) int64 {
	switch col_meta.Dist_ {
	case DistSerial:
		v := col_meta.Serial_counter_
		col_meta.Serial_counter_++
		return v
	case DistMostlyZero:
		if rnd.Intn(4) != 0 {
			return 0
		}
	}
	return col_meta.Min_ + rnd.Int63n(col_meta.Max_-col_meta.Min_+1)
}

func MakeValue(col_meta *ColumnInsertMeta, rnd *rand.Rand) types.Value {
	switch {
	case col_meta.Type_.IsInteger():
		return types.NewIntegerValue(col_meta.Type_, genInteger(col_meta, rnd))
	case col_meta.Type_ == types.Float:
		return types.NewFloat(float32(genInteger(col_meta, rnd)) / 4)
	case col_meta.Type_ == types.StringRef:
		if col_meta.Dist_ == DistMostlyZero && rnd.Intn(4) != 0 {
			return types.NewVarchar("")
		}
		return types.NewVarchar(stringPool[rnd.Intn(len(stringPool))])
	default:
		panic("Not yet implemented")
	}
}

// Descriptors returns the field definition matching the insert meta.
func Descriptors(table_meta *TableInsertMeta) []column.FieldDescriptor {
	descs := make([]column.FieldDescriptor, 0, len(table_meta.Col_meta_))
	for i, col_meta := range table_meta.Col_meta_ {
		descs = append(descs, column.FieldDescriptor{
			Name:      col_meta.Name_,
			Kind:      col_meta.Type_,
			ArraySize: col_meta.ArraySize_,
			IsKey:     i == 0,
			Sparse:    col_meta.Sparse_,
		})
	}
	return descs
}

func FillTable(tf *table.TableFile, table_meta *TableInsertMeta, rnd *rand.Rand) {
	for num_inserted := uint32(0); num_inserted < table_meta.Num_rows_; num_inserted++ {
		var entry []types.Value
		for _, col_meta := range table_meta.Col_meta_ {
			n := col_meta.ArraySize_
			if n == 0 {
				n = 1
			}
			for i := uint32(0); i < n; i++ {
				entry = append(entry, MakeValue(col_meta, rnd))
			}
		}
		if err := tf.InsertRow(tuple.NewTuple(entry)); err != nil {
			fmt.Printf("InsertRow failed on FillTable err = %v", err)
			panic("InsertRow failed on FillTable!")
		}
	}
}

// ItemTableMeta describes a table with every supported kind. Sparse columns are only
// declared for WDB6.
func ItemTableMeta(variant format.Variant, numRows uint32) *TableInsertMeta {
	cols := []*ColumnInsertMeta{
		{"ID", types.UInt32, 1, false, DistSerial, 0, 0, 1},
		{"Name", types.StringRef, 1, false, DistUniform, 0, 0, 0},
		{"Quality", types.UInt8, 1, false, DistUniform, 0, 3, 0},
		{"Level", types.Int16, 1, false, DistUniform, -2, 2, 0},
		{"Stats", types.Int32, 3, false, DistUniform, -1, 1, 0},
		{"Scale", types.Float, 1, false, DistUniform, 0, 2, 0},
	}
	if variant.HasFieldStructure() {
		cols = append(cols, &ColumnInsertMeta{"Flags", types.UInt64, 1, false, DistUniform, 0, 1, 0})
	} else {
		cols = append(cols, &ColumnInsertMeta{"Flags", types.Int64, 1, false, DistUniform, -1, 0, 0})
	}
	if variant.HasSparseBlock() {
		cols = append(cols,
			&ColumnInsertMeta{"Bonus", types.Int8, 1, true, DistMostlyZero, -5, 5, 0},
			&ColumnInsertMeta{"Note", types.StringRef, 1, true, DistMostlyZero, 0, 0, 0},
			&ColumnInsertMeta{"Rate", types.Float, 1, true, DistMostlyZero, 1, 8, 0},
			&ColumnInsertMeta{"Group", types.UInt16, 1, true, DistMostlyZero, 1, 900, 0},
		)
	}
	return &TableInsertMeta{"Item", numRows, cols}
}

// GenerateTestTable creates a filled table of the given variant. The same seed gives the
// same rows.
func GenerateTestTable(variant format.Variant, build uint32, numRows uint32, seed int64) (*table.TableFile, error) {
	meta := ItemTableMeta(variant, numRows)
	tf, err := table.NewTableFile(variant, build, Descriptors(meta))
	if err != nil {
		return nil, err
	}
	tf.SetTableName(meta.Name_)
	FillTable(tf, meta, rand.New(rand.NewSource(seed)))
	return tf, nil
}

// BuildFor returns a build number consistent with the variant.
func BuildFor(variant format.Variant) uint32 {
	switch variant {
	case format.WDB2:
		return 12340
	case format.WDB2Ext:
		return 15595
	}
	return 0
}
