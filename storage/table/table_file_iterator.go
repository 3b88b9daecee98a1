// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package table

import (
	"github.com/ryogrid/wdbx/storage/tuple"
)

// TableFileIterator is the access method for table files
//
// It iterates through the rows of a table file when Next is called
// The row that it is being pointed to can be accessed with the method Current
type TableFileIterator struct {
	tableFile *TableFile
	pos       int
}

// NewTableFileIterator creates a new iterator for the given table file
// It points to the first row of the table
func NewTableFileIterator(tableFile *TableFile) *TableFileIterator {
	return &TableFileIterator{tableFile, 0}
}

// Current points to the current row
func (it *TableFileIterator) Current() *tuple.Tuple {
	if it.End() {
		return nil
	}
	return it.tableFile.rows[it.pos]
}

// End checks if the iterator is at the end
func (it *TableFileIterator) End() bool {
	return it.pos >= len(it.tableFile.rows)
}

// Next advances the iterator and returns the new current row
func (it *TableFileIterator) Next() *tuple.Tuple {
	if !it.End() {
		it.pos++
	}
	return it.Current()
}
