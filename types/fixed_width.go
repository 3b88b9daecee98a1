// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package types

import (
	"encoding/binary"
)

// Word16 and Word32 are the raw little endian words of the table file blocks which hold
// no cells: index tables, copy entries, the legacy id index.
type Word16 uint16
type Word32 uint32

// Serialize casts it to []byte
func (w Word16) Serialize() []byte {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, uint16(w))
	return buf
}

func NewWord16FromBytes(data []byte) Word16 {
	return Word16(binary.LittleEndian.Uint16(data))
}

// Serialize casts it to []byte
func (w Word32) Serialize() []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(w))
	return buf
}

func NewWord32FromBytes(data []byte) Word32 {
	return Word32(binary.LittleEndian.Uint32(data))
}
