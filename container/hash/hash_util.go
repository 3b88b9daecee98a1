package hash

import (
	"github.com/ryogrid/wdbx/types"
	"github.com/spaolacci/murmur3"
)

// FingerprintCells hashes every cell but the one at skip (-1 hashes all of them).
// Rows with equal content have equal fingerprints; equal fingerprints still need a
// full comparison.
func FingerprintCells(cells []types.Value, skip int) uint64 {
	h := murmur3.New64()
	for i := range cells {
		if i == skip {
			continue
		}
		h.Write(cells[i].Serialize())
	}
	return h.Sum64()
}
