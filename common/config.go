// this code is from https://github.com/pzhzqt/goostub
// there is license and copyright notice in licenses/goostub dir

package common

// set true to dump goroutine stacks on failed assertions
var EnableDebug bool = false

// kinds of log output which are printed by ShPrintf
var LogLevelSetting = INFO | WARN | ERROR | FATAL

const (
	// length of the signature at the head of every table file
	SignatureSize = 4
	// WDB2 files written by builds newer than this carry the extended 48 byte header
	WDB2ExtendedHeaderBuild = 12880
	// bytes which are needed to tell the two WDB2 header shapes apart (signature .. build field)
	DetectBytesMax = 28
	// offset of the build field in both WDB2 header shapes
	WDB2BuildFieldOffset = 24
	// width of every on-disk string block reference
	StringRefSize = 4
	// width of one copy block entry (new id + source id)
	CopyEntrySize = 8
	// width of one sparse block entry (id + value)
	SparseEntrySize = 8
	// largest id range the legacy id index of WDB2 is written for
	LegacyIndexMaxEntries = 1 << 24
	// number of files decoded concurrently by a batch load when not configured
	DefaultLoadParallelism = 4
)
