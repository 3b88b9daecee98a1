package format

// Variant is one of the supported table file layouts. The set is closed and every
// switch over it is exhaustive.
type Variant int

const (
	VariantInvalid Variant = iota
	WDBC
	WDB2    // 28 byte header, builds up to 12880
	WDB2Ext // 48 byte header with id range, later builds
	WDB5
	WDB6
)

var AllVariants = []Variant{WDBC, WDB2, WDB2Ext, WDB5, WDB6}

func (v Variant) String() string {
	switch v {
	case WDBC:
		return "WDBC"
	case WDB2:
		return "WDB2"
	case WDB2Ext:
		return "WDB2 (extended)"
	case WDB5:
		return "WDB5"
	case WDB6:
		return "WDB6"
	}
	return "invalid"
}

func (v Variant) Signature() string {
	switch v {
	case WDBC:
		return "WDBC"
	case WDB2, WDB2Ext:
		return "WDB2"
	case WDB5:
		return "WDB5"
	case WDB6:
		return "WDB6"
	}
	return ""
}

// HeaderSize is the size of the fixed part of the header, without the field structure.
func (v Variant) HeaderSize() uint32 {
	switch v {
	case WDBC:
		return 20
	case WDB2:
		return 28
	case WDB2Ext, WDB5:
		return 48
	case WDB6:
		return 56
	}
	return 0
}

func (v Variant) HasStringBlock() bool {
	switch v {
	case WDBC, WDB2, WDB2Ext, WDB5, WDB6:
		return true
	}
	return false
}

// HasIDRange reports whether the header carries min id, max id and locale.
func (v Variant) HasIDRange() bool {
	switch v {
	case WDB2Ext, WDB5, WDB6:
		return true
	}
	return false
}

// HasFieldStructure reports whether a bit width table follows the header.
func (v Variant) HasFieldStructure() bool {
	switch v {
	case WDB5, WDB6:
		return true
	}
	return false
}

// HasLegacyIndex reports whether an id range in the header implies an id index and
// a string length table between the header and the records.
func (v Variant) HasLegacyIndex() bool {
	switch v {
	case WDB2Ext:
		return true
	}
	return false
}

func (v Variant) HasCopyBlock() bool {
	switch v {
	case WDB5, WDB6:
		return true
	}
	return false
}

func (v Variant) HasSparseBlock() bool {
	switch v {
	case WDB6:
		return true
	}
	return false
}

// SupportsIndexTable reports whether ids may live outside the records (flag 0x4).
func (v Variant) SupportsIndexTable() bool {
	switch v {
	case WDB5, WDB6:
		return true
	}
	return false
}
