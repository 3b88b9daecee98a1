package format

import (
	"encoding/binary"
	"io"

	"github.com/ryogrid/wdbx/common"
)

// DetectVariant selects the layout from the leading bytes of a file. WDB2 is shared by
// two header shapes and is told apart by the build field which both of them carry.
func DetectVariant(data []byte) (Variant, error) {
	if len(data) < common.SignatureSize {
		return VariantInvalid, common.NewCodecError(common.TruncatedStream, "signature", 0,
			"need %d bytes to detect the format", common.SignatureSize).
			WithSizes(common.SignatureSize, int64(len(data)))
	}

	switch sig := string(data[:common.SignatureSize]); sig {
	case "WDBC":
		return WDBC, nil
	case "WDB2":
		if len(data) < common.DetectBytesMax {
			return VariantInvalid, common.NewCodecError(common.TruncatedStream, "build", common.WDB2BuildFieldOffset,
				"WDB2 header is shorter than its build field").
				WithSizes(common.DetectBytesMax, int64(len(data)))
		}
		build := binary.LittleEndian.Uint32(data[common.WDB2BuildFieldOffset:])
		if build > common.WDB2ExtendedHeaderBuild {
			return WDB2Ext, nil
		}
		return WDB2, nil
	case "WDB5":
		return WDB5, nil
	case "WDB6":
		return WDB6, nil
	default:
		return VariantInvalid, common.NewCodecError(common.UnrecognizedFormat, "signature", 0,
			"signature %q is not a supported table format", sig)
	}
}

// Sniff detects the variant of a stream and seeks back to where the stream was, so the
// header can be decoded from its first byte afterwards.
func Sniff(r io.ReadSeeker) (Variant, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return VariantInvalid, err
	}
	buf := make([]byte, common.DetectBytesMax)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return VariantInvalid, err
	}
	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return VariantInvalid, err
	}
	return DetectVariant(buf[:n])
}
