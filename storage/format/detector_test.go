package format

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/ryogrid/wdbx/common"
	testingpkg "github.com/ryogrid/wdbx/testing/testing_assert"
)

func wdb2Prefix(build uint32) []byte {
	buf := make([]byte, 28)
	copy(buf, "WDB2")
	binary.LittleEndian.PutUint32(buf[24:], build)
	return buf
}

func TestDetectVariant(t *testing.T) {
	cases := []struct {
		data []byte
		exp  Variant
	}{
		{[]byte("WDBC"), WDBC},
		{[]byte("WDB5"), WDB5},
		{[]byte("WDB6xxxx"), WDB6},
		{wdb2Prefix(12340), WDB2},
		{wdb2Prefix(12880), WDB2},
		{wdb2Prefix(15595), WDB2Ext},
	}
	for _, c := range cases {
		v, err := DetectVariant(c.data)
		testingpkg.Ok(t, err)
		testingpkg.Equals(t, c.exp, v)
	}
}

func TestDetectVariantRejects(t *testing.T) {
	_, err := DetectVariant([]byte("WDBX0000"))
	testingpkg.ErrorIs(t, err, common.ErrUnrecognizedFormat)

	_, err = DetectVariant([]byte("WD"))
	testingpkg.ErrorIs(t, err, common.ErrTruncatedStream)

	// WDB2 needs the build field to pick a header shape
	_, err = DetectVariant(wdb2Prefix(12340)[:20])
	testingpkg.ErrorIs(t, err, common.ErrTruncatedStream)
}

func TestSniffRewinds(t *testing.T) {
	data := append(wdb2Prefix(15595), make([]byte, 40)...)
	r := bytes.NewReader(data)
	v, err := Sniff(r)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, WDB2Ext, v)

	pos, err := r.Seek(0, io.SeekCurrent)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, int64(0), pos)

	_, err = Sniff(bytes.NewReader([]byte("WDBC")))
	testingpkg.Ok(t, err)
}
