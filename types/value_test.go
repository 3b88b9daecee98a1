package types

import (
	"math"
	"testing"

	testingpkg "github.com/ryogrid/wdbx/testing/testing_assert"
)

func TestNewValueFromBytesSignExtension(t *testing.T) {
	// 3 byte packed int32 holding -2
	v := NewValueFromBytes([]byte{0xfe, 0xff, 0xff}, Int32)
	testingpkg.SimpleAssert(t, v != nil)
	testingpkg.Equals(t, int32(-2), v.ToInteger())

	// same bytes as unsigned
	u := NewValueFromBytes([]byte{0xfe, 0xff, 0xff}, UInt32)
	testingpkg.Equals(t, uint32(0xfffffe), u.ToUInt32())

	b := NewValueFromBytes([]byte{0x80}, Int8)
	testingpkg.Equals(t, int64(-128), b.ToInt64())
}

func TestSerializeToRoundTrip(t *testing.T) {
	cases := []struct {
		v     Value
		width int
	}{
		{NewInt8(-5), 1},
		{NewUInt8(200), 1},
		{NewInt16(-3000), 2},
		{NewUInt16(65000), 2},
		{NewInteger(-123456), 4},
		{NewInteger(-123456), 3},
		{NewUInt32(0xdeadbeef), 4},
		{NewInt64(math.MinInt64), 8},
		{NewUInt64(math.MaxUint64), 8},
		{NewFloat(3.5), 4},
		{NewByteArray([]byte{1, 2, 3}), 3},
	}
	for _, c := range cases {
		buf := make([]byte, c.width)
		testingpkg.Assert(t, c.v.SerializeTo(buf), "%v should fit in %d bytes", c.v.ToString(), c.width)
		got := NewValueFromBytes(buf, c.v.ValueType())
		testingpkg.SimpleAssert(t, got != nil)
		testingpkg.Assert(t, c.v.CompareEquals(*got), "%s != %s", c.v.ToString(), got.ToString())
	}
}

func TestFits(t *testing.T) {
	testingpkg.SimpleAssert(t, NewInteger(8388607).Fits(3))
	testingpkg.SimpleAssert(t, !NewInteger(8388608).Fits(3))
	testingpkg.SimpleAssert(t, NewInteger(-8388608).Fits(3))
	testingpkg.SimpleAssert(t, !NewUInt32(256).Fits(1))
	testingpkg.SimpleAssert(t, !NewFloat(1).Fits(2))
	testingpkg.SimpleAssert(t, !NewByteArray([]byte{1}).Fits(2))

	buf := make([]byte, 1)
	testingpkg.SimpleAssert(t, !NewUInt16(300).SerializeTo(buf))
}

func TestCompareEquals(t *testing.T) {
	testingpkg.SimpleAssert(t, NewVarchar("Fire").CompareEquals(NewVarchar("Fire")))
	testingpkg.SimpleAssert(t, !NewVarchar("Fire").CompareEquals(NewVarchar("Ice")))
	testingpkg.SimpleAssert(t, !NewInteger(1).CompareEquals(NewUInt32(1)))

	nan := NewFloat(float32(math.NaN()))
	testingpkg.SimpleAssert(t, nan.CompareEquals(nan))
}

func TestZeroValues(t *testing.T) {
	for _, typ := range []TypeID{Int8, UInt8, Int16, UInt16, Int32, UInt32, Int64, UInt64, Float, StringRef} {
		testingpkg.Assert(t, NewZeroValue(typ, 0).IsZero(), "%v zero value", typ)
	}
	testingpkg.SimpleAssert(t, NewZeroValue(ByteArray, 4).IsZero())
	testingpkg.Equals(t, 4, len(NewZeroValue(ByteArray, 4).ToBytes()))
	testingpkg.SimpleAssert(t, !NewInteger(-1).IsZero())
}

func TestTypeIDFromName(t *testing.T) {
	typ, ok := TypeIDFromName(" UInt ")
	testingpkg.SimpleAssert(t, ok)
	testingpkg.Equals(t, UInt32, typ)

	_, ok = TypeIDFromName("decimal")
	testingpkg.SimpleAssert(t, !ok)

	testingpkg.Equals(t, uint32(8), UInt64.Size())
	testingpkg.Equals(t, "string", StringRef.String())
}

func TestSerializeDistinguishesTypes(t *testing.T) {
	a := NewInteger(1).Serialize()
	b := NewUInt32(1).Serialize()
	testingpkg.SimpleAssert(t, string(a) != string(b))
	testingpkg.Equals(t, uint32(7), uint32(NewWord32FromBytes(Word32(7).Serialize())))
	testingpkg.Equals(t, uint16(513), uint16(NewWord16FromBytes(Word16(513).Serialize())))
}
