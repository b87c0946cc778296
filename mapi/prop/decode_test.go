package prop

import (
	"math"
	"runtime"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/mapikit/internal/testutil"
	"github.com/joshuapare/mapikit/mapi/alloc"
	"github.com/joshuapare/mapikit/mapi/sys"
)

func TestDecodeScalars(t *testing.T) {
	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		set  func(v *SPropValue)
		want Value
	}{
		{"null", func(v *SPropValue) { v.PropTag = NewTag(PT_NULL, 1) }, Null{}},
		{"short", func(v *SPropValue) { SetScalar(v, NewTag(PT_I2, 1), int16(-7)) }, Short(-7)},
		{"long", func(v *SPropValue) { SetScalar(v, NewTag(PT_LONG, 1), int32(1<<30)) }, Long(1 << 30)},
		{"float", func(v *SPropValue) { SetScalar(v, NewTag(PT_R4, 1), float32(1.5)) }, Float(1.5)},
		{"double", func(v *SPropValue) { SetScalar(v, NewTag(PT_DOUBLE, 1), math.Pi) }, Double(math.Pi)},
		{"boolean", func(v *SPropValue) { SetScalar(v, NewTag(PT_BOOLEAN, 1), uint16(1)) }, Boolean(true)},
		{"currency", func(v *SPropValue) { SetScalar(v, NewTag(PT_CURRENCY, 1), int64(123456)) }, Currency(123456)},
		{"apptime", func(v *SPropValue) { SetScalar(v, NewTag(PT_APPTIME, 1), 45000.5) }, AppTime(45000.5)},
		{"systime", func(v *SPropValue) { SetScalar(v, NewTag(PT_SYSTIME, 1), NewFILETIME(when)) }, FileTime(NewFILETIME(when))},
		{"i8", func(v *SPropValue) { SetScalar(v, NewTag(PT_I8, 1), int64(-1)) }, LargeInteger(-1)},
		{"error", func(v *SPropValue) { SetScalar(v, NewTag(PT_ERROR, 1), int32(sys.MAPI_E_NOT_FOUND)) }, Error{Status: sys.MAPI_E_NOT_FOUND}},
		{"object", func(v *SPropValue) { SetScalar(v, NewTag(PT_OBJECT, 1), int32(9)) }, Object(9)},
		{"unknown type", func(v *SPropValue) { v.PropTag = Tag(0x00010009) }, Error{Status: sys.E_INVALIDARG}},
		{"mv instance ignored", func(v *SPropValue) {
			SetScalar(v, NewTag(PT_LONG|MV_INSTANCE, 1), int32(5))
		}, Long(5)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var v SPropValue
			tc.set(&v)
			assert.Equal(t, tc.want, Decode(&v))
		})
	}

	var v SPropValue
	SetScalar(&v, NewTag(PT_SYSTIME, 1), NewFILETIME(when))
	ft, ok := Decode(&v).(FileTime)
	require.True(t, ok)
	assert.Equal(t, when, ft.Time())
}

func TestDecodeNilPointers(t *testing.T) {
	for _, pt := range []Type{PT_STRING8, PT_UNICODE, PT_CLSID} {
		var v SPropValue
		v.SetPointer(NewTag(pt, 1), nil)
		assert.Equal(t, Error{Status: sys.E_POINTER}, Decode(&v), pt.String())
	}
	for _, pt := range []Type{PT_BINARY, PT_MV_LONG, PT_MV_BINARY, PT_MV_UNICODE, PT_MV_STRING8, PT_MV_I8} {
		var v SPropValue
		v.SetCounted(NewTag(pt, 1), 3, nil)
		assert.Equal(t, Error{Status: sys.E_POINTER}, Decode(&v), pt.String())
	}
}

func TestDecodeStrings(t *testing.T) {
	ansi := []byte("caf\xe9\x00")
	wide := []uint16{'h', 0xE9, 'l', 'l', 'o', 0}

	var v SPropValue
	v.SetPointer(NewTag(PT_STRING8, 0x0037), unsafe.Pointer(&ansi[0]))
	assert.Equal(t, AnsiString("café"), Decode(&v))

	v.SetPointer(NewTag(PT_UNICODE, 0x0037), unsafe.Pointer(&wide[0]))
	assert.Equal(t, Unicode("héllo"), Decode(&v))

	empty := []uint16{0}
	v.SetPointer(NewTag(PT_UNICODE, 0x0037), unsafe.Pointer(&empty[0]))
	assert.Equal(t, Unicode(""), Decode(&v))
	runtime.KeepAlive(ansi)
	runtime.KeepAlive(wide)
	runtime.KeepAlive(empty)
}

func TestDecodeArrays(t *testing.T) {
	longs := []int32{1, -2, 3}
	var v SPropValue
	v.SetCounted(NewTag(PT_MV_LONG, 1), uint32(len(longs)), unsafe.Pointer(&longs[0]))
	got := Decode(&v)
	assert.Equal(t, LongArray{1, -2, 3}, got)

	// Decoded arrays are copies.
	longs[0] = 100
	assert.Equal(t, LongArray{1, -2, 3}, got)

	bin := []byte{0xDE, 0xAD}
	v.SetCounted(NewTag(PT_BINARY, 1), 2, unsafe.Pointer(&bin[0]))
	assert.Equal(t, Binary{0xDE, 0xAD}, Decode(&v))

	bins := []SBinary{{Cb: 2, Lpb: unsafe.Pointer(&bin[0])}, {Cb: 1, Lpb: unsafe.Pointer(&bin[1])}}
	v.SetCounted(NewTag(PT_MV_BINARY, 1), 2, unsafe.Pointer(&bins[0]))
	assert.Equal(t, BinaryArray{{0xDE, 0xAD}, {0xAD}}, Decode(&v))

	bins[1].Lpb = nil
	assert.Equal(t, Error{Status: sys.E_POINTER}, Decode(&v), "a nil element pointer fails the whole array")

	a, b := []uint16{'a', 0}, []uint16{'b', 'c', 0}
	strs := []unsafe.Pointer{unsafe.Pointer(&a[0]), unsafe.Pointer(&b[0])}
	v.SetCounted(NewTag(PT_MV_UNICODE, 1), 2, unsafe.Pointer(&strs[0]))
	assert.Equal(t, UnicodeArray{"a", "bc"}, Decode(&v))

	guids := []GUID{{Data1: 1}, {Data1: 2}}
	v.SetCounted(NewTag(PT_MV_CLSID, 1), 2, unsafe.Pointer(&guids[0]))
	assert.Equal(t, ClassIDArray{{Data1: 1}, {Data1: 2}}, Decode(&v))

	v.SetCounted(NewTag(PT_MV_I8, 1), 0, unsafe.Pointer(&guids[0]))
	assert.Equal(t, LargeIntegerArray{}, Decode(&v))
	runtime.KeepAlive(longs)
	runtime.KeepAlive(bins)
	runtime.KeepAlive(strs)
	runtime.KeepAlive(a)
	runtime.KeepAlive(b)
}

func TestDecodeOverflowingCount(t *testing.T) {
	if unsafe.Sizeof(uintptr(0)) != 4 {
		t.Skip("a 32-bit count cannot overflow a 64-bit length")
	}
	var x GUID
	var v SPropValue
	v.SetCounted(NewTag(PT_MV_CLSID, 1), math.MaxUint32, unsafe.Pointer(&x))
	assert.Equal(t, Error{Status: sys.E_INVALIDARG}, Decode(&v))

	v.SetCounted(NewTag(PT_BINARY, 2), math.MaxUint32, unsafe.Pointer(&x))
	assert.Equal(t, Error{Status: sys.E_INVALIDARG}, Decode(&v))
}

// Values built in MAPI memory: the array is a root, the strings it points to
// are chained to it.
func TestDecodeBuffer(t *testing.T) {
	rec := testutil.NewRecorder()
	defer rec.AssertBalanced(t)

	vals, err := alloc.New[SPropValue](rec, 2)
	require.NoError(t, err)

	name, err := alloc.Chain[uint16](vals, 4)
	require.NoError(t, err)
	require.NoError(t, name.WriteSlice(func(s []uint16) error {
		copy(s, []uint16{'B', 'o', 'b', 0})
		return nil
	}))

	require.NoError(t, vals.WriteSlice(func(s []SPropValue) error {
		s[0].SetPointer(NewTag(PT_UNICODE, 0x3001), name.Ptr())
		SetScalar(&s[1], NewTag(PT_LONG, 0x0E08), int32(2048))
		return nil
	}))
	require.NoError(t, name.Close())

	ready := vals.AssumeInit()
	decoded, err := DecodeBuffer(ready)
	require.NoError(t, err)
	assert.Equal(t, []Value{Unicode("Bob"), Long(2048)}, decoded)
	require.NoError(t, ready.Close())

	_, err = DecodeBuffer(ready)
	assert.ErrorIs(t, err, alloc.ErrReleased)
}

func TestGUIDString(t *testing.T) {
	g := GUID{Data1: 0x00020328, Data2: 0, Data3: 0, Data4: [8]byte{0xC0, 0, 0, 0, 0, 0, 0, 0x46}}
	assert.Equal(t, "{00020328-0000-0000-C000-000000000046}", g.String())
}
