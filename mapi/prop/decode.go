package prop

import (
	"unsafe"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/joshuapare/mapikit/internal/buf"
	"github.com/joshuapare/mapikit/mapi/alloc"
	"github.com/joshuapare/mapikit/mapi/sys"
)

// Scalar is the set of types stored directly in the value union.
type Scalar interface {
	~int16 | ~uint16 | ~int32 | ~int64 | ~float32 | ~float64 | FILETIME
}

// SetScalar stores x in the value union and sets the tag.
func SetScalar[T Scalar](v *SPropValue, tag Tag, x T) {
	v.PropTag = tag
	v.Value = [2]uintptr{}
	*(*T)(unsafe.Pointer(&v.Value[0])) = x
}

// SetPointer stores a single pointer (strings, PT_CLSID, PT_PTR).
func (v *SPropValue) SetPointer(tag Tag, p unsafe.Pointer) {
	v.PropTag = tag
	v.Value = [2]uintptr{}
	*(*unsafe.Pointer)(unsafe.Pointer(&v.Value[0])) = p
}

// SetCounted stores a count and array pointer (PT_BINARY and PT_MV_*).
func (v *SPropValue) SetCounted(tag Tag, count uint32, p unsafe.Pointer) {
	v.PropTag = tag
	v.Value = [2]uintptr{}
	*(*uint32)(unsafe.Pointer(&v.Value[0])) = count
	*(*unsafe.Pointer)(unsafe.Pointer(&v.Value[1])) = p
}

func scalar[T any](v *SPropValue) T {
	return *(*T)(unsafe.Pointer(&v.Value[0]))
}

func pointer(v *SPropValue) unsafe.Pointer {
	return *(*unsafe.Pointer)(unsafe.Pointer(&v.Value[0]))
}

func counted(v *SPropValue) (uint32, unsafe.Pointer) {
	return *(*uint32)(unsafe.Pointer(&v.Value[0])), *(*unsafe.Pointer)(unsafe.Pointer(&v.Value[1]))
}

var (
	errPointer = Error{Status: sys.E_POINTER}
	errInvalid = Error{Status: sys.E_INVALIDARG}
)

// Decode reads the union of v according to its tag. A nil pointer decodes to
// Error{E_POINTER}; an unknown type or an array whose byte length overflows
// decodes to Error{E_INVALIDARG}. Array and string data is copied.
func Decode(v *SPropValue) Value {
	switch v.PropTag.Type().RemoveFlags(uint32(MV_INSTANCE)) {
	case PT_NULL:
		return Null{}
	case PT_I2:
		return Short(scalar[int16](v))
	case PT_LONG:
		return Long(scalar[int32](v))
	case PT_PTR:
		return Pointer{P: pointer(v)}
	case PT_R4:
		return Float(scalar[float32](v))
	case PT_DOUBLE:
		return Double(scalar[float64](v))
	case PT_BOOLEAN:
		return Boolean(scalar[uint16](v) != 0)
	case PT_CURRENCY:
		return Currency(scalar[int64](v))
	case PT_APPTIME:
		return AppTime(scalar[float64](v))
	case PT_SYSTIME:
		return FileTime(scalar[FILETIME](v))
	case PT_I8:
		return LargeInteger(scalar[int64](v))
	case PT_ERROR:
		return Error{Status: sys.HRESULT(scalar[int32](v))}
	case PT_OBJECT:
		return Object(scalar[int32](v))
	case PT_STRING8:
		p := pointer(v)
		if p == nil {
			return errPointer
		}
		s, ok := ansiString(p)
		if !ok {
			return errInvalid
		}
		return AnsiString(s)
	case PT_UNICODE:
		p := pointer(v)
		if p == nil {
			return errPointer
		}
		s, ok := unicodeString(p)
		if !ok {
			return errInvalid
		}
		return Unicode(s)
	case PT_CLSID:
		p := pointer(v)
		if p == nil {
			return errPointer
		}
		return ClassID(*(*GUID)(p))
	case PT_BINARY:
		b, bad := binary(counted(v))
		if bad != nil {
			return bad
		}
		return Binary(b)
	case PT_MV_I2:
		return decodeArray[int16, ShortArray](v)
	case PT_MV_LONG:
		return decodeArray[int32, LongArray](v)
	case PT_MV_R4:
		return decodeArray[float32, FloatArray](v)
	case PT_MV_DOUBLE:
		return decodeArray[float64, DoubleArray](v)
	case PT_MV_CURRENCY:
		return decodeArray[int64, CurrencyArray](v)
	case PT_MV_APPTIME:
		return decodeArray[float64, AppTimeArray](v)
	case PT_MV_SYSTIME:
		return decodeArray[FILETIME, FileTimeArray](v)
	case PT_MV_CLSID:
		return decodeArray[GUID, ClassIDArray](v)
	case PT_MV_I8:
		return decodeArray[int64, LargeIntegerArray](v)
	case PT_MV_BINARY:
		bins, bad := elements[SBinary](v)
		if bad != nil {
			return bad
		}
		out := make(BinaryArray, len(bins))
		for i, sb := range bins {
			b, bad := binary(sb.Cb, sb.Lpb)
			if bad != nil {
				return bad
			}
			out[i] = b
		}
		return out
	case PT_MV_STRING8:
		ptrs, bad := elements[unsafe.Pointer](v)
		if bad != nil {
			return bad
		}
		out := make(AnsiStringArray, len(ptrs))
		for i, p := range ptrs {
			if p == nil {
				return errPointer
			}
			s, ok := ansiString(p)
			if !ok {
				return errInvalid
			}
			out[i] = s
		}
		return out
	case PT_MV_UNICODE:
		ptrs, bad := elements[unsafe.Pointer](v)
		if bad != nil {
			return bad
		}
		out := make(UnicodeArray, len(ptrs))
		for i, p := range ptrs {
			if p == nil {
				return errPointer
			}
			s, ok := unicodeString(p)
			if !ok {
				return errInvalid
			}
			out[i] = s
		}
		return out
	default:
		return errInvalid
	}
}

// DecodeBuffer decodes every whole element of b.
func DecodeBuffer(b *alloc.Buffer[SPropValue]) ([]Value, error) {
	var out []Value
	err := b.Read(func(vals []SPropValue) error {
		out = make([]Value, len(vals))
		for i := range vals {
			out[i] = Decode(&vals[i])
		}
		return nil
	})
	return out, err
}

// elements views the counted array of v as []E after checking the pointer and
// that count*sizeof(E) does not overflow.
func elements[E any](v *SPropValue) ([]E, Value) {
	count, p := counted(v)
	if p == nil {
		return nil, errPointer
	}
	var zero E
	if _, ok := buf.MulOverflowSafe(int(count), int(unsafe.Sizeof(zero))); !ok {
		return nil, errInvalid
	}
	if count == 0 {
		return nil, nil
	}
	return unsafe.Slice((*E)(p), count), nil
}

func decodeArray[E any, A ~[]E](v *SPropValue) Value {
	src, bad := elements[E](v)
	if bad != nil {
		return bad
	}
	out := make(A, len(src))
	copy(out, src)
	return any(out).(Value)
}

func binary(cb uint32, p unsafe.Pointer) ([]byte, Value) {
	if p == nil {
		return nil, errPointer
	}
	// int(cb) wraps negative past 2 GiB on 32-bit platforms.
	n, ok := buf.MulOverflowSafe(int(cb), 1)
	if !ok {
		return nil, errInvalid
	}
	out := make([]byte, n)
	if n > 0 {
		copy(out, unsafe.Slice((*byte)(p), n))
	}
	return out, nil
}

func ansiString(p unsafe.Pointer) (string, bool) {
	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	if n == 0 {
		return "", true
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(unsafe.Slice((*byte)(p), n))
	if err != nil {
		return "", false
	}
	return string(out), true
}

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

func unicodeString(p unsafe.Pointer) (string, bool) {
	n := 0
	for *(*uint16)(unsafe.Add(p, 2*n)) != 0 {
		n++
	}
	if n == 0 {
		return "", true
	}
	out, err := utf16le.NewDecoder().Bytes(unsafe.Slice((*byte)(p), 2*n))
	if err != nil {
		return "", false
	}
	return string(out), true
}
