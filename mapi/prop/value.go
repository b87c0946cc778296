package prop

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/joshuapare/mapikit/mapi/sys"
)

// Value is a decoded SPropValue union. The concrete type names the arm:
// Null, Short, Long, Pointer, Float, Double, Boolean, Currency, AppTime,
// FileTime, AnsiString, Binary, Unicode, ClassID, LargeInteger, the *Array
// types, Error and Object.
type Value interface {
	isValue()
}

type (
	Null         struct{}
	Short        int16
	Long         int32
	Pointer      struct{ P unsafe.Pointer }
	Float        float32
	Double       float64
	Boolean      bool
	Currency     int64
	AppTime      float64
	FileTime     FILETIME
	AnsiString   string
	Binary       []byte
	Unicode      string
	ClassID      GUID
	LargeInteger int64
	Object       int32

	ShortArray        []int16
	LongArray         []int32
	FloatArray        []float32
	DoubleArray       []float64
	CurrencyArray     []int64
	AppTimeArray      []float64
	FileTimeArray     []FILETIME
	BinaryArray       [][]byte
	AnsiStringArray   []string
	UnicodeArray      []string
	ClassIDArray      []GUID
	LargeIntegerArray []int64
)

// Error is a PT_ERROR value, or the status recorded when a value could not be
// decoded (E_POINTER for a nil pointer, E_INVALIDARG for an unknown type or a
// bad length).
type Error struct {
	Status sys.HRESULT
}

func (Null) isValue()              {}
func (Short) isValue()             {}
func (Long) isValue()              {}
func (Pointer) isValue()           {}
func (Float) isValue()             {}
func (Double) isValue()            {}
func (Boolean) isValue()           {}
func (Currency) isValue()          {}
func (AppTime) isValue()           {}
func (FileTime) isValue()          {}
func (AnsiString) isValue()        {}
func (Binary) isValue()            {}
func (Unicode) isValue()           {}
func (ClassID) isValue()           {}
func (LargeInteger) isValue()      {}
func (Object) isValue()            {}
func (ShortArray) isValue()        {}
func (LongArray) isValue()         {}
func (FloatArray) isValue()        {}
func (DoubleArray) isValue()       {}
func (CurrencyArray) isValue()     {}
func (AppTimeArray) isValue()      {}
func (FileTimeArray) isValue()     {}
func (BinaryArray) isValue()       {}
func (AnsiStringArray) isValue()   {}
func (UnicodeArray) isValue()      {}
func (ClassIDArray) isValue()      {}
func (LargeIntegerArray) isValue() {}
func (Error) isValue()             {}

func (e Error) String() string {
	return e.Status.Error()
}

// fileTimeEpochDelta is the number of 100ns intervals between 1601 and 1970.
const fileTimeEpochDelta = 116444736000000000

// Time converts the timestamp to UTC.
func (ft FILETIME) Time() time.Time {
	ticks := int64(ft.HighDateTime)<<32 | int64(ft.LowDateTime)
	return time.Unix(0, (ticks-fileTimeEpochDelta)*100).UTC()
}

// Time converts the timestamp to UTC.
func (ft FileTime) Time() time.Time {
	return FILETIME(ft).Time()
}

// NewFILETIME converts t to a Windows timestamp.
func NewFILETIME(t time.Time) FILETIME {
	ticks := t.UnixNano()/100 + fileTimeEpochDelta
	return FILETIME{LowDateTime: uint32(ticks), HighDateTime: uint32(ticks >> 32)}
}

func (g GUID) String() string {
	return fmt.Sprintf("{%08X-%04X-%04X-%02X%02X-%X}",
		g.Data1, g.Data2, g.Data3, g.Data4[0], g.Data4[1], g.Data4[2:])
}
