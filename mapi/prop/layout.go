package prop

import "unsafe"

// The structures below mirror MAPIDefs.h. Variable-length structures declare
// one placeholder element, as in C; size them with the CbNew helpers.

// SPropValue is a tagged property value. Value holds the union: scalars and
// single pointers start at its first word, counted values keep a 32-bit count
// in the first word and the array pointer in the second.
type SPropValue struct {
	PropTag  Tag
	AlignPad uint32
	Value    [2]uintptr
}

// SPropTagArray is a counted list of tags.
type SPropTagArray struct {
	Count uint32
	Tags  [1]Tag
}

// List returns the Count tags that follow the header. The memory behind the
// array must actually hold that many.
func (a *SPropTagArray) List() []Tag {
	if a.Count == 0 {
		return nil
	}
	return unsafe.Slice(&a.Tags[0], a.Count)
}

// SPropProblem reports a property that could not be processed.
type SPropProblem struct {
	Index   uint32
	PropTag Tag
	SCode   int32
}

// SPropProblemArray is a counted list of problems.
type SPropProblemArray struct {
	Count    uint32
	Problems [1]SPropProblem
}

// ENTRYID identifies a MAPI object.
type ENTRYID struct {
	Flags [4]byte
	AB    [1]byte
}

// SBinary is a counted byte array.
type SBinary struct {
	Cb  uint32
	Lpb unsafe.Pointer
}

// FILETIME is a Windows timestamp in 100ns units since 1601.
type FILETIME struct {
	LowDateTime  uint32
	HighDateTime uint32
}

// GUID is a Windows GUID.
type GUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// SRow is one table row.
type SRow struct {
	AdrEntryPad uint32
	Count       uint32
	Props       *SPropValue
}

// SRowSet is a counted list of rows.
type SRowSet struct {
	Count uint32
	Rows  [1]SRow
}

// ADRENTRY is one recipient.
type ADRENTRY struct {
	Reserved1 uint32
	Count     uint32
	Props     *SPropValue
}

// ADRLIST is a counted list of recipients.
type ADRLIST struct {
	Count   uint32
	Entries [1]ADRENTRY
}

// sizeOfContainer is the size of container C with its one-element
// placeholder array of E replaced by count elements.
func sizeOfContainer[C, E any](count int) int {
	var c C
	var e E
	return int(unsafe.Sizeof(c)) - int(unsafe.Sizeof(e)) + int(unsafe.Sizeof(e))*count
}

// CbNewSPropTagArray returns the size of an SPropTagArray holding count tags.
func CbNewSPropTagArray(count int) int {
	return sizeOfContainer[SPropTagArray, Tag](count)
}

// CbNewSPropProblemArray returns the size of an SPropProblemArray holding
// count problems.
func CbNewSPropProblemArray(count int) int {
	return sizeOfContainer[SPropProblemArray, SPropProblem](count)
}

// CbNewENTRYID returns the size of an ENTRYID with count id bytes.
func CbNewENTRYID(count int) int {
	return sizeOfContainer[ENTRYID, byte](count)
}

// CbNewSRowSet returns the size of an SRowSet holding count rows.
func CbNewSRowSet(count int) int {
	return sizeOfContainer[SRowSet, SRow](count)
}

// CbNewADRLIST returns the size of an ADRLIST holding count entries.
func CbNewADRLIST(count int) int {
	return sizeOfContainer[ADRLIST, ADRENTRY](count)
}
