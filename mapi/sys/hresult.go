package sys

import "fmt"

// HRESULT is the status code returned by MAPI entry points. Negative values
// indicate failure.
type HRESULT int32

// Status codes used by the allocation entry points and the property decoder.
const (
	S_OK HRESULT = 0

	E_POINTER     HRESULT = 0x80004003 - 1<<32
	E_FAIL        HRESULT = 0x80004005 - 1<<32
	E_OUTOFMEMORY HRESULT = 0x8007000E - 1<<32
	E_INVALIDARG  HRESULT = 0x80070057 - 1<<32

	MAPI_E_CALL_FAILED               = E_FAIL
	MAPI_E_NOT_ENOUGH_MEMORY         = E_OUTOFMEMORY
	MAPI_E_INVALID_PARAMETER         = E_INVALIDARG
	MAPI_E_NOT_FOUND         HRESULT = 0x8004010F - 1<<32
)

var hresultNames = map[HRESULT]string{
	S_OK:             "S_OK",
	E_POINTER:        "E_POINTER",
	E_FAIL:           "E_FAIL",
	E_OUTOFMEMORY:    "E_OUTOFMEMORY",
	E_INVALIDARG:     "E_INVALIDARG",
	MAPI_E_NOT_FOUND: "MAPI_E_NOT_FOUND",
}

// Failed reports whether h is a failure code.
func (h HRESULT) Failed() bool { return h < 0 }

// Succeeded reports whether h is a success code.
func (h HRESULT) Succeeded() bool { return h >= 0 }

// Error implements the error interface so a failed HRESULT can be wrapped
// and matched with errors.Is.
func (h HRESULT) Error() string {
	if name, ok := hresultNames[h]; ok {
		return fmt.Sprintf("%s (0x%08X)", name, uint32(h))
	}
	return fmt.Sprintf("HRESULT 0x%08X", uint32(h))
}
