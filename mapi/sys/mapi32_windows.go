//go:build windows

package sys

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/windows"
)

// MAPI32 calls the allocation entry points exported by the system mapi32.dll.
// The library and its exports are resolved on first use and cached.
type MAPI32 struct {
	dll            *windows.LazyDLL
	allocateBuffer *windows.LazyProc
	allocateMore   *windows.LazyProc
	freeBuffer     *windows.LazyProc
	initialize     *windows.LazyProc
	uninitialize   *windows.LazyProc
}

// NewMAPI32 returns a binding to mapi32.dll. Nothing is loaded until Load or
// the first allocation.
func NewMAPI32() *MAPI32 {
	const ptrSize = unsafe.Sizeof(uintptr(0))
	dll := windows.NewLazySystemDLL("mapi32.dll")
	return &MAPI32{
		dll:            dll,
		allocateBuffer: dll.NewProc(ExportName("MAPIAllocateBuffer", 4+ptrSize, runtime.GOARCH)),
		allocateMore:   dll.NewProc(ExportName("MAPIAllocateMore", 4+2*ptrSize, runtime.GOARCH)),
		freeBuffer:     dll.NewProc(ExportName("MAPIFreeBuffer", ptrSize, runtime.GOARCH)),
		initialize:     dll.NewProc(ExportName("MAPIInitialize", ptrSize, runtime.GOARCH)),
		uninitialize:   dll.NewProc(ExportName("MAPIUninitialize", 0, runtime.GOARCH)),
	}
}

// Load resolves mapi32.dll and the three allocation exports. The
// MAPIInitialize pair is resolved by Initialize.
func (m *MAPI32) Load() error {
	if err := m.dll.Load(); err != nil {
		return err
	}
	for _, p := range []*windows.LazyProc{m.allocateBuffer, m.allocateMore, m.freeBuffer} {
		if err := p.Find(); err != nil {
			return err
		}
	}
	return nil
}

// AllocateBuffer calls MAPIAllocateBuffer. A missing export reports
// MAPI_E_CALL_FAILED.
func (m *MAPI32) AllocateBuffer(size uint32) (HRESULT, unsafe.Pointer) {
	if err := m.allocateBuffer.Find(); err != nil {
		return MAPI_E_CALL_FAILED, nil
	}
	var p unsafe.Pointer
	r, _, _ := m.allocateBuffer.Call(uintptr(size), uintptr(unsafe.Pointer(&p)))
	return HRESULT(int32(r)), p
}

// AllocateMore calls MAPIAllocateMore. A missing export reports
// MAPI_E_CALL_FAILED.
func (m *MAPI32) AllocateMore(size uint32, root unsafe.Pointer) (HRESULT, unsafe.Pointer) {
	if err := m.allocateMore.Find(); err != nil {
		return MAPI_E_CALL_FAILED, nil
	}
	var p unsafe.Pointer
	r, _, _ := m.allocateMore.Call(uintptr(size), uintptr(root), uintptr(unsafe.Pointer(&p)))
	return HRESULT(int32(r)), p
}

// FreeBuffer calls MAPIFreeBuffer.
func (m *MAPI32) FreeBuffer(p unsafe.Pointer) {
	if p == nil || m.freeBuffer.Find() != nil {
		return
	}
	m.freeBuffer.Call(uintptr(p))
}

// Initialize calls MAPIInitialize with flags. The returned guard calls
// MAPIUninitialize when its last reference is closed. A missing export
// reports MAPI_E_CALL_FAILED.
func (m *MAPI32) Initialize(flags InitFlags) (*Initialized, error) {
	if m.initialize.Find() != nil || m.uninitialize.Find() != nil {
		return nil, MAPI_E_CALL_FAILED
	}
	return initialize(flags,
		func(block *MAPIINIT) HRESULT {
			r, _, _ := m.initialize.Call(uintptr(unsafe.Pointer(block)))
			return HRESULT(int32(r))
		},
		func() { m.uninitialize.Call() })
}
