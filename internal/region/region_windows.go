//go:build windows

package region

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Map commits size bytes of read/write memory outside the Go heap with
// VirtualAlloc. The returned cleanup releases it; calling cleanup twice is a no-op.
func Map(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("region: invalid size %d", size)
	}
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, nil, fmt.Errorf("region: VirtualAlloc %d bytes: %w", size, err)
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
	cleanup := func() error {
		if addr == 0 {
			return nil
		}
		err := windows.VirtualFree(addr, 0, windows.MEM_RELEASE)
		addr = 0
		return err
	}
	return data, cleanup, nil
}

// PageSize returns the allocation granularity used for regions.
func PageSize() int {
	return windows.Getpagesize()
}
