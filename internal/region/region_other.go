//go:build !unix && !windows

package region

import (
	"fmt"
	"os"
	"unsafe"
)

// Map allocates size bytes from the Go heap when no page mapping API is available.
// The memory stays reachable until cleanup is called.
func Map(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("region: invalid size %d", size)
	}
	words := make([]uint64, (size+7)/8)
	data := unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), size)
	return data, func() error {
		words = nil
		return nil
	}, nil
}

// PageSize returns the system page size.
func PageSize() int {
	return os.Getpagesize()
}
