package alloc

import (
	"errors"
	"fmt"

	"github.com/joshuapare/mapikit/mapi/sys"
)

var (
	// ErrOutOfBounds indicates a typed access or reinterpretation that needs more
	// bytes than the buffer holds.
	ErrOutOfBounds = errors.New("alloc: access exceeds buffer size")

	// ErrSizeOverflow matches every *SizeOverflowError.
	ErrSizeOverflow = errors.New("alloc: size does not fit in 32 bits")

	// ErrAllocationFailed matches every *AllocationError.
	ErrAllocationFailed = errors.New("alloc: allocation failed")

	// ErrReleased indicates use of a handle that was closed or moved.
	ErrReleased = errors.New("alloc: handle released")

	// ErrBusy indicates the buffer is already borrowed in a conflicting mode.
	ErrBusy = errors.New("alloc: buffer is borrowed")
)

// SizeOverflowError reports a request whose byte size cannot be passed to the
// 32-bit MAPI allocation entry points. The request never reaches the allocator.
type SizeOverflowError struct {
	// Requested is the byte size that was asked for, saturated at math.MaxUint64.
	Requested uint64
}

func (e *SizeOverflowError) Error() string {
	return fmt.Sprintf("alloc: requested %d bytes, which does not fit in 32 bits", e.Requested)
}

// Is reports whether target is ErrSizeOverflow.
func (e *SizeOverflowError) Is(target error) bool {
	return target == ErrSizeOverflow
}

// AllocationError reports a failed MAPIAllocateBuffer or MAPIAllocateMore call.
// A call that succeeded but returned a nil pointer is reported with
// Status = E_OUTOFMEMORY.
type AllocationError struct {
	Op     string
	Size   uint32
	Status sys.HRESULT
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("alloc: %s(%d) failed: %v", e.Op, e.Size, e.Status)
}

// Is reports whether target is ErrAllocationFailed.
func (e *AllocationError) Is(target error) bool {
	return target == ErrAllocationFailed
}

// Unwrap returns the HRESULT so callers can match specific status codes.
func (e *AllocationError) Unwrap() error {
	return e.Status
}
