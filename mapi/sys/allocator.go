// Package sys describes the foreign MAPI allocator that the rest of mapikit
// builds on, and binds it to mapi32.dll on Windows.
//
// MAPI exposes exactly three allocation entry points:
//
//   - MAPIAllocateBuffer allocates a root buffer.
//   - MAPIAllocateMore allocates a buffer chained to an existing root.
//   - MAPIFreeBuffer frees a root together with every buffer chained to it.
//
// Sizes are always 32-bit byte counts. Callers are expected to reject larger
// requests before reaching this package.
package sys

import "unsafe"

// Allocator is the call surface of the foreign allocator.
//
// A nil pointer returned together with a success status must be treated by
// callers as out-of-memory. FreeBuffer is not idempotent and must be called at
// most once per root pointer; it must never be called with a chained pointer.
type Allocator interface {
	// AllocateBuffer allocates a root buffer of size bytes.
	AllocateBuffer(size uint32) (HRESULT, unsafe.Pointer)

	// AllocateMore allocates size bytes whose lifetime is tied to root.
	// root must be a live pointer returned by AllocateBuffer.
	AllocateMore(size uint32, root unsafe.Pointer) (HRESULT, unsafe.Pointer)

	// FreeBuffer frees a root buffer and every buffer chained to it.
	FreeBuffer(p unsafe.Pointer)
}
