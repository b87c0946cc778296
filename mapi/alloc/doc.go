// Package alloc provides owning handles for memory obtained from the MAPI
// allocator (MAPIAllocateBuffer / MAPIAllocateMore / MAPIFreeBuffer).
//
// # Overview
//
// MAPI hands out two kinds of buffers. A root buffer is allocated with
// MAPIAllocateBuffer and freed with MAPIFreeBuffer. A chained buffer is
// allocated with MAPIAllocateMore against an existing root and is reclaimed
// only when that root is freed; it must never be freed on its own. This
// package wraps both kinds in handles that track initialization state,
// element type and ownership so that every root is freed exactly once.
//
// # Handles
//
//   - Uninit[T]: a buffer that has not been written yet. Exposes the pre-init
//     accessors Write and WriteSlice.
//   - Buffer[T]: a buffer the caller has asserted is fully written (via
//     Uninit.AssumeInit). Exposes Mut, MutSlice, Read and Load.
//   - Iter[T]: splits an Uninit[T] into single-element chained handles
//     without calling the allocator again.
//   - OutParam[T]: an unchecked holder for routines that allocate their own
//     result and only return a pointer.
//
// # Usage Example
//
//	a := alloc.Default()
//
//	tags, err := alloc.New[byte](a, prop.CbNewSPropTagArray(2))
//	if err != nil {
//	    return err
//	}
//	defer tags.Close()
//
//	// Reinterpret the byte buffer once we know it is large enough.
//	typed, err := alloc.Into[prop.SPropTagArray](tags)
//	if err != nil {
//	    return err // tags is still valid here
//	}
//	defer typed.Close()
//
//	// Derive a chained buffer; it shares the root and is freed with it.
//	name, err := alloc.Chain[uint16](typed, 32)
//	if err != nil {
//	    return err
//	}
//	defer name.Close()
//
// # Ownership
//
// Every handle derived from one root carries the same root record. The
// record counts live handles and calls MAPIFreeBuffer exactly once, when the
// owning handle and all handles chained to it have been closed, in any order.
// Close is idempotent. Operations that consume a handle (Into, AssumeInit)
// move its reference to the returned handle; the consumed handle reports
// ErrReleased afterwards and its Close does nothing.
//
// # Thread Safety
//
// Handles are not safe for concurrent use, with two exceptions: the root
// reference count is atomic, so handles sharing a root may be closed from
// different goroutines, and each handle carries an access flag so that
// concurrent or reentrant mutable access fails with ErrBusy instead of
// aliasing. The flag is per handle. Handles produced by an iterator alias the
// memory of the handle they were split from, and keeping those accesses apart
// is the caller's responsibility.
package alloc
