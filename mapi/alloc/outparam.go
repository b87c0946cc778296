package alloc

import (
	"unsafe"

	"github.com/joshuapare/mapikit/mapi/sys"
)

// OutParam holds the result of a foreign routine that allocates its own root
// buffer and only returns a pointer to it. Nothing about the buffer size is
// known, so the accessors check for nil and nothing else.
type OutParam[T any] struct {
	alloc sys.Allocator
	ptr   unsafe.Pointer
}

// NewOutParam returns an empty OutParam that frees through a.
func NewOutParam[T any](a sys.Allocator) *OutParam[T] {
	return &OutParam[T]{alloc: a}
}

// Addr returns the location a foreign routine writes its result pointer to.
func (o *OutParam[T]) Addr() *unsafe.Pointer {
	return &o.ptr
}

// Get returns the first element, or false if nothing was written.
func (o *OutParam[T]) Get() (*T, bool) {
	if o.ptr == nil {
		return nil, false
	}
	return (*T)(o.ptr), true
}

// Slice returns count elements starting at the result pointer. The count is
// trusted as given.
func (o *OutParam[T]) Slice(count int) ([]T, bool) {
	if o.ptr == nil || count < 0 {
		return nil, false
	}
	return unsafe.Slice((*T)(o.ptr), count), true
}

// Close frees the result, if any, with FreeBuffer.
func (o *OutParam[T]) Close() error {
	if o.ptr == nil {
		return nil
	}
	p := o.ptr
	o.ptr = nil
	o.alloc.FreeBuffer(p)
	return nil
}
