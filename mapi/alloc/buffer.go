package alloc

import "unsafe"

// Buffer is a buffer of T the caller has asserted fully written.
type Buffer[T any] struct {
	a *allocation
}

func (b *Buffer[T]) core() *allocation {
	if b == nil {
		return nil
	}
	return b.a
}

// Ptr returns the address of the buffer, or nil after Close.
func (b *Buffer[T]) Ptr() unsafe.Pointer {
	if a := b.core(); a != nil {
		return a.ptr
	}
	return nil
}

// ByteCount returns the size requested from the allocator.
func (b *Buffer[T]) ByteCount() int {
	if a := b.core(); a != nil {
		return a.byteCount
	}
	return 0
}

// Len returns the number of whole elements of T that fit in the buffer.
func (b *Buffer[T]) Len() int {
	return elemCount[T](b.core())
}

// Root returns the address of the root buffer this handle belongs to.
func (b *Buffer[T]) Root() unsafe.Pointer {
	if a := b.core(); a != nil {
		return a.root.ptr
	}
	return nil
}

// IsRoot reports whether the handle owns its root.
func (b *Buffer[T]) IsRoot() bool {
	a := b.core()
	return a != nil && a.owner
}

// State returns Ready.
func (b *Buffer[T]) State() State {
	if a := b.core(); a != nil {
		return a.state
	}
	return Ready
}

// Mut passes fn a mutable pointer to the first element.
func (b *Buffer[T]) Mut(fn func(*T) error) error {
	a := b.core()
	if a == nil {
		return ErrReleased
	}
	if !a.fits(sizeOf[T]()) {
		return ErrOutOfBounds
	}
	if err := a.lockWrite(); err != nil {
		return err
	}
	defer a.unlockWrite()
	return fn((*T)(a.ptr))
}

// MutSlice passes fn every whole element as a mutable slice.
func (b *Buffer[T]) MutSlice(fn func([]T) error) error {
	a := b.core()
	if a == nil {
		return ErrReleased
	}
	if err := a.lockWrite(); err != nil {
		return err
	}
	defer a.unlockWrite()
	return fn(elems[T](a))
}

// Read passes fn the elements for reading. Readers may overlap each other but
// not a Mut or MutSlice call on the same handle.
func (b *Buffer[T]) Read(fn func([]T) error) error {
	a := b.core()
	if a == nil {
		return ErrReleased
	}
	if err := a.lockRead(); err != nil {
		return err
	}
	defer a.unlockRead()
	return fn(elems[T](a))
}

// Slice returns every whole element without taking the access flag. The
// slice aliases the buffer and is invalid once the root is freed.
func (b *Buffer[T]) Slice() ([]T, error) {
	a := b.core()
	if a == nil {
		return nil, ErrReleased
	}
	return elems[T](a), nil
}

// Load returns a copy of the first element.
func (b *Buffer[T]) Load() (T, error) {
	var v T
	a := b.core()
	if a == nil {
		return v, ErrReleased
	}
	if !a.fits(sizeOf[T]()) {
		return v, ErrOutOfBounds
	}
	if err := a.lockRead(); err != nil {
		return v, err
	}
	v = *(*T)(a.ptr)
	a.unlockRead()
	return v, nil
}

// Close releases the handle. The root is freed once every handle sharing it is
// closed. Close on a released handle returns nil.
func (b *Buffer[T]) Close() error {
	a := b.core()
	if err := closeHandle(a); err != nil {
		return err
	}
	if a != nil {
		b.a = nil
	}
	return nil
}
