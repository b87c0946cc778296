package alloc

import "unsafe"

// Uninit is a buffer of T that has not been written yet.
type Uninit[T any] struct {
	a *allocation
}

func (u *Uninit[T]) core() *allocation {
	if u == nil {
		return nil
	}
	return u.a
}

// Ptr returns the address of the buffer, or nil after Close or a move.
func (u *Uninit[T]) Ptr() unsafe.Pointer {
	if a := u.core(); a != nil {
		return a.ptr
	}
	return nil
}

// ByteCount returns the size requested from the allocator.
func (u *Uninit[T]) ByteCount() int {
	if a := u.core(); a != nil {
		return a.byteCount
	}
	return 0
}

// Len returns the number of whole elements of T that fit in the buffer.
func (u *Uninit[T]) Len() int {
	return elemCount[T](u.core())
}

// Root returns the address of the root buffer this handle belongs to.
func (u *Uninit[T]) Root() unsafe.Pointer {
	if a := u.core(); a != nil {
		return a.root.ptr
	}
	return nil
}

// IsRoot reports whether the handle owns its root (as opposed to being chained).
func (u *Uninit[T]) IsRoot() bool {
	a := u.core()
	return a != nil && a.owner
}

// State returns Uninitialized.
func (u *Uninit[T]) State() State {
	if a := u.core(); a != nil {
		return a.state
	}
	return Uninitialized
}

// Write passes fn a pointer to the first element. The memory may hold
// arbitrary bytes; fn must not read before writing.
func (u *Uninit[T]) Write(fn func(*T) error) error {
	a := u.core()
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

// WriteSlice passes fn every whole element of the buffer as a slice.
func (u *Uninit[T]) WriteSlice(fn func([]T) error) error {
	a := u.core()
	if a == nil {
		return ErrReleased
	}
	if err := a.lockWrite(); err != nil {
		return err
	}
	defer a.unlockWrite()
	return fn(elems[T](a))
}

// AssumeInit asserts that the buffer has been fully written and returns it as
// a Buffer. u is consumed. It returns nil if u was already released.
func (u *Uninit[T]) AssumeInit() *Buffer[T] {
	a := u.core()
	if a == nil {
		return nil
	}
	a.state = Ready
	u.a = nil
	return &Buffer[T]{a: a}
}

// Iter returns an iterator over the whole elements of the buffer. Each item is
// a chained handle that aliases one element and keeps the root alive.
func (u *Uninit[T]) Iter() *Iter[T] {
	return newIter[T](u.core())
}

// Close releases the handle. The root is freed once every handle sharing it is
// closed. Close on a released handle returns nil.
func (u *Uninit[T]) Close() error {
	a := u.core()
	if err := closeHandle(a); err != nil {
		return err
	}
	if a != nil {
		u.a = nil
	}
	return nil
}

func elemCount[T any](a *allocation) int {
	size := sizeOf[T]()
	if a == nil || size == 0 {
		return 0
	}
	return a.byteCount / size
}

func elems[T any](a *allocation) []T {
	n := elemCount[T](a)
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(a.ptr), n)
}
