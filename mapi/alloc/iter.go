package alloc

import (
	"iter"
	"unsafe"
)

// Iter splits a buffer into one chained handle per whole element. No allocator
// calls are made; each item shares the root of the buffer it came from and
// must be closed like any other handle.
//
// Iteration stops after the last whole element. Trailing bytes that do not
// form a complete element are never yielded. A zero-sized T yields nothing.
type Iter[T any] struct {
	root      *rootRecord
	ptr       unsafe.Pointer
	remaining int
	err       error
}

func newIter[T any](a *allocation) *Iter[T] {
	if a == nil {
		return &Iter[T]{err: ErrReleased}
	}
	return &Iter[T]{
		root:      a.root,
		ptr:       a.ptr,
		remaining: elemCount[T](a),
	}
}

// Next returns the handle for the next element, or false when the buffer is
// exhausted or the root was freed.
func (it *Iter[T]) Next() (*Uninit[T], bool) {
	if it.err != nil || it.remaining == 0 {
		return nil, false
	}
	if !it.root.acquire() {
		it.err = ErrReleased
		return nil, false
	}
	size := sizeOf[T]()
	item := &Uninit[T]{a: &allocation{
		ptr:       it.ptr,
		byteCount: size,
		root:      it.root,
	}}
	it.remaining--
	if it.remaining == 0 {
		it.ptr = nil
	} else {
		it.ptr = unsafe.Add(it.ptr, size)
	}
	return item, true
}

// Remaining returns the number of elements Next has yet to yield.
func (it *Iter[T]) Remaining() int {
	return it.remaining
}

// Err returns ErrReleased if the source handle or its root was released
// before iteration finished.
func (it *Iter[T]) Err() error {
	return it.err
}

// All returns the remaining items as a sequence.
func (it *Iter[T]) All() iter.Seq[*Uninit[T]] {
	return func(yield func(*Uninit[T]) bool) {
		for {
			item, ok := it.Next()
			if !ok || !yield(item) {
				return
			}
		}
	}
}
