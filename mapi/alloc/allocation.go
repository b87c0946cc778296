package alloc

import (
	"sync/atomic"
	"unsafe"

	"go.uber.org/zap"

	"github.com/joshuapare/mapikit/internal/buf"
	"github.com/joshuapare/mapikit/mapi/sys"
)

// State is the initialization state of a buffer.
type State uint8

const (
	// Uninitialized buffers have not been written by the caller.
	Uninitialized State = iota
	// Ready buffers were asserted fully written with AssumeInit.
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// rootRecord is shared by every handle derived from one MAPIAllocateBuffer
// result. refs counts live handles; FreeBuffer runs when it drops to zero.
type rootRecord struct {
	ptr   unsafe.Pointer
	alloc sys.Allocator
	refs  atomic.Int32
}

func newRootRecord(a sys.Allocator, p unsafe.Pointer) *rootRecord {
	r := &rootRecord{ptr: p, alloc: a}
	r.refs.Store(1)
	return r
}

// acquire adds a reference. It fails once the root has been freed.
func (r *rootRecord) acquire() bool {
	for {
		n := r.refs.Load()
		if n <= 0 {
			return false
		}
		if r.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (r *rootRecord) release() {
	switch n := r.refs.Add(-1); {
	case n == 0:
		Logger().Debug("freeing root buffer", zap.Uintptr("ptr", uintptr(r.ptr)))
		r.alloc.FreeBuffer(r.ptr)
	case n < 0:
		// Unreachable through the public API: Close clears the handle first.
		Logger().Error("root released more often than acquired", zap.Int32("refs", n))
	}
}

// allocation is the state behind one handle.
type allocation struct {
	ptr       unsafe.Pointer
	byteCount int
	root      *rootRecord
	owner     bool
	state     State

	// access is 0 when idle, -1 while a mutable accessor runs and the number of
	// readers otherwise.
	access atomic.Int32
}

func (a *allocation) fits(size int) bool {
	return size <= a.byteCount
}

func (a *allocation) lockWrite() error {
	if !a.access.CompareAndSwap(0, -1) {
		return ErrBusy
	}
	return nil
}

func (a *allocation) unlockWrite() {
	a.access.Store(0)
}

func (a *allocation) lockRead() error {
	for {
		n := a.access.Load()
		if n < 0 {
			return ErrBusy
		}
		if a.access.CompareAndSwap(n, n+1) {
			return nil
		}
	}
}

func (a *allocation) unlockRead() {
	a.access.Add(-1)
}

// Source is any live handle that chained buffers can be derived from.
type Source interface {
	core() *allocation
}

func sizeOf[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// checkResult turns an allocator result into an error. A success status with a
// nil pointer counts as E_OUTOFMEMORY.
func checkResult(op string, size uint32, status sys.HRESULT, p unsafe.Pointer) error {
	switch {
	case status.Failed():
	case p == nil:
		status = sys.E_OUTOFMEMORY
	default:
		return nil
	}
	Logger().Debug("foreign allocation failed",
		zap.String("op", op),
		zap.Uint32("size", size),
		zap.String("status", status.Error()))
	return &AllocationError{Op: op, Size: size, Status: status}
}

func requestSize[T any](count int) (uint32, error) {
	size, total, ok := buf.Size32(count, sizeOf[T]())
	if !ok {
		return 0, &SizeOverflowError{Requested: total}
	}
	return size, nil
}

// New allocates a root buffer for count elements of T with MAPIAllocateBuffer.
// The returned handle owns the root; closing it (after every chained handle)
// frees the memory.
func New[T any](a sys.Allocator, count int) (*Uninit[T], error) {
	size, err := requestSize[T](count)
	if err != nil {
		return nil, err
	}
	status, p := a.AllocateBuffer(size)
	if err := checkResult("MAPIAllocateBuffer", size, status, p); err != nil {
		return nil, err
	}
	return &Uninit[T]{a: &allocation{
		ptr:       p,
		byteCount: int(size),
		root:      newRootRecord(a, p),
		owner:     true,
	}}, nil
}

// Chain allocates count elements of P with MAPIAllocateMore, linked to the root
// of src. The chained memory is released when the root is freed; the root is
// not freed while the returned handle is open.
func Chain[P any](src Source, count int) (*Uninit[P], error) {
	var parent *allocation
	if src != nil {
		parent = src.core()
	}
	if parent == nil {
		return nil, ErrReleased
	}
	size, err := requestSize[P](count)
	if err != nil {
		return nil, err
	}
	root := parent.root
	if !root.acquire() {
		return nil, ErrReleased
	}
	status, p := root.alloc.AllocateMore(size, root.ptr)
	if err := checkResult("MAPIAllocateMore", size, status, p); err != nil {
		root.release()
		return nil, err
	}
	return &Uninit[P]{a: &allocation{
		ptr:       p,
		byteCount: int(size),
		root:      root,
	}}, nil
}

// Into reinterprets u as a buffer of P. It fails with ErrOutOfBounds, leaving u
// usable, when the buffer is smaller than one P. On success u is consumed and
// the returned handle keeps its pointer, byte count and root.
func Into[P, T any](u *Uninit[T]) (*Uninit[P], error) {
	a := u.core()
	if a == nil {
		return nil, ErrReleased
	}
	if !a.fits(sizeOf[P]()) {
		return nil, ErrOutOfBounds
	}
	if a.access.Load() != 0 {
		return nil, ErrBusy
	}
	u.a = nil
	return &Uninit[P]{a: a}, nil
}

// closeHandle releases the reference held by a handle. A nil allocation means
// the handle was already closed or moved.
func closeHandle(a *allocation) error {
	if a == nil {
		return nil
	}
	if a.access.Load() != 0 {
		return ErrBusy
	}
	a.root.release()
	return nil
}
