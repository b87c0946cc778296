// Package testutil provides an instrumented in-process MAPI allocator for tests.
package testutil

import (
	"sync"
	"unsafe"

	"github.com/joshuapare/mapikit/mapi/sys"
)

// Op identifies a recorded allocator call.
type Op int

const (
	OpAllocateBuffer Op = iota
	OpAllocateMore
	OpFreeBuffer
)

func (o Op) String() string {
	switch o {
	case OpAllocateBuffer:
		return "MAPIAllocateBuffer"
	case OpAllocateMore:
		return "MAPIAllocateMore"
	case OpFreeBuffer:
		return "MAPIFreeBuffer"
	default:
		return "unknown"
	}
}

// Call is one recorded allocator call.
type Call struct {
	Op     Op
	Size   uint32
	Root   unsafe.Pointer
	Ptr    unsafe.Pointer
	Status sys.HRESULT
}

type rootEntry struct {
	mem     []uint64
	chained [][]uint64
	frees   int
}

// Recorder implements sys.Allocator on Go memory and records every call.
//
// Freed roots stay in the recorder so their addresses are never reused and a
// second free of the same pointer is counted instead of corrupting anything.
// Chained buffers live as long as their root entry.
//
// Recorder is safe for concurrent use.
type Recorder struct {
	mu sync.Mutex

	calls        []Call
	roots        map[unsafe.Pointer]*rootEntry
	invalidFrees int

	failNext   int
	failStatus sys.HRESULT
	nilNext    int
}

var _ sys.Allocator = (*Recorder)(nil)

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{roots: make(map[unsafe.Pointer]*rootEntry)}
}

// FailNext makes the next n allocations return status and a nil pointer.
func (r *Recorder) FailNext(n int, status sys.HRESULT) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failNext = n
	r.failStatus = status
}

// ReturnNilNext makes the next n allocations report S_OK with a nil pointer.
func (r *Recorder) ReturnNilNext(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nilNext = n
}

// injected returns the forced result of the next allocation, if any.
// r.mu must be held.
func (r *Recorder) injected() (sys.HRESULT, bool) {
	switch {
	case r.failNext > 0:
		r.failNext--
		return r.failStatus, true
	case r.nilNext > 0:
		r.nilNext--
		return sys.S_OK, true
	default:
		return 0, false
	}
}

// words returns zeroed, 8-byte aligned memory of at least size bytes. Zero
// sized requests still get a unique address.
func words(size uint32) []uint64 {
	return make([]uint64, max((uint64(size)+7)/8, 1))
}

// AllocateBuffer implements sys.Allocator.
func (r *Recorder) AllocateBuffer(size uint32) (sys.HRESULT, unsafe.Pointer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if status, ok := r.injected(); ok {
		r.calls = append(r.calls, Call{Op: OpAllocateBuffer, Size: size, Status: status})
		return status, nil
	}
	mem := words(size)
	p := unsafe.Pointer(&mem[0])
	r.roots[p] = &rootEntry{mem: mem}
	r.calls = append(r.calls, Call{Op: OpAllocateBuffer, Size: size, Ptr: p, Root: p})
	return sys.S_OK, p
}

// AllocateMore implements sys.Allocator. An unknown or freed root reports
// E_INVALIDARG.
func (r *Recorder) AllocateMore(size uint32, root unsafe.Pointer) (sys.HRESULT, unsafe.Pointer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if status, ok := r.injected(); ok {
		r.calls = append(r.calls, Call{Op: OpAllocateMore, Size: size, Root: root, Status: status})
		return status, nil
	}
	e, ok := r.roots[root]
	if !ok || e.frees > 0 {
		r.calls = append(r.calls, Call{Op: OpAllocateMore, Size: size, Root: root, Status: sys.E_INVALIDARG})
		return sys.E_INVALIDARG, nil
	}
	mem := words(size)
	e.chained = append(e.chained, mem)
	p := unsafe.Pointer(&mem[0])
	r.calls = append(r.calls, Call{Op: OpAllocateMore, Size: size, Root: root, Ptr: p})
	return sys.S_OK, p
}

// FreeBuffer implements sys.Allocator. Pointers that were never returned by
// AllocateBuffer are counted as invalid frees.
func (r *Recorder) FreeBuffer(p unsafe.Pointer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, Call{Op: OpFreeBuffer, Ptr: p, Root: p})
	e, ok := r.roots[p]
	if !ok {
		r.invalidFrees++
		return
	}
	e.frees++
	e.chained = nil
}

// Calls returns a copy of every recorded call in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Count returns how many calls of op were recorded.
func (r *Recorder) Count(op Op) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// FreeCount returns how many times root was passed to FreeBuffer.
func (r *Recorder) FreeCount(root unsafe.Pointer) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.roots[root]; ok {
		return e.frees
	}
	return 0
}

// ChainedCount returns the number of live chained buffers under root.
func (r *Recorder) ChainedCount(root unsafe.Pointer) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.roots[root]; ok {
		return len(e.chained)
	}
	return 0
}

// LiveRoots returns the number of roots that have not been freed.
func (r *Recorder) LiveRoots() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.roots {
		if e.frees == 0 {
			n++
		}
	}
	return n
}

// DoubleFrees returns the number of FreeBuffer calls on already freed roots.
func (r *Recorder) DoubleFrees() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.roots {
		if e.frees > 1 {
			n += e.frees - 1
		}
	}
	return n
}

// InvalidFrees returns the number of FreeBuffer calls on unknown pointers,
// including chained buffers.
func (r *Recorder) InvalidFrees() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.invalidFrees
}
