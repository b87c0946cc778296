// Package heap implements the MAPI allocation entry points on memory mapped
// by this process. It stands in for mapi32.dll where the DLL is missing and in
// tests.
//
// A root buffer owns a chain of regions. Chained buffers are bump-allocated
// from the root's current region; when it is full a new region joins the
// chain. Requests larger than a region get a dedicated mapping. Freeing the
// root returns every region in its chain at once: standard regions go to an
// LRU of idle regions for reuse, dedicated ones are unmapped. Regions evicted
// from the LRU are unmapped.
//
// All buffers are 16-byte aligned and live outside the Go heap on unix and
// windows, so their addresses may be handed to foreign code.
package heap

import (
	"sync"
	"unsafe"

	"github.com/Jille/easymutex"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/joshuapare/mapikit/internal/buf"
	"github.com/joshuapare/mapikit/internal/region"
	"github.com/joshuapare/mapikit/mapi/sys"
)

// Allocator is a sys.Allocator backed by mapped regions. It is safe for
// concurrent use.
type Allocator struct {
	regionSize int
	idleCap    int
	log        *zap.Logger

	mtx    sync.Mutex
	roots  map[unsafe.Pointer]*chain
	idle   *lru.Cache[uint64, *span] // nil when idleCap is 0; only touched with mtx held
	seq    uint64
	closed bool
	stats  Stats
}

var _ sys.Allocator = (*Allocator)(nil)

// chain is the set of regions owned by one root.
type chain struct {
	spans   []*span
	current *span // bump target for chained buffers; never a dedicated span
	chained int
	bytes   int
}

// span is one mapped region.
type span struct {
	data      []byte
	cleanup   func() error
	used      int
	dedicated bool
	live      bool // part of a chain; guards against unmapping on LRU removal
}

// New returns an allocator configured by opts.
func New(opts ...Option) (*Allocator, error) {
	a := &Allocator{
		regionSize: DefaultRegionSize,
		idleCap:    DefaultIdleRegions,
		log:        zap.NewNop(),
		roots:      map[unsafe.Pointer]*chain{},
	}
	for _, o := range opts {
		if err := o(a); err != nil {
			return nil, err
		}
	}
	a.regionSize = buf.AlignUp(a.regionSize, region.PageSize())
	if a.idleCap > 0 {
		idle, err := lru.NewWithEvict[uint64, *span](a.idleCap, a.onEvicted)
		if err != nil {
			return nil, err
		}
		a.idle = idle
	}
	return a, nil
}

// AllocateBuffer implements MAPIAllocateBuffer.
func (a *Allocator) AllocateBuffer(size uint32) (sys.HRESULT, unsafe.Pointer) {
	n := roundSize(size)

	em := easymutex.LockMutex(&a.mtx)
	defer em.Unlock()
	if a.closed {
		return sys.MAPI_E_CALL_FAILED, nil
	}
	s, err := a.obtain(em.Unlock, em.Lock, n)
	if err != nil {
		a.log.Debug("root allocation failed", zap.Uint32("size", size), zap.Error(err))
		return sys.MAPI_E_NOT_ENOUGH_MEMORY, nil
	}
	if a.closed {
		a.recycle(s)
		return sys.MAPI_E_CALL_FAILED, nil
	}
	s.used = n
	p := unsafe.Pointer(&s.data[0])
	c := &chain{spans: []*span{s}, bytes: n}
	if !s.dedicated {
		c.current = s
	}
	a.roots[p] = c
	a.stats.LiveRoots++
	a.stats.BytesInUse += n
	return sys.S_OK, p
}

// AllocateMore implements MAPIAllocateMore. A root this allocator did not
// hand out, or one already freed, reports E_INVALIDARG.
func (a *Allocator) AllocateMore(size uint32, root unsafe.Pointer) (sys.HRESULT, unsafe.Pointer) {
	em := easymutex.LockMutex(&a.mtx)
	defer em.Unlock()
	return a.allocateMore(size, root, em.Unlock, em.Lock)
}

// allocateMore runs with a.mtx held. unlock and lock are passed to obtain.
func (a *Allocator) allocateMore(size uint32, root unsafe.Pointer, unlock, lock func()) (sys.HRESULT, unsafe.Pointer) {
	n := roundSize(size)
	c, ok := a.roots[root]
	if !ok {
		a.log.Debug("chained allocation against unknown root", zap.Uintptr("root", uintptr(root)))
		return sys.E_INVALIDARG, nil
	}

	var p unsafe.Pointer
	if b, ok := carve(c.current, n); ok {
		p = unsafe.Pointer(&b[0])
	} else {
		s, err := a.obtain(unlock, lock, n)
		if err != nil {
			a.log.Debug("chained allocation failed", zap.Uint32("size", size), zap.Error(err))
			return sys.MAPI_E_NOT_ENOUGH_MEMORY, nil
		}
		// The lock was dropped while mapping. The root may have been freed, and
		// its region may since have become a new root at the same address.
		if a.roots[root] != c {
			a.log.Debug("root freed during chained allocation", zap.Uintptr("root", uintptr(root)))
			a.recycle(s)
			return sys.E_INVALIDARG, nil
		}
		s.used = n
		p = unsafe.Pointer(&s.data[0])
		c.spans = append(c.spans, s)
		if !s.dedicated {
			c.current = s
		}
	}
	c.chained++
	c.bytes += n
	a.stats.LiveChained++
	a.stats.BytesInUse += n
	return sys.S_OK, p
}

// carve bump-allocates n bytes from s if they fit.
func carve(s *span, n int) ([]byte, bool) {
	if s == nil {
		return nil, false
	}
	b, ok := buf.Slice(s.data, s.used, n)
	if !ok {
		return nil, false
	}
	s.used += n
	return b, true
}

// FreeBuffer implements MAPIFreeBuffer. It releases the root and every
// buffer chained to it. Pointers that are not live roots are logged and
// counted but otherwise ignored.
func (a *Allocator) FreeBuffer(p unsafe.Pointer) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	c, ok := a.roots[p]
	if !ok {
		a.stats.InvalidFrees++
		a.log.Warn("MAPIFreeBuffer on a pointer that is not a live root", zap.Uintptr("ptr", uintptr(p)))
		return
	}
	delete(a.roots, p)
	a.stats.Frees++
	a.stats.LiveRoots--
	a.stats.LiveChained -= c.chained
	a.stats.BytesInUse -= c.bytes
	for _, s := range c.spans {
		a.recycle(s)
	}
}

// obtain returns a span with at least n free bytes, reusing an idle region
// when n fits one. unlock and lock release a.mtx while a new region is mapped.
func (a *Allocator) obtain(unlock, lock func(), n int) (*span, error) {
	if n <= a.regionSize && a.idle != nil {
		if keys := a.idle.Keys(); len(keys) > 0 {
			k := keys[len(keys)-1]
			s, _ := a.idle.Peek(k)
			s.live = true
			a.idle.Remove(k)
			a.log.Debug("reusing idle region", zap.Int("size", len(s.data)))
			return s, nil
		}
	}

	size, dedicated := a.regionSize, false
	if n > a.regionSize {
		size, dedicated = buf.AlignUp(n, region.PageSize()), true
	}
	unlock()
	data, cleanup, err := region.Map(size)
	lock()
	if err != nil {
		return nil, err
	}
	a.stats.Regions++
	a.log.Debug("mapped region", zap.Int("size", size), zap.Bool("dedicated", dedicated))
	return &span{data: data, cleanup: cleanup, dedicated: dedicated, live: true}, nil
}

// recycle takes a span out of use. Standard spans go to the idle LRU unless
// it is disabled or the allocator is closed. a.mtx must be held.
func (a *Allocator) recycle(s *span) {
	s.live = false
	if s.dedicated || a.idle == nil || a.closed {
		a.unmap(s)
		return
	}
	clear(s.data[:s.used])
	s.used = 0
	a.seq++
	a.idle.Add(a.seq, s)
}

// onEvicted runs synchronously from idle cache calls, which are only made
// with a.mtx held. Spans that were taken back into use are left alone.
func (a *Allocator) onEvicted(_ uint64, s *span) {
	if s.live {
		return
	}
	a.log.Debug("evicting idle region", zap.Int("size", len(s.data)))
	a.unmap(s)
}

func (a *Allocator) unmap(s *span) {
	if s.cleanup == nil {
		return
	}
	if err := s.cleanup(); err != nil {
		a.log.Warn("unmapping region failed", zap.Int("size", len(s.data)), zap.Error(err))
	}
	s.cleanup = nil
	s.data = nil
	a.stats.Regions--
}

// Purge unmaps every idle region.
func (a *Allocator) Purge() {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	if a.idle != nil {
		a.idle.Purge()
	}
}

// Close purges idle regions and stops new root allocations. Live roots stay
// valid; their regions are unmapped as they are freed.
func (a *Allocator) Close() error {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	a.closed = true
	if a.idle != nil {
		a.idle.Purge()
	}
	if n := len(a.roots); n > 0 {
		a.log.Debug("closing allocator with live roots", zap.Int("roots", n))
	}
	return nil
}

func roundSize(size uint32) int {
	return buf.AlignUp(max(int(size), 1), Alignment)
}
