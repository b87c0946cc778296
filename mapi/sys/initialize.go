package sys

import (
	"errors"
	"sync/atomic"
)

// MAPIINIT flags accepted by MAPIInitialize.
const (
	MAPI_INIT_VERSION = 0

	MAPI_MULTITHREAD_NOTIFICATIONS = 0x00000001
	MAPI_NO_COINIT                 = 0x00000008
	MAPI_NT_SERVICE                = 0x00010000
)

// MAPIINIT is the argument block passed to MAPIInitialize.
type MAPIINIT struct {
	Version uint32
	Flags   uint32
}

// InitFlags selects the MAPIINIT flags for Initialize.
type InitFlags struct {
	MultithreadNotifications bool
	NTService                bool
	NoCoInit                 bool
}

// Bits returns the MAPIINIT flag word.
func (f InitFlags) Bits() uint32 {
	var bits uint32
	if f.MultithreadNotifications {
		bits |= MAPI_MULTITHREAD_NOTIFICATIONS
	}
	if f.NTService {
		bits |= MAPI_NT_SERVICE
	}
	if f.NoCoInit {
		bits |= MAPI_NO_COINIT
	}
	return bits
}

// ErrUninitialized is returned by Acquire once the last reference to an
// Initialized guard has been closed.
var ErrUninitialized = errors.New("sys: MAPI already uninitialized")

// Initialized balances one successful MAPIInitialize with one MAPIUninitialize.
// Each holder calls Acquire to share it and Close when done; MAPIUninitialize
// runs when the last reference is closed.
type Initialized struct {
	uninitialize func()
	refs         atomic.Int32
}

// initialize calls start with the MAPIINIT block for flags and returns a guard
// that runs stop when its last reference closes.
func initialize(flags InitFlags, start func(*MAPIINIT) HRESULT, stop func()) (*Initialized, error) {
	block := MAPIINIT{Version: MAPI_INIT_VERSION, Flags: flags.Bits()}
	if h := start(&block); h.Failed() {
		return nil, h
	}
	g := &Initialized{uninitialize: stop}
	g.refs.Store(1)
	return g, nil
}

// Acquire adds a reference. It fails with ErrUninitialized after the last
// reference was closed.
func (g *Initialized) Acquire() error {
	for {
		n := g.refs.Load()
		if n <= 0 {
			return ErrUninitialized
		}
		if g.refs.CompareAndSwap(n, n+1) {
			return nil
		}
	}
}

// Close drops a reference and calls MAPIUninitialize with the last one.
// Closing more often than acquiring is a no-op.
func (g *Initialized) Close() error {
	for {
		n := g.refs.Load()
		if n <= 0 {
			return nil
		}
		if g.refs.CompareAndSwap(n, n-1) {
			if n == 1 {
				g.uninitialize()
			}
			return nil
		}
	}
}
