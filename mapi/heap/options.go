package heap

import (
	"fmt"

	"go.uber.org/zap"
)

const (
	// DefaultRegionSize is the size of the regions small buffers are carved from.
	DefaultRegionSize = 64 << 10
	// DefaultIdleRegions is how many freed regions are kept mapped for reuse.
	DefaultIdleRegions = 16
	// Alignment of every returned buffer.
	Alignment = 16
)

// Option configures an Allocator.
type Option func(*Allocator) error

// WithRegionSize sets the region size. It is rounded up to a whole number of
// pages. Requests larger than a region get a dedicated mapping.
func WithRegionSize(n int) Option {
	return func(a *Allocator) error {
		if n <= 0 {
			return fmt.Errorf("heap: invalid region size %d", n)
		}
		a.regionSize = n
		return nil
	}
}

// WithIdleRegions sets how many freed regions are kept for reuse. Zero unmaps
// every region as soon as its root is freed.
func WithIdleRegions(n int) Option {
	return func(a *Allocator) error {
		if n < 0 {
			return fmt.Errorf("heap: invalid idle region count %d", n)
		}
		a.idleCap = n
		return nil
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(a *Allocator) error {
		if l == nil {
			l = zap.NewNop()
		}
		a.log = l
		return nil
	}
}
