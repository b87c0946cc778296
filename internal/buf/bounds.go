// Package buf contains overflow-safe size arithmetic shared by the allocation
// core, the heap allocator and the property decoder.
package buf

import (
	"math"
	"math/bits"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulOverflowSafe multiplies two non-negative values, returning ok = false when
// either is negative or the result would overflow int.
// This is the count * elementSize calculation behind every counted property value.
func MulOverflowSafe(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

// Size32 returns count*elemSize as a 32-bit byte count, which is the widest size
// the MAPI allocation entry points accept.
//
// total is the true product, saturated at math.MaxUint64, so callers can report
// what was asked for. A negative count is reinterpreted as its unsigned value,
// which never fits. ok is false whenever the product does not fit in a uint32,
// or in an int on 32-bit platforms.
func Size32(count, elemSize int) (size uint32, total uint64, ok bool) {
	hi, lo := bits.Mul64(uint64(count), uint64(elemSize))
	if hi != 0 {
		return 0, math.MaxUint64, false
	}
	if count < 0 || elemSize < 0 || lo > math.MaxUint32 || lo > math.MaxInt {
		return 0, lo, false
	}
	return uint32(lo), lo, true
}

// AlignUp rounds n up to the next multiple of align, which must be a power of two.
func AlignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end], true
}
