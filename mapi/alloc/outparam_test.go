package alloc_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/mapikit/internal/testutil"
	"github.com/joshuapare/mapikit/mapi/alloc"
	"github.com/joshuapare/mapikit/mapi/sys"
)

// fillCounts mimics a foreign routine that allocates its own result.
func fillCounts(a sys.Allocator, out *unsafe.Pointer, n int) sys.HRESULT {
	status, p := a.AllocateBuffer(uint32(n * 4))
	if status.Failed() {
		return status
	}
	vals := unsafe.Slice((*uint32)(p), n)
	for i := range vals {
		vals[i] = uint32(i + 1)
	}
	*out = p
	return sys.S_OK
}

func TestOutParam(t *testing.T) {
	rec := testutil.NewRecorder()
	defer rec.AssertBalanced(t)

	out := alloc.NewOutParam[uint32](rec)
	_, ok := out.Get()
	assert.False(t, ok, "an empty out-param has nothing to read")
	_, ok = out.Slice(1)
	assert.False(t, ok)

	require.Equal(t, sys.S_OK, fillCounts(rec, out.Addr(), 3))

	first, ok := out.Get()
	require.True(t, ok)
	assert.Equal(t, uint32(1), *first)
	vals, ok := out.Slice(3)
	require.True(t, ok)
	assert.Equal(t, []uint32{1, 2, 3}, vals)

	ptr := *out.Addr()
	require.NoError(t, out.Close())
	require.NoError(t, out.Close())
	assert.Equal(t, 1, rec.FreeCount(ptr))
}

func TestOutParamCloseEmpty(t *testing.T) {
	rec := testutil.NewRecorder()
	out := alloc.NewOutParam[uint64](rec)
	require.NoError(t, out.Close())
	assert.Zero(t, rec.Count(testutil.OpFreeBuffer))
}
