package prop

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/mapikit/internal/testutil"
	"github.com/joshuapare/mapikit/mapi/sys"
)

// newProps allocates a root SPropValue array the way a MAPI provider would.
func newProps(t *testing.T, a sys.Allocator, vals ...int32) *SPropValue {
	t.Helper()
	status, p := a.AllocateBuffer(uint32(len(vals)) * uint32(unsafe.Sizeof(SPropValue{})))
	require.Equal(t, sys.S_OK, status)
	props := unsafe.Slice((*SPropValue)(p), len(vals))
	for i, v := range vals {
		SetScalar(&props[i], NewTag(PT_LONG, uint16(0x6600+i)), v)
	}
	return (*SPropValue)(p)
}

func TestRowTakesOwnership(t *testing.T) {
	rec := testutil.NewRecorder()
	defer rec.AssertBalanced(t)

	src := SRow{Count: 2, Props: newProps(t, rec, 10, 20)}
	ptr := unsafe.Pointer(src.Props)

	row := TakeRow(rec, &src)
	assert.Zero(t, src.Count)
	assert.Nil(t, src.Props)

	assert.Equal(t, 2, row.Len())
	assert.False(t, row.IsEmpty())
	assert.Equal(t, []Value{Long(10), Long(20)}, row.Values())

	v, ok := row.Find(NewTag(PT_LONG, 0x6601))
	require.True(t, ok)
	assert.Equal(t, Long(20), v)
	v, ok = row.Find(NewTag(PT_UNSPECIFIED, 0x6600))
	require.True(t, ok)
	assert.Equal(t, Long(10), v)
	_, ok = row.Find(NewTag(PT_LONG, 0x1234))
	assert.False(t, ok)

	require.NoError(t, row.Close())
	require.NoError(t, row.Close())
	assert.Equal(t, 1, rec.FreeCount(ptr))
	assert.True(t, row.IsEmpty())
}

func TestRowWithoutProps(t *testing.T) {
	rec := testutil.NewRecorder()
	row := TakeRow(rec, &SRow{Count: 3})
	assert.Zero(t, row.Len(), "a nil array has no values whatever the count says")
	assert.True(t, row.IsEmpty())
	assert.Nil(t, row.Values())
	require.NoError(t, row.Close())
	assert.Zero(t, rec.Count(testutil.OpFreeBuffer))
}

func TestRowSet(t *testing.T) {
	rec := testutil.NewRecorder()
	defer rec.AssertBalanced(t)

	// Simulate a provider filling the out-parameter.
	set := NewRowSet(rec)
	assert.True(t, set.IsEmpty())

	status, p := rec.AllocateBuffer(uint32(CbNewSRowSet(2)))
	require.Equal(t, sys.S_OK, status)
	rs := (*SRowSet)(p)
	rs.Count = 2
	rows := unsafe.Slice(&rs.Rows[0], 2)
	rows[0] = SRow{Count: 1, Props: newProps(t, rec, 1)}
	rows[1] = SRow{Count: 2, Props: newProps(t, rec, 2, 3)}
	*set.Addr() = p

	require.Equal(t, 2, set.Len())
	taken := set.Rows()
	require.Len(t, taken, 2)
	assert.Equal(t, []Value{Long(2), Long(3)}, taken[1].Values())

	// Rows moved out are not freed by the set.
	require.NoError(t, set.Close())
	assert.Equal(t, 1, rec.FreeCount(p))
	assert.Equal(t, 2, rec.LiveRoots())

	for _, r := range taken {
		require.NoError(t, r.Close())
	}
}

func TestRowSetCloseFreesRemainingRows(t *testing.T) {
	rec := testutil.NewRecorder()
	defer rec.AssertBalanced(t)

	set := NewRowSet(rec)
	status, p := rec.AllocateBuffer(uint32(CbNewSRowSet(1)))
	require.Equal(t, sys.S_OK, status)
	rs := (*SRowSet)(p)
	rs.Count = 1
	rs.Rows[0] = SRow{Count: 1, Props: newProps(t, rec, 7)}
	*set.Addr() = p

	require.NoError(t, set.Close())
	assert.Equal(t, 2, rec.Count(testutil.OpAllocateBuffer))
	assert.Equal(t, 2, rec.Count(testutil.OpFreeBuffer))
}
