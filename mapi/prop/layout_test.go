package prop

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/mapikit/internal/testutil"
	"github.com/joshuapare/mapikit/mapi/alloc"
)

func TestCbNewSizes(t *testing.T) {
	tagSize := int(unsafe.Sizeof(Tag(0)))
	assert.Equal(t, 4+2*tagSize, CbNewSPropTagArray(2))
	assert.Equal(t, 4, CbNewSPropTagArray(0))
	assert.Equal(t, 4+16, CbNewENTRYID(16))

	row := int(unsafe.Sizeof(SRow{}))
	set := int(unsafe.Sizeof(SRowSet{}))
	assert.Equal(t, set-row+3*row, CbNewSRowSet(3))

	problem := int(unsafe.Sizeof(SPropProblem{}))
	assert.Equal(t, 12, problem)
	assert.Equal(t, 4+2*problem, CbNewSPropProblemArray(2))

	entry := int(unsafe.Sizeof(ADRENTRY{}))
	list := int(unsafe.Sizeof(ADRLIST{}))
	assert.Equal(t, list-entry+2*entry, CbNewADRLIST(2))
}

func TestSPropValueLayout(t *testing.T) {
	var v SPropValue
	ptr := unsafe.Sizeof(uintptr(0))
	assert.Equal(t, uintptr(8), unsafe.Offsetof(v.Value))
	assert.Equal(t, 8+2*ptr, unsafe.Sizeof(v))
	assert.Equal(t, 2*ptr, unsafe.Sizeof(SBinary{}), "the union must hold an SBinary")
}

// A byte buffer sized for two tags can be reinterpreted as an SPropTagArray.
func TestTagArrayFromByteBuffer(t *testing.T) {
	rec := testutil.NewRecorder()
	defer rec.AssertBalanced(t)

	raw, err := alloc.New[byte](rec, CbNewSPropTagArray(2))
	require.NoError(t, err)

	tags, err := alloc.Into[SPropTagArray](raw)
	require.NoError(t, err)
	require.NoError(t, tags.Write(func(a *SPropTagArray) error {
		a.Count = 2
		list := a.List()
		list[0] = NewTag(PT_LONG, 0x0E08)
		list[1] = NewTag(PT_UNICODE, 0x3001)
		return nil
	}))

	ready := tags.AssumeInit()
	got, err := ready.Load()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), got.Count)

	require.NoError(t, ready.Read(func(a []SPropTagArray) error {
		require.Len(t, a, 1)
		assert.Equal(t, []Tag{0x0E080003, 0x3001001F}, a[0].List())
		return nil
	}))
	require.NoError(t, ready.Close())
}

func TestEmptyTagArrayList(t *testing.T) {
	var a SPropTagArray
	assert.Nil(t, a.List())
}
