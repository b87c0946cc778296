package alloc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/joshuapare/mapikit/internal/testutil"
	"github.com/joshuapare/mapikit/mapi/alloc"
	"github.com/joshuapare/mapikit/mapi/sys"
)

func TestSetLoggerNilRestoresNop(t *testing.T) {
	t.Cleanup(func() { alloc.SetLogger(nil) })

	require.NotNil(t, alloc.Logger())
	alloc.SetLogger(nil)
	require.NotNil(t, alloc.Logger())

	rec := testutil.NewRecorder()
	rec.FailNext(1, sys.E_FAIL)
	assert.NotPanics(t, func() {
		_, err := alloc.New[byte](rec, 8)
		assert.ErrorIs(t, err, alloc.ErrAllocationFailed)
	})

	u, err := alloc.New[byte](rec, 8)
	require.NoError(t, err)
	assert.NotPanics(t, func() { require.NoError(t, u.Close()) })
	rec.AssertBalanced(t)
}

func TestSetLoggerReceivesEvents(t *testing.T) {
	t.Cleanup(func() { alloc.SetLogger(nil) })

	core, logs := observer.New(zapcore.DebugLevel)
	alloc.SetLogger(zap.New(core))

	rec := testutil.NewRecorder()
	rec.FailNext(1, sys.E_OUTOFMEMORY)
	_, err := alloc.New[uint32](rec, 4)
	require.Error(t, err)

	u, err := alloc.New[uint32](rec, 4)
	require.NoError(t, err)
	require.NoError(t, u.Close())

	assert.Equal(t, 1, logs.FilterMessage("foreign allocation failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("freeing root buffer").Len())
}
