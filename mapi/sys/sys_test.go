package sys

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHRESULT_FailedSucceeded(t *testing.T) {
	assert.True(t, S_OK.Succeeded())
	assert.False(t, S_OK.Failed())
	assert.True(t, E_OUTOFMEMORY.Failed())
	assert.True(t, MAPI_E_NOT_FOUND.Failed())

	oom, callFailed := E_OUTOFMEMORY, MAPI_E_CALL_FAILED
	assert.Equal(t, uint32(0x8007000E), uint32(oom))
	assert.Equal(t, uint32(0x80004005), uint32(callFailed))
}

func TestHRESULT_Error(t *testing.T) {
	assert.Equal(t, "E_OUTOFMEMORY (0x8007000E)", E_OUTOFMEMORY.Error())
	assert.Equal(t, "HRESULT 0x80040600", HRESULT(0x80040600-1<<32).Error())

	wrapped := fmt.Errorf("allocate: %w", E_INVALIDARG)
	require.True(t, errors.Is(wrapped, E_INVALIDARG))
	require.False(t, errors.Is(wrapped, E_FAIL))
}

func TestExportName(t *testing.T) {
	tests := []struct {
		name     string
		fn       string
		argBytes uintptr
		goarch   string
		want     string
	}{
		{"amd64 is never decorated", "MAPIAllocateBuffer", 8, "amd64", "MAPIAllocateBuffer"},
		{"arm64 is never decorated", "MAPIFreeBuffer", 8, "arm64", "MAPIFreeBuffer"},
		{"386 stdcall suffix", "MAPIAllocateBuffer", 8, "386", "MAPIAllocateBuffer@8"},
		{"386 allocate more", "MAPIAllocateMore", 12, "386", "MAPIAllocateMore@12"},
		{"386 undecorated export", "FixMAPI", 0, "386", "FixMAPI"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExportName(tc.fn, tc.argBytes, tc.goarch))
		})
	}
}

func TestInitFlagsBits(t *testing.T) {
	assert.Zero(t, InitFlags{}.Bits())
	assert.Equal(t, uint32(0x00010009), InitFlags{
		MultithreadNotifications: true,
		NTService:                true,
		NoCoInit:                 true,
	}.Bits())
}

func TestInitializedBalancesUninitialize(t *testing.T) {
	var got MAPIINIT
	stops := 0
	g, err := initialize(InitFlags{NoCoInit: true},
		func(block *MAPIINIT) HRESULT {
			got = *block
			return S_OK
		},
		func() { stops++ })
	require.NoError(t, err)
	assert.Equal(t, MAPIINIT{Version: MAPI_INIT_VERSION, Flags: MAPI_NO_COINIT}, got)

	require.NoError(t, g.Acquire())
	require.NoError(t, g.Close())
	assert.Zero(t, stops, "a shared guard stays initialized")
	require.NoError(t, g.Close())
	assert.Equal(t, 1, stops)

	require.NoError(t, g.Close())
	assert.Equal(t, 1, stops, "extra Close calls do nothing")
	assert.ErrorIs(t, g.Acquire(), ErrUninitialized)
}

func TestInitializeFailureSkipsUninitialize(t *testing.T) {
	stops := 0
	g, err := initialize(InitFlags{},
		func(*MAPIINIT) HRESULT { return MAPI_E_CALL_FAILED },
		func() { stops++ })
	require.ErrorIs(t, err, MAPI_E_CALL_FAILED)
	assert.Nil(t, g)
	assert.Zero(t, stops)
}
