//go:build !windows

package alloc

import (
	"errors"

	"github.com/joshuapare/mapikit/mapi/sys"
)

var errNoMAPI = errors.New("alloc: mapi32.dll is only available on windows")

func platformAllocator() (sys.Allocator, error) {
	return nil, errNoMAPI
}
