//go:build windows

package alloc

import "github.com/joshuapare/mapikit/mapi/sys"

func platformAllocator() (sys.Allocator, error) {
	m := sys.NewMAPI32()
	if err := m.Load(); err != nil {
		return nil, err
	}
	return m, nil
}
