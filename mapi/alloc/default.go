package alloc

import (
	"sync"

	"go.uber.org/zap"

	"github.com/joshuapare/mapikit/mapi/heap"
	"github.com/joshuapare/mapikit/mapi/sys"
)

var (
	defaultAlloc sys.Allocator
	defaultOnce  sync.Once
)

// Default returns the process-wide allocator. On Windows this is mapi32.dll
// when it loads; everywhere else, and when it does not, it is a shared
// heap.Allocator.
func Default() sys.Allocator {
	defaultOnce.Do(func() {
		a, err := platformAllocator()
		if err == nil {
			defaultAlloc = a
			return
		}
		Logger().Debug("platform allocator unavailable, using heap", zap.Error(err))
		h, err := heap.New(heap.WithLogger(Logger()))
		if err != nil {
			// heap.New only fails on invalid options.
			panic(err)
		}
		defaultAlloc = h
	})
	return defaultAlloc
}
