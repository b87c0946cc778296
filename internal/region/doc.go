// Package region maps page-granular, read/write memory that the Go garbage
// collector neither scans nor moves. The heap allocator carves MAPI-style root
// and chained buffers out of these regions.
//
// Platform implementations:
//
//   - unix: anonymous private mmap(2)
//   - windows: VirtualAlloc with MEM_COMMIT|MEM_RESERVE
//   - other: a pinned Go allocation, kept alive until its cleanup runs
package region
