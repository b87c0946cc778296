// Package prop describes MAPI property values as they sit in MAPI-allocated
// memory: tags and types, the fixed C layouts from MAPIDefs.h, size helpers
// for variable-length structures, and decoding of the SPropValue union.
//
// Decoding copies strings and arrays into Go memory, so decoded values stay
// valid after the underlying buffers are freed. Every pointer is checked for
// nil and every counted array for size overflow before it is read.
package prop
