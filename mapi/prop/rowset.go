package prop

import (
	"unsafe"

	"github.com/joshuapare/mapikit/mapi/alloc"
	"github.com/joshuapare/mapikit/mapi/sys"
)

// RowSet holds an SRowSet returned through an out-parameter, such as the
// result of IMAPITable::QueryRows. Each row's value array and the set itself
// are separate root buffers.
type RowSet struct {
	alloc sys.Allocator
	set   *alloc.OutParam[SRowSet]
}

// NewRowSet returns an empty row set that frees through a.
func NewRowSet(a sys.Allocator) *RowSet {
	return &RowSet{alloc: a, set: alloc.NewOutParam[SRowSet](a)}
}

// Addr returns the location a foreign routine writes the SRowSet pointer to.
func (s *RowSet) Addr() *unsafe.Pointer {
	return s.set.Addr()
}

// Len returns the number of rows.
func (s *RowSet) Len() int {
	set, ok := s.set.Get()
	if !ok {
		return 0
	}
	return int(set.Count)
}

// IsEmpty reports whether there are no rows.
func (s *RowSet) IsEmpty() bool {
	return s.Len() == 0
}

func (s *RowSet) rows() []SRow {
	set, ok := s.set.Get()
	if !ok || set.Count == 0 {
		return nil
	}
	return unsafe.Slice(&set.Rows[0], set.Count)
}

// Rows moves every row out of the set. The caller closes each Row; the set
// still needs Close for its own buffer.
func (s *RowSet) Rows() []*Row {
	src := s.rows()
	out := make([]*Row, len(src))
	for i := range src {
		out[i] = TakeRow(s.alloc, &src[i])
	}
	return out
}

// Close frees the value arrays of rows that were not taken, then the set.
func (s *RowSet) Close() error {
	rows := s.rows()
	for i := range rows {
		if rows[i].Props != nil {
			s.alloc.FreeBuffer(unsafe.Pointer(rows[i].Props))
			rows[i].Props = nil
			rows[i].Count = 0
		}
	}
	return s.set.Close()
}
