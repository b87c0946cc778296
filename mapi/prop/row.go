package prop

import (
	"unsafe"

	"github.com/joshuapare/mapikit/mapi/alloc"
	"github.com/joshuapare/mapikit/mapi/sys"
)

// Row owns the SPropValue array of one table row. The array is a root buffer
// and is freed with MAPIFreeBuffer on Close.
type Row struct {
	count int
	props *alloc.OutParam[SPropValue]
}

// TakeRow moves the values out of r. r is left empty so the values are not
// freed twice.
func TakeRow(a sys.Allocator, r *SRow) *Row {
	row := &Row{
		count: int(r.Count),
		props: alloc.NewOutParam[SPropValue](a),
	}
	*row.props.Addr() = unsafe.Pointer(r.Props)
	r.Count = 0
	r.Props = nil
	return row
}

// Len returns the number of values, or 0 if the row has no array.
func (r *Row) Len() int {
	if _, ok := r.props.Get(); !ok {
		return 0
	}
	return r.count
}

// IsEmpty reports whether the row has no values.
func (r *Row) IsEmpty() bool {
	return r.Len() == 0
}

// Values decodes every value in the row.
func (r *Row) Values() []Value {
	vals, ok := r.props.Slice(r.count)
	if !ok {
		return nil
	}
	out := make([]Value, len(vals))
	for i := range vals {
		out[i] = Decode(&vals[i])
	}
	return out
}

// Find returns the first value whose tag matches tag, ignoring type when
// tag's type is PT_UNSPECIFIED.
func (r *Row) Find(tag Tag) (Value, bool) {
	vals, ok := r.props.Slice(r.count)
	if !ok {
		return nil, false
	}
	for i := range vals {
		t := vals[i].PropTag
		if t == tag || (tag.Type() == PT_UNSPECIFIED && t.ID() == tag.ID()) {
			return Decode(&vals[i]), true
		}
	}
	return nil, false
}

// Close frees the value array.
func (r *Row) Close() error {
	r.count = 0
	return r.props.Close()
}
