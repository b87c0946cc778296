package testutil

import (
	"testing"
)

// AssertBalanced checks that every root was freed exactly once and nothing
// else was passed to FreeBuffer.
//
// Example:
//
//	rec := testutil.NewRecorder()
//	defer rec.AssertBalanced(t)
func (r *Recorder) AssertBalanced(t testing.TB) {
	t.Helper()
	if n := r.LiveRoots(); n != 0 {
		t.Errorf("%d root buffer(s) were never freed", n)
	}
	if n := r.DoubleFrees(); n != 0 {
		t.Errorf("%d root buffer(s) were freed more than once", n)
	}
	if n := r.InvalidFrees(); n != 0 {
		t.Errorf("FreeBuffer was called %d time(s) with a pointer that is not a root", n)
	}
}
