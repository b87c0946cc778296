package heap

// Stats is a snapshot of allocator bookkeeping.
type Stats struct {
	LiveRoots    int // roots allocated and not yet freed
	LiveChained  int // chained buffers under live roots
	BytesInUse   int // rounded bytes handed out to live roots and their chains
	Regions      int // mapped regions, idle ones included
	IdleRegions  int
	Frees        int // successful MAPIFreeBuffer calls
	InvalidFrees int // MAPIFreeBuffer calls on pointers that were not live roots
}

// Stats returns current counters.
func (a *Allocator) Stats() Stats {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	st := a.stats
	if a.idle != nil {
		st.IdleRegions = a.idle.Len()
	}
	return st
}
