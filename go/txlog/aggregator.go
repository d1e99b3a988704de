package txlog

import "sync"

// Aggregator buffers log entries by order ID as the three topic
// subscriptions deliver them during the replay window. Appends are in
// arrival order; no cross-order ordering is maintained or required.
// Subscribers may deliver concurrently, so appends are serialized.
type Aggregator struct {
	mu      sync.Mutex
	entries map[string][]Entry
	// orderIDs retains first-seen order so iteration is deterministic.
	orderIDs []string
}

func NewAggregator() *Aggregator {
	return &Aggregator{entries: make(map[string][]Entry)}
}

// Add appends |entry| to its order's list.
func (a *Aggregator) Add(entry Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.entries[entry.orderID]; !ok {
		a.orderIDs = append(a.orderIDs, entry.orderID)
	}
	a.entries[entry.orderID] = append(a.entries[entry.orderID], entry)
}

// Len returns the number of distinct orders aggregated.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// Each invokes |fn| once per order, in first-seen order, with that
// order's entries in arrival order. The callback receives a copy of
// the slice header; entries themselves are immutable.
func (a *Aggregator) Each(fn func(orderID string, entries []Entry)) {
	a.mu.Lock()
	var ids = append([]string(nil), a.orderIDs...)
	a.mu.Unlock()

	for _, id := range ids {
		a.mu.Lock()
		var entries = a.entries[id]
		a.mu.Unlock()
		fn(id, entries)
	}
}
