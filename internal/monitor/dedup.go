package monitor

import "sync"

// dedupState tracks the last observed in-stock flag per product key.
//
// Two states per key: available and not-available. An alert fires only on the
// not-available -> available edge; an unseen key counts as not-available, so
// the first in-stock observation always alerts. State lives for the process
// lifetime only; after a restart the first cycle may re-alert for products
// that stayed in stock, which is accepted for this scope.
type dedupState struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newDedupState() *dedupState {
	return &dedupState{seen: map[string]bool{}}
}

// Observe records an observation and reports whether it should alert.
func (d *dedupState) Observe(key string, inStock bool) (alert bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	was := d.seen[key]
	d.seen[key] = inStock
	return inStock && !was
}

// Forget drops the state for a key, e.g. when the product is removed. If the
// product is re-added later it alerts like a fresh one.
func (d *dedupState) Forget(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, key)
}

// Last returns the last observed flag for a key (false if never observed).
func (d *dedupState) Last(key string) (inStock, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.seen[key]
	return v, ok
}
