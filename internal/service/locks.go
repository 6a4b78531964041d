package service

import "sync"

// OrderLocks serializes mutations per order id so no two operations race
// to set or clear the pending-modification slot on the same order. One
// instance is shared by every service that mutates orders. Entries are
// refcounted and evicted when the last holder releases, so the map only
// holds ids with an operation in flight.
type OrderLocks struct {
	mu    sync.Mutex
	locks map[string]*orderLock
}

type orderLock struct {
	mu   sync.Mutex
	refs int
}

func NewOrderLocks() *OrderLocks {
	return &OrderLocks{locks: make(map[string]*orderLock)}
}

// acquire locks the given order id and returns the unlock func.
func (l *OrderLocks) acquire(orderID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[orderID]
	if !ok {
		entry = &orderLock{}
		l.locks[orderID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, orderID)
		}
		l.mu.Unlock()
	}
}
