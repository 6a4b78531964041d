package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"laundromat/internal/model"
	"laundromat/internal/repository"
)

// memOrderRepo is an in-memory repository.OrderRepository. Get and Update
// hand out deep copies, like a real store: callers never share memory with
// the persisted record.
type memOrderRepo struct {
	mu        sync.Mutex
	orders    map[string]*model.Order
	seq       int
	updateErr error
	updates   int
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[string]*model.Order)}
}

func (r *memOrderRepo) put(order *model.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = cloneOrder(order)
}

func (r *memOrderRepo) Create(_ context.Context, order *model.Order) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = cloneOrder(order)
	return cloneOrder(order), nil
}

func (r *memOrderRepo) Get(_ context.Context, id string) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

func (r *memOrderRepo) Update(_ context.Context, order *model.Order) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	if _, ok := r.orders[order.ID]; !ok {
		return nil, repository.ErrOrderNotFound
	}
	r.updates++
	r.orders[order.ID] = cloneOrder(order)
	return cloneOrder(order), nil
}

func (r *memOrderRepo) ListByCustomer(_ context.Context, customerID string) ([]model.Order, error) {
	return r.filter(func(o *model.Order) bool { return o.CustomerID == customerID }), nil
}

func (r *memOrderRepo) ListByDriver(_ context.Context, driverID string) ([]model.Order, error) {
	return r.filter(func(o *model.Order) bool { return o.DriverID == driverID }), nil
}

func (r *memOrderRepo) ListAll(_ context.Context) ([]model.Order, error) {
	return r.filter(func(*model.Order) bool { return true }), nil
}

func (r *memOrderRepo) ListRecurring(_ context.Context) ([]model.Order, error) {
	return r.filter(func(o *model.Order) bool {
		return o.IsRecurring && !model.IsTerminalStatus(o.Status)
	}), nil
}

func (r *memOrderRepo) ListDueForLock(_ context.Context, before time.Time, limit int) ([]model.Order, error) {
	due := r.filter(func(o *model.Order) bool {
		return !o.IsLocked && !o.DeliveryDate.After(before) && !model.IsTerminalStatus(o.Status) &&
			o.Status != model.StatusDelivered
	})
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (r *memOrderRepo) NextOrderNumber(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return fmt.Sprintf("ORD%06d", r.seq), nil
}

func (r *memOrderRepo) filter(keep func(*model.Order) bool) []model.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Order
	for _, o := range r.orders {
		if keep(o) {
			out = append(out, *cloneOrder(o))
		}
	}
	return out
}

func cloneOrder(o *model.Order) *model.Order {
	c := *o
	if o.Items != nil {
		c.Items = append([]model.OrderItem(nil), o.Items...)
	}
	if o.RecurrencePattern != nil {
		p := *o.RecurrencePattern
		c.RecurrencePattern = &p
	}
	if o.PendingModifications != nil {
		m := *o.PendingModifications
		if m.Items != nil {
			m.Items = append([]model.OrderItem(nil), o.PendingModifications.Items...)
		}
		if m.DeliveryDate != nil {
			d := *o.PendingModifications.DeliveryDate
			m.DeliveryDate = &d
		}
		if m.RecurrencePattern != nil {
			p := *o.PendingModifications.RecurrencePattern
			m.RecurrencePattern = &p
		}
		c.PendingModifications = &m
	}
	if o.LockedAt != nil {
		t := *o.LockedAt
		c.LockedAt = &t
	}
	if o.DeliveriesHistory != nil {
		c.DeliveriesHistory = append([]model.DeliveryRecord(nil), o.DeliveriesHistory...)
	}
	return &c
}

// stubNotifier records dispatched events and can be forced to fail.
type stubNotifier struct {
	mu    sync.Mutex
	err   error
	kinds []string
}

func (n *stubNotifier) NotifyUser(_ context.Context, _, _, _, kind string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.kinds = append(n.kinds, kind)
	return nil
}

func (n *stubNotifier) NotifyRole(_ context.Context, _, _, _, kind string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.kinds = append(n.kinds, kind)
	return nil
}
