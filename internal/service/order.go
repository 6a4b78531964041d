package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"laundromat/internal/model"
	"laundromat/internal/pricing"
	"laundromat/internal/repository"
	"laundromat/internal/schedule"
)

var ErrInvalidTransition = errors.New("invalid status transition")

type OrderService struct {
	orders   repository.OrderRepository
	calc     *pricing.Calculator
	notifier Notifier
	locks    *OrderLocks
	now      func() time.Time
}

func NewOrderService(orders repository.OrderRepository, calc *pricing.Calculator, notifier Notifier, locks *OrderLocks) *OrderService {
	return &OrderService{
		orders:   orders,
		calc:     calc,
		notifier: notifier,
		locks:    locks,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrderInput carries the caller-supplied fields of a new order.
type CreateOrderInput struct {
	CustomerID        string                   `json:"customer_id"`
	IsRecurring       bool                     `json:"is_recurring"`
	RecurrencePattern *model.RecurrencePattern `json:"recurrence_pattern,omitempty"`
	DeliveryDate      time.Time                `json:"delivery_date"`
	Items             []model.OrderItem        `json:"items"`
}

// Create prices the items, assigns the next order number and persists the
// order in pending status. Recurring orders must carry a valid pattern.
func (s *OrderService) Create(ctx context.Context, input CreateOrderInput) (*model.Order, error) {
	if len(input.Items) == 0 {
		return nil, fmt.Errorf("%w: order has no items", pricing.ErrInvalidItem)
	}
	totals, err := s.calc.Totals(input.Items)
	if err != nil {
		return nil, err
	}
	if input.IsRecurring {
		if err := schedule.ValidatePattern(input.RecurrencePattern); err != nil {
			return nil, err
		}
	}

	number, err := s.orders.NextOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order := &model.Order{
		ID:                uuid.NewString(),
		OrderNumber:       number,
		CustomerID:        input.CustomerID,
		IsRecurring:       input.IsRecurring,
		RecurrencePattern: input.RecurrencePattern,
		DeliveryDate:      input.DeliveryDate,
		Status:            model.StatusPending,
		Items:             input.Items,
		TotalAmount:       totals.Subtotal,
		GSTAmount:         totals.Tax,
		TotalWithGST:      totals.Total,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	created, err := s.orders.Create(ctx, order)
	if err != nil {
		return nil, err
	}

	kind := "order"
	if created.IsRecurring {
		kind = "recurring order"
	}
	s.notify(ctx, created.CustomerID,
		"Order Created",
		fmt.Sprintf("Your %s %s has been created for delivery on %s.", kind, created.OrderNumber, created.DeliveryDate.Format("2006-01-02")),
		"order")

	return created, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*model.Order, error) {
	return s.orders.Get(ctx, id)
}

// ListForUser scopes the order list by role: customers see their own
// orders, drivers their assignments, admins and owners everything.
func (s *OrderService) ListForUser(ctx context.Context, userID, role string) ([]model.Order, error) {
	switch role {
	case model.RoleCustomer:
		return s.orders.ListByCustomer(ctx, userID)
	case model.RoleDriver:
		return s.orders.ListByDriver(ctx, userID)
	default:
		return s.orders.ListAll(ctx)
	}
}

func (s *OrderService) ListRecurring(ctx context.Context) ([]model.Order, error) {
	return s.orders.ListRecurring(ctx)
}

// Occurrences projects the future delivery dates of an order. The result
// is a derived preview; nothing is persisted.
func (s *OrderService) Occurrences(ctx context.Context, orderID string, horizon time.Time, maxIterations int) ([]schedule.Occurrence, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return schedule.Project(*order, horizon, maxIterations), nil
}

// UpdateStatus moves an order through its lifecycle. Delivering a
// recurring order rolls its anchor forward one interval and records the
// completed occurrence, so the order always shows its next delivery.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, status, notes string) (*model.Order, error) {
	unlock := s.locks.acquire(orderID)
	defer unlock()

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !model.CanTransition(order.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, status)
	}

	now := s.now()
	order.Status = status
	order.UpdatedAt = now

	if status == model.StatusDelivered && order.IsRecurring && order.RecurrencePattern != nil {
		order.DeliveriesHistory = append(order.DeliveriesHistory, model.DeliveryRecord{
			OccurrenceDate: order.DeliveryDate,
			DeliveredAt:    now,
			DriverID:       order.DriverID,
			Notes:          notes,
		})
		if next, ok := schedule.Next(*order.RecurrencePattern, order.DeliveryDate); ok {
			order.DeliveryDate = next
			order.IsLocked = false
			order.LockedAt = nil
		}
	}

	updated, err := s.orders.Update(ctx, order)
	if err != nil {
		return nil, err
	}

	if status == model.StatusDelivered || status == model.StatusCancelled {
		s.notify(ctx, updated.CustomerID,
			"Order "+status,
			fmt.Sprintf("Order %s is now %s.", updated.OrderNumber, status),
			"order")
	}
	return updated, nil
}

// AssignDriver sets or clears the driver on a non-terminal order.
func (s *OrderService) AssignDriver(ctx context.Context, orderID, driverID string) (*model.Order, error) {
	unlock := s.locks.acquire(orderID)
	defer unlock()

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if model.IsTerminalStatus(order.Status) {
		return nil, fmt.Errorf("%w: order is %s", ErrInvalidTransition, order.Status)
	}

	order.DriverID = driverID
	order.UpdatedAt = s.now()
	return s.orders.Update(ctx, order)
}

// CancelRecurring cancels a recurring order and discards any open
// proposal on it. Customers can only cancel their own orders; owner and
// admin can cancel any.
func (s *OrderService) CancelRecurring(ctx context.Context, orderID, requestedBy, requesterRole string) (*model.Order, error) {
	unlock := s.locks.acquire(orderID)
	defer unlock()

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !model.IsStaff(requesterRole) && order.CustomerID != requestedBy {
		return nil, fmt.Errorf("%w: order %s", ErrNotOrderOwner, order.OrderNumber)
	}
	if !order.IsRecurring {
		return nil, fmt.Errorf("%w: order %s is not recurring", ErrInvalidTransition, order.OrderNumber)
	}
	if model.IsTerminalStatus(order.Status) {
		return nil, fmt.Errorf("%w: order is %s", ErrInvalidTransition, order.Status)
	}

	order.Status = model.StatusCancelled
	order.ModificationStatus = model.ModificationNone
	order.PendingModifications = nil
	order.UpdatedAt = s.now()

	updated, err := s.orders.Update(ctx, order)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, updated.CustomerID,
		"Recurring Order Cancelled",
		fmt.Sprintf("Your recurring order %s has been cancelled. No further deliveries will be scheduled.", updated.OrderNumber),
		"order")

	return updated, nil
}

// RecalculateTotal re-derives the stored totals from the order's items.
// Repair operation for orders whose stored total drifted from the items.
func (s *OrderService) RecalculateTotal(ctx context.Context, orderID string) (*model.Order, error) {
	unlock := s.locks.acquire(orderID)
	defer unlock()

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(order.Items) == 0 {
		return nil, fmt.Errorf("%w: order has no items", pricing.ErrInvalidItem)
	}

	totals, err := s.calc.Totals(order.Items)
	if err != nil {
		return nil, err
	}
	if order.TotalAmount.Equal(totals.Subtotal) && order.GSTAmount.Equal(totals.Tax) {
		return order, nil
	}

	order.TotalAmount = totals.Subtotal
	order.GSTAmount = totals.Tax
	order.TotalWithGST = totals.Total
	order.UpdatedAt = s.now()
	return s.orders.Update(ctx, order)
}

func (s *OrderService) notify(ctx context.Context, userID, title, message, kind string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyUser(ctx, userID, title, message, kind); err != nil {
		slog.Warn("notification failed", "user_id", userID, "kind", kind, "error", err)
	}
}
