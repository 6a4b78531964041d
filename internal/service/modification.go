package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"laundromat/internal/model"
	"laundromat/internal/pricing"
	"laundromat/internal/repository"
	"laundromat/internal/schedule"
)

var (
	ErrInvalidProposal       = errors.New("invalid modification proposal")
	ErrNoPendingModification = errors.New("no pending modification")
	ErrOrderLocked           = errors.New("order is locked for modifications")
	ErrNotOrderOwner         = errors.New("order belongs to another customer")
)

// ModificationChanges is a proposed change set. Items, if present, replace
// the order's items; DeliveryDate and RecurrencePattern adjust the
// schedule. An all-nil change set is rejected.
type ModificationChanges struct {
	Items             []model.OrderItem        `json:"items,omitempty"`
	DeliveryDate      *time.Time               `json:"delivery_date,omitempty"`
	RecurrencePattern *model.RecurrencePattern `json:"recurrence_pattern,omitempty"`
}

func (c ModificationChanges) empty() bool {
	return c.Items == nil && c.DeliveryDate == nil && c.RecurrencePattern == nil
}

// ModificationService runs the propose/approve/reject workflow. Every
// operation is all-or-nothing: validation happens before the single
// repository update, and the updated order returned by that update is the
// operation's result. Callers must use the returned record directly rather
// than re-reading, which is what makes reads after a mutation consistent.
type ModificationService struct {
	orders   repository.OrderRepository
	calc     *pricing.Calculator
	notifier Notifier
	locks    *OrderLocks
	now      func() time.Time
}

func NewModificationService(orders repository.OrderRepository, calc *pricing.Calculator, notifier Notifier, locks *OrderLocks) *ModificationService {
	return &ModificationService{
		orders:   orders,
		calc:     calc,
		notifier: notifier,
		locks:    locks,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Propose opens a modification proposal on an order. Fails if a proposal
// is already pending, the change set is empty or malformed, or the order
// is past its edit cutoff. Customers can only propose on their own orders;
// owner and admin can propose on any order and are not bound by the lock
// or the cutoff. The proposal always carries the tax-exclusive subtotal
// the change would produce, computed by the same calculator that prices
// approvals.
func (s *ModificationService) Propose(ctx context.Context, orderID, requestedBy, requesterRole string, changes ModificationChanges) (*model.Order, error) {
	unlock := s.locks.acquire(orderID)
	defer unlock()

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	staff := model.IsStaff(requesterRole)
	if !staff && order.CustomerID != requestedBy {
		return nil, fmt.Errorf("%w: order %s", ErrNotOrderOwner, order.OrderNumber)
	}
	if order.ModificationStatus == model.ModificationPending {
		return nil, fmt.Errorf("%w: a proposal is already pending on order %s", ErrInvalidProposal, order.OrderNumber)
	}
	if changes.empty() {
		return nil, fmt.Errorf("%w: empty change set", ErrInvalidProposal)
	}
	if changes.Items != nil && len(changes.Items) == 0 {
		return nil, fmt.Errorf("%w: proposed item set is empty", ErrInvalidProposal)
	}
	if changes.RecurrencePattern != nil {
		if err := schedule.ValidatePattern(changes.RecurrencePattern); err != nil {
			return nil, err
		}
	}
	if !staff && (order.IsLocked || s.pastEditCutoff(order)) {
		return nil, fmt.Errorf("%w: order %s", ErrOrderLocked, order.OrderNumber)
	}

	// The proposed total is a subtotal consistent with what storage holds;
	// tax is added only at display time.
	items := changes.Items
	if items == nil {
		items = order.Items
	}
	totals, err := s.calc.Totals(items)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order.PendingModifications = &model.ModificationProposal{
		Items:             changes.Items,
		DeliveryDate:      changes.DeliveryDate,
		RecurrencePattern: changes.RecurrencePattern,
		TotalAmount:       totals.Subtotal,
		RequestedBy:       requestedBy,
		RequestedAt:       now,
	}
	order.ModificationStatus = model.ModificationPending
	order.UpdatedAt = now

	updated, err := s.orders.Update(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("persist proposal: %w", err)
	}

	s.notify(ctx, updated.CustomerID,
		"Changes Proposed",
		fmt.Sprintf("Changes have been proposed for order %s and are awaiting review.", updated.OrderNumber),
		"proposed")
	s.notifyOwners(ctx,
		"Modification Requested",
		fmt.Sprintf("Order %s has a modification request awaiting review.", updated.OrderNumber),
		"proposed")

	return updated, nil
}

// Approve applies the pending proposal. Totals are always recomputed from
// the effective item set, never carried over, so a stale stored total can
// not survive an approval.
func (s *ModificationService) Approve(ctx context.Context, orderID string) (*model.Order, error) {
	unlock := s.locks.acquire(orderID)
	defer unlock()

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ModificationStatus != model.ModificationPending || order.PendingModifications == nil {
		return nil, fmt.Errorf("%w: order %s", ErrNoPendingModification, order.OrderNumber)
	}
	proposal := order.PendingModifications

	items := proposal.Items
	if items == nil {
		items = order.Items
	}
	totals, err := s.calc.Totals(items)
	if err != nil {
		return nil, err
	}

	if proposal.Items != nil {
		order.Items = proposal.Items
	}
	order.TotalAmount = totals.Subtotal
	order.GSTAmount = totals.Tax
	order.TotalWithGST = totals.Total
	if proposal.DeliveryDate != nil {
		order.DeliveryDate = *proposal.DeliveryDate
	}
	if proposal.RecurrencePattern != nil {
		order.RecurrencePattern = proposal.RecurrencePattern
	}
	order.ModificationStatus = model.ModificationApproved
	order.PendingModifications = nil
	order.UpdatedAt = s.now()

	updated, err := s.orders.Update(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("persist approval: %w", err)
	}

	s.notify(ctx, updated.CustomerID,
		"Modification Approved",
		fmt.Sprintf("The proposed changes to order %s have been approved and applied.", updated.OrderNumber),
		"approved")

	return updated, nil
}

// Reject discards the pending proposal. Items and totals are untouched.
func (s *ModificationService) Reject(ctx context.Context, orderID string) (*model.Order, error) {
	unlock := s.locks.acquire(orderID)
	defer unlock()

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ModificationStatus != model.ModificationPending || order.PendingModifications == nil {
		return nil, fmt.Errorf("%w: order %s", ErrNoPendingModification, order.OrderNumber)
	}

	order.ModificationStatus = model.ModificationRejected
	order.PendingModifications = nil
	order.UpdatedAt = s.now()

	updated, err := s.orders.Update(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("persist rejection: %w", err)
	}

	s.notify(ctx, updated.CustomerID,
		"Modification Rejected",
		fmt.Sprintf("The proposed changes to order %s were rejected. The order continues as originally scheduled.", updated.OrderNumber),
		"rejected")

	return updated, nil
}

// pastEditCutoff reports whether the edit window has closed. Customers can
// modify an order until 11:59 PM the day before delivery.
func (s *ModificationService) pastEditCutoff(order *model.Order) bool {
	if order.DeliveryDate.IsZero() {
		return false
	}
	d := order.DeliveryDate
	cutoff := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
	return !s.now().Before(cutoff)
}

func (s *ModificationService) notify(ctx context.Context, userID, title, message, kind string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyUser(ctx, userID, title, message, kind); err != nil {
		slog.Warn("notification failed", "user_id", userID, "kind", kind, "error", err)
	}
}

func (s *ModificationService) notifyOwners(ctx context.Context, title, message, kind string) {
	if s.notifier == nil {
		return
	}
	for _, role := range []string{model.RoleOwner, model.RoleAdmin} {
		if err := s.notifier.NotifyRole(ctx, role, title, message, kind); err != nil {
			slog.Warn("notification failed", "role", role, "kind", kind, "error", err)
		}
	}
}
