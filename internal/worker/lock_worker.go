package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"laundromat/internal/model"
	"laundromat/internal/repository"
	"laundromat/internal/service"
)

// LockWorker periodically locks orders whose delivery is within the lead
// window, closing the customer edit window ahead of pickup.
type LockWorker struct {
	orders    repository.OrderRepository
	notifier  service.Notifier
	interval  time.Duration
	lead      time.Duration
	batchSize int
}

func NewLockWorker(orders repository.OrderRepository, notifier service.Notifier, interval, lead time.Duration) *LockWorker {
	return &LockWorker{
		orders:    orders,
		notifier:  notifier,
		interval:  interval,
		lead:      lead,
		batchSize: 50,
	}
}

func (w *LockWorker) Start(ctx context.Context) {
	slog.Info("starting lock worker", "interval", w.interval, "lead", w.lead)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("lock worker stopped")
			return
		case <-ticker.C:
			if err := w.processBatch(ctx); err != nil {
				slog.Error("lock batch failed", "error", err)
			}
		}
	}
}

func (w *LockWorker) processBatch(ctx context.Context) error {
	now := time.Now().UTC()
	due, err := w.orders.ListDueForLock(ctx, now.Add(w.lead), w.batchSize)
	if err != nil {
		return fmt.Errorf("list orders due for lock: %w", err)
	}

	for _, order := range due {
		o := order
		lockedAt := now
		o.IsLocked = true
		o.LockedAt = &lockedAt
		o.UpdatedAt = now

		if _, err := w.orders.Update(ctx, &o); err != nil {
			slog.Error("failed to lock order", "order", o.OrderNumber, "error", err)
			continue
		}
		slog.Info("order locked", "order", o.OrderNumber, "delivery_date", o.DeliveryDate)

		w.notifyLocked(ctx, &o)
	}
	return nil
}

func (w *LockWorker) notifyLocked(ctx context.Context, order *model.Order) {
	if w.notifier == nil {
		return
	}
	msg := fmt.Sprintf("Order %s is locked for changes ahead of its %s delivery.",
		order.OrderNumber, order.DeliveryDate.Format("2006-01-02"))
	if err := w.notifier.NotifyUser(ctx, order.CustomerID, "Order Locked", msg, "order_locked"); err != nil {
		slog.Warn("notification failed", "order", order.OrderNumber, "error", err)
	}
	if err := w.notifier.NotifyRole(ctx, model.RoleOwner, "Order Locked", msg, "order_locked"); err != nil {
		slog.Warn("notification failed", "order", order.OrderNumber, "error", err)
	}
}
