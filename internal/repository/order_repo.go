package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"laundromat/internal/model"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderRepository is the single mutation authority for persisted orders.
// Update writes the full mutable field group atomically and returns the
// post-write row, so callers can treat the return value as the source of
// truth without a follow-up read.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) (*model.Order, error)
	Get(ctx context.Context, id string) (*model.Order, error)
	Update(ctx context.Context, order *model.Order) (*model.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]model.Order, error)
	ListByDriver(ctx context.Context, driverID string) ([]model.Order, error)
	ListAll(ctx context.Context) ([]model.Order, error)
	ListRecurring(ctx context.Context) ([]model.Order, error)
	ListDueForLock(ctx context.Context, before time.Time, limit int) ([]model.Order, error)
	NextOrderNumber(ctx context.Context) (string, error)
}

type PostgresOrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

const orderColumns = `id, order_number, customer_id, driver_id, is_recurring, recurrence_pattern,
	delivery_date, status, items, total_amount, gst_amount, total_with_gst,
	modification_status, pending_modifications, is_locked, locked_at, deliveries_history,
	created_at, updated_at`

func (r *PostgresOrderRepository) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	fields, err := marshalOrderFields(order)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO orders (id, order_number, customer_id, driver_id, is_recurring, recurrence_pattern,
			delivery_date, status, items, total_amount, gst_amount, total_with_gst,
			modification_status, pending_modifications, is_locked, locked_at, deliveries_history,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING `+orderColumns,
		order.ID, order.OrderNumber, order.CustomerID, nullString(order.DriverID),
		order.IsRecurring, fields.pattern, order.DeliveryDate, order.Status, fields.items,
		order.TotalAmount, order.GSTAmount, order.TotalWithGST,
		order.ModificationStatus, fields.pending, order.IsLocked, nullTime(order.LockedAt),
		fields.history, order.CreatedAt, order.UpdatedAt,
	)
	created, err := scanOrder(row)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	return created, nil
}

func (r *PostgresOrderRepository) Get(ctx context.Context, id string) (*model.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

func (r *PostgresOrderRepository) Update(ctx context.Context, order *model.Order) (*model.Order, error) {
	fields, err := marshalOrderFields(order)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRowContext(ctx, `
		UPDATE orders SET
			driver_id = $2, is_recurring = $3, recurrence_pattern = $4, delivery_date = $5,
			status = $6, items = $7, total_amount = $8, gst_amount = $9, total_with_gst = $10,
			modification_status = $11, pending_modifications = $12, is_locked = $13,
			locked_at = $14, deliveries_history = $15, updated_at = $16
		WHERE id = $1
		RETURNING `+orderColumns,
		order.ID, nullString(order.DriverID), order.IsRecurring, fields.pattern,
		order.DeliveryDate, order.Status, fields.items, order.TotalAmount, order.GSTAmount,
		order.TotalWithGST, order.ModificationStatus, fields.pending, order.IsLocked,
		nullTime(order.LockedAt), fields.history, order.UpdatedAt,
	)
	updated, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("update order: %w", err)
	}
	return updated, nil
}

func (r *PostgresOrderRepository) ListByCustomer(ctx context.Context, customerID string) ([]model.Order, error) {
	return r.list(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE customer_id = $1 ORDER BY delivery_date DESC`,
		customerID)
}

func (r *PostgresOrderRepository) ListByDriver(ctx context.Context, driverID string) ([]model.Order, error) {
	return r.list(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE driver_id = $1 ORDER BY delivery_date ASC`,
		driverID)
}

func (r *PostgresOrderRepository) ListAll(ctx context.Context) ([]model.Order, error) {
	return r.list(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (r *PostgresOrderRepository) ListRecurring(ctx context.Context) ([]model.Order, error) {
	return r.list(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE is_recurring = TRUE AND status NOT IN ($1, $2)
		 ORDER BY delivery_date ASC`,
		model.StatusCancelled, model.StatusCompleted)
}

func (r *PostgresOrderRepository) ListDueForLock(ctx context.Context, before time.Time, limit int) ([]model.Order, error) {
	return r.list(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE is_locked = FALSE AND delivery_date <= $1 AND status NOT IN ($2, $3, $4)
		 ORDER BY delivery_date ASC
		 LIMIT $5`,
		before, model.StatusDelivered, model.StatusCompleted, model.StatusCancelled, limit)
}

func (r *PostgresOrderRepository) NextOrderNumber(ctx context.Context) (string, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT nextval('order_number_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("next order number: %w", err)
	}
	return fmt.Sprintf("ORD%06d", n), nil
}

func (r *PostgresOrderRepository) list(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return orders, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*model.Order, error) {
	var (
		o        model.Order
		driverID sql.NullString
		lockedAt sql.NullTime
		pattern  []byte
		items    []byte
		pending  []byte
		history  []byte
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &driverID, &o.IsRecurring, &pattern,
		&o.DeliveryDate, &o.Status, &items, &o.TotalAmount, &o.GSTAmount, &o.TotalWithGST,
		&o.ModificationStatus, &pending, &o.IsLocked, &lockedAt, &history,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.DriverID = driverID.String
	if lockedAt.Valid {
		t := lockedAt.Time
		o.LockedAt = &t
	}
	if len(pattern) > 0 {
		if err := json.Unmarshal(pattern, &o.RecurrencePattern); err != nil {
			return nil, fmt.Errorf("decode recurrence_pattern: %w", err)
		}
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("decode items: %w", err)
		}
	}
	if len(pending) > 0 {
		if err := json.Unmarshal(pending, &o.PendingModifications); err != nil {
			return nil, fmt.Errorf("decode pending_modifications: %w", err)
		}
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &o.DeliveriesHistory); err != nil {
			return nil, fmt.Errorf("decode deliveries_history: %w", err)
		}
	}
	return &o, nil
}

type orderJSONFields struct {
	pattern []byte
	items   []byte
	pending []byte
	history []byte
}

func marshalOrderFields(order *model.Order) (orderJSONFields, error) {
	var f orderJSONFields
	var err error

	if order.RecurrencePattern != nil {
		if f.pattern, err = json.Marshal(order.RecurrencePattern); err != nil {
			return f, fmt.Errorf("encode recurrence_pattern: %w", err)
		}
	}
	if f.items, err = json.Marshal(order.Items); err != nil {
		return f, fmt.Errorf("encode items: %w", err)
	}
	if order.PendingModifications != nil {
		if f.pending, err = json.Marshal(order.PendingModifications); err != nil {
			return f, fmt.Errorf("encode pending_modifications: %w", err)
		}
	}
	history := order.DeliveriesHistory
	if history == nil {
		history = []model.DeliveryRecord{}
	}
	if f.history, err = json.Marshal(history); err != nil {
		return f, fmt.Errorf("encode deliveries_history: %w", err)
	}
	return f, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
