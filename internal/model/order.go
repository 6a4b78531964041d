package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order lifecycle statuses.
const (
	StatusPending        = "pending"
	StatusScheduled      = "scheduled"
	StatusProcessing     = "processing"
	StatusInProgress     = "in_progress"
	StatusReadyForPickup = "ready_for_pickup"
	StatusOutForDelivery = "out_for_delivery"
	StatusDelivered      = "delivered"
	StatusCompleted      = "completed"
	StatusCancelled      = "cancelled"
)

// Modification workflow statuses. None is the zero value: no open proposal.
const (
	ModificationNone     = ""
	ModificationPending  = "pending"
	ModificationApproved = "approved"
	ModificationRejected = "rejected"
)

// Recurrence frequency types.
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

var statusTransitions = map[string][]string{
	StatusPending:        {StatusScheduled, StatusProcessing},
	StatusScheduled:      {StatusProcessing},
	StatusProcessing:     {StatusInProgress},
	StatusInProgress:     {StatusReadyForPickup},
	StatusReadyForPickup: {StatusOutForDelivery},
	StatusOutForDelivery: {StatusDelivered},
	StatusDelivered:      {StatusCompleted},
}

// IsTerminalStatus reports whether no further transitions are allowed.
func IsTerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusCancelled
}

// CanTransition reports whether an order may move from one status to
// another. Cancellation is allowed from any non-terminal status.
func CanTransition(from, to string) bool {
	if to == StatusCancelled {
		return !IsTerminalStatus(from)
	}
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type OrderItem struct {
	SKUID     string          `json:"sku_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type RecurrencePattern struct {
	FrequencyType  string `json:"frequency_type"`
	FrequencyValue int    `json:"frequency_value"`
}

// ModificationProposal holds a pending change awaiting approval. At most
// one proposal exists per order; it is cleared on approval or rejection.
type ModificationProposal struct {
	Items             []OrderItem        `json:"items,omitempty"`
	DeliveryDate      *time.Time         `json:"delivery_date,omitempty"`
	RecurrencePattern *RecurrencePattern `json:"recurrence_pattern,omitempty"`
	TotalAmount       decimal.Decimal    `json:"total_amount"`
	RequestedBy       string             `json:"requested_by,omitempty"`
	RequestedAt       time.Time          `json:"requested_at"`
}

// DeliveryRecord is one completed occurrence of a recurring order.
type DeliveryRecord struct {
	OccurrenceDate time.Time `json:"occurrence_date"`
	DeliveredAt    time.Time `json:"delivered_at"`
	DriverID       string    `json:"driver_id,omitempty"`
	Notes          string    `json:"notes,omitempty"`
}

type Order struct {
	ID                   string                `json:"id"`
	OrderNumber          string                `json:"order_number"`
	CustomerID           string                `json:"customer_id"`
	DriverID             string                `json:"driver_id,omitempty"`
	IsRecurring          bool                  `json:"is_recurring"`
	RecurrencePattern    *RecurrencePattern    `json:"recurrence_pattern,omitempty"`
	DeliveryDate         time.Time             `json:"delivery_date"`
	Status               string                `json:"status"`
	Items                []OrderItem           `json:"items"`
	TotalAmount          decimal.Decimal       `json:"total_amount"`
	GSTAmount            decimal.Decimal       `json:"gst_amount"`
	TotalWithGST         decimal.Decimal       `json:"total_with_gst"`
	ModificationStatus   string                `json:"modification_status,omitempty"`
	PendingModifications *ModificationProposal `json:"pending_modifications,omitempty"`
	IsLocked             bool                  `json:"is_locked"`
	LockedAt             *time.Time            `json:"locked_at,omitempty"`
	DeliveriesHistory    []DeliveryRecord      `json:"deliveries_history,omitempty"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
}
