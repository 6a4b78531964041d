package schedule

import (
	"errors"
	"fmt"
	"time"

	"laundromat/internal/model"
)

var ErrMalformedPattern = errors.New("malformed recurrence pattern")

// Projection defaults. Both are configurable; the iteration cap guarantees
// termination even if a misconfigured pattern slips past validation.
const (
	DefaultHorizonMonths = 6
	DefaultMaxIterations = 200
)

// Occurrence is a projected future delivery of a recurring order. It is a
// derived preview, never persisted and never bookable.
type Occurrence struct {
	OrderID      string    `json:"order_id"`
	DeliveryDate time.Time `json:"delivery_date"`
	Projected    bool      `json:"projected"`
}

// ValidatePattern checks a recurrence pattern at write time. Projection
// itself never errors; this keeps malformed patterns out of storage.
func ValidatePattern(p *model.RecurrencePattern) error {
	if p == nil {
		return fmt.Errorf("%w: pattern is required for recurring orders", ErrMalformedPattern)
	}
	if p.FrequencyValue < 1 {
		return fmt.Errorf("%w: frequency_value must be >= 1, got %d", ErrMalformedPattern, p.FrequencyValue)
	}
	switch p.FrequencyType {
	case model.FrequencyDaily, model.FrequencyWeekly, model.FrequencyMonthly:
		return nil
	default:
		return fmt.Errorf("%w: unknown frequency_type %q", ErrMalformedPattern, p.FrequencyType)
	}
}

// DefaultHorizon returns the standard projection horizon relative to now.
func DefaultHorizon(now time.Time) time.Time {
	return now.AddDate(0, DefaultHorizonMonths, 0)
}

// Project expands a recurring order into its future occurrences up to
// horizon, capped at maxIterations steps. The anchor delivery date is the
// order's own record and is never re-emitted. Cancelled, non-recurring or
// malformed orders project nothing. Project is pure: same order and
// horizon, same output.
func Project(order model.Order, horizon time.Time, maxIterations int) []Occurrence {
	if !order.IsRecurring || order.RecurrencePattern == nil {
		return nil
	}
	if order.Status == model.StatusCancelled || order.DeliveryDate.IsZero() {
		return nil
	}
	pattern := *order.RecurrencePattern
	if pattern.FrequencyValue < 1 {
		return nil
	}

	anchor := order.DeliveryDate
	current := anchor
	var occurrences []Occurrence
	for step := 0; step < maxIterations && !current.After(horizon); step++ {
		if current.After(anchor) {
			occurrences = append(occurrences, Occurrence{
				OrderID:      order.ID,
				DeliveryDate: current,
				Projected:    true,
			})
		}
		next, ok := advance(pattern, anchor, current, step+1)
		if !ok {
			break
		}
		current = next
	}
	return occurrences
}

// Next returns the single next occurrence after from, used when rolling a
// recurring order forward on delivery. ok is false for unknown frequency
// types.
func Next(pattern model.RecurrencePattern, from time.Time) (time.Time, bool) {
	return advance(pattern, from, from, 1)
}

// advance computes the date after the given number of intervals. Monthly
// steps are taken from the anchor rather than the previous occurrence so a
// month-end anchor does not drift after a short month (Jan 31 projects
// Feb 28, Mar 31, Apr 30).
func advance(pattern model.RecurrencePattern, anchor, current time.Time, intervals int) (time.Time, bool) {
	switch pattern.FrequencyType {
	case model.FrequencyDaily:
		return current.AddDate(0, 0, pattern.FrequencyValue), true
	case model.FrequencyWeekly:
		return current.AddDate(0, 0, 7*pattern.FrequencyValue), true
	case model.FrequencyMonthly:
		return addMonths(anchor, intervals*pattern.FrequencyValue), true
	default:
		return time.Time{}, false
	}
}

// addMonths adds calendar months, clamping the day to the last valid day
// of the target month instead of letting it normalize into the next one.
func addMonths(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(months), 1,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	day := t.Day()
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
