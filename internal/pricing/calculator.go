package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"laundromat/internal/model"
)

var ErrInvalidItem = errors.New("invalid order item")

// Totals is the price breakdown for a set of line items. Subtotal is the
// authoritative stored amount (ex-tax); Total is what the customer sees.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Calculator computes order totals at a fixed tax rate. It is pure: the
// same item set always produces the same breakdown, so proposal previews
// and stored totals cannot diverge.
type Calculator struct {
	taxRate decimal.Decimal
}

func NewCalculator(taxRate decimal.Decimal) *Calculator {
	return &Calculator{taxRate: taxRate}
}

// Totals computes subtotal, tax and tax-inclusive total for items.
// Tax is rounded half-up to 2 decimal places.
func (c *Calculator) Totals(items []model.OrderItem) (Totals, error) {
	subtotal := decimal.Zero
	for i, item := range items {
		if err := ValidateItem(item); err != nil {
			return Totals{}, fmt.Errorf("item %d: %w", i, err)
		}
		line := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(line)
	}

	tax := subtotal.Mul(c.taxRate).Round(2)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}, nil
}

// ValidateItem rejects items with a missing SKU or a negative quantity or
// unit price.
func ValidateItem(item model.OrderItem) error {
	if item.SKUID == "" {
		return fmt.Errorf("%w: missing sku id", ErrInvalidItem)
	}
	if item.Quantity < 0 {
		return fmt.Errorf("%w: negative quantity %d", ErrInvalidItem, item.Quantity)
	}
	if item.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: negative unit price %s", ErrInvalidItem, item.UnitPrice)
	}
	return nil
}
