// Package money computes document totals. All arithmetic runs on
// shopspring decimals; rounding to two places happens at display time only.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidLineItem   = errors.New("invalid line item")
	ErrInvalidPercentage = errors.New("percentage out of range")
)

var hundred = decimal.NewFromInt(100)

// Line is one priced row of an offer.
type Line struct {
	Quantity  int
	UnitPrice decimal.Decimal
}

// Totals carries every derived monetary field of a document.
// Invariant: Subtotal - Discount + Tax == Total (Taxable = Subtotal - Discount).
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Taxable  decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// LineTotal returns quantity × unit price.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// Compute derives all totals from the given lines. A nil discount means 0.
// The computation is pure and deterministic; identical inputs always yield
// identical outputs.
func Compute(lines []Line, discountPct *decimal.Decimal, taxPct decimal.Decimal) (Totals, error) {
	subtotal := decimal.Zero
	for i, l := range lines {
		if l.Quantity <= 0 {
			return Totals{}, fmt.Errorf("%w: line %d: quantity must be positive", ErrInvalidLineItem, i)
		}
		if l.UnitPrice.IsNegative() {
			return Totals{}, fmt.Errorf("%w: line %d: unit price must not be negative", ErrInvalidLineItem, i)
		}
		subtotal = subtotal.Add(LineTotal(l.Quantity, l.UnitPrice))
	}

	discount := decimal.Zero
	if discountPct != nil {
		if err := checkPercentage("discountPercentage", *discountPct); err != nil {
			return Totals{}, err
		}
		discount = subtotal.Mul(*discountPct).Div(hundred)
	}
	if err := checkPercentage("taxPercentage", taxPct); err != nil {
		return Totals{}, err
	}

	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(taxPct).Div(hundred)

	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Taxable:  taxable,
		Tax:      tax,
		Total:    taxable.Add(tax),
	}, nil
}

func checkPercentage(field string, pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return fmt.Errorf("%w: %s must be within [0, 100]", ErrInvalidPercentage, field)
	}
	return nil
}

// Display rounds half-up to two decimal places for presentation
// ("19.995" -> "20.00"). Stored values keep full precision.
func Display(d decimal.Decimal) string {
	return d.StringFixed(2)
}
