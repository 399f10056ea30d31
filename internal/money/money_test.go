package money

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeReferenceScenario(t *testing.T) {
	// 2×100 + 1×50, 10% discount, 19% tax
	lines := []Line{
		{Quantity: 2, UnitPrice: dec("100")},
		{Quantity: 1, UnitPrice: dec("50")},
	}
	discount := dec("10")
	tot, err := Compute(lines, &discount, dec("19"))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	for name, got := range map[string]struct {
		have decimal.Decimal
		want string
	}{
		"subtotal": {tot.Subtotal, "250.00"},
		"discount": {tot.Discount, "25.00"},
		"taxable":  {tot.Taxable, "225.00"},
		"tax":      {tot.Tax, "42.75"},
		"total":    {tot.Total, "267.75"},
	} {
		if got.have.StringFixed(2) != got.want {
			t.Errorf("%s = %s, want %s", name, got.have.StringFixed(2), got.want)
		}
	}
}

func TestComputeReconciliationInvariant(t *testing.T) {
	cases := [][]Line{
		{{1, dec("0.01")}},
		{{3, dec("33.33")}, {7, dec("19.99")}},
		{{100, dec("1234.56")}, {1, dec("0.07")}, {42, dec("9.95")}},
	}
	discount := dec("12.5")
	for _, lines := range cases {
		tot, err := Compute(lines, &discount, dec("19"))
		if err != nil {
			t.Fatalf("compute: %v", err)
		}
		recon := tot.Subtotal.Sub(tot.Discount).Add(tot.Tax)
		if !recon.Equal(tot.Total) {
			t.Errorf("subtotal-discount+tax = %s, total = %s", recon, tot.Total)
		}
	}
}

func TestComputeDeterministic(t *testing.T) {
	lines := []Line{{2, dec("19.995")}, {5, dec("3.33")}}
	discount := dec("7")
	a, err := Compute(lines, &discount, dec("19"))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	b, err := Compute(lines, &discount, dec("19"))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !a.Subtotal.Equal(b.Subtotal) || !a.Discount.Equal(b.Discount) || !a.Tax.Equal(b.Tax) || !a.Total.Equal(b.Total) {
		t.Errorf("recomputation differs: %+v vs %+v", a, b)
	}
}

func TestComputeNilDiscountMeansZero(t *testing.T) {
	tot, err := Compute([]Line{{1, dec("100")}}, nil, dec("19"))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !tot.Discount.IsZero() {
		t.Errorf("discount = %s, want 0", tot.Discount)
	}
	if tot.Total.StringFixed(2) != "119.00" {
		t.Errorf("total = %s, want 119.00", tot.Total.StringFixed(2))
	}
}

func TestComputeRejectsInvalidLines(t *testing.T) {
	if _, err := Compute([]Line{{0, dec("10")}}, nil, dec("19")); !errors.Is(err, ErrInvalidLineItem) {
		t.Errorf("zero quantity: got %v", err)
	}
	if _, err := Compute([]Line{{-1, dec("10")}}, nil, dec("19")); !errors.Is(err, ErrInvalidLineItem) {
		t.Errorf("negative quantity: got %v", err)
	}
	if _, err := Compute([]Line{{1, dec("-0.01")}}, nil, dec("19")); !errors.Is(err, ErrInvalidLineItem) {
		t.Errorf("negative price: got %v", err)
	}
}

func TestComputeRejectsOutOfRangePercentages(t *testing.T) {
	neg := dec("-1")
	big := dec("101")
	if _, err := Compute([]Line{{1, dec("10")}}, &neg, dec("19")); !errors.Is(err, ErrInvalidPercentage) {
		t.Errorf("negative discount: got %v", err)
	}
	if _, err := Compute([]Line{{1, dec("10")}}, &big, dec("19")); !errors.Is(err, ErrInvalidPercentage) {
		t.Errorf("discount > 100: got %v", err)
	}
	if _, err := Compute([]Line{{1, dec("10")}}, nil, dec("100.01")); !errors.Is(err, ErrInvalidPercentage) {
		t.Errorf("tax > 100: got %v", err)
	}
}

func TestDisplayRoundsHalfUp(t *testing.T) {
	if got := Display(dec("19.995")); got != "20.00" {
		t.Errorf("Display(19.995) = %s, want 20.00", got)
	}
	if got := Display(dec("267.75")); got != "267.75" {
		t.Errorf("Display(267.75) = %s, want 267.75", got)
	}
}
