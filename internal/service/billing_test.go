package service

import (
	"testing"

	"github.com/mejapos/api/internal/enum"
	"github.com/shopspring/decimal"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestComputeBill_NoDiscountNoTax(t *testing.T) {
	lines := []BillLine{
		{UnitPrice: mustDecimal(t, "25000"), Quantity: 2},
		{UnitPrice: mustDecimal(t, "15000"), Quantity: 1},
	}

	bill := computeBill(lines, "", decimal.Zero, decimal.Zero)

	if !bill.Subtotal.Equal(mustDecimal(t, "65000")) {
		t.Errorf("subtotal: got %v, want 65000", bill.Subtotal)
	}
	if !bill.Total.Equal(mustDecimal(t, "65000")) {
		t.Errorf("total: got %v, want 65000", bill.Total)
	}
}

func TestComputeBill_ModifiersMultiplyWithQuantity(t *testing.T) {
	// (20000 + 3000 + 2000) * 2 = 50000
	lines := []BillLine{
		{UnitPrice: mustDecimal(t, "20000"), ModifierSum: mustDecimal(t, "5000"), Quantity: 2},
	}

	bill := computeBill(lines, "", decimal.Zero, decimal.Zero)

	if !bill.Subtotal.Equal(mustDecimal(t, "50000")) {
		t.Errorf("subtotal: got %v, want 50000", bill.Subtotal)
	}
}

func TestComputeBill_PercentageDiscountWithTax(t *testing.T) {
	// subtotal 100000, 10% discount, 5000 tax -> 100000 + 5000 - 10000 = 95000
	lines := []BillLine{
		{UnitPrice: mustDecimal(t, "50000"), Quantity: 2},
	}

	bill := computeBill(lines, enum.DiscountTypePercentage, mustDecimal(t, "10"), mustDecimal(t, "5000"))

	if !bill.Subtotal.Equal(mustDecimal(t, "100000")) {
		t.Errorf("subtotal: got %v, want 100000", bill.Subtotal)
	}
	if !bill.DiscountAmount.Equal(mustDecimal(t, "10000")) {
		t.Errorf("discount: got %v, want 10000", bill.DiscountAmount)
	}
	if !bill.TaxAmount.Equal(mustDecimal(t, "5000")) {
		t.Errorf("tax: got %v, want 5000", bill.TaxAmount)
	}
	if !bill.Total.Equal(mustDecimal(t, "95000")) {
		t.Errorf("total: got %v, want 95000", bill.Total)
	}
}

func TestComputeBill_FixedDiscount(t *testing.T) {
	lines := []BillLine{
		{UnitPrice: mustDecimal(t, "40000"), Quantity: 1},
	}

	bill := computeBill(lines, enum.DiscountTypeFixed, mustDecimal(t, "15000"), decimal.Zero)

	if !bill.DiscountAmount.Equal(mustDecimal(t, "15000")) {
		t.Errorf("discount: got %v, want 15000", bill.DiscountAmount)
	}
	if !bill.Total.Equal(mustDecimal(t, "25000")) {
		t.Errorf("total: got %v, want 25000", bill.Total)
	}
}

func TestComputeBill_OversizedDiscountClampsToZero(t *testing.T) {
	lines := []BillLine{
		{UnitPrice: mustDecimal(t, "10000"), Quantity: 1},
	}

	bill := computeBill(lines, enum.DiscountTypeFixed, mustDecimal(t, "999999"), decimal.Zero)

	if !bill.Total.IsZero() {
		t.Errorf("total: got %v, want 0", bill.Total)
	}
	// the discount amount itself stays as entered for the receipt
	if !bill.DiscountAmount.Equal(mustDecimal(t, "999999")) {
		t.Errorf("discount: got %v, want 999999", bill.DiscountAmount)
	}
}

func TestComputeBill_NoLines(t *testing.T) {
	bill := computeBill(nil, "", decimal.Zero, decimal.Zero)

	if !bill.Subtotal.IsZero() || !bill.Total.IsZero() {
		t.Errorf("empty bill: got subtotal=%v total=%v, want zeros", bill.Subtotal, bill.Total)
	}
}
