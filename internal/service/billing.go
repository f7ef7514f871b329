package service

import (
	"github.com/mejapos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// BillLine is one active (non-cancelled) order line for bill computation.
// UnitPrice and ModifierSum are the snapshots frozen at order time.
type BillLine struct {
	UnitPrice   decimal.Decimal
	ModifierSum decimal.Decimal
	Quantity    int32
}

// Bill is the computed monetary summary of an order.
type Bill struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}

// computeBill derives subtotal, discount amount and total from the active
// lines, a discount (empty type means none) and a tax amount. The total is
// clamped to zero so an oversized fixed discount never produces a negative
// bill.
func computeBill(lines []BillLine, discountType enum.DiscountType, discountValue, taxAmount decimal.Decimal) Bill {
	subtotal := decimal.Zero
	for _, l := range lines {
		lineTotal := l.UnitPrice.Add(l.ModifierSum).Mul(decimal.NewFromInt32(l.Quantity))
		subtotal = subtotal.Add(lineTotal)
	}

	discountAmount := decimal.Zero
	switch discountType {
	case enum.DiscountTypePercentage:
		discountAmount = subtotal.Mul(discountValue).Div(decimal.NewFromInt(100))
	case enum.DiscountTypeFixed:
		discountAmount = discountValue
	}

	total := subtotal.Add(taxAmount).Sub(discountAmount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Bill{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		TaxAmount:      taxAmount,
		Total:          total,
	}
}
