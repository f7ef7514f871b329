package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type SalesSummaryParams struct {
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
}

type SalesSummaryRow struct {
	OrderCount   int64
	GrossSales   pgtype.Numeric
	DiscountsSum pgtype.Numeric
	TaxSum       pgtype.Numeric
}

// Sales roll up over COMPLETED orders only; cancelled carts never count.
const getSalesSummary = `
SELECT
	COUNT(*),
	COALESCE(SUM(total_amount), 0),
	COALESCE(SUM(discount_amount), 0),
	COALESCE(SUM(tax_amount), 0)
FROM orders
WHERE status = 'COMPLETED'
  AND ($1::timestamptz IS NULL OR completed_at >= $1)
  AND ($2::timestamptz IS NULL OR completed_at < $2 + interval '1 day')`

func (q *Queries) GetSalesSummary(ctx context.Context, arg SalesSummaryParams) (SalesSummaryRow, error) {
	var r SalesSummaryRow
	err := q.db.QueryRow(ctx, getSalesSummary, arg.StartDate, arg.EndDate).
		Scan(&r.OrderCount, &r.GrossSales, &r.DiscountsSum, &r.TaxSum)
	return r, err
}

type TopMenuItemsParams struct {
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
	Limit     int32
}

type TopMenuItemsRow struct {
	MenuItemID   pgtype.UUID
	Name         string
	QuantitySold int64
	Revenue      pgtype.Numeric
}

const listTopMenuItems = `
SELECT
	mi.id,
	mi.name,
	COALESCE(SUM(oi.quantity), 0),
	COALESCE(SUM(oi.price_at_order * oi.quantity), 0)
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
JOIN menu_items mi ON mi.id = oi.menu_item_id
WHERE o.status = 'COMPLETED'
  AND oi.status <> 'CANCELLED'
  AND ($1::timestamptz IS NULL OR o.completed_at >= $1)
  AND ($2::timestamptz IS NULL OR o.completed_at < $2 + interval '1 day')
GROUP BY mi.id, mi.name
ORDER BY SUM(oi.quantity) DESC
LIMIT $3`

func (q *Queries) ListTopMenuItems(ctx context.Context, arg TopMenuItemsParams) ([]TopMenuItemsRow, error) {
	rows, err := q.db.Query(ctx, listTopMenuItems, arg.StartDate, arg.EndDate, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TopMenuItemsRow
	for rows.Next() {
		var r TopMenuItemsRow
		if err := rows.Scan(&r.MenuItemID, &r.Name, &r.QuantitySold, &r.Revenue); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
