package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/mejapos/api/internal/enum"
)

const orderColumns = `id, table_id, customer_id, order_number, status, subtotal,
	discount_type, discount_value, discount_amount, tax_amount, total_amount,
	payment_method, transaction_id, completed_at, notes, created_at, updated_at`

// scanner is satisfied by pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.TableID,
		&o.CustomerID,
		&o.OrderNumber,
		&o.Status,
		&o.Subtotal,
		&o.DiscountType,
		&o.DiscountValue,
		&o.DiscountAmount,
		&o.TaxAmount,
		&o.TotalAmount,
		&o.PaymentMethod,
		&o.TransactionID,
		&o.CompletedAt,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	return o, err
}

type CreateOrderParams struct {
	TableID     uuid.UUID
	CustomerID  pgtype.UUID
	OrderNumber string
	Status      enum.OrderStatus
	Subtotal    pgtype.Numeric
	TaxAmount   pgtype.Numeric
	TotalAmount pgtype.Numeric
	Notes       pgtype.Text
}

const createOrder = `
INSERT INTO orders (table_id, customer_id, order_number, status, subtotal, tax_amount, total_amount, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + orderColumns

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.TableID,
		arg.CustomerID,
		arg.OrderNumber,
		arg.Status,
		arg.Subtotal,
		arg.TaxAmount,
		arg.TotalAmount,
		arg.Notes,
	)
	return scanOrder(row)
}

const getOrder = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

// GetOrderForUpdate locks the order row for the duration of the enclosing
// transaction, serializing concurrent mutations of the same order.
const getOrderForUpdate = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR NO KEY UPDATE`

func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderForUpdate, id))
}

// GetOpenOrderByTableForUpdate returns the newest order on the table that has
// not reached a terminal state, locking it like GetOrderForUpdate.
const getOpenOrderByTableForUpdate = `
SELECT ` + orderColumns + ` FROM orders
WHERE table_id = $1 AND status NOT IN ('COMPLETED', 'CANCELLED')
ORDER BY created_at DESC
LIMIT 1
FOR NO KEY UPDATE`

func (q *Queries) GetOpenOrderByTableForUpdate(ctx context.Context, tableID uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOpenOrderByTableForUpdate, tableID))
}

const getNextOrderNumber = `
SELECT COUNT(*) + 1 FROM orders WHERE created_at::date = now()::date`

func (q *Queries) GetNextOrderNumber(ctx context.Context) (int32, error) {
	var n int32
	err := q.db.QueryRow(ctx, getNextOrderNumber).Scan(&n)
	return n, err
}

type ListOrdersParams struct {
	Status    pgtype.Text
	TableID   pgtype.UUID
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
	Limit     int32
	Offset    int32
}

const listOrders = `
SELECT ` + orderColumns + ` FROM orders
WHERE ($1::text IS NULL OR status = $1)
  AND ($2::uuid IS NULL OR table_id = $2)
  AND ($3::timestamptz IS NULL OR created_at >= $3)
  AND ($4::timestamptz IS NULL OR created_at < $4 + interval '1 day')
ORDER BY created_at DESC
LIMIT $5 OFFSET $6`

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders,
		arg.Status,
		arg.TableID,
		arg.StartDate,
		arg.EndDate,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

type UpdateOrderStatusParams struct {
	ID     uuid.UUID
	Status enum.OrderStatus
}

const updateOrderStatus = `
UPDATE orders SET status = $2, updated_at = now() WHERE id = $1
RETURNING ` + orderColumns

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status))
}

type UpdateOrderBillParams struct {
	ID             uuid.UUID
	Status         enum.OrderStatus
	Subtotal       pgtype.Numeric
	DiscountType   pgtype.Text
	DiscountValue  pgtype.Numeric
	DiscountAmount pgtype.Numeric
	TaxAmount      pgtype.Numeric
	TotalAmount    pgtype.Numeric
}

// UpdateOrderBill persists the computed bill and the status change in one
// statement so a confirmed bill is never observable without its amounts.
const updateOrderBill = `
UPDATE orders SET
	status = $2,
	subtotal = $3,
	discount_type = $4,
	discount_value = $5,
	discount_amount = $6,
	tax_amount = $7,
	total_amount = $8,
	updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

func (q *Queries) UpdateOrderBill(ctx context.Context, arg UpdateOrderBillParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderBill,
		arg.ID,
		arg.Status,
		arg.Subtotal,
		arg.DiscountType,
		arg.DiscountValue,
		arg.DiscountAmount,
		arg.TaxAmount,
		arg.TotalAmount,
	)
	return scanOrder(row)
}

type UpdateOrderTotalsParams struct {
	ID             uuid.UUID
	Subtotal       pgtype.Numeric
	DiscountAmount pgtype.Numeric
	TotalAmount    pgtype.Numeric
}

const updateOrderTotals = `
UPDATE orders SET subtotal = $2, discount_amount = $3, total_amount = $4, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

func (q *Queries) UpdateOrderTotals(ctx context.Context, arg UpdateOrderTotalsParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderTotals, arg.ID, arg.Subtotal, arg.DiscountAmount, arg.TotalAmount)
	return scanOrder(row)
}

type CompleteOrderParams struct {
	ID            uuid.UUID
	PaymentMethod pgtype.Text
	TransactionID pgtype.Text
}

// CompleteOrder only fires while the order is PAYMENT_PENDING; the WHERE
// guard makes the transition single-shot even without the caller's checks.
const completeOrder = `
UPDATE orders SET
	status = 'COMPLETED',
	payment_method = $2,
	transaction_id = $3,
	completed_at = now(),
	updated_at = now()
WHERE id = $1 AND status = 'PAYMENT_PENDING'
RETURNING ` + orderColumns

func (q *Queries) CompleteOrder(ctx context.Context, arg CompleteOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, completeOrder, arg.ID, arg.PaymentMethod, arg.TransactionID))
}

const cancelOrder = `
UPDATE orders SET status = 'CANCELLED', updated_at = now()
WHERE id = $1 AND status NOT IN ('COMPLETED', 'CANCELLED')
RETURNING ` + orderColumns

func (q *Queries) CancelOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, cancelOrder, id))
}

// --- Order items ---

const orderItemColumns = `id, order_id, menu_item_id, quantity, price_at_order,
	status, reject_reason, notes, created_at, updated_at`

func scanOrderItem(row scanner) (OrderItem, error) {
	var it OrderItem
	err := row.Scan(
		&it.ID,
		&it.OrderID,
		&it.MenuItemID,
		&it.Quantity,
		&it.PriceAtOrder,
		&it.Status,
		&it.RejectReason,
		&it.Notes,
		&it.CreatedAt,
		&it.UpdatedAt,
	)
	return it, err
}

type CreateOrderItemParams struct {
	OrderID      uuid.UUID
	MenuItemID   uuid.UUID
	Quantity     int32
	PriceAtOrder pgtype.Numeric
	Status       enum.ItemStatus
	Notes        pgtype.Text
}

const createOrderItem = `
INSERT INTO order_items (order_id, menu_item_id, quantity, price_at_order, status, notes)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + orderItemColumns

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID,
		arg.MenuItemID,
		arg.Quantity,
		arg.PriceAtOrder,
		arg.Status,
		arg.Notes,
	)
	return scanOrderItem(row)
}

const getOrderItem = `SELECT ` + orderItemColumns + ` FROM order_items WHERE id = $1`

func (q *Queries) GetOrderItem(ctx context.Context, id uuid.UUID) (OrderItem, error) {
	return scanOrderItem(q.db.QueryRow(ctx, getOrderItem, id))
}

const listOrderItemsByOrder = `
SELECT ` + orderItemColumns + ` FROM order_items WHERE order_id = $1 ORDER BY created_at`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		it, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type AdvanceItemStatusesParams struct {
	OrderID uuid.UUID
	From    enum.ItemStatus
	To      enum.ItemStatus
}

// AdvanceItemStatuses moves every item currently in From to To and reports
// how many rows changed.
const advanceItemStatuses = `
UPDATE order_items SET status = $3, updated_at = now()
WHERE order_id = $1 AND status = $2`

func (q *Queries) AdvanceItemStatuses(ctx context.Context, arg AdvanceItemStatusesParams) (int64, error) {
	tag, err := q.db.Exec(ctx, advanceItemStatuses, arg.OrderID, arg.From, arg.To)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type CancelOrderItemParams struct {
	ID           uuid.UUID
	RejectReason pgtype.Text
}

const cancelOrderItem = `
UPDATE order_items SET status = 'CANCELLED', reject_reason = $2, updated_at = now()
WHERE id = $1 AND status NOT IN ('SERVED', 'CANCELLED')
RETURNING ` + orderItemColumns

func (q *Queries) CancelOrderItem(ctx context.Context, arg CancelOrderItemParams) (OrderItem, error) {
	return scanOrderItem(q.db.QueryRow(ctx, cancelOrderItem, arg.ID, arg.RejectReason))
}

type CancelItemsByOrderParams struct {
	OrderID      uuid.UUID
	RejectReason pgtype.Text
}

const cancelItemsByOrder = `
UPDATE order_items SET status = 'CANCELLED', reject_reason = $2, updated_at = now()
WHERE order_id = $1 AND status NOT IN ('SERVED', 'CANCELLED')`

func (q *Queries) CancelItemsByOrder(ctx context.Context, arg CancelItemsByOrderParams) (int64, error) {
	tag, err := q.db.Exec(ctx, cancelItemsByOrder, arg.OrderID, arg.RejectReason)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// --- Order item modifiers ---

type CreateOrderItemModifierParams struct {
	OrderItemID      uuid.UUID
	ModifierOptionID uuid.UUID
	Price            pgtype.Numeric
}

const createOrderItemModifier = `
INSERT INTO order_item_modifiers (order_item_id, modifier_option_id, price)
VALUES ($1, $2, $3)
RETURNING id, order_item_id, modifier_option_id, price`

func (q *Queries) CreateOrderItemModifier(ctx context.Context, arg CreateOrderItemModifierParams) (OrderItemModifier, error) {
	var m OrderItemModifier
	err := q.db.QueryRow(ctx, createOrderItemModifier,
		arg.OrderItemID,
		arg.ModifierOptionID,
		arg.Price,
	).Scan(&m.ID, &m.OrderItemID, &m.ModifierOptionID, &m.Price)
	return m, err
}

const listOrderItemModifiersByOrderItem = `
SELECT id, order_item_id, modifier_option_id, price
FROM order_item_modifiers WHERE order_item_id = $1`

func (q *Queries) ListOrderItemModifiersByOrderItem(ctx context.Context, orderItemID uuid.UUID) ([]OrderItemModifier, error) {
	rows, err := q.db.Query(ctx, listOrderItemModifiersByOrderItem, orderItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mods []OrderItemModifier
	for rows.Next() {
		var m OrderItemModifier
		if err := rows.Scan(&m.ID, &m.OrderItemID, &m.ModifierOptionID, &m.Price); err != nil {
			return nil, err
		}
		mods = append(mods, m)
	}
	return mods, rows.Err()
}
