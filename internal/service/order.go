package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/mejapos/api/internal/database"
	"github.com/mejapos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store defines the DB methods needed by the order lifecycle.
// Satisfied by *database.Queries (and its WithTx variant).
type Store interface {
	GetTable(ctx context.Context, id uuid.UUID) (database.Table, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (database.Customer, error)
	GetMenuItemForOrder(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	GetModifierOptionForOrder(ctx context.Context, id uuid.UUID) (database.ModifierOption, error)

	GetNextOrderNumber(ctx context.Context) (int32, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOpenOrderByTableForUpdate(ctx context.Context, tableID uuid.UUID) (database.Order, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	UpdateOrderBill(ctx context.Context, arg database.UpdateOrderBillParams) (database.Order, error)
	UpdateOrderTotals(ctx context.Context, arg database.UpdateOrderTotalsParams) (database.Order, error)
	CompleteOrder(ctx context.Context, arg database.CompleteOrderParams) (database.Order, error)
	CancelOrder(ctx context.Context, id uuid.UUID) (database.Order, error)

	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrderItem(ctx context.Context, id uuid.UUID) (database.OrderItem, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	AdvanceItemStatuses(ctx context.Context, arg database.AdvanceItemStatusesParams) (int64, error)
	CancelOrderItem(ctx context.Context, arg database.CancelOrderItemParams) (database.OrderItem, error)
	CancelItemsByOrder(ctx context.Context, arg database.CancelItemsByOrderParams) (int64, error)

	CreateOrderItemModifier(ctx context.Context, arg database.CreateOrderItemModifierParams) (database.OrderItemModifier, error)
	ListOrderItemModifiersByOrderItem(ctx context.Context, orderItemID uuid.UUID) ([]database.OrderItemModifier, error)
}

// NewStore creates a Store from a DBTX (pool or tx).
type NewStore func(db database.DBTX) Store

// Publisher receives committed order snapshots for fan-out. It is invoked
// strictly after the order's critical section is released, so a slow
// subscriber cannot stall other actors on the same order.
type Publisher interface {
	OrderChanged(snap *OrderSnapshot)
	BillConfirmed(snap *OrderSnapshot)
}

// OrderSnapshot is the full committed state of an order: the order row, its
// table and every item with its modifiers.
type OrderSnapshot struct {
	Order database.Order
	Table database.Table
	Items []ItemWithModifiers
}

type ItemWithModifiers struct {
	Item      database.OrderItem
	Modifiers []database.OrderItemModifier
}

// OrderService owns the order/item lifecycle. All status mutations flow
// through it; nothing else writes order state.
type OrderService struct {
	pool     TxBeginner
	newStore NewStore
	locks    *keyedLocks
	pub      Publisher
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewStore, pub Publisher) *OrderService {
	return &OrderService{
		pool:     pool,
		newStore: newStore,
		locks:    newKeyedLocks(),
		pub:      pub,
	}
}

// --- Requests ---

// AddItemsRequest submits new line items to a table. When the table already
// has an open order the items are appended to it; otherwise a new order is
// created.
type AddItemsRequest struct {
	TableID    string
	CustomerID string
	Notes      string
	Items      []AddItemRequest
}

type AddItemRequest struct {
	MenuItemID  string
	Quantity    int32
	Note        string
	ModifierIDs []string
}

type ConfirmBillRequest struct {
	OrderID       uuid.UUID
	DiscountType  string
	DiscountValue string
	TaxAmount     string
}

type CompletePaymentRequest struct {
	OrderID       uuid.UUID
	Method        string
	TransactionID string
}

// --- Critical section plumbing ---

// withLock runs fn inside the key's critical section. Acquisition is retried
// once before the conflict is surfaced.
func (s *OrderService) withLock(ctx context.Context, key uuid.UUID, fn func(ctx context.Context) (*OrderSnapshot, error)) (*OrderSnapshot, error) {
	release, err := s.locks.Acquire(ctx, key)
	if errors.Is(err, ErrConcurrencyConflict) {
		release, err = s.locks.Acquire(ctx, key)
	}
	if err != nil {
		return nil, err
	}
	defer release()
	return fn(ctx)
}

func (s *OrderService) publishChanged(snap *OrderSnapshot) {
	if s.pub != nil && snap != nil {
		s.pub.OrderChanged(snap)
	}
}

func (s *OrderService) publishBill(snap *OrderSnapshot) {
	if s.pub != nil && snap != nil {
		s.pub.BillConfirmed(snap)
	}
}

// --- Operations ---

// AddItems creates or extends a table's open order. Appending to an order
// that already reached READY, SERVED or PAYMENT_REQUEST re-opens it: the
// order reverts to PENDING so staff re-confirm the new items, while served
// items keep their own status.
func (s *OrderService) AddItems(ctx context.Context, req AddItemsRequest) (*OrderSnapshot, error) {
	tableID, err := uuid.Parse(req.TableID)
	if err != nil {
		return nil, ErrInvalidTableID
	}

	customerID := pgtype.UUID{}
	if req.CustomerID != "" {
		cid, err := uuid.Parse(req.CustomerID)
		if err != nil {
			return nil, ErrInvalidCustomerID
		}
		customerID = pgtype.UUID{Bytes: cid, Valid: true}
	}

	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		if _, err := uuid.Parse(item.MenuItemID); err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidMenuItemID)
		}
		for j, mod := range item.ModifierIDs {
			if _, err := uuid.Parse(mod); err != nil {
				return nil, fmt.Errorf("items[%d].modifiers[%d]: %w", i, j, ErrInvalidModifierID)
			}
		}
	}

	// Creation races are keyed by table: two guests at the same table must
	// not end up with two open orders.
	snap, err := s.withLock(ctx, tableID, func(ctx context.Context) (*OrderSnapshot, error) {
		return s.addItemsTx(ctx, tableID, customerID, req)
	})
	if err != nil {
		return nil, err
	}
	s.publishChanged(snap)
	return snap, nil
}

func (s *OrderService) addItemsTx(ctx context.Context, tableID uuid.UUID, customerID pgtype.UUID, req AddItemsRequest) (*OrderSnapshot, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.GetTable(ctx, tableID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("get table: %w", err)
	}

	if customerID.Valid {
		if _, err := store.GetCustomer(ctx, uuid.UUID(customerID.Bytes)); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrCustomerNotFound
			}
			return nil, fmt.Errorf("get customer: %w", err)
		}
	}

	created := false
	order, err := store.GetOpenOrderByTableForUpdate(ctx, tableID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		nextNum, err := store.GetNextOrderNumber(ctx)
		if err != nil {
			return nil, fmt.Errorf("get next order number: %w", err)
		}
		notes := pgtype.Text{}
		if req.Notes != "" {
			notes = pgtype.Text{String: req.Notes, Valid: true}
		}
		order, err = store.CreateOrder(ctx, database.CreateOrderParams{
			TableID:     tableID,
			CustomerID:  customerID,
			OrderNumber: fmt.Sprintf("MEJA-%03d", nextNum),
			Status:      enum.OrderStatusPending,
			Subtotal:    decimalToNumeric(decimal.Zero),
			TaxAmount:   decimalToNumeric(decimal.Zero),
			TotalAmount: decimalToNumeric(decimal.Zero),
			Notes:       notes,
		})
		if err != nil {
			return nil, fmt.Errorf("create order: %w", err)
		}
		created = true
	case err != nil:
		return nil, fmt.Errorf("get open order: %w", err)
	case orderLocked(order.Status):
		return nil, invalidTransition("add items", order.Status, "bill is confirmed; open a new order after payment")
	}

	for i, item := range req.Items {
		menuItemID, _ := uuid.Parse(item.MenuItemID)
		menuItem, err := store.GetMenuItemForOrder(ctx, menuItemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("items[%d]: %w", i, ErrMenuItemNotFound)
			}
			return nil, fmt.Errorf("items[%d]: get menu item: %w", i, err)
		}

		notes := pgtype.Text{}
		if item.Note != "" {
			notes = pgtype.Text{String: item.Note, Valid: true}
		}

		// price_at_order freezes the menu price; later menu edits never
		// touch historical bills.
		orderItem, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:      order.ID,
			MenuItemID:   menuItemID,
			Quantity:     item.Quantity,
			PriceAtOrder: menuItem.Price,
			Status:       enum.ItemStatusPending,
			Notes:        notes,
		})
		if err != nil {
			return nil, fmt.Errorf("items[%d]: create order item: %w", i, err)
		}

		for j, modID := range item.ModifierIDs {
			id, _ := uuid.Parse(modID)
			mod, err := store.GetModifierOptionForOrder(ctx, id)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, fmt.Errorf("items[%d].modifiers[%d]: %w", i, j, ErrModifierNotFound)
				}
				return nil, fmt.Errorf("items[%d].modifiers[%d]: get modifier: %w", i, j, err)
			}
			if mod.MenuItemID != menuItemID {
				return nil, fmt.Errorf("items[%d].modifiers[%d]: %w", i, j, ErrModifierMismatch)
			}
			if _, err := store.CreateOrderItemModifier(ctx, database.CreateOrderItemModifierParams{
				OrderItemID:      orderItem.ID,
				ModifierOptionID: mod.ID,
				Price:            mod.Price,
			}); err != nil {
				return nil, fmt.Errorf("items[%d].modifiers[%d]: create modifier: %w", i, j, err)
			}
		}
	}

	// Wake-up rule: appending to a nearly-closed order re-opens it.
	if !created && shouldWakeUp(order.Status) {
		if _, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
			ID:     order.ID,
			Status: enum.OrderStatusPending,
		}); err != nil {
			return nil, fmt.Errorf("reopen order: %w", err)
		}
	}

	if err := s.recomputeTotals(ctx, store, order); err != nil {
		return nil, err
	}

	snap, err := s.loadSnapshot(ctx, store, order.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return snap, nil
}

// ConfirmItems moves every PENDING item to CONFIRMED (waiter action).
func (s *OrderService) ConfirmItems(ctx context.Context, orderID uuid.UUID) (*OrderSnapshot, error) {
	return s.bulkAdvance(ctx, orderID, opConfirm)
}

// BeginPreparing moves every CONFIRMED item to PREPARING (kitchen action).
func (s *OrderService) BeginPreparing(ctx context.Context, orderID uuid.UUID) (*OrderSnapshot, error) {
	return s.bulkAdvance(ctx, orderID, opPrepare)
}

// MarkItemsReady moves every PREPARING item to READY (kitchen action).
func (s *OrderService) MarkItemsReady(ctx context.Context, orderID uuid.UUID) (*OrderSnapshot, error) {
	return s.bulkAdvance(ctx, orderID, opReady)
}

// ServeItems moves every READY item to SERVED (waiter action).
func (s *OrderService) ServeItems(ctx context.Context, orderID uuid.UUID) (*OrderSnapshot, error) {
	return s.bulkAdvance(ctx, orderID, opServe)
}

func (s *OrderService) bulkAdvance(ctx context.Context, orderID uuid.UUID, op bulkOp) (*OrderSnapshot, error) {
	snap, err := s.withLock(ctx, orderID, func(ctx context.Context) (*OrderSnapshot, error) {
		return s.bulkAdvanceTx(ctx, orderID, op)
	})
	if err != nil {
		return nil, err
	}
	s.publishChanged(snap)
	return snap, nil
}

func (s *OrderService) bulkAdvanceTx(ctx context.Context, orderID uuid.UUID, op bulkOp) (*OrderSnapshot, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if orderLocked(order.Status) {
		return nil, invalidTransition(op.action(), order.Status, "order is locked")
	}

	moved, err := store.AdvanceItemStatuses(ctx, database.AdvanceItemStatusesParams{
		OrderID: orderID,
		From:    op.from(),
		To:      op.to(),
	})
	if err != nil {
		return nil, fmt.Errorf("advance items: %w", err)
	}
	if op == opConfirm && moved == 0 {
		return nil, invalidTransition(op.action(), order.Status, "no pending items to confirm")
	}

	items, err := store.ListOrderItemsByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	statuses := make([]enum.ItemStatus, len(items))
	for i, it := range items {
		statuses[i] = it.Status
	}

	if next, changed := nextOrderStatus(op, order.Status, statuses); changed {
		if _, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
			ID:     orderID,
			Status: next,
		}); err != nil {
			return nil, fmt.Errorf("update order status: %w", err)
		}
	}

	snap, err := s.loadSnapshot(ctx, store, orderID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return snap, nil
}

// CancelItem cancels a single line with a mandatory reason and corrects the
// order totals, as long as the bill has not been confirmed.
func (s *OrderService) CancelItem(ctx context.Context, itemID uuid.UUID, reason string) (*OrderSnapshot, error) {
	if reason == "" {
		return nil, ErrEmptyReason
	}

	// Resolve the parent order outside the critical section; the guarded
	// update inside the transaction re-checks the item's state.
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	snap, err := s.withLock(ctx, item.OrderID, func(ctx context.Context) (*OrderSnapshot, error) {
		return s.cancelItemTx(ctx, item.OrderID, itemID, reason)
	})
	if err != nil {
		return nil, err
	}
	s.publishChanged(snap)
	return snap, nil
}

func (s *OrderService) getItem(ctx context.Context, itemID uuid.UUID) (database.OrderItem, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.OrderItem{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	item, err := s.newStore(tx).GetOrderItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.OrderItem{}, ErrItemNotFound
		}
		return database.OrderItem{}, fmt.Errorf("get order item: %w", err)
	}
	return item, tx.Commit(ctx)
}

func (s *OrderService) cancelItemTx(ctx context.Context, orderID, itemID uuid.UUID, reason string) (*OrderSnapshot, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.Status == enum.OrderStatusPaymentPending || order.Status == enum.OrderStatusCompleted {
		return nil, invalidTransition("cancel item", order.Status, "bill is already confirmed")
	}
	if order.Status == enum.OrderStatusCancelled {
		return nil, invalidTransition("cancel item", order.Status, "order is cancelled")
	}

	item, err := store.GetOrderItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("get order item: %w", err)
	}
	if !canTransitionItem(item.Status, enum.ItemStatusCancelled) {
		return nil, invalidTransition("cancel item", order.Status, "item is already served or cancelled")
	}

	if _, err := store.CancelOrderItem(ctx, database.CancelOrderItemParams{
		ID:           itemID,
		RejectReason: pgtype.Text{String: reason, Valid: true},
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invalidTransition("cancel item", order.Status, "item is already served or cancelled")
		}
		return nil, fmt.Errorf("cancel order item: %w", err)
	}

	if err := s.recomputeTotals(ctx, store, order); err != nil {
		return nil, err
	}

	snap, err := s.loadSnapshot(ctx, store, orderID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return snap, nil
}

// RequestPayment flags the order as awaiting the check. It performs no
// monetary computation; repeating it is a no-op.
func (s *OrderService) RequestPayment(ctx context.Context, orderID uuid.UUID) (*OrderSnapshot, error) {
	var repeated bool
	snap, err := s.withLock(ctx, orderID, func(ctx context.Context) (*OrderSnapshot, error) {
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return nil, fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx) //nolint:errcheck

		store := s.newStore(tx)

		order, err := store.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrOrderNotFound
			}
			return nil, fmt.Errorf("get order: %w", err)
		}
		if orderLocked(order.Status) {
			return nil, invalidTransition("request payment", order.Status, "order is already closed")
		}
		if order.Status == enum.OrderStatusPaymentRequest {
			repeated = true
			snap, err := s.loadSnapshot(ctx, store, orderID)
			if err != nil {
				return nil, err
			}
			return snap, tx.Commit(ctx)
		}

		if _, err := s.requireAllServed(ctx, store, order, "request payment"); err != nil {
			return nil, err
		}

		if _, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
			ID:     orderID,
			Status: enum.OrderStatusPaymentRequest,
		}); err != nil {
			return nil, fmt.Errorf("update order status: %w", err)
		}

		snap, err := s.loadSnapshot(ctx, store, orderID)
		if err != nil {
			return nil, err
		}
		return snap, tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}
	if !repeated {
		s.publishChanged(snap)
	}
	return snap, nil
}

// ConfirmBill computes and freezes the bill, moving the order to
// PAYMENT_PENDING. Requires every active item to be SERVED.
func (s *OrderService) ConfirmBill(ctx context.Context, req ConfirmBillRequest) (*OrderSnapshot, error) {
	discountType := enum.DiscountType("")
	discountValue := decimal.Zero
	if req.DiscountType != "" {
		discountType = enum.DiscountType(req.DiscountType)
		if !discountType.Valid() {
			return nil, ErrInvalidDiscount
		}
		dv, err := decimal.NewFromString(req.DiscountValue)
		if err != nil || dv.IsNegative() {
			return nil, ErrInvalidDiscountValue
		}
		discountValue = dv
	}

	taxAmount := decimal.Zero
	if req.TaxAmount != "" {
		ta, err := decimal.NewFromString(req.TaxAmount)
		if err != nil || ta.IsNegative() {
			return nil, ErrInvalidTaxAmount
		}
		taxAmount = ta
	}

	snap, err := s.withLock(ctx, req.OrderID, func(ctx context.Context) (*OrderSnapshot, error) {
		return s.confirmBillTx(ctx, req.OrderID, discountType, discountValue, taxAmount)
	})
	if err != nil {
		return nil, err
	}
	s.publishChanged(snap)
	s.publishBill(snap)
	return snap, nil
}

func (s *OrderService) confirmBillTx(ctx context.Context, orderID uuid.UUID, discountType enum.DiscountType, discountValue, taxAmount decimal.Decimal) (*OrderSnapshot, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.Status == enum.OrderStatusPaymentPending {
		return nil, invalidTransition("confirm bill", order.Status, "bill is already confirmed")
	}
	if order.Status.Terminal() {
		return nil, invalidTransition("confirm bill", order.Status, "order is closed")
	}

	lines, err := s.requireAllServed(ctx, store, order, "confirm bill")
	if err != nil {
		return nil, err
	}

	bill := computeBill(lines, discountType, discountValue, taxAmount)

	dt := pgtype.Text{}
	dv := pgtype.Numeric{}
	if discountType != "" {
		dt = pgtype.Text{String: string(discountType), Valid: true}
		dv = decimalToNumeric(discountValue)
	}

	if _, err := store.UpdateOrderBill(ctx, database.UpdateOrderBillParams{
		ID:             orderID,
		Status:         enum.OrderStatusPaymentPending,
		Subtotal:       decimalToNumeric(bill.Subtotal),
		DiscountType:   dt,
		DiscountValue:  dv,
		DiscountAmount: decimalToNumeric(bill.DiscountAmount),
		TaxAmount:      decimalToNumeric(bill.TaxAmount),
		TotalAmount:    decimalToNumeric(bill.Total),
	}); err != nil {
		return nil, fmt.Errorf("update order bill: %w", err)
	}

	snap, err := s.loadSnapshot(ctx, store, orderID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return snap, nil
}

// CompletePayment is the idempotent completion sink. The first call on a
// PAYMENT_PENDING order transitions it to COMPLETED with the payment proof;
// any other call — duplicate gateway callback, retry, out-of-order delivery —
// is a no-op returning the current snapshot.
func (s *OrderService) CompletePayment(ctx context.Context, req CompletePaymentRequest) (*OrderSnapshot, error) {
	method := enum.PaymentMethod(req.Method)
	if !method.Valid() {
		return nil, ErrInvalidPaymentMethod
	}

	var completed bool
	snap, err := s.withLock(ctx, req.OrderID, func(ctx context.Context) (*OrderSnapshot, error) {
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return nil, fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx) //nolint:errcheck

		store := s.newStore(tx)

		order, err := store.GetOrderForUpdate(ctx, req.OrderID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrOrderNotFound
			}
			return nil, fmt.Errorf("get order: %w", err)
		}

		if order.Status == enum.OrderStatusPaymentPending {
			txID := pgtype.Text{}
			if req.TransactionID != "" {
				txID = pgtype.Text{String: req.TransactionID, Valid: true}
			}
			if _, err := store.CompleteOrder(ctx, database.CompleteOrderParams{
				ID:            req.OrderID,
				PaymentMethod: pgtype.Text{String: string(method), Valid: true},
				TransactionID: txID,
			}); err != nil {
				return nil, fmt.Errorf("complete order: %w", err)
			}
			completed = true
		}

		snap, err := s.loadSnapshot(ctx, store, req.OrderID)
		if err != nil {
			return nil, err
		}
		return snap, tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}
	if completed {
		s.publishChanged(snap)
	}
	return snap, nil
}

// CancelOrder cancels the whole order and every item still in flight.
func (s *OrderService) CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) (*OrderSnapshot, error) {
	if reason == "" {
		return nil, ErrEmptyReason
	}

	snap, err := s.withLock(ctx, orderID, func(ctx context.Context) (*OrderSnapshot, error) {
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return nil, fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx) //nolint:errcheck

		store := s.newStore(tx)

		order, err := store.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrOrderNotFound
			}
			return nil, fmt.Errorf("get order: %w", err)
		}
		if order.Status == enum.OrderStatusCompleted {
			return nil, invalidTransition("cancel order", order.Status, "order is already completed")
		}
		if order.Status == enum.OrderStatusCancelled {
			return nil, invalidTransition("cancel order", order.Status, "order is already cancelled")
		}

		if _, err := store.CancelItemsByOrder(ctx, database.CancelItemsByOrderParams{
			OrderID:      orderID,
			RejectReason: pgtype.Text{String: reason, Valid: true},
		}); err != nil {
			return nil, fmt.Errorf("cancel items: %w", err)
		}
		if _, err := store.CancelOrder(ctx, orderID); err != nil {
			return nil, fmt.Errorf("cancel order: %w", err)
		}

		snap, err := s.loadSnapshot(ctx, store, orderID)
		if err != nil {
			return nil, err
		}
		return snap, tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}
	s.publishChanged(snap)
	return snap, nil
}

// GetSnapshot returns the current committed state of an order (read-only).
func (s *OrderService) GetSnapshot(ctx context.Context, orderID uuid.UUID) (*OrderSnapshot, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	if _, err := store.GetOrder(ctx, orderID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	snap, err := s.loadSnapshot(ctx, store, orderID)
	if err != nil {
		return nil, err
	}
	return snap, tx.Commit(ctx)
}

// --- Shared helpers ---

// requireAllServed verifies every non-cancelled item is SERVED and returns
// the bill lines built from the frozen snapshots.
func (s *OrderService) requireAllServed(ctx context.Context, store Store, order database.Order, action string) ([]BillLine, error) {
	items, err := store.ListOrderItemsByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	var lines []BillLine
	active := 0
	for _, it := range items {
		if it.Status == enum.ItemStatusCancelled {
			continue
		}
		active++
		if it.Status != enum.ItemStatusServed {
			return nil, invalidTransition(action, order.Status, "all items must be served first")
		}
		line, err := s.billLine(ctx, store, it)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if active == 0 {
		return nil, invalidTransition(action, order.Status, "order has no active items")
	}
	return lines, nil
}

func (s *OrderService) billLine(ctx context.Context, store Store, item database.OrderItem) (BillLine, error) {
	mods, err := store.ListOrderItemModifiersByOrderItem(ctx, item.ID)
	if err != nil {
		return BillLine{}, fmt.Errorf("list item modifiers: %w", err)
	}
	modSum := decimal.Zero
	for _, m := range mods {
		modSum = modSum.Add(numericToDecimal(m.Price))
	}
	return BillLine{
		UnitPrice:   numericToDecimal(item.PriceAtOrder),
		ModifierSum: modSum,
		Quantity:    item.Quantity,
	}, nil
}

// recomputeTotals re-derives subtotal/total from the current active items
// and the order's stored discount and tax inputs. Used when the item set
// changes before the bill is confirmed.
func (s *OrderService) recomputeTotals(ctx context.Context, store Store, order database.Order) error {
	items, err := store.ListOrderItemsByOrder(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}

	var lines []BillLine
	for _, it := range items {
		if it.Status == enum.ItemStatusCancelled {
			continue
		}
		line, err := s.billLine(ctx, store, it)
		if err != nil {
			return err
		}
		lines = append(lines, line)
	}

	discountType := enum.DiscountType("")
	if order.DiscountType.Valid {
		discountType = enum.DiscountType(order.DiscountType.String)
	}
	bill := computeBill(lines, discountType, numericToDecimal(order.DiscountValue), numericToDecimal(order.TaxAmount))

	if _, err := store.UpdateOrderTotals(ctx, database.UpdateOrderTotalsParams{
		ID:             order.ID,
		Subtotal:       decimalToNumeric(bill.Subtotal),
		DiscountAmount: decimalToNumeric(bill.DiscountAmount),
		TotalAmount:    decimalToNumeric(bill.Total),
	}); err != nil {
		return fmt.Errorf("update order totals: %w", err)
	}
	return nil
}

func (s *OrderService) loadSnapshot(ctx context.Context, store Store, orderID uuid.UUID) (*OrderSnapshot, error) {
	order, err := store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	table, err := store.GetTable(ctx, order.TableID)
	if err != nil {
		return nil, fmt.Errorf("get table: %w", err)
	}
	items, err := store.ListOrderItemsByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	result := make([]ItemWithModifiers, len(items))
	for i, it := range items {
		mods, err := store.ListOrderItemModifiersByOrderItem(ctx, it.ID)
		if err != nil {
			return nil, fmt.Errorf("list item modifiers: %w", err)
		}
		result[i] = ItemWithModifiers{Item: it, Modifiers: mods}
	}

	return &OrderSnapshot{Order: order, Table: table, Items: result}, nil
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
