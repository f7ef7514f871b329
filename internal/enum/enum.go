package enum

// ── State machines (CHECK constrained in DB) ──

// OrderStatus is the order-level lifecycle state. It is derived from item
// statuses by the aggregation reducer except for the four explicit staff
// actions (request payment, confirm bill, complete payment, cancel).
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "PENDING"
	OrderStatusConfirmed      OrderStatus = "CONFIRMED"
	OrderStatusPreparing      OrderStatus = "PREPARING"
	OrderStatusReady          OrderStatus = "READY"
	OrderStatusServed         OrderStatus = "SERVED"
	OrderStatusPaymentRequest OrderStatus = "PAYMENT_REQUEST"
	OrderStatusPaymentPending OrderStatus = "PAYMENT_PENDING"
	OrderStatusCompleted      OrderStatus = "COMPLETED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
)

// Valid reports whether s is one of the defined order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusReady, OrderStatusServed, OrderStatusPaymentRequest,
		OrderStatusPaymentPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the order can no longer change.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// ItemStatus is the kitchen-workflow state of a single order line.
type ItemStatus string

const (
	ItemStatusPending   ItemStatus = "PENDING"
	ItemStatusConfirmed ItemStatus = "CONFIRMED"
	ItemStatusPreparing ItemStatus = "PREPARING"
	ItemStatusReady     ItemStatus = "READY"
	ItemStatusServed    ItemStatus = "SERVED"
	ItemStatusCancelled ItemStatus = "CANCELLED"
)

// Valid reports whether s is one of the defined item statuses.
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemStatusPending, ItemStatusConfirmed, ItemStatusPreparing,
		ItemStatusReady, ItemStatusServed, ItemStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the item can no longer change.
func (s ItemStatus) Terminal() bool {
	return s == ItemStatusServed || s == ItemStatusCancelled
}

// ── Borderline (CHECK constrained in DB) ──

type UserRole string

const (
	UserRoleAdmin   UserRole = "ADMIN"
	UserRoleWaiter  UserRole = "WAITER"
	UserRoleKitchen UserRole = "KITCHEN"
	UserRoleCashier UserRole = "CASHIER"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleAdmin, UserRoleWaiter, UserRoleKitchen, UserRoleCashier:
		return true
	}
	return false
}

// ── Configurable labels (no DB constraint) ──

type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodQRIS     PaymentMethod = "QRIS"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodQRIS, PaymentMethodTransfer:
		return true
	}
	return false
}

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "PERCENTAGE"
	DiscountTypeFixed      DiscountType = "FIXED_AMOUNT"
)

func (d DiscountType) Valid() bool {
	switch d {
	case DiscountTypePercentage, DiscountTypeFixed:
		return true
	}
	return false
}
