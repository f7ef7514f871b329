package service

import (
	"errors"
	"fmt"

	"github.com/mejapos/api/internal/enum"
)

// Errors returned by the order service.
var (
	ErrEmptyItems           = errors.New("items are required")
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
	ErrEmptyReason          = errors.New("reason is required")
	ErrInvalidTableID       = errors.New("invalid table_id")
	ErrInvalidCustomerID    = errors.New("invalid customer_id")
	ErrInvalidMenuItemID    = errors.New("invalid menu_item_id")
	ErrInvalidModifierID    = errors.New("invalid modifier_id")
	ErrInvalidDiscount      = errors.New("invalid discount_type")
	ErrInvalidDiscountValue = errors.New("invalid discount_value")
	ErrInvalidTaxAmount     = errors.New("invalid tax_amount")
	ErrInvalidPaymentMethod = errors.New("invalid payment_method")

	ErrTableNotFound    = errors.New("table not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrMenuItemNotFound = errors.New("menu item not found or unavailable")
	ErrModifierNotFound = errors.New("modifier option not found")
	ErrModifierMismatch = errors.New("modifier option does not belong to menu item")
	ErrOrderNotFound    = errors.New("order not found")
	ErrItemNotFound     = errors.New("order item not found")

	// ErrConcurrencyConflict surfaces when the per-order critical section
	// could not be entered within the wait budget, after one retry.
	ErrConcurrencyConflict = errors.New("order is busy, please retry")
)

// InvalidTransitionError reports an action that is not legal for the order's
// current status, carrying the status and the violated precondition so the
// caller can explain the rejection.
type InvalidTransitionError struct {
	Action string
	Status enum.OrderStatus
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s while order is %s: %s", e.Action, e.Status, e.Reason)
}

func invalidTransition(action string, status enum.OrderStatus, reason string) error {
	return &InvalidTransitionError{Action: action, Status: status, Reason: reason}
}
