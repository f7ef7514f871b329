package service

import "github.com/mejapos/api/internal/enum"

// itemTransitions defines the legal forward moves of a single order line.
// CANCELLED is reachable from every non-terminal state; SERVED and CANCELLED
// are terminal.
var itemTransitions = map[enum.ItemStatus][]enum.ItemStatus{
	enum.ItemStatusPending:   {enum.ItemStatusConfirmed, enum.ItemStatusCancelled},
	enum.ItemStatusConfirmed: {enum.ItemStatusPreparing, enum.ItemStatusCancelled},
	enum.ItemStatusPreparing: {enum.ItemStatusReady, enum.ItemStatusCancelled},
	enum.ItemStatusReady:     {enum.ItemStatusServed, enum.ItemStatusCancelled},
}

// canTransitionItem checks the item transition table.
func canTransitionItem(from, to enum.ItemStatus) bool {
	for _, s := range itemTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// bulkOp is one of the role-driven bulk item operations. Items are never
// edited to arbitrary statuses; each operation moves every item in its
// source status to its target status.
type bulkOp int

const (
	opConfirm bulkOp = iota // waiter: PENDING -> CONFIRMED
	opPrepare               // kitchen: CONFIRMED -> PREPARING
	opReady                 // kitchen: PREPARING -> READY
	opServe                 // waiter: READY -> SERVED
)

func (op bulkOp) from() enum.ItemStatus {
	switch op {
	case opConfirm:
		return enum.ItemStatusPending
	case opPrepare:
		return enum.ItemStatusConfirmed
	case opReady:
		return enum.ItemStatusPreparing
	default:
		return enum.ItemStatusReady
	}
}

func (op bulkOp) to() enum.ItemStatus {
	switch op {
	case opConfirm:
		return enum.ItemStatusConfirmed
	case opPrepare:
		return enum.ItemStatusPreparing
	case opReady:
		return enum.ItemStatusReady
	default:
		return enum.ItemStatusServed
	}
}

func (op bulkOp) action() string {
	switch op {
	case opConfirm:
		return "confirm items"
	case opPrepare:
		return "begin preparing"
	case opReady:
		return "mark items ready"
	default:
		return "serve items"
	}
}

// stageRank orders the forward stages of the order lifecycle, used to keep
// the reducer monotonic. CANCELLED carries no rank; it is only reached
// through explicit cancellation, never through the reducer.
var stageRank = map[enum.OrderStatus]int{
	enum.OrderStatusPending:        0,
	enum.OrderStatusConfirmed:      1,
	enum.OrderStatusPreparing:      2,
	enum.OrderStatusReady:          3,
	enum.OrderStatusServed:         4,
	enum.OrderStatusPaymentRequest: 5,
	enum.OrderStatusPaymentPending: 6,
	enum.OrderStatusCompleted:      7,
}

// promote moves the order to candidate only when that is a later stage.
// Re-running an operation the order has already passed leaves it untouched;
// dropping back happens only through the add-items wake-up or cancellation.
func promote(current, candidate enum.OrderStatus) (enum.OrderStatus, bool) {
	if stageRank[candidate] > stageRank[current] {
		return candidate, true
	}
	return current, false
}

// nextOrderStatus is the aggregation reducer: given the bulk operation that
// just ran, the order's current status and the resulting item statuses, it
// returns the new order status and whether it changed.
//
// Confirm and prepare promote the order unconditionally. Ready and serve only
// promote once every non-cancelled item has reached the target stage, with
// one special case: when the kitchen started early on a subset, an order
// still in PENDING/CONFIRMED is promoted to PREPARING. The reducer never
// regresses the order; re-opening is handled by the add-items wake-up, not
// here.
func nextOrderStatus(op bulkOp, current enum.OrderStatus, items []enum.ItemStatus) (enum.OrderStatus, bool) {
	switch op {
	case opConfirm:
		return promote(current, enum.OrderStatusConfirmed)
	case opPrepare:
		return promote(current, enum.OrderStatusPreparing)
	case opReady:
		if allActiveIn(items, enum.ItemStatusReady, enum.ItemStatusServed) {
			return promote(current, enum.OrderStatusReady)
		}
	case opServe:
		if allActiveIn(items, enum.ItemStatusServed) {
			return promote(current, enum.OrderStatusServed)
		}
	}

	// Partial progress: reflect that preparation has begun if the order
	// still reads as not started.
	if hasPreparingItem(items) &&
		(current == enum.OrderStatusPending || current == enum.OrderStatusConfirmed) {
		return enum.OrderStatusPreparing, true
	}

	return current, false
}

// allActiveIn reports whether every non-cancelled item is in one of the given
// statuses. An order with no active items never satisfies it; cancelling the
// last active item must not promote the order on its own.
func allActiveIn(items []enum.ItemStatus, allowed ...enum.ItemStatus) bool {
	active := 0
	for _, s := range items {
		if s == enum.ItemStatusCancelled {
			continue
		}
		active++
		ok := false
		for _, a := range allowed {
			if s == a {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return active > 0
}

func hasPreparingItem(items []enum.ItemStatus) bool {
	for _, s := range items {
		if s == enum.ItemStatusPreparing {
			return true
		}
	}
	return false
}

// orderLocked reports whether the order refuses further item mutations.
func orderLocked(status enum.OrderStatus) bool {
	return status == enum.OrderStatusPaymentPending || status.Terminal()
}

// shouldWakeUp reports whether appending items must re-open the order: a
// nearly-closed order drops back to PENDING so staff re-confirm the delta.
// Already-served items keep their own status.
func shouldWakeUp(status enum.OrderStatus) bool {
	switch status {
	case enum.OrderStatusReady, enum.OrderStatusServed, enum.OrderStatusPaymentRequest:
		return true
	}
	return false
}
