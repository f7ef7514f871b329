package service

import (
	"testing"

	"github.com/mejapos/api/internal/enum"
)

func TestCanTransitionItem(t *testing.T) {
	tests := []struct {
		from, to enum.ItemStatus
		want     bool
	}{
		{enum.ItemStatusPending, enum.ItemStatusConfirmed, true},
		{enum.ItemStatusConfirmed, enum.ItemStatusPreparing, true},
		{enum.ItemStatusPreparing, enum.ItemStatusReady, true},
		{enum.ItemStatusReady, enum.ItemStatusServed, true},
		{enum.ItemStatusPending, enum.ItemStatusCancelled, true},
		{enum.ItemStatusReady, enum.ItemStatusCancelled, true},

		// no skipping stages
		{enum.ItemStatusPending, enum.ItemStatusPreparing, false},
		{enum.ItemStatusConfirmed, enum.ItemStatusReady, false},
		{enum.ItemStatusPending, enum.ItemStatusServed, false},

		// no going backwards
		{enum.ItemStatusReady, enum.ItemStatusPreparing, false},
		{enum.ItemStatusConfirmed, enum.ItemStatusPending, false},

		// terminal states never move
		{enum.ItemStatusServed, enum.ItemStatusCancelled, false},
		{enum.ItemStatusCancelled, enum.ItemStatusPending, false},
		{enum.ItemStatusServed, enum.ItemStatusReady, false},
	}

	for _, tt := range tests {
		if got := canTransitionItem(tt.from, tt.to); got != tt.want {
			t.Errorf("canTransitionItem(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestNextOrderStatus_ConfirmAndPreparePromoteUnconditionally(t *testing.T) {
	items := []enum.ItemStatus{enum.ItemStatusConfirmed, enum.ItemStatusPending}

	status, changed := nextOrderStatus(opConfirm, enum.OrderStatusPending, items)
	if status != enum.OrderStatusConfirmed || !changed {
		t.Errorf("confirm: got (%s, %v), want (CONFIRMED, true)", status, changed)
	}

	status, changed = nextOrderStatus(opPrepare, enum.OrderStatusConfirmed, items)
	if status != enum.OrderStatusPreparing || !changed {
		t.Errorf("prepare: got (%s, %v), want (PREPARING, true)", status, changed)
	}
}

func TestNextOrderStatus_ReadyRequiresAllReady(t *testing.T) {
	// One item still PREPARING holds the order back... but partial progress
	// from PENDING/CONFIRMED still surfaces as PREPARING.
	partial := []enum.ItemStatus{enum.ItemStatusReady, enum.ItemStatusPreparing}
	status, changed := nextOrderStatus(opReady, enum.OrderStatusPreparing, partial)
	if status != enum.OrderStatusPreparing || changed {
		t.Errorf("partial ready: got (%s, %v), want (PREPARING, false)", status, changed)
	}

	all := []enum.ItemStatus{enum.ItemStatusReady, enum.ItemStatusReady}
	status, changed = nextOrderStatus(opReady, enum.OrderStatusPreparing, all)
	if status != enum.OrderStatusReady || !changed {
		t.Errorf("all ready: got (%s, %v), want (READY, true)", status, changed)
	}
}

func TestNextOrderStatus_ReadyCountsServedAsDone(t *testing.T) {
	// A batch served earlier does not block the remaining batch's READY.
	items := []enum.ItemStatus{enum.ItemStatusServed, enum.ItemStatusReady}
	status, changed := nextOrderStatus(opReady, enum.OrderStatusPreparing, items)
	if status != enum.OrderStatusReady || !changed {
		t.Errorf("got (%s, %v), want (READY, true)", status, changed)
	}
}

func TestNextOrderStatus_ServeRequiresAllServed(t *testing.T) {
	partial := []enum.ItemStatus{enum.ItemStatusServed, enum.ItemStatusReady}
	status, changed := nextOrderStatus(opServe, enum.OrderStatusReady, partial)
	if status != enum.OrderStatusReady || changed {
		t.Errorf("partial serve: got (%s, %v), want (READY, false)", status, changed)
	}

	all := []enum.ItemStatus{enum.ItemStatusServed, enum.ItemStatusServed}
	status, changed = nextOrderStatus(opServe, enum.OrderStatusReady, all)
	if status != enum.OrderStatusServed || !changed {
		t.Errorf("all served: got (%s, %v), want (SERVED, true)", status, changed)
	}
}

func TestNextOrderStatus_CancelledItemsAreExcluded(t *testing.T) {
	// Cancelled lines must not block the rest of the order.
	items := []enum.ItemStatus{enum.ItemStatusServed, enum.ItemStatusCancelled}
	status, changed := nextOrderStatus(opServe, enum.OrderStatusReady, items)
	if status != enum.OrderStatusServed || !changed {
		t.Errorf("got (%s, %v), want (SERVED, true)", status, changed)
	}
}

func TestNextOrderStatus_AllCancelledNeverPromotes(t *testing.T) {
	// An order whose every item was cancelled has nothing to serve; the
	// reducer must not declare it SERVED.
	items := []enum.ItemStatus{enum.ItemStatusCancelled, enum.ItemStatusCancelled}
	status, changed := nextOrderStatus(opServe, enum.OrderStatusPreparing, items)
	if status != enum.OrderStatusPreparing || changed {
		t.Errorf("got (%s, %v), want (PREPARING, false)", status, changed)
	}
}

func TestNextOrderStatus_PartialPreparingSurfaces(t *testing.T) {
	// Kitchen started on a subset while the order still reads CONFIRMED:
	// readiness of one batch plus a PREPARING batch shows as PREPARING.
	items := []enum.ItemStatus{enum.ItemStatusReady, enum.ItemStatusPreparing}
	status, changed := nextOrderStatus(opReady, enum.OrderStatusConfirmed, items)
	if status != enum.OrderStatusPreparing || !changed {
		t.Errorf("got (%s, %v), want (PREPARING, true)", status, changed)
	}
}

func TestNextOrderStatus_NeverRegresses(t *testing.T) {
	// Serving the last batch of a re-opened order with a fresh PENDING item
	// must not move the order backwards or forwards.
	items := []enum.ItemStatus{enum.ItemStatusServed, enum.ItemStatusPending}
	status, changed := nextOrderStatus(opServe, enum.OrderStatusPending, items)
	if status != enum.OrderStatusPending || changed {
		t.Errorf("got (%s, %v), want (PENDING, false)", status, changed)
	}
}

func TestNextOrderStatus_RepeatedOpsNeverDemote(t *testing.T) {
	// Re-running an operation the order has already passed must leave the
	// status where it is: the check has been requested, the food served.
	served := []enum.ItemStatus{enum.ItemStatusServed}

	tests := []struct {
		name    string
		op      bulkOp
		current enum.OrderStatus
	}{
		{"serve after payment requested", opServe, enum.OrderStatusPaymentRequest},
		{"ready after served", opReady, enum.OrderStatusServed},
		{"ready after payment requested", opReady, enum.OrderStatusPaymentRequest},
		{"prepare after served", opPrepare, enum.OrderStatusServed},
		{"prepare after payment requested", opPrepare, enum.OrderStatusPaymentRequest},
		{"confirm after preparing", opConfirm, enum.OrderStatusPreparing},
	}

	for _, tt := range tests {
		status, changed := nextOrderStatus(tt.op, tt.current, served)
		if status != tt.current || changed {
			t.Errorf("%s: got (%s, %v), want (%s, false)", tt.name, status, changed, tt.current)
		}
	}
}

func TestOrderLocked(t *testing.T) {
	locked := []enum.OrderStatus{
		enum.OrderStatusPaymentPending,
		enum.OrderStatusCompleted,
		enum.OrderStatusCancelled,
	}
	for _, s := range locked {
		if !orderLocked(s) {
			t.Errorf("orderLocked(%s) = false, want true", s)
		}
	}

	open := []enum.OrderStatus{
		enum.OrderStatusPending,
		enum.OrderStatusConfirmed,
		enum.OrderStatusPreparing,
		enum.OrderStatusReady,
		enum.OrderStatusServed,
		enum.OrderStatusPaymentRequest,
	}
	for _, s := range open {
		if orderLocked(s) {
			t.Errorf("orderLocked(%s) = true, want false", s)
		}
	}
}

func TestShouldWakeUp(t *testing.T) {
	wake := []enum.OrderStatus{
		enum.OrderStatusReady,
		enum.OrderStatusServed,
		enum.OrderStatusPaymentRequest,
	}
	for _, s := range wake {
		if !shouldWakeUp(s) {
			t.Errorf("shouldWakeUp(%s) = false, want true", s)
		}
	}

	stay := []enum.OrderStatus{
		enum.OrderStatusPending,
		enum.OrderStatusConfirmed,
		enum.OrderStatusPreparing,
		enum.OrderStatusPaymentPending,
		enum.OrderStatusCompleted,
	}
	for _, s := range stay {
		if shouldWakeUp(s) {
			t.Errorf("shouldWakeUp(%s) = true, want false", s)
		}
	}
}
