package ws

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/mejapos/api/internal/service"
	"github.com/shopspring/decimal"
)

// Event types carried on the wire.
const (
	EventOrderUpdated  = "order_updated"
	EventBillConfirmed = "bill_confirmed"
)

// Publisher adapts the hub to the order service's broadcast interface. The
// service invokes it after commit, outside the order's critical section.
type Publisher struct {
	hub *Hub
}

// NewPublisher creates a Publisher on top of the hub.
func NewPublisher(hub *Hub) *Publisher {
	return &Publisher{hub: hub}
}

func (p *Publisher) OrderChanged(snap *service.OrderSnapshot) {
	p.emit(EventOrderUpdated, snap)
}

func (p *Publisher) BillConfirmed(snap *service.OrderSnapshot) {
	p.emit(EventBillConfirmed, snap)
}

func (p *Publisher) emit(eventType string, snap *service.OrderSnapshot) {
	payload, err := json.Marshal(snapshotPayload(snap))
	if err != nil {
		log.Printf("ERROR: marshal %s payload: %v", eventType, err)
		return
	}
	p.hub.BroadcastToTable(snap.Order.TableID, Event{
		Type:    eventType,
		Payload: payload,
	})
}

// --- Wire payload ---

type orderPayload struct {
	ID             uuid.UUID     `json:"id"`
	TableID        uuid.UUID     `json:"table_id"`
	TableNumber    string        `json:"table_number"`
	OrderNumber    string        `json:"order_number"`
	Status         string        `json:"status"`
	Subtotal       string        `json:"subtotal"`
	DiscountAmount string        `json:"discount_amount"`
	TaxAmount      string        `json:"tax_amount"`
	TotalAmount    string        `json:"total_amount"`
	UpdatedAt      time.Time     `json:"updated_at"`
	Items          []itemPayload `json:"items"`
}

type itemPayload struct {
	ID           uuid.UUID `json:"id"`
	MenuItemID   uuid.UUID `json:"menu_item_id"`
	Quantity     int32     `json:"quantity"`
	Price        string    `json:"price"`
	Status       string    `json:"status"`
	RejectReason *string   `json:"reject_reason,omitempty"`
}

func snapshotPayload(snap *service.OrderSnapshot) orderPayload {
	o := snap.Order
	p := orderPayload{
		ID:             o.ID,
		TableID:        o.TableID,
		TableNumber:    snap.Table.Number,
		OrderNumber:    o.OrderNumber,
		Status:         string(o.Status),
		Subtotal:       numericString(o.Subtotal),
		DiscountAmount: numericString(o.DiscountAmount),
		TaxAmount:      numericString(o.TaxAmount),
		TotalAmount:    numericString(o.TotalAmount),
		UpdatedAt:      o.UpdatedAt,
	}

	p.Items = make([]itemPayload, len(snap.Items))
	for i, iw := range snap.Items {
		item := itemPayload{
			ID:         iw.Item.ID,
			MenuItemID: iw.Item.MenuItemID,
			Quantity:   iw.Item.Quantity,
			Price:      numericString(iw.Item.PriceAtOrder),
			Status:     string(iw.Item.Status),
		}
		if iw.Item.RejectReason.Valid {
			item.RejectReason = &iw.Item.RejectReason.String
		}
		p.Items[i] = item
	}
	return p
}

func numericString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}
