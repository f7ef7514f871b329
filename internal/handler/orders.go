package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/mejapos/api/internal/database"
	"github.com/mejapos/api/internal/service"
	"github.com/shopspring/decimal"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	AddItems(ctx context.Context, req service.AddItemsRequest) (*service.OrderSnapshot, error)
	ConfirmItems(ctx context.Context, orderID uuid.UUID) (*service.OrderSnapshot, error)
	BeginPreparing(ctx context.Context, orderID uuid.UUID) (*service.OrderSnapshot, error)
	MarkItemsReady(ctx context.Context, orderID uuid.UUID) (*service.OrderSnapshot, error)
	ServeItems(ctx context.Context, orderID uuid.UUID) (*service.OrderSnapshot, error)
	CancelItem(ctx context.Context, itemID uuid.UUID, reason string) (*service.OrderSnapshot, error)
	RequestPayment(ctx context.Context, orderID uuid.UUID) (*service.OrderSnapshot, error)
	ConfirmBill(ctx context.Context, req service.ConfirmBillRequest) (*service.OrderSnapshot, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) (*service.OrderSnapshot, error)
	GetSnapshot(ctx context.Context, orderID uuid.UUID) (*service.OrderSnapshot, error)
}

// OrderStore defines the database methods needed by the order list endpoint.
type OrderStore interface {
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
}

// OrderHandler handles order lifecycle endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore) *OrderHandler {
	return &OrderHandler{svc: svc, store: store}
}

// --- Request / Response types ---

type addItemsRequest struct {
	TableID    string           `json:"table_id"`
	CustomerID string           `json:"customer_id"`
	Notes      string           `json:"notes"`
	Items      []addItemRequest `json:"items"`
}

type addItemRequest struct {
	MenuItemID  string   `json:"menu_item_id"`
	Quantity    int32    `json:"quantity"`
	Note        string   `json:"note"`
	ModifierIDs []string `json:"modifier_ids"`
}

type confirmBillRequest struct {
	DiscountType  string `json:"discount_type"`
	DiscountValue string `json:"discount_value"`
	TaxAmount     string `json:"tax_amount"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type orderResponse struct {
	ID             uuid.UUID           `json:"id"`
	TableID        uuid.UUID           `json:"table_id"`
	TableNumber    string              `json:"table_number,omitempty"`
	CustomerID     *string             `json:"customer_id"`
	OrderNumber    string              `json:"order_number"`
	Status         string              `json:"status"`
	Subtotal       string              `json:"subtotal"`
	DiscountType   *string             `json:"discount_type"`
	DiscountValue  *string             `json:"discount_value"`
	DiscountAmount string              `json:"discount_amount"`
	TaxAmount      string              `json:"tax_amount"`
	TotalAmount    string              `json:"total_amount"`
	PaymentMethod  *string             `json:"payment_method"`
	TransactionID  *string             `json:"transaction_id"`
	CompletedAt    *time.Time          `json:"completed_at"`
	Notes          *string             `json:"notes"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Items          []orderItemResponse `json:"items,omitempty"`
}

type orderItemResponse struct {
	ID           uuid.UUID                   `json:"id"`
	MenuItemID   uuid.UUID                   `json:"menu_item_id"`
	Quantity     int32                       `json:"quantity"`
	PriceAtOrder string                      `json:"price_at_order"`
	Status       string                      `json:"status"`
	RejectReason *string                     `json:"reject_reason"`
	Notes        *string                     `json:"notes"`
	Modifiers    []orderItemModifierResponse `json:"modifiers"`
}

type orderItemModifierResponse struct {
	ID               uuid.UUID `json:"id"`
	ModifierOptionID uuid.UUID `json:"modifier_option_id"`
	Price            string    `json:"price"`
}

// orderListResponse wraps a list of orders with pagination metadata.
type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// --- Handlers ---

// Create handles POST /orders: guests submit items for their table. An open
// order on the table absorbs the items; otherwise a new order starts.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req addItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.TableID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "table_id is required"})
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "items are required"})
		return
	}
	for i, item := range req.Items {
		if item.MenuItemID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "items[" + strconv.Itoa(i) + "]: menu_item_id is required",
			})
			return
		}
		if item.Quantity <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "items[" + strconv.Itoa(i) + "]: quantity must be > 0",
			})
			return
		}
	}

	svcItems := make([]service.AddItemRequest, len(req.Items))
	for i, item := range req.Items {
		svcItems[i] = service.AddItemRequest{
			MenuItemID:  item.MenuItemID,
			Quantity:    item.Quantity,
			Note:        item.Note,
			ModifierIDs: item.ModifierIDs,
		}
	}

	snap, err := h.svc.AddItems(r.Context(), service.AddItemsRequest{
		TableID:    req.TableID,
		CustomerID: req.CustomerID,
		Notes:      req.Notes,
		Items:      svcItems,
	})
	if err != nil {
		writeServiceError(w, "add items", err)
		return
	}

	writeJSON(w, http.StatusCreated, snapshotToResponse(snap))
}

// List handles GET /orders with optional status/table/date filters.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	params := database.ListOrdersParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	}

	if s := r.URL.Query().Get("status"); s != "" {
		params.Status = pgtype.Text{String: s, Valid: true}
	}
	if s := r.URL.Query().Get("table_id"); s != "" {
		tid, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table_id"})
			return
		}
		params.TableID = pgtype.UUID{Bytes: tid, Valid: true}
	}
	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date format, use YYYY-MM-DD"})
			return
		}
		params.StartDate = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date format, use YYYY-MM-DD"})
			return
		}
		params.EndDate = pgtype.Timestamptz{Time: t, Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = dbOrderToResponse(o)
	}

	writeJSON(w, http.StatusOK, orderListResponse{
		Orders: resp,
		Limit:  limit,
		Offset: offset,
	})
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	snap, err := h.svc.GetSnapshot(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, "get order", err)
		return
	}

	writeJSON(w, http.StatusOK, snapshotToResponse(snap))
}

// Confirm handles POST /orders/{id}/confirm (waiter).
func (h *OrderHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, "confirm items", h.svc.ConfirmItems)
}

// Prepare handles POST /orders/{id}/prepare (kitchen).
func (h *OrderHandler) Prepare(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, "begin preparing", h.svc.BeginPreparing)
}

// Ready handles POST /orders/{id}/ready (kitchen).
func (h *OrderHandler) Ready(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, "mark items ready", h.svc.MarkItemsReady)
}

// Serve handles POST /orders/{id}/serve (waiter).
func (h *OrderHandler) Serve(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, "serve items", h.svc.ServeItems)
}

// RequestPayment handles POST /orders/{id}/request-payment (guest).
func (h *OrderHandler) RequestPayment(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, "request payment", h.svc.RequestPayment)
}

func (h *OrderHandler) advance(w http.ResponseWriter, r *http.Request, action string, fn func(ctx context.Context, orderID uuid.UUID) (*service.OrderSnapshot, error)) {
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	snap, err := fn(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, action, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshotToResponse(snap))
}

// ConfirmBill handles POST /orders/{id}/bill (cashier).
func (h *OrderHandler) ConfirmBill(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var req confirmBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	snap, err := h.svc.ConfirmBill(r.Context(), service.ConfirmBillRequest{
		OrderID:       orderID,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		TaxAmount:     req.TaxAmount,
	})
	if err != nil {
		writeServiceError(w, "confirm bill", err)
		return
	}

	writeJSON(w, http.StatusOK, snapshotToResponse(snap))
}

// CancelItem handles DELETE /orders/{id}/items/{itemID} (waiter).
func (h *OrderHandler) CancelItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	snap, err := h.svc.CancelItem(r.Context(), itemID, req.Reason)
	if err != nil {
		writeServiceError(w, "cancel item", err)
		return
	}

	writeJSON(w, http.StatusOK, snapshotToResponse(snap))
}

// Cancel handles DELETE /orders/{id} (waiter/cashier).
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	snap, err := h.svc.CancelOrder(r.Context(), orderID, req.Reason)
	if err != nil {
		writeServiceError(w, "cancel order", err)
		return
	}

	writeJSON(w, http.StatusOK, snapshotToResponse(snap))
}

// --- Helpers ---

func parseOrderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return uuid.UUID{}, false
	}
	return orderID, true
}

// writeServiceError maps order service errors to HTTP statuses: validation
// errors are 400, missing entities 404, state conflicts and lock contention
// 409, everything else 500.
func writeServiceError(w http.ResponseWriter, action string, err error) {
	var transitionErr *service.InvalidTransitionError
	switch {
	case isValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case isNotFoundError(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &transitionErr), errors.Is(err, service.ErrConcurrencyConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", action, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyItems) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrEmptyReason) ||
		errors.Is(err, service.ErrInvalidTableID) ||
		errors.Is(err, service.ErrInvalidCustomerID) ||
		errors.Is(err, service.ErrInvalidMenuItemID) ||
		errors.Is(err, service.ErrInvalidModifierID) ||
		errors.Is(err, service.ErrInvalidDiscount) ||
		errors.Is(err, service.ErrInvalidDiscountValue) ||
		errors.Is(err, service.ErrInvalidTaxAmount) ||
		errors.Is(err, service.ErrInvalidPaymentMethod) ||
		errors.Is(err, service.ErrModifierMismatch)
}

func isNotFoundError(err error) bool {
	return errors.Is(err, service.ErrOrderNotFound) ||
		errors.Is(err, service.ErrItemNotFound) ||
		errors.Is(err, service.ErrTableNotFound) ||
		errors.Is(err, service.ErrCustomerNotFound) ||
		errors.Is(err, service.ErrMenuItemNotFound) ||
		errors.Is(err, service.ErrModifierNotFound)
}

// snapshotToResponse converts a committed order snapshot to the wire shape.
func snapshotToResponse(snap *service.OrderSnapshot) orderResponse {
	resp := dbOrderToResponse(snap.Order)
	resp.TableNumber = snap.Table.Number

	resp.Items = make([]orderItemResponse, len(snap.Items))
	for i, iw := range snap.Items {
		resp.Items[i] = dbOrderItemToResponse(iw.Item, iw.Modifiers)
	}
	return resp
}

// dbOrderToResponse converts a database.Order to an orderResponse without
// items, for the list endpoint.
func dbOrderToResponse(o database.Order) orderResponse {
	resp := orderResponse{
		ID:             o.ID,
		TableID:        o.TableID,
		OrderNumber:    o.OrderNumber,
		Status:         string(o.Status),
		Subtotal:       numericToString(o.Subtotal),
		DiscountAmount: numericToString(o.DiscountAmount),
		TaxAmount:      numericToString(o.TaxAmount),
		TotalAmount:    numericToString(o.TotalAmount),
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}

	if o.CustomerID.Valid {
		s := uuid.UUID(o.CustomerID.Bytes).String()
		resp.CustomerID = &s
	}
	if o.DiscountType.Valid {
		resp.DiscountType = &o.DiscountType.String
	}
	if o.DiscountValue.Valid {
		s := numericToString(o.DiscountValue)
		resp.DiscountValue = &s
	}
	if o.PaymentMethod.Valid {
		resp.PaymentMethod = &o.PaymentMethod.String
	}
	if o.TransactionID.Valid {
		resp.TransactionID = &o.TransactionID.String
	}
	if o.CompletedAt.Valid {
		resp.CompletedAt = &o.CompletedAt.Time
	}
	if o.Notes.Valid {
		resp.Notes = &o.Notes.String
	}

	return resp
}

func dbOrderItemToResponse(item database.OrderItem, mods []database.OrderItemModifier) orderItemResponse {
	resp := orderItemResponse{
		ID:           item.ID,
		MenuItemID:   item.MenuItemID,
		Quantity:     item.Quantity,
		PriceAtOrder: numericToString(item.PriceAtOrder),
		Status:       string(item.Status),
	}

	if item.RejectReason.Valid {
		resp.RejectReason = &item.RejectReason.String
	}
	if item.Notes.Valid {
		resp.Notes = &item.Notes.String
	}

	resp.Modifiers = make([]orderItemModifierResponse, len(mods))
	for j, mod := range mods {
		resp.Modifiers[j] = orderItemModifierResponse{
			ID:               mod.ID,
			ModifierOptionID: mod.ModifierOptionID,
			Price:            numericToString(mod.Price),
		}
	}

	return resp
}

func numericToString(n pgtype.Numeric) string {
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
