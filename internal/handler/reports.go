package handler

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/mejapos/api/internal/database"
)

// ReportsStore defines the database methods needed by report handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ReportsStore interface {
	GetSalesSummary(ctx context.Context, arg database.SalesSummaryParams) (database.SalesSummaryRow, error)
	ListTopMenuItems(ctx context.Context, arg database.TopMenuItemsParams) ([]database.TopMenuItemsRow, error)
}

// ReportsHandler handles report endpoints.
type ReportsHandler struct {
	store ReportsStore
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(store ReportsStore) *ReportsHandler {
	return &ReportsHandler{store: store}
}

// RegisterRoutes registers report endpoints on the given Chi router.
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/sales-summary", h.SalesSummary)
	r.Get("/top-items", h.TopItems)
}

// --- Response types ---

type salesSummaryResponse struct {
	OrderCount    int64  `json:"order_count"`
	GrossSales    string `json:"gross_sales"`
	TotalDiscount string `json:"total_discount"`
	TotalTax      string `json:"total_tax"`
}

type topItemResponse struct {
	MenuItemID   *uuid.UUID `json:"menu_item_id"`
	Name         string     `json:"name"`
	QuantitySold int64      `json:"quantity_sold"`
	Revenue      string     `json:"revenue"`
}

// --- Handlers ---

// SalesSummary returns completed order totals for a date range.
func (h *ReportsHandler) SalesSummary(w http.ResponseWriter, r *http.Request) {
	startDate, endDate, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	row, err := h.store.GetSalesSummary(r.Context(), database.SalesSummaryParams{
		StartDate: pgtype.Timestamptz{Time: startDate, Valid: true},
		EndDate:   pgtype.Timestamptz{Time: endDate, Valid: true},
	})
	if err != nil {
		log.Printf("ERROR: get sales summary: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, salesSummaryResponse{
		OrderCount:    row.OrderCount,
		GrossSales:    numericToString(row.GrossSales),
		TotalDiscount: numericToString(row.DiscountsSum),
		TotalTax:      numericToString(row.TaxSum),
	})
}

// TopItems returns the best-selling menu items for a date range.
func (h *ReportsHandler) TopItems(w http.ResponseWriter, r *http.Request) {
	startDate, endDate, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	limit := 10
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := h.store.ListTopMenuItems(r.Context(), database.TopMenuItemsParams{
		StartDate: pgtype.Timestamptz{Time: startDate, Valid: true},
		EndDate:   pgtype.Timestamptz{Time: endDate, Valid: true},
		Limit:     int32(limit),
	})
	if err != nil {
		log.Printf("ERROR: list top menu items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]topItemResponse, len(rows))
	for i, row := range rows {
		item := topItemResponse{
			Name:         row.Name,
			QuantitySold: row.QuantitySold,
			Revenue:      numericToString(row.Revenue),
		}
		if row.MenuItemID.Valid {
			id := uuid.UUID(row.MenuItemID.Bytes)
			item.MenuItemID = &id
		}
		resp[i] = item
	}

	writeJSON(w, http.StatusOK, resp)
}

// parseDateRange reads start_date/end_date query params (YYYY-MM-DD) with a
// default window of the last 30 days, midnight to midnight in local time.
func parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	const layout = "2006-01-02"

	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		loc = time.FixedZone("WIB", 7*3600)
	}

	now := time.Now().In(loc)
	startDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -30)
	endDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)

	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date format: %w", err)
		}
		startDate = t
	}

	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date format: %w", err)
		}
		// end_date is inclusive: extend to the following midnight.
		endDate = t.AddDate(0, 0, 1)
	}

	if !endDate.After(startDate) {
		return time.Time{}, time.Time{}, fmt.Errorf("end_date must be on or after start_date")
	}

	return startDate, endDate, nil
}
