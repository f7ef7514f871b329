package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/mejapos/api/internal/payment"
	"github.com/mejapos/api/internal/service"
)

// PaymentServicer is the slice of the order service payment handlers need.
type PaymentServicer interface {
	CompletePayment(ctx context.Context, req service.CompletePaymentRequest) (*service.OrderSnapshot, error)
}

// PaymentHandler handles payment gateway callbacks and the cashier's manual
// settlement endpoint.
type PaymentHandler struct {
	svc      PaymentServicer
	verifier *payment.Verifier
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(svc PaymentServicer, verifier *payment.Verifier) *PaymentHandler {
	return &PaymentHandler{svc: svc, verifier: verifier}
}

type manualPaymentRequest struct {
	Method        string `json:"method"`
	TransactionID string `json:"transaction_id"`
}

// Pay handles POST /orders/{id}/pay: the cashier settles a confirmed bill in
// person (cash, in-store QRIS). Repeat calls on a settled order are no-ops.
func (h *PaymentHandler) Pay(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var req manualPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	snap, err := h.svc.CompletePayment(r.Context(), service.CompletePaymentRequest{
		OrderID:       orderID,
		Method:        req.Method,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		writeServiceError(w, "complete payment", err)
		return
	}

	writeJSON(w, http.StatusOK, snapshotToResponse(snap))
}

// SnapCallback handles POST /payments/callback, the snap-style gateway
// notification. The signature binds the payload to the shared server key;
// non-final transaction statuses are acknowledged but ignored.
func (h *PaymentHandler) SnapCallback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	notice, err := h.verifier.ParseSnapCallback(body)
	if err != nil {
		h.writeCallbackError(w, "snap callback", err)
		return
	}

	h.settle(w, r, "snap callback", notice)
}

// InvoiceCallback handles POST /payments/invoice-callback, the invoice-style
// notification authenticated by the X-Callback-Token header.
func (h *PaymentHandler) InvoiceCallback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	notice, err := h.verifier.ParseInvoiceCallback(body, r.Header.Get("X-Callback-Token"))
	if err != nil {
		h.writeCallbackError(w, "invoice callback", err)
		return
	}

	h.settle(w, r, "invoice callback", notice)
}

func (h *PaymentHandler) settle(w http.ResponseWriter, r *http.Request, source string, notice payment.Notice) {
	_, err := h.svc.CompletePayment(r.Context(), service.CompletePaymentRequest{
		OrderID:       notice.OrderID,
		Method:        string(notice.Method),
		TransactionID: notice.TransactionID,
	})
	if err != nil {
		// The gateway retries on non-2xx; only signal retryable failures.
		if errors.Is(err, service.ErrOrderNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: %s: settle order %s: %v", source, notice.OrderID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *PaymentHandler) writeCallbackError(w http.ResponseWriter, source string, err error) {
	switch {
	case errors.Is(err, payment.ErrIgnoredStatus):
		// Acknowledged so the gateway stops retrying; nothing to settle.
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
	case errors.Is(err, payment.ErrInvalidSignature):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
	case errors.Is(err, payment.ErrInvalidPayload):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", source, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
