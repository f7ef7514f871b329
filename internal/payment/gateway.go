// Package payment verifies and normalizes payment gateway callbacks. The two
// supported wire shapes (snap-style notifications and invoice-style webhooks)
// both collapse into a Notice that the order service settles idempotently.
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/mejapos/api/internal/enum"
)

var (
	// ErrInvalidSignature means the callback failed authentication and must
	// be rejected without touching any order.
	ErrInvalidSignature = errors.New("invalid callback signature")

	// ErrIgnoredStatus means the callback is authentic but does not settle
	// the payment (pending, expired, denied). The caller acknowledges it and
	// does nothing.
	ErrIgnoredStatus = errors.New("callback status does not settle payment")

	ErrInvalidPayload = errors.New("invalid callback payload")
)

// Notice is the normalized result of a settled gateway callback.
type Notice struct {
	OrderID       uuid.UUID
	Method        enum.PaymentMethod
	TransactionID string
}

// Verifier authenticates gateway callbacks against the shared webhook secret.
type Verifier struct {
	secret string
}

// NewVerifier creates a Verifier with the given webhook secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// --- Snap-style notifications ---

type snapCallback struct {
	OrderID           string `json:"order_id"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	SignatureKey      string `json:"signature_key"`
}

// ParseSnapCallback authenticates and normalizes a snap-style notification.
// The signature is hex(HMAC-SHA256(secret, order_id + transaction_status +
// gross_amount)).
func (v *Verifier) ParseSnapCallback(body []byte) (Notice, error) {
	var cb snapCallback
	if err := json.Unmarshal(body, &cb); err != nil {
		return Notice{}, ErrInvalidPayload
	}

	if !v.validSignature(cb.SignatureKey, cb.OrderID+cb.TransactionStatus+cb.GrossAmount) {
		return Notice{}, ErrInvalidSignature
	}

	switch cb.TransactionStatus {
	case "settlement", "capture":
		// settled, fall through
	case "pending", "expire", "cancel", "deny":
		return Notice{}, ErrIgnoredStatus
	default:
		return Notice{}, ErrInvalidPayload
	}

	orderID, err := uuid.Parse(cb.OrderID)
	if err != nil {
		return Notice{}, ErrInvalidPayload
	}

	return Notice{
		OrderID:       orderID,
		Method:        snapMethod(cb.PaymentType),
		TransactionID: cb.TransactionID,
	}, nil
}

func snapMethod(paymentType string) enum.PaymentMethod {
	switch paymentType {
	case "bank_transfer", "echannel":
		return enum.PaymentMethodTransfer
	default:
		// qris, gopay, shopeepay and the rest all present as QRIS on the
		// cashier screen
		return enum.PaymentMethodQRIS
	}
}

// --- Invoice-style webhooks ---

type invoiceCallback struct {
	ExternalID string `json:"external_id"`
	InvoiceID  string `json:"id"`
	Status     string `json:"status"`
}

// ParseInvoiceCallback authenticates and normalizes an invoice-style webhook.
// Authentication is the callback token header compared against the secret.
// external_id carries the order ID.
func (v *Verifier) ParseInvoiceCallback(body []byte, callbackToken string) (Notice, error) {
	if subtle.ConstantTimeCompare([]byte(callbackToken), []byte(v.secret)) != 1 {
		return Notice{}, ErrInvalidSignature
	}

	var cb invoiceCallback
	if err := json.Unmarshal(body, &cb); err != nil {
		return Notice{}, ErrInvalidPayload
	}

	switch cb.Status {
	case "PAID", "SETTLED":
		// settled, fall through
	case "PENDING", "EXPIRED":
		return Notice{}, ErrIgnoredStatus
	default:
		return Notice{}, ErrInvalidPayload
	}

	orderID, err := uuid.Parse(cb.ExternalID)
	if err != nil {
		return Notice{}, ErrInvalidPayload
	}

	return Notice{
		OrderID:       orderID,
		Method:        enum.PaymentMethodTransfer,
		TransactionID: cb.InvoiceID,
	}, nil
}

func (v *Verifier) validSignature(signature, payload string) bool {
	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write([]byte(payload))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

// Sign computes the snap-style signature for a payload. Exported for tests
// and for the seed tool's sample callbacks.
func (v *Verifier) Sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
