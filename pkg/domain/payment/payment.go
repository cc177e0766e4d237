// Package payment holds the payment-processing types exchanged between the
// payment subsystem and the webhook engine: the payment data handed to the
// engine, and the gateway response the engine hands back after consulting
// the integration's payment webhook.
package payment

import (
	"fmt"

	"github.com/shopmesh/events/pkg/domain/shared"
)

// TransactionKind tags the kind of gateway transaction a response records.
type TransactionKind string

const (
	TransactionKindAuth    TransactionKind = "auth"
	TransactionKindCapture TransactionKind = "capture"
	TransactionKindRefund  TransactionKind = "refund"
	TransactionKindVoid    TransactionKind = "void"
)

// Data carries everything the payment subsystem knows about an in-flight
// payment when it asks the engine to process it. Amount is in minor units
// of Currency. Gateway is the opaque gateway identifier the owning
// integration registered under ("app:<app-id>:<name>").
type Data struct {
	PaymentID     int64          `json:"payment_id"`
	Gateway       string         `json:"gateway"`
	Amount        int64          `json:"amount"`
	Currency      string         `json:"currency"`
	Token         string         `json:"token,omitempty"`
	CustomerEmail string         `json:"customer_email,omitempty"`
	ReturnURL     string         `json:"return_url,omitempty"`
	Extra         map[string]any `json:"extra,omitempty"`
}

// PaymentMethodInfo describes the instrument the integration charged.
// Every field is optional; zero values mean the webhook did not report it.
type PaymentMethodInfo struct {
	Brand    string `json:"brand,omitempty"`
	ExpMonth int    `json:"exp_month,omitempty"`
	ExpYear  int    `json:"exp_year,omitempty"`
	Last4    string `json:"last_4,omitempty"`
	Name     string `json:"name,omitempty"`
	Type     string `json:"type,omitempty"`
}

// GatewayResponse is the structured outcome of a payment webhook call.
// Constructed fresh per call and never mutated afterwards; ownership
// transfers to the caller immediately.
type GatewayResponse struct {
	IsSuccess          bool              `json:"is_success"`
	Error              string            `json:"error,omitempty"`
	TransactionID      string            `json:"transaction_id,omitempty"`
	CustomerID         string            `json:"customer_id,omitempty"`
	Amount             int64             `json:"amount"`
	Currency           string            `json:"currency"`
	Kind               TransactionKind   `json:"kind"`
	ActionRequired     bool              `json:"action_required"`
	ActionRequiredData map[string]any    `json:"action_required_data,omitempty"`
	PaymentMethod      PaymentMethodInfo `json:"payment_method_info"`

	// RawResponse retains the decoded webhook body verbatim for audit.
	RawResponse map[string]any `json:"raw_response,omitempty"`
}

// Failed builds a well-formed failed response for the given payment data.
// The payment subsystem always needs a result object to record, even when
// the integration was unreachable or misconfigured.
func Failed(info Data, reason string) GatewayResponse {
	return GatewayResponse{
		IsSuccess: false,
		Error:     reason,
		Amount:    info.Amount,
		Currency:  info.Currency,
		Kind:      TransactionKindCapture,
	}
}

// ErrMalformedResponse indicates the payment webhook returned a body that
// could not be decoded. Callers must treat it as a failed payment attempt.
var ErrMalformedResponse = fmt.Errorf("%w: malformed payment webhook response", shared.ErrInvalidInput)
