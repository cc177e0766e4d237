package payment

import (
	"encoding/json"
	"fmt"
)

// Optional response body keys the integration may set.
const (
	keyError              = "error"
	keyActionRequired     = "action_required"
	keyActionRequiredData = "action_required_data"
	keyCustomerID         = "customer_id"
	keyTransactionID      = "transaction_id"
	keyMethodBrand        = "payment_method_brand"
	keyMethodExpMonth     = "payment_method_exp_month"
	keyMethodExpYear      = "payment_method_exp_year"
	keyMethodLast4        = "payment_method_last_4"
	keyMethodName         = "payment_method_name"
	keyMethodType         = "payment_method_type"
)

// TranslateResponse parses a sync payment webhook's HTTP response into the
// GatewayResponse the payment subsystem expects. Success requires both a
// 200 status and an absent or empty "error" field. Amount and currency are
// always taken from info, never from the response body: they are fixed by
// the calling context so a buggy or malicious webhook cannot alter the
// charge. The function is pure; it knows nothing about network state.
func TranslateResponse(statusCode int, body []byte, info Data) (GatewayResponse, error) {
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return GatewayResponse{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if decoded == nil {
		return GatewayResponse{}, fmt.Errorf("%w: body is not a JSON object", ErrMalformedResponse)
	}

	errMsg := stringField(decoded, keyError)
	isSuccess := statusCode == 200 && errMsg == ""

	methodInfo := PaymentMethodInfo{
		Brand:    stringField(decoded, keyMethodBrand),
		ExpMonth: intField(decoded, keyMethodExpMonth),
		ExpYear:  intField(decoded, keyMethodExpYear),
		Last4:    stringField(decoded, keyMethodLast4),
		Name:     stringField(decoded, keyMethodName),
		Type:     stringField(decoded, keyMethodType),
	}

	return GatewayResponse{
		IsSuccess:          isSuccess,
		Error:              errMsg,
		TransactionID:      stringField(decoded, keyTransactionID),
		CustomerID:         stringField(decoded, keyCustomerID),
		Amount:             info.Amount,
		Currency:           info.Currency,
		Kind:               TransactionKindCapture,
		ActionRequired:     boolField(decoded, keyActionRequired),
		ActionRequiredData: mapField(decoded, keyActionRequiredData),
		PaymentMethod:      methodInfo,
		RawResponse:        decoded,
	}, nil
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func boolField(m map[string]any, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

// intField reads a numeric field. JSON numbers decode as float64; string
// values like "12" are accepted because some integrations send expiry
// fields quoted.
func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case string:
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return 0
}

func mapField(m map[string]any, key string) map[string]any {
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return nil
}
