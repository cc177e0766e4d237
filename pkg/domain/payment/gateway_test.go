package payment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopmesh/events/pkg/domain/payment"
)

func testData() payment.Data {
	return payment.Data{
		PaymentID: 42,
		Gateway:   "app:11111111-1111-1111-1111-111111111111:stripe",
		Amount:    2599,
		Currency:  "EUR",
	}
}

func TestTranslateResponse(t *testing.T) {
	info := testData()

	t.Run("200 with empty object is success", func(t *testing.T) {
		resp, err := payment.TranslateResponse(200, []byte(`{}`), info)
		require.NoError(t, err)
		assert.True(t, resp.IsSuccess)
		assert.Empty(t, resp.Error)
	})

	t.Run("200 with error field is failure", func(t *testing.T) {
		resp, err := payment.TranslateResponse(200, []byte(`{"error": "card declined"}`), info)
		require.NoError(t, err)
		assert.False(t, resp.IsSuccess)
		assert.Equal(t, "card declined", resp.Error)
	})

	t.Run("non-200 status is failure even without error field", func(t *testing.T) {
		resp, err := payment.TranslateResponse(402, []byte(`{}`), info)
		require.NoError(t, err)
		assert.False(t, resp.IsSuccess)
	})

	t.Run("amount and currency always come from info", func(t *testing.T) {
		body := []byte(`{"amount": 1, "currency": "USD"}`)
		resp, err := payment.TranslateResponse(200, body, info)
		require.NoError(t, err)
		assert.Equal(t, int64(2599), resp.Amount)
		assert.Equal(t, "EUR", resp.Currency)
	})

	t.Run("optional fields are extracted", func(t *testing.T) {
		body := []byte(`{
			"transaction_id": "txn_123",
			"customer_id": "cus_456",
			"action_required": true,
			"action_required_data": {"redirect_url": "https://bank.example/3ds"},
			"payment_method_brand": "visa",
			"payment_method_exp_month": 12,
			"payment_method_exp_year": "2027",
			"payment_method_last_4": "4242"
		}`)
		resp, err := payment.TranslateResponse(200, body, info)
		require.NoError(t, err)
		assert.Equal(t, "txn_123", resp.TransactionID)
		assert.Equal(t, "cus_456", resp.CustomerID)
		assert.True(t, resp.ActionRequired)
		assert.Equal(t, "https://bank.example/3ds", resp.ActionRequiredData["redirect_url"])
		assert.Equal(t, "visa", resp.PaymentMethod.Brand)
		assert.Equal(t, 12, resp.PaymentMethod.ExpMonth)
		assert.Equal(t, 2027, resp.PaymentMethod.ExpYear)
		assert.Equal(t, "4242", resp.PaymentMethod.Last4)
	})

	t.Run("raw response is retained", func(t *testing.T) {
		resp, err := payment.TranslateResponse(200, []byte(`{"custom": "value"}`), info)
		require.NoError(t, err)
		assert.Equal(t, "value", resp.RawResponse["custom"])
	})

	t.Run("malformed body fails", func(t *testing.T) {
		_, err := payment.TranslateResponse(200, []byte(`not json`), info)
		assert.ErrorIs(t, err, payment.ErrMalformedResponse)
	})

	t.Run("json null body fails", func(t *testing.T) {
		_, err := payment.TranslateResponse(200, []byte(`null`), info)
		assert.ErrorIs(t, err, payment.ErrMalformedResponse)
	})
}

func TestFailed(t *testing.T) {
	info := testData()
	resp := payment.Failed(info, "no payment webhook configured")

	assert.False(t, resp.IsSuccess)
	assert.Equal(t, "no payment webhook configured", resp.Error)
	assert.Equal(t, info.Amount, resp.Amount)
	assert.Equal(t, info.Currency, resp.Currency)
	assert.Equal(t, payment.TransactionKindCapture, resp.Kind)
}
