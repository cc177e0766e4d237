package payloads_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopmesh/events/pkg/domain/order"
	"github.com/shopmesh/events/pkg/domain/payment"
	"github.com/shopmesh/events/pkg/domain/product"
	"github.com/shopmesh/events/pkg/payloads"
)

func TestOrder(t *testing.T) {
	t.Run("valid order serializes deterministically", func(t *testing.T) {
		o := &order.Order{
			ID:        100,
			Token:     "tok_abc",
			Currency:  "USD",
			TotalNet:  1000,
			Lines:     []order.Line{{ID: 1, ProductName: "Widget", Quantity: 2}},
		}

		first, err := payloads.Order(o)
		require.NoError(t, err)
		second, err := payloads.Order(o)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(first, &decoded))
		assert.Equal(t, float64(100), decoded["id"])
		assert.Equal(t, "tok_abc", decoded["token"])
	})

	t.Run("nil order fails", func(t *testing.T) {
		_, err := payloads.Order(nil)
		assert.ErrorIs(t, err, payloads.ErrSerialization)
	})

	t.Run("order without id fails", func(t *testing.T) {
		_, err := payloads.Order(&order.Order{Token: "tok"})
		assert.ErrorIs(t, err, payloads.ErrSerialization)
	})
}

func TestFulfillment(t *testing.T) {
	t.Run("requires order id", func(t *testing.T) {
		_, err := payloads.Fulfillment(&order.Fulfillment{ID: 7})
		assert.ErrorIs(t, err, payloads.ErrSerialization)
	})

	t.Run("valid fulfillment", func(t *testing.T) {
		data, err := payloads.Fulfillment(&order.Fulfillment{ID: 7, OrderID: 100})
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, float64(100), decoded["order_id"])
	})
}

func TestProductDeleted(t *testing.T) {
	p := &product.Product{ID: 5, Name: "Widget"}

	t.Run("variant ids are embedded", func(t *testing.T) {
		data, err := payloads.ProductDeleted(p, []int64{8, 9})
		require.NoError(t, err)

		var decoded struct {
			ID                int64   `json:"id"`
			RemovedVariantIDs []int64 `json:"removed_variant_ids"`
		}
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, int64(5), decoded.ID)
		assert.Equal(t, []int64{8, 9}, decoded.RemovedVariantIDs)
	})

	t.Run("nil variant list serializes as empty array", func(t *testing.T) {
		data, err := payloads.ProductDeleted(p, nil)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"removed_variant_ids":[]`)
	})
}

func TestPayment(t *testing.T) {
	valid := payment.Data{
		PaymentID: 42,
		Gateway:   "app:11111111-1111-1111-1111-111111111111:stripe",
		Amount:    2599,
		Currency:  "EUR",
	}

	t.Run("valid payment data", func(t *testing.T) {
		data, err := payloads.Payment(valid)
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, float64(42), decoded["payment_id"])
		assert.Equal(t, "EUR", decoded["currency"])
	})

	t.Run("missing gateway fails", func(t *testing.T) {
		info := valid
		info.Gateway = ""
		_, err := payloads.Payment(info)
		assert.ErrorIs(t, err, payloads.ErrSerialization)
	})

	t.Run("unknown currency fails", func(t *testing.T) {
		info := valid
		info.Currency = "BTC"
		_, err := payloads.Payment(info)
		assert.ErrorIs(t, err, payloads.ErrSerialization)
	})
}
