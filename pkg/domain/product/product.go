// Package product holds the product and variant domain objects passed into
// the event engine by the host application.
package product

import "time"

// Product is a sellable item owned by the host catalog.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	CategoryID  int64     `json:"category_id,omitempty"`
	IsPublished bool      `json:"is_published"`
	Currency    string    `json:"currency"`
	Variants    []Variant `json:"variants"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Variant is a concrete purchasable configuration of a product. Price is in
// minor units of the product currency.
type Variant struct {
	ID             int64  `json:"id"`
	ProductID      int64  `json:"product_id"`
	SKU            string `json:"sku"`
	Name           string `json:"name,omitempty"`
	PriceAmount    int64  `json:"price_amount"`
	TrackInventory bool   `json:"track_inventory"`
	Quantity       int    `json:"quantity"`
}
