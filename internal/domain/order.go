package domain

import "time"

// OrderLineItem is a canonical order line. Pointer fields are nil when absent at the source.
type OrderLineItem struct {
	ID            string
	ProductID     *string
	VariantID     *string
	Title         string
	SKU           string
	Quantity      int
	Price         *float64
	TotalDiscount *float64
}

// Order is the canonical order used to derive purchase events
type Order struct {
	ID              string
	StoreID         string
	Name            string
	Currency        *string
	CheckoutToken   *string
	CustomerID      *string
	ShippingCountry *string
	FinancialStatus string
	LineItems       []OrderLineItem
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
