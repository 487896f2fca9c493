package transform

import (
	"fmt"

	goshopify "github.com/bold-commerce/go-shopify/v4"

	"brandwisp-store-sync/internal/domain"
)

// Order converts a Shopify order into the canonical order of storeID
func Order(o *goshopify.Order, storeID string) (*domain.Order, error) {
	if o == nil {
		return nil, fmt.Errorf("order payload is empty")
	}
	if o.Id == 0 {
		return nil, fmt.Errorf("order payload has no id")
	}

	order := &domain.Order{
		ID:              formatID(o.Id),
		StoreID:         storeID,
		Name:            o.Name,
		Currency:        nonEmpty(o.Currency),
		CheckoutToken:   nonEmpty(o.CheckoutToken),
		FinancialStatus: string(o.FinancialStatus),
		CreatedAt:       timeValue(o.CreatedAt),
		UpdatedAt:       timeValue(o.UpdatedAt),
	}
	if o.Customer != nil {
		order.CustomerID = optionalID(o.Customer.Id)
	}
	if o.ShippingAddress != nil {
		order.ShippingCountry = nonEmpty(o.ShippingAddress.CountryCode)
		if order.ShippingCountry == nil {
			order.ShippingCountry = nonEmpty(o.ShippingAddress.Country)
		}
	}

	order.LineItems = make([]domain.OrderLineItem, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		order.LineItems = append(order.LineItems, domain.OrderLineItem{
			ID:            formatID(li.Id),
			ProductID:     optionalID(li.ProductId),
			VariantID:     optionalID(li.VariantId),
			Title:         li.Title,
			SKU:           li.SKU,
			Quantity:      li.Quantity,
			Price:         optionalFloat(li.Price),
			TotalDiscount: optionalFloat(li.TotalDiscount),
		})
	}
	return order, nil
}
