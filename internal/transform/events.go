package transform

import (
	"strconv"
	"time"

	"brandwisp-store-sync/internal/domain"
)

// EventSource decides how purchase event ids are built.
// Sync-sourced ids are stable across runs so re-syncing an order never duplicates rows;
// webhook-sourced ids carry a prefix and the order version so every delivery of a
// distinct order update is kept while redeliveries collapse.
type EventSource struct {
	Prefix  string
	Version string
	Origin  string
}

// SyncSource is the EventSource of the scheduled and on-demand sync
func SyncSource() EventSource {
	return EventSource{Origin: "sync"}
}

// WebhookSource is the EventSource of an order webhook for order
func WebhookSource(order *domain.Order) EventSource {
	src := EventSource{Prefix: "webhook_", Origin: "webhook"}
	if !order.UpdatedAt.IsZero() {
		src.Version = strconv.FormatInt(order.UpdatedAt.UnixMilli(), 10)
	}
	return src
}

// SyncEventID is the id of the sync event of a product within one sync run
func SyncEventID(storeID, productID, runID string) string {
	return "sync_" + storeID + "_" + productID + "_" + runID
}

// PurchaseEventID is the id of the purchase event of one order line item
func PurchaseEventID(src EventSource, storeID, orderID, lineItemID string) string {
	id := src.Prefix + "purchase_" + storeID + "_" + orderID + "_" + lineItemID
	if src.Version != "" {
		id += "_" + src.Version
	}
	return id
}

// SyncEvent builds the sync event emitted for every product of a sync run
func SyncEvent(p *domain.Product, runID string, at time.Time) domain.AnalyticsEvent {
	return domain.AnalyticsEvent{
		EventID:   SyncEventID(p.StoreID, p.ID, runID),
		EventType: domain.EventTypeSync,
		StoreID:   p.StoreID,
		ProductID: p.ID,
		Metadata:  productSnapshot(p, runID),
		Timestamp: at,
	}
}

// UpdateEvent builds the update event emitted when a product webhook is applied.
// The id is keyed on the product version so redeliveries collapse.
func UpdateEvent(p *domain.Product, at time.Time) domain.AnalyticsEvent {
	version := p.UpdatedAt
	if version.IsZero() {
		version = at
	}
	return domain.AnalyticsEvent{
		EventID:   "update_" + p.StoreID + "_" + p.ID + "_" + strconv.FormatInt(version.UnixMilli(), 10),
		EventType: domain.EventTypeUpdate,
		StoreID:   p.StoreID,
		ProductID: p.ID,
		Metadata:  productSnapshot(p, ""),
		Timestamp: at,
	}
}

func productSnapshot(p *domain.Product, runID string) map[string]any {
	m := map[string]any{
		"title":        p.Title,
		"vendor":       p.Vendor,
		"product_type": p.ProductType,
		"status":       p.Status,
	}
	if runID != "" {
		m["sync_run_id"] = runID
	}
	return m
}

// PurchaseEvents builds one purchase event per line item of order
func PurchaseEvents(order *domain.Order, src EventSource) []domain.AnalyticsEvent {
	events := make([]domain.AnalyticsEvent, 0, len(order.LineItems))
	for _, li := range order.LineItems {
		quantity := li.Quantity
		ev := domain.AnalyticsEvent{
			EventID:        PurchaseEventID(src, order.StoreID, order.ID, li.ID),
			EventType:      domain.EventTypePurchase,
			StoreID:        order.StoreID,
			ProductID:      deref(li.ProductID),
			VariantID:      li.VariantID,
			UserID:         order.CustomerID,
			SessionID:      order.CheckoutToken,
			Quantity:       &quantity,
			Price:          li.Price,
			DiscountAmount: li.TotalDiscount,
			Currency:       order.Currency,
			Country:        order.ShippingCountry,
			Metadata: map[string]any{
				"order_id":     order.ID,
				"order_name":   order.Name,
				"line_item_id": li.ID,
				"source":       src.Origin,
			},
			Timestamp: order.CreatedAt,
		}
		if order.FinancialStatus != "" {
			ev.Metadata["financial_status"] = order.FinancialStatus
		}
		events = append(events, ev)
	}
	return events
}
