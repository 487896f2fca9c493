package domain

import "time"

// EventType classifies an AnalyticsEvent
type EventType string

const (
	EventTypeSync     EventType = "sync"
	EventTypeUpdate   EventType = "update"
	EventTypePurchase EventType = "purchase"
)

// AnalyticsEvent is an append-only row written to the analytics sink.
// Optional fields are nil when the source did not carry them; zero is a real value.
type AnalyticsEvent struct {
	EventID        string         `json:"event_id"`
	EventType      EventType      `json:"event_type"`
	StoreID        string         `json:"store_id"`
	ProductID      string         `json:"product_id"`
	UserID         *string        `json:"user_id,omitempty"`
	SessionID      *string        `json:"session_id,omitempty"`
	VariantID      *string        `json:"variant_id,omitempty"`
	Quantity       *int           `json:"quantity,omitempty"`
	Price          *float64       `json:"price,omitempty"`
	DiscountAmount *float64       `json:"discount_amount,omitempty"`
	Currency       *string        `json:"currency,omitempty"`
	Country        *string        `json:"country,omitempty"`
	Device         *string        `json:"device,omitempty"`
	Referrer       *string        `json:"referrer,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
	InsertedAt     time.Time      `json:"inserted_at"`
}
