package domain

import "time"

// ConnectionEvent announces that a StoreConnection transitioned to a new status
type ConnectionEvent struct {
	StoreID    string
	Provider   Provider
	Status     ConnectionStatus
	OccurredAt time.Time
}
