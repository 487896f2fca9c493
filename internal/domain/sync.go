package domain

import "time"

// SyncTrigger records what started a per-store sync
type SyncTrigger string

const (
	TriggerScheduled  SyncTrigger = "scheduled"
	TriggerConnection SyncTrigger = "connection"
	TriggerManual     SyncTrigger = "manual"
)

// SyncStatus is the outcome of one per-store sync attempt
type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusFailed  SyncStatus = "failed"
	SyncStatusSkipped SyncStatus = "skipped"
)

// SyncResult is the explicit outcome of one per-store sync attempt
type SyncResult struct {
	RunID          string      `json:"run_id"`
	StoreID        string      `json:"store_id"`
	Provider       Provider    `json:"provider,omitempty"`
	Trigger        SyncTrigger `json:"trigger"`
	Status         SyncStatus  `json:"status"`
	ProductsSynced int         `json:"products_synced"`
	PurchaseEvents int         `json:"purchase_events"`
	Err            error       `json:"-"`
	Error          string      `json:"error,omitempty"`
	StartedAt      time.Time   `json:"started_at"`
	FinishedAt     time.Time   `json:"finished_at"`
}

// Fail marks the result as failed with err
func (r *SyncResult) Fail(err error) {
	r.Status = SyncStatusFailed
	r.Err = err
	r.Error = err.Error()
}

// RunSummary aggregates the per-store results of one scheduled run
type RunSummary struct {
	RunID      string        `json:"run_id"`
	Provider   Provider      `json:"provider"`
	Results    []*SyncResult `json:"results"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Add records a per-store result in the summary
func (s *RunSummary) Add(r *SyncResult) {
	s.Results = append(s.Results, r)
	switch r.Status {
	case SyncStatusSuccess:
		s.Succeeded++
	case SyncStatusSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
}

// SyncLog is the row written to the analytics sink for every per-store attempt
type SyncLog struct {
	RunID          string      `json:"run_id"`
	StoreID        string      `json:"store_id"`
	Provider       Provider    `json:"provider"`
	Trigger        SyncTrigger `json:"trigger"`
	Status         SyncStatus  `json:"status"`
	ProductsSynced int         `json:"products_synced"`
	PurchaseEvents int         `json:"purchase_events"`
	Error          string      `json:"error,omitempty"`
	StartedAt      time.Time   `json:"started_at"`
	FinishedAt     time.Time   `json:"finished_at"`
}

// SyncLogFromResult converts a SyncResult into its log row
func SyncLogFromResult(r *SyncResult) *SyncLog {
	return &SyncLog{
		RunID:          r.RunID,
		StoreID:        r.StoreID,
		Provider:       r.Provider,
		Trigger:        r.Trigger,
		Status:         r.Status,
		ProductsSynced: r.ProductsSynced,
		PurchaseEvents: r.PurchaseEvents,
		Error:          r.Error,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
	}
}
