package application

import (
	"time"

	"brandwisp-store-sync/internal/domain"
	"brandwisp-store-sync/internal/ports"
)

type nopMetrics struct{}

func (nopMetrics) ObserveStoreSync(domain.Provider, domain.SyncTrigger, domain.SyncStatus, time.Duration) {
}
func (nopMetrics) ObserveRun(domain.Provider, *domain.RunSummary) {}
func (nopMetrics) AddEvents(domain.EventType, int)                {}
func (nopMetrics) ObserveWebhook(string, int)                     {}

func metricsOrNop(m ports.Metrics) ports.Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}
