package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"brandwisp-store-sync/internal/domain"
)

func newTestSQLSink(t *testing.T) *SQLSink {
	t.Helper()
	db, err := OpenDatabase("sqlite://file::memory:", logger.Silent)
	require.NoError(t, err)
	// one connection so every query sees the same in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	sink := NewSQLSink(db, Namespace("brandwisp-dev"), zerolog.Nop())
	require.NoError(t, sink.Migrate(context.Background()))
	t.Cleanup(func() { sink.Close() })
	return sink
}

func TestInsertProductEventsIsIdempotent(t *testing.T) {
	sink := newTestSQLSink(t)
	ctx := context.Background()
	price := 19.99
	events := []domain.AnalyticsEvent{
		{EventID: "sync_s1_111_r1", EventType: domain.EventTypeSync, StoreID: "s1", ProductID: "111", Timestamp: time.Now()},
		{EventID: "purchase_s1_5_1", EventType: domain.EventTypePurchase, StoreID: "s1", ProductID: "111", Price: &price, Timestamp: time.Now(),
			Metadata: map[string]any{"order_id": "5"}},
	}

	require.NoError(t, sink.InsertProductEvents(ctx, events))
	require.NoError(t, sink.InsertProductEvents(ctx, events))

	var count int64
	require.NoError(t, sink.db.Table(sink.eventsTable).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	// a populated row would add its primary key to the next Take
	var syncRow ProductEventRow
	require.NoError(t, sink.db.Table(sink.eventsTable).Where("event_id = ?", "sync_s1_111_r1").Take(&syncRow).Error)
	assert.Nil(t, syncRow.Price)
	assert.Nil(t, syncRow.VariantID)
	assert.Equal(t, "{}", syncRow.Metadata)

	var purchaseRow ProductEventRow
	require.NoError(t, sink.db.Table(sink.eventsTable).Where("event_id = ?", "purchase_s1_5_1").Take(&purchaseRow).Error)
	require.NotNil(t, purchaseRow.Price)
	assert.InDelta(t, 19.99, *purchaseRow.Price, 1e-9)
	assert.JSONEq(t, `{"order_id":"5"}`, purchaseRow.Metadata)
}

func TestInsertSyncLog(t *testing.T) {
	sink := newTestSQLSink(t)
	assert.Equal(t, "brandwisp_dev_sync_logs", sink.logsTable)

	err := sink.InsertSyncLog(context.Background(), &domain.SyncLog{
		RunID:   "r1",
		StoreID: "s1",
		Status:  domain.SyncStatusFailed,
		Error:   "boom",
	})
	require.NoError(t, err)

	var row SyncLogRow
	require.NoError(t, sink.db.Table(sink.logsTable).Take(&row).Error)
	assert.Equal(t, "failed", row.Status)
	assert.Equal(t, "boom", row.Error)
}

func TestNamespace(t *testing.T) {
	assert.Equal(t, "", Namespace(""))
	assert.Equal(t, "brandwisp_prod_", Namespace("BrandWisp-Prod"))
}
