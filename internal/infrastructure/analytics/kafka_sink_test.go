package analytics

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brandwisp-store-sync/internal/domain"
)

type recordingWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaSinkKeysByEventID(t *testing.T) {
	w := &recordingWriter{}
	sink := NewKafkaSink(w, Namespace("proj"), "product-events", zerolog.Nop())
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sink.now = func() time.Time { return at }

	err := sink.InsertProductEvents(context.Background(), []domain.AnalyticsEvent{
		{EventID: "sync_s1_111_r1", EventType: domain.EventTypeSync, StoreID: "s1", ProductID: "111"},
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "proj_product-events", msg.Topic)
	assert.Equal(t, "sync_s1_111_r1", string(msg.Key))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "111", decoded["product_id"])
	assert.NotContains(t, decoded, "price")
	assert.Equal(t, "2024-01-01T00:00:00Z", decoded["inserted_at"])

	require.NoError(t, sink.InsertSyncLog(context.Background(), &domain.SyncLog{RunID: "r1", StoreID: "s1"}))
	assert.Equal(t, "proj_product-events.sync_logs", w.msgs[1].Topic)

	require.NoError(t, sink.Close())
	assert.True(t, w.closed)
}
