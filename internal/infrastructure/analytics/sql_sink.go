package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"brandwisp-store-sync/internal/domain"
	"brandwisp-store-sync/internal/ports"
)

// ProductEventRow is one row of the product_events table
type ProductEventRow struct {
	EventID        string    `gorm:"column:event_id;primaryKey"`
	EventType      string    `gorm:"column:event_type;not null;index"`
	StoreID        string    `gorm:"column:store_id;not null;index"`
	ProductID      string    `gorm:"column:product_id;not null"`
	UserID         *string   `gorm:"column:user_id"`
	SessionID      *string   `gorm:"column:session_id"`
	VariantID      *string   `gorm:"column:variant_id"`
	Quantity       *int      `gorm:"column:quantity"`
	Price          *float64  `gorm:"column:price"`
	DiscountAmount *float64  `gorm:"column:discount_amount"`
	Currency       *string   `gorm:"column:currency"`
	Country        *string   `gorm:"column:country"`
	Device         *string   `gorm:"column:device"`
	Referrer       *string   `gorm:"column:referrer"`
	Metadata       string    `gorm:"column:metadata"`
	Timestamp      time.Time `gorm:"column:timestamp;not null"`
	InsertedAt     time.Time `gorm:"column:inserted_at;not null"`
}

// SyncLogRow is one row of the sync_logs table
type SyncLogRow struct {
	ID             uint      `gorm:"column:id;primaryKey;autoIncrement"`
	RunID          string    `gorm:"column:run_id;index"`
	StoreID        string    `gorm:"column:store_id;index"`
	Provider       string    `gorm:"column:provider"`
	Trigger        string    `gorm:"column:trigger_type"`
	Status         string    `gorm:"column:status"`
	ProductsSynced int       `gorm:"column:products_synced"`
	PurchaseEvents int       `gorm:"column:purchase_events"`
	Error          string    `gorm:"column:error"`
	StartedAt      time.Time `gorm:"column:started_at"`
	FinishedAt     time.Time `gorm:"column:finished_at"`
}

// SQLSink writes analytics rows through gorm
type SQLSink struct {
	db          *gorm.DB
	eventsTable string
	logsTable   string
	now         func() time.Time
	logger      zerolog.Logger
}

var _ ports.AnalyticsSink = (*SQLSink)(nil)

// NewSQLSink creates the sink; tables are named {namespace}product_events and {namespace}sync_logs
func NewSQLSink(db *gorm.DB, namespace string, logger zerolog.Logger) *SQLSink {
	return &SQLSink{
		db:          db,
		eventsTable: namespace + "product_events",
		logsTable:   namespace + "sync_logs",
		now:         time.Now,
		logger:      logger.With().Str("component", "sql_sink").Logger(),
	}
}

// Migrate creates the sink tables
func (s *SQLSink) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Table(s.eventsTable).AutoMigrate(&ProductEventRow{}); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", s.eventsTable, err)
	}
	if err := s.db.WithContext(ctx).Table(s.logsTable).AutoMigrate(&SyncLogRow{}); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", s.logsTable, err)
	}
	return nil
}

// InsertProductEvents appends events; rows whose event_id exists are skipped
func (s *SQLSink) InsertProductEvents(ctx context.Context, events []domain.AnalyticsEvent) error {
	if len(events) == 0 {
		return nil
	}
	insertedAt := s.now()
	rows := make([]ProductEventRow, 0, len(events))
	for _, ev := range events {
		row, err := productEventRow(ev, insertedAt)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	res := s.db.WithContext(ctx).
		Table(s.eventsTable).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(&rows)
	if res.Error != nil {
		return fmt.Errorf("failed to insert product events: %w", res.Error)
	}

	s.logger.Debug().
		Int("events", len(rows)).
		Int64("inserted", res.RowsAffected).
		Msg("Inserted product events")
	return nil
}

// InsertSyncLog appends one sync attempt
func (s *SQLSink) InsertSyncLog(ctx context.Context, log *domain.SyncLog) error {
	row := SyncLogRow{
		RunID:          log.RunID,
		StoreID:        log.StoreID,
		Provider:       string(log.Provider),
		Trigger:        string(log.Trigger),
		Status:         string(log.Status),
		ProductsSynced: log.ProductsSynced,
		PurchaseEvents: log.PurchaseEvents,
		Error:          log.Error,
		StartedAt:      log.StartedAt,
		FinishedAt:     log.FinishedAt,
	}
	if err := s.db.WithContext(ctx).Table(s.logsTable).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert sync log: %w", err)
	}
	return nil
}

func (s *SQLSink) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func productEventRow(ev domain.AnalyticsEvent, insertedAt time.Time) (ProductEventRow, error) {
	metadata := "{}"
	if len(ev.Metadata) > 0 {
		b, err := json.Marshal(ev.Metadata)
		if err != nil {
			return ProductEventRow{}, fmt.Errorf("failed to encode metadata of %s: %w", ev.EventID, err)
		}
		metadata = string(b)
	}
	return ProductEventRow{
		EventID:        ev.EventID,
		EventType:      string(ev.EventType),
		StoreID:        ev.StoreID,
		ProductID:      ev.ProductID,
		UserID:         ev.UserID,
		SessionID:      ev.SessionID,
		VariantID:      ev.VariantID,
		Quantity:       ev.Quantity,
		Price:          ev.Price,
		DiscountAmount: ev.DiscountAmount,
		Currency:       ev.Currency,
		Country:        ev.Country,
		Device:         ev.Device,
		Referrer:       ev.Referrer,
		Metadata:       metadata,
		Timestamp:      ev.Timestamp,
		InsertedAt:     insertedAt,
	}, nil
}
