package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRecord is the durable row backing one persisted cart.
type CartRecord struct {
	RecordKey string    `gorm:"column:record_key;primaryKey"`
	Payload   string    `gorm:"column:payload"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName pins the migration-managed table.
func (CartRecord) TableName() string {
	return "cart_records"
}

// GormStorage persists cart records through the shared GORM connection.
type GormStorage struct {
	db *gorm.DB
}

// NewGormStorage binds storage to the provided connection.
func NewGormStorage(db *gorm.DB) (*GormStorage, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	return &GormStorage{db: db}, nil
}

// Load reads and decodes the record for key. Returns ErrNotFound when no row
// exists or the payload is corrupted beyond decoding; a corrupted record is
// treated as absent rather than poisoning the store.
func (g *GormStorage) Load(ctx context.Context, key string) ([]LineItem, error) {
	var record CartRecord
	err := g.db.WithContext(ctx).First(&record, "record_key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load cart record: %w", err)
	}

	var decoded persistedRecord
	if err := json.Unmarshal([]byte(record.Payload), &decoded); err != nil {
		return nil, ErrNotFound
	}
	return decoded.Cart, nil
}

// Save upserts the record for key. Last write wins.
func (g *GormStorage) Save(ctx context.Context, key string, items []LineItem) error {
	payload, err := json.Marshal(persistedRecord{Cart: items})
	if err != nil {
		return fmt.Errorf("encode cart record: %w", err)
	}

	record := CartRecord{
		RecordKey: key,
		Payload:   string(payload),
		UpdatedAt: time.Now().UTC(),
	}
	err = g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "record_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("save cart record: %w", err)
	}
	return nil
}

// PurgeStale deletes records not written since the cutoff. Sessions expire in
// redis and nothing else reclaims their cart rows, so the gateway runs this
// periodically with the session TTL as the retention window.
func (g *GormStorage) PurgeStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res := g.db.WithContext(ctx).Where("updated_at < ?", cutoff).Delete(&CartRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge cart records: %w", res.Error)
	}
	return res.RowsAffected, nil
}
