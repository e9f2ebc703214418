package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"staywise/internal/app/middleware"
)

type idempotencyModel struct {
	Key        string         `gorm:"primaryKey;size:255"`
	Command    string         `gorm:"size:128"`
	Payload    datatypes.JSON `gorm:"type:jsonb"`
	OccurredAt time.Time      `gorm:"index"`
}

func (idempotencyModel) TableName() string { return "idempotency_records" }

// IdempotencyStore keeps replayable command results in Postgres. Records
// older than TTL are ignored on read and pruned on write.
type IdempotencyStore struct {
	db  *gorm.DB
	ttl time.Duration
}

func NewIdempotencyStore(db *gorm.DB, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{db: db, ttl: ttl}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	var m idempotencyModel
	q := s.db.WithContext(ctx).Where("key = ?", key)
	if s.ttl > 0 {
		q = q.Where("occurred_at > ?", time.Now().UTC().Add(-s.ttl))
	}
	if err := q.Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.IdempotencyRecord{}, false, nil
		}
		return middleware.IdempotencyRecord{}, false, err
	}
	return middleware.IdempotencyRecord{Key: m.Key, Command: m.Command, Payload: []byte(m.Payload), OccurredAt: m.OccurredAt.UTC()}, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	m := idempotencyModel{Key: rec.Key, Command: rec.Command, Payload: datatypes.JSON(rec.Payload), OccurredAt: rec.OccurredAt}
	db := s.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&m).Error; err != nil {
		return err
	}
	if s.ttl > 0 {
		return db.Where("occurred_at < ?", time.Now().UTC().Add(-s.ttl)).Delete(&idempotencyModel{}).Error
	}
	return nil
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
