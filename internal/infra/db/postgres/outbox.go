package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	appoutbox "staywise/internal/app/outbox"
	infraoutbox "staywise/internal/infra/outbox"
)

type outboxModel struct {
	ID          string         `gorm:"primaryKey;size:64"`
	Name        string         `gorm:"size:128;not null"`
	Aggregate   string         `gorm:"size:64"`
	Payload     datatypes.JSON `gorm:"type:jsonb"`
	Headers     datatypes.JSON `gorm:"type:jsonb"`
	OccurredAt  time.Time
	State       string    `gorm:"size:16;index:idx_outbox_due,priority:1"`
	NextAttempt time.Time `gorm:"column:next_attempt_at;index:idx_outbox_due,priority:2"`
	Attempts    int
	ClaimedBy   string `gorm:"size:64"`
	ClaimedAt   *time.Time
	SentAt      *time.Time
	LastError   string `gorm:"type:text"`
}

func (outboxModel) TableName() string { return "outbox_messages" }

// OutboxStore writes events in the caller's transaction and hands them to
// the worker with SKIP LOCKED claims.
type OutboxStore struct {
	db   *gorm.DB
	wake chan struct{}
}

func NewOutboxStore(db *gorm.DB) *OutboxStore {
	return &OutboxStore{db: db, wake: make(chan struct{}, 1)}
}

func (s *OutboxStore) Add(ctx context.Context, record appoutbox.EventRecord) error {
	msg := infraoutbox.NewMessage(record, time.Now().UTC())
	headers, err := json.Marshal(msg.Headers)
	if err != nil {
		return err
	}
	m := outboxModel{
		ID:          msg.ID,
		Name:        msg.Name,
		Aggregate:   msg.Aggregate,
		Payload:     datatypes.JSON(msg.Payload),
		Headers:     datatypes.JSON(headers),
		OccurredAt:  msg.OccurredAt,
		State:       msg.State,
		NextAttempt: msg.NextAttempt,
	}
	return conn(ctx, s.db).Create(&m).Error
}

func (s *OutboxStore) Flush(context.Context) error {
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

func (s *OutboxStore) Wake() <-chan struct{} {
	return s.wake
}

func (s *OutboxStore) Claim(ctx context.Context, workerID string) (*infraoutbox.Message, error) {
	var claimed *infraoutbox.Message
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		var m outboxModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("state IN ? AND next_attempt_at <= ?", []string{infraoutbox.StateNew, infraoutbox.StateFailed}, now).
			Order("next_attempt_at").
			Take(&m).Error
		if err != nil {
			return err
		}
		m.State = infraoutbox.StateClaimed
		m.ClaimedBy = workerID
		m.ClaimedAt = &now
		if err := tx.Model(&outboxModel{}).Where("id = ?", m.ID).Updates(map[string]any{
			"state":      m.State,
			"claimed_by": workerID,
			"claimed_at": now,
		}).Error; err != nil {
			return err
		}
		msg, err := m.toMessage()
		if err != nil {
			return err
		}
		claimed = msg
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return claimed, err
}

func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Model(&outboxModel{}).Where("id = ?", id).
		Updates(map[string]any{"state": infraoutbox.StateSent, "sent_at": now}).Error
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	return s.db.WithContext(ctx).Model(&outboxModel{}).Where("id = ?", id).
		Updates(map[string]any{
			"state":           infraoutbox.StateFailed,
			"next_attempt_at": next,
			"last_error":      errMsg,
			"attempts":        gorm.Expr("attempts + 1"),
		}).Error
}

func (m outboxModel) toMessage() (*infraoutbox.Message, error) {
	var headers map[string]string
	if len(m.Headers) > 0 {
		if err := json.Unmarshal(m.Headers, &headers); err != nil {
			return nil, err
		}
	}
	msg := &infraoutbox.Message{
		ID:          m.ID,
		Name:        m.Name,
		Payload:     []byte(m.Payload),
		OccurredAt:  m.OccurredAt.UTC(),
		Aggregate:   m.Aggregate,
		Headers:     headers,
		State:       m.State,
		Attempts:    m.Attempts,
		NextAttempt: m.NextAttempt.UTC(),
		ClaimedBy:   m.ClaimedBy,
		LastError:   m.LastError,
	}
	if m.ClaimedAt != nil {
		msg.ClaimedAt = m.ClaimedAt.UTC()
	}
	if m.SentAt != nil {
		msg.SentAt = m.SentAt.UTC()
	}
	return msg, nil
}

var (
	_ appoutbox.Outbox  = (*OutboxStore)(nil)
	_ infraoutbox.Store = (*OutboxStore)(nil)
)
