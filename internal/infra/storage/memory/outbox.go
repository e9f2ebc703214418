package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "staywise/internal/app/outbox"
	infraoutbox "staywise/internal/infra/outbox"
)

// Outbox queues events in process for the outbox worker.
type Outbox struct {
	mu       sync.Mutex
	messages []*infraoutbox.Message
	wake     chan struct{}
}

func NewOutbox() *Outbox {
	return &Outbox{wake: make(chan struct{}, 1)}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	msg := infraoutbox.NewMessage(record, time.Now().UTC())
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, &msg)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	select {
	case o.wake <- struct{}{}:
	default:
	}
	return nil
}

func (o *Outbox) Wake() <-chan struct{} {
	return o.wake
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.Message, error) {
	now := time.Now().UTC()
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, msg := range o.messages {
		if msg.State == infraoutbox.StateSent || msg.State == infraoutbox.StateClaimed {
			continue
		}
		if msg.NextAttempt.After(now) {
			continue
		}
		msg.State = infraoutbox.StateClaimed
		msg.ClaimedBy = workerID
		msg.ClaimedAt = now
		cp := *msg
		return &cp, nil
	}
	return nil, nil
}

// MarkSent drops the message; delivered events are not kept in memory.
func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, msg := range o.messages {
		if msg.ID == id {
			o.messages = append(o.messages[:i], o.messages[i+1:]...)
			return nil
		}
	}
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, msg := range o.messages {
		if msg.ID == id {
			msg.State = infraoutbox.StateFailed
			msg.NextAttempt = next
			msg.LastError = errMsg
			msg.Attempts++
			return nil
		}
	}
	return nil
}

// Pending reports how many messages are waiting for delivery.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.messages)
}

var (
	_ appoutbox.Outbox  = (*Outbox)(nil)
	_ infraoutbox.Store = (*Outbox)(nil)
)
