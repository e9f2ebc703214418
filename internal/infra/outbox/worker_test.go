package outbox_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "staywise/internal/app/outbox"
	domainbooking "staywise/internal/domain/booking"
	"staywise/internal/domain/shared/events"
	"staywise/internal/infra/outbox"
	"staywise/internal/infra/storage/memory"
)

type published struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
}

type fakeProducer struct {
	mu   sync.Mutex
	sent []published
	fail error
}

func (p *fakeProducer) Publish(_ context.Context, topic, key string, payload []byte, headers map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.sent = append(p.sent, published{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

func (p *fakeProducer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

func recordRequested(t *testing.T, box appoutbox.Outbox) {
	t.Helper()
	ev := domainbooking.BookingRequested{BookingID: "b-1", PropertyID: "p-1", Guests: 2, At: time.Now().UTC()}
	encoder := appoutbox.JSONEventEncoder{IDGenerator: func() string { return "evt-1" }}
	require.NoError(t, appoutbox.RecordDomainEvents(context.Background(), box, encoder, []events.DomainEvent{ev}))
}

func TestDrainPublishesCloudEvent(t *testing.T) {
	box := memory.NewOutbox()
	recordRequested(t, box)
	producer := &fakeProducer{}
	w := &outbox.Worker{Store: box, Producer: producer, TopicPrefix: "staywise.", ID: "w-1"}

	sent, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, 0, box.Pending())

	require.Len(t, producer.sent, 1)
	msg := producer.sent[0]
	assert.Equal(t, "staywise.booking.events.v1", msg.topic)
	assert.Equal(t, "b-1", msg.key)
	assert.Equal(t, "application/cloudevents+json", msg.headers["content-type"])

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(msg.payload, &envelope))
	assert.Equal(t, "booking.requested.v1", envelope["type"])
	assert.Equal(t, "evt-1", envelope["id"])
	data, ok := envelope["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "p-1", data["propertyId"])
}

func TestFailedPublishIsRetriedLater(t *testing.T) {
	box := memory.NewOutbox()
	recordRequested(t, box)
	producer := &fakeProducer{fail: errors.New("broker down")}
	w := &outbox.Worker{Store: box, Producer: producer, ID: "w-1", Backoff: []time.Duration{time.Hour}}

	sent, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Equal(t, 1, box.Pending())

	// backoff keeps the message out of reach
	producer.fail = nil
	sent, err = w.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
}

func TestRunWakesOnFlush(t *testing.T) {
	box := memory.NewOutbox()
	producer := &fakeProducer{}
	w := &outbox.Worker{Store: box, Producer: producer, Interval: time.Hour, Wake: box.Wake()}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	recordRequested(t, box)
	require.NoError(t, box.Flush(ctx))
	assert.Eventually(t, func() bool { return producer.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestRunRequiresDependencies(t *testing.T) {
	w := &outbox.Worker{}
	assert.ErrorIs(t, w.Run(context.Background()), outbox.ErrWorkerNotConfigured)
}
