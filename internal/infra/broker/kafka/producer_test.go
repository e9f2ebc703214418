package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSendsPayload(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"id":"b-1"}` {
			return errors.New("unexpected payload")
		}
		return nil
	})
	p := NewProducerFrom(mock)
	t.Cleanup(func() { _ = p.Close() })

	err := p.Publish(context.Background(), "booking.events.v1", "b-1", []byte(`{"id":"b-1"}`), map[string]string{"content-type": "application/cloudevents+json"})
	require.NoError(t, err)
}

func TestPublishReturnsBrokerError(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)
	p := NewProducerFrom(mock)
	t.Cleanup(func() { _ = p.Close() })

	err := p.Publish(context.Background(), "booking.events.v1", "b-1", []byte(`{}`), nil)
	assert.ErrorIs(t, err, sarama.ErrNotLeaderForPartition)
}

func TestPublishHonoursCancelledContext(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	p := NewProducerFrom(mock)
	t.Cleanup(func() { _ = p.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, "t", "k", nil, nil), context.Canceled)
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer(nil, "staywise")
	assert.ErrorIs(t, err, ErrNoBrokers)
}
