package rabbitmq

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/foodhub/internal/domain"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
	deadline bool
}

type fakeChannel struct {
	declared   []string
	declareErr error
	publishErr error
	messages   []published
	closed     bool
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, durable, _, _, _ bool, _ amqp.Table) error {
	if c.declareErr != nil {
		return c.declareErr
	}
	if kind != "topic" || !durable {
		return errors.New("unexpected exchange settings")
	}
	c.declared = append(c.declared, name)
	return nil
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	_, hasDeadline := ctx.Deadline()
	c.messages = append(c.messages, published{exchange: exchange, key: key, msg: msg, deadline: hasDeadline})
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	publisher, err := NewPublisher(ch, "", nil)
	require.NoError(t, err)
	require.Equal(t, []string{EventsExchange}, ch.declared)

	err = publisher.Publish(context.Background(), domain.OutboxMessage{
		ID:            "msg-1",
		AggregateType: "checkout_attempt",
		AggregateID:   "attempt-1",
		EventType:     "checkout.succeeded",
		Payload:       []byte(`{"order_id":"42"}`),
	})
	require.NoError(t, err)

	require.Len(t, ch.messages, 1)
	got := ch.messages[0]
	require.Equal(t, EventsExchange, got.exchange)
	require.Equal(t, "checkout.succeeded.v1", got.key)
	require.True(t, got.deadline)
	require.Equal(t, "application/json", got.msg.ContentType)
	require.Equal(t, amqp.Persistent, got.msg.DeliveryMode)
	require.Equal(t, "msg-1", got.msg.MessageId)
	require.Equal(t, "attempt-1", got.msg.Headers["aggregate_id"])
	require.JSONEq(t, `{"order_id":"42"}`, string(got.msg.Body))

	require.NoError(t, publisher.Close())
	require.True(t, ch.closed)
}

func TestPublisher_Errors(t *testing.T) {
	_, err := NewPublisher(&fakeChannel{declareErr: errors.New("access refused")}, "custom", nil)
	require.ErrorContains(t, err, "declare exchange custom")

	_, err = NewPublisher(nil, "", nil)
	require.Error(t, err)

	publisher, err := NewPublisher(&fakeChannel{publishErr: amqp.ErrClosed}, "", nil)
	require.NoError(t, err)
	err = publisher.Publish(context.Background(), domain.OutboxMessage{EventType: "checkout.rejected"})
	require.ErrorIs(t, err, amqp.ErrClosed)

	var nilPublisher *Publisher
	require.Error(t, nilPublisher.Publish(context.Background(), domain.OutboxMessage{}))
	require.NoError(t, nilPublisher.Close())
}
