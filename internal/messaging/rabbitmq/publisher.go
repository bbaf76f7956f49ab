// Package rabbitmq публикует события оформления заказа в topic exchange RabbitMQ.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/foodhub/internal/domain"
)

const (
	// EventsExchange — topic exchange для событий корзины.
	EventsExchange = "foodhub.events"

	defaultPublishTimeout = 3 * time.Second
)

var errPublisherNotInitialized = errors.New("rabbitmq publisher is not initialized")

// Channel — подмножество *amqp.Channel, которое нужно паблишеру.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher отправляет outbox-сообщения в EventsExchange.
// Routing key — тип события с суффиксом версии, например `checkout.succeeded.v1`.
type Publisher struct {
	ch       Channel
	exchange string
	timeout  time.Duration
	logger   *log.Entry
}

// Dial подключается к брокеру и открывает канал.
func Dial(url string, logger *log.Entry) (*Publisher, *amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	publisher, err := NewPublisher(ch, EventsExchange, logger)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return publisher, conn, nil
}

// NewPublisher объявляет exchange, чтобы публикация не падала из-за отсутствующей инфраструктуры.
func NewPublisher(ch Channel, exchange string, logger *log.Entry) (*Publisher, error) {
	if ch == nil {
		return nil, errPublisherNotInitialized
	}
	if exchange == "" {
		exchange = EventsExchange
	}
	if logger == nil {
		logger = log.WithField("component", "rabbitmq-publisher")
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &Publisher{
		ch:       ch,
		exchange: exchange,
		timeout:  defaultPublishTimeout,
		logger:   logger,
	}, nil
}

// RoutingKey строит routing key для типа события.
func RoutingKey(eventType string) string {
	return eventType + ".v1"
}

// Publish реализует domain.OutboxPublisher.
func (p *Publisher) Publish(ctx context.Context, event domain.OutboxMessage) error {
	if p == nil || p.ch == nil {
		return errPublisherNotInitialized
	}

	pubCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.ch.PublishWithContext(
		pubCtx,
		p.exchange,
		RoutingKey(event.EventType),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Type:         event.EventType,
			Timestamp:    time.Now().UTC(),
			Headers: amqp.Table{
				"aggregate_type": event.AggregateType,
				"aggregate_id":   event.AggregateID,
			},
			Body: event.Payload,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.EventType, err)
	}

	p.logger.WithFields(log.Fields{
		"outbox_id":  event.ID,
		"event_type": event.EventType,
	}).Debug("event published to rabbitmq")
	return nil
}

// Close закрывает канал.
func (p *Publisher) Close() error {
	if p == nil || p.ch == nil {
		return nil
	}
	return p.ch.Close()
}

var _ domain.OutboxPublisher = (*Publisher)(nil)
var _ Channel = (*amqp.Channel)(nil)
