package app

import (
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/foodhub/internal/domain"
	"github.com/vladislavdragonenkov/foodhub/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/foodhub/internal/messaging/rabbitmq"
	"github.com/vladislavdragonenkov/foodhub/internal/service/outbox"
)

// eventPublishers — брокеры, в которые outbox worker доставляет события оформления.
type eventPublishers struct {
	kafkaProducer *kafka.Producer
	rabbit        *rabbitmq.Publisher
	rabbitConn    *amqp.Connection

	outbox domain.OutboxPublisher
	dlq    domain.OutboxPublisher
}

// initPublishers подключает Kafka и RabbitMQ, если они настроены.
// Недоступный брокер не мешает запуску: сервис продолжает работу без него.
func initPublishers(cfg Config, logger *log.Entry) *eventPublishers {
	p := &eventPublishers{}
	var sinks []domain.OutboxPublisher

	if brokers := splitBrokers(cfg.KafkaBrokers); len(brokers) > 0 {
		producer, err := kafka.NewProducer(brokers, logger.WithField("component", "kafka-producer"))
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		} else {
			logger.WithField("brokers", brokers).Info("kafka producer initialized")
			p.kafkaProducer = producer
			sinks = append(sinks, kafka.NewOutboxPublisher(producer, kafka.TopicCheckoutEvents))
			p.dlq = kafka.NewOutboxPublisher(producer, kafka.TopicDeadLetterQueue)
		}
	}

	if url := strings.TrimSpace(cfg.RabbitMQURL); url != "" {
		publisher, conn, err := rabbitmq.Dial(url, logger.WithField("component", "rabbitmq-publisher"))
		if err != nil {
			logger.WithError(err).Warn("failed to connect to rabbitmq, continuing without rabbitmq")
		} else {
			logger.WithField("exchange", rabbitmq.EventsExchange).Info("rabbitmq publisher initialized")
			p.rabbit = publisher
			p.rabbitConn = conn
			sinks = append(sinks, publisher)
		}
	}

	p.outbox = outbox.NewFanout(sinks...)
	return p
}

// enabled сообщает, есть ли хотя бы один брокер.
func (p *eventPublishers) enabled() bool {
	return p != nil && p.outbox != nil
}

func (p *eventPublishers) close(logger *log.Entry) {
	if p == nil {
		return
	}
	closeKafkaProducer(p.kafkaProducer, logger)

	if p.rabbit != nil {
		if err := p.rabbit.Close(); err != nil {
			logger.WithError(err).Warn("failed to close rabbitmq channel")
		}
	}
	if p.rabbitConn != nil {
		if err := p.rabbitConn.Close(); err != nil {
			logger.WithError(err).Warn("failed to close rabbitmq connection")
		} else {
			logger.Info("rabbitmq connection closed")
		}
	}
}

func closeKafkaProducer(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}
	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}

func splitBrokers(raw string) []string {
	var brokers []string
	for _, broker := range strings.Split(raw, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}
