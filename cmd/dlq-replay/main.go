// Команда dlq-replay возвращает события оформления из foodhub.dlq в основной topic.
// По умолчанию работает в режиме dry-run и только перечисляет кандидатов.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/foodhub/internal/domain"
	"github.com/vladislavdragonenkov/foodhub/internal/messaging/kafka"
)

const (
	defaultLimit       = 100
	defaultIdleTimeout = 2 * time.Second
)

type config struct {
	brokers     []string
	sourceTopic string
	targetTopic string
	limit       int
	execute     bool
	idleTimeout time.Duration
}

// offsetSource — часть sarama.Client, нужная для определения границ партиций.
type offsetSource interface {
	Partitions(topic string) ([]int32, error)
	GetOffset(topic string, partition int32, time int64) (int64, error)
}

type messageStream interface {
	Messages() <-chan *sarama.ConsumerMessage
	Close() error
}

type streamSource interface {
	Open(topic string, partition int32, offset int64) (messageStream, error)
}

type saramaStreams struct {
	consumer sarama.Consumer
}

func (s saramaStreams) Open(topic string, partition int32, offset int64) (messageStream, error) {
	return s.consumer.ConsumePartition(topic, partition, offset)
}

type replayStats struct {
	scanned  int
	replayed int
	skipped  int
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)

	cfg, err := parseConfig(os.Args[1:], os.Getenv)
	if err != nil {
		fail("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		fail("dlq replay failed: %v", err)
	}
}

func parseConfig(args []string, getenv func(string) string) (config, error) {
	var (
		cfg        config
		brokersRaw string
	)

	fs := flag.NewFlagSet("dlq-replay", flag.ContinueOnError)
	fs.StringVar(&brokersRaw, "brokers", "", "Kafka brokers, comma-separated (fallback: KAFKA_BROKERS)")
	fs.StringVar(&cfg.sourceTopic, "source-topic", kafka.TopicDeadLetterQueue, "DLQ topic")
	fs.StringVar(&cfg.targetTopic, "target-topic", kafka.TopicCheckoutEvents, "topic to replay into")
	fs.IntVar(&cfg.limit, "limit", defaultLimit, "max number of DLQ messages to scan")
	fs.BoolVar(&cfg.execute, "execute", false, "publish replayed events; dry-run otherwise")
	fs.DurationVar(&cfg.idleTimeout, "idle-timeout", defaultIdleTimeout, "stop reading a partition after this idle period")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	if strings.TrimSpace(brokersRaw) == "" && getenv != nil {
		brokersRaw = getenv("KAFKA_BROKERS")
	}
	for _, broker := range strings.Split(brokersRaw, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			cfg.brokers = append(cfg.brokers, broker)
		}
	}

	switch {
	case len(cfg.brokers) == 0:
		return config{}, errors.New("kafka brokers are required (-brokers or KAFKA_BROKERS)")
	case strings.TrimSpace(cfg.sourceTopic) == "":
		return config{}, errors.New("source-topic is required")
	case strings.TrimSpace(cfg.targetTopic) == "":
		return config{}, errors.New("target-topic is required")
	case cfg.sourceTopic == cfg.targetTopic:
		return config{}, errors.New("source-topic and target-topic must differ")
	case cfg.limit <= 0:
		return config{}, errors.New("limit must be > 0")
	case cfg.idleTimeout <= 0:
		return config{}, errors.New("idle-timeout must be > 0")
	}
	return cfg, nil
}

func run(ctx context.Context, cfg config) error {
	logger := log.WithFields(log.Fields{
		"component":    "dlq-replay",
		"source_topic": cfg.sourceTopic,
		"target_topic": cfg.targetTopic,
	})

	client, err := sarama.NewClient(cfg.brokers, sarama.NewConfig())
	if err != nil {
		return fmt.Errorf("create kafka client: %w", err)
	}
	defer func() { _ = client.Close() }()

	consumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		return fmt.Errorf("create kafka consumer: %w", err)
	}
	defer func() { _ = consumer.Close() }()

	var publisher domain.OutboxPublisher
	if cfg.execute {
		producer, err := kafka.NewProducer(cfg.brokers, logger)
		if err != nil {
			return err
		}
		defer func() { _ = producer.Close() }()
		publisher = kafka.NewOutboxPublisher(producer, cfg.targetTopic)
	}

	stats, err := replay(ctx, cfg, client, saramaStreams{consumer: consumer}, publisher, logger)
	mode := "dry-run"
	if cfg.execute {
		mode = "execute"
	}
	logger.WithFields(log.Fields{
		"mode":     mode,
		"scanned":  stats.scanned,
		"replayed": stats.replayed,
		"skipped":  stats.skipped,
	}).Info("dlq replay finished")
	return err
}

// replay читает партиции source topic от начала до текущего конца. publisher == nil означает dry-run.
func replay(ctx context.Context, cfg config, offsets offsetSource, streams streamSource, publisher domain.OutboxPublisher, logger *log.Entry) (replayStats, error) {
	var stats replayStats

	partitions, err := offsets.Partitions(cfg.sourceTopic)
	if err != nil {
		return stats, fmt.Errorf("list partitions of %s: %w", cfg.sourceTopic, err)
	}
	sort.Slice(partitions, func(i, j int) bool { return partitions[i] < partitions[j] })

	for _, partition := range partitions {
		if stats.scanned >= cfg.limit {
			break
		}
		if err := replayPartition(ctx, cfg, offsets, streams, publisher, partition, &stats, logger); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func replayPartition(
	ctx context.Context,
	cfg config,
	offsets offsetSource,
	streams streamSource,
	publisher domain.OutboxPublisher,
	partition int32,
	stats *replayStats,
	logger *log.Entry,
) error {
	oldest, err := offsets.GetOffset(cfg.sourceTopic, partition, sarama.OffsetOldest)
	if err != nil {
		return fmt.Errorf("oldest offset of partition %d: %w", partition, err)
	}
	newest, err := offsets.GetOffset(cfg.sourceTopic, partition, sarama.OffsetNewest)
	if err != nil {
		return fmt.Errorf("newest offset of partition %d: %w", partition, err)
	}
	if newest <= oldest {
		return nil
	}

	stream, err := streams.Open(cfg.sourceTopic, partition, oldest)
	if err != nil {
		return fmt.Errorf("consume partition %d: %w", partition, err)
	}
	defer func() { _ = stream.Close() }()

	idle := time.NewTimer(cfg.idleTimeout)
	defer idle.Stop()

	for stats.scanned < cfg.limit {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-idle.C:
			return nil
		case msg, ok := <-stream.Messages():
			if !ok || msg == nil || msg.Offset >= newest {
				return nil
			}
			idle.Reset(cfg.idleTimeout)
			stats.scanned++

			entry := logger.WithFields(log.Fields{"partition": msg.Partition, "offset": msg.Offset})
			event, err := decodeReplayable(msg.Value)
			if err != nil {
				stats.skipped++
				entry.WithError(err).Warn("skip dlq message")
			} else if publisher == nil {
				stats.replayed++
				entry.WithFields(log.Fields{"outbox_id": event.ID, "event_type": event.EventType}).Info("dlq replay candidate")
			} else {
				if err := publisher.Publish(ctx, event); err != nil {
					return fmt.Errorf("replay outbox message %s: %w", event.ID, err)
				}
				stats.replayed++
			}

			if msg.Offset+1 >= newest {
				return nil
			}
		}
	}
	return nil
}

func decodeReplayable(value []byte) (domain.OutboxMessage, error) {
	letter, err := kafka.DecodeDeadLetter(value)
	if err != nil {
		return domain.OutboxMessage{}, err
	}
	return letter.Original()
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
