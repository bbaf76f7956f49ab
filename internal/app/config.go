package app

import (
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	// StorageDriverMemory хранит журнал попыток и outbox в памяти процесса.
	StorageDriverMemory = "memory"
	// StorageDriverPostgres хранит журнал попыток и outbox в PostgreSQL.
	StorageDriverPostgres = "postgres"
)

const (
	// OrderTransportMock использует встроенную заглушку сервиса заказов.
	OrderTransportMock = "mock"
	// OrderTransportHTTP вызывает POST /api/orders.
	OrderTransportHTTP = "http"
	// OrderTransportGRPC вызывает /foodhub.v1.OrderService/CreateOrder.
	OrderTransportGRPC = "grpc"
)

// Config описывает настройки запуска сервиса корзины.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool

	// CatalogURL — адрес каталога ресторанов. Пустое значение включает демо-каталог.
	CatalogURL     string
	OrderTransport string
	OrderURL       string
	OrderGRPCAddr  string

	SubmitTimeout        time.Duration
	SessionTTL           time.Duration
	SessionSweepInterval time.Duration
	EventsKeepAlive      time.Duration

	KafkaBrokers string
	RabbitMQURL  string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration
	OutboxMaxPending   int
}

// DefaultConfig возвращает настройки для локального запуска без внешних зависимостей.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:             ":8080",
		MetricsAddr:          ":9090",
		StorageDriver:        StorageDriverMemory,
		PostgresAutoMigrate:  true,
		OrderTransport:       OrderTransportMock,
		SubmitTimeout:        10 * time.Second,
		SessionTTL:           2 * time.Hour,
		SessionSweepInterval: time.Minute,
		EventsKeepAlive:      15 * time.Second,
		OutboxPollInterval:   time.Second,
		OutboxBatchSize:      100,
		OutboxMaxAttempts:    3,
		OutboxRetryDelay:     100 * time.Millisecond,
		OutboxMaxPending:     1000,
	}
}

// LoadFromEnv переопределяет cfg значениями переменных окружения.
// Некорректные значения логируются, остаётся прежнее значение.
func LoadFromEnv(cfg Config, getenv func(string) string, logger *log.Entry) Config {
	if logger == nil {
		logger = log.WithField("component", "config")
	}
	env := envReader{getenv: getenv, logger: logger}

	env.str("FOODHUB_HTTP_ADDR", &cfg.HTTPAddr)
	env.str("FOODHUB_METRICS_ADDR", &cfg.MetricsAddr)
	env.lower("FOODHUB_STORAGE_DRIVER", &cfg.StorageDriver)
	env.str("FOODHUB_POSTGRES_DSN", &cfg.PostgresDSN)
	env.boolean("FOODHUB_POSTGRES_AUTO_MIGRATE", &cfg.PostgresAutoMigrate)
	env.str("FOODHUB_CATALOG_URL", &cfg.CatalogURL)
	env.lower("FOODHUB_ORDER_TRANSPORT", &cfg.OrderTransport)
	env.str("FOODHUB_ORDER_URL", &cfg.OrderURL)
	env.str("FOODHUB_ORDER_GRPC_ADDR", &cfg.OrderGRPCAddr)
	env.duration("FOODHUB_SUBMIT_TIMEOUT", &cfg.SubmitTimeout)
	env.duration("FOODHUB_SESSION_TTL", &cfg.SessionTTL)
	env.duration("FOODHUB_SESSION_SWEEP_INTERVAL", &cfg.SessionSweepInterval)
	env.duration("FOODHUB_EVENTS_KEEPALIVE", &cfg.EventsKeepAlive)
	env.str("KAFKA_BROKERS", &cfg.KafkaBrokers)
	env.str("RABBITMQ_URL", &cfg.RabbitMQURL)
	env.duration("FOODHUB_OUTBOX_POLL_INTERVAL", &cfg.OutboxPollInterval)
	env.positiveInt("FOODHUB_OUTBOX_BATCH_SIZE", &cfg.OutboxBatchSize)
	env.positiveInt("FOODHUB_OUTBOX_MAX_ATTEMPTS", &cfg.OutboxMaxAttempts)
	env.duration("FOODHUB_OUTBOX_RETRY_DELAY", &cfg.OutboxRetryDelay)
	env.positiveInt("FOODHUB_OUTBOX_MAX_PENDING", &cfg.OutboxMaxPending)

	return cfg
}

type envReader struct {
	getenv func(string) string
	logger *log.Entry
}

func (e envReader) value(key string) (string, bool) {
	if e.getenv == nil {
		return "", false
	}
	v := strings.TrimSpace(e.getenv(key))
	return v, v != ""
}

func (e envReader) invalid(key, value string, err error) {
	e.logger.WithError(err).WithFields(log.Fields{
		"env":   key,
		"value": value,
	}).Warn("invalid value, keeping default")
}

func (e envReader) str(key string, dst *string) {
	if v, ok := e.value(key); ok {
		*dst = v
	}
}

func (e envReader) lower(key string, dst *string) {
	if v, ok := e.value(key); ok {
		*dst = strings.ToLower(v)
	}
}

func (e envReader) boolean(key string, dst *bool) {
	v, ok := e.value(key)
	if !ok {
		return
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		e.invalid(key, v, err)
		return
	}
	*dst = parsed
}

// duration принимает только положительные значения.
func (e envReader) duration(key string, dst *time.Duration) {
	v, ok := e.value(key)
	if !ok {
		return
	}
	parsed, err := time.ParseDuration(v)
	if err == nil && parsed <= 0 {
		err = strconv.ErrRange
	}
	if err != nil {
		e.invalid(key, v, err)
		return
	}
	*dst = parsed
}

func (e envReader) positiveInt(key string, dst *int) {
	v, ok := e.value(key)
	if !ok {
		return
	}
	parsed, err := strconv.Atoi(v)
	if err == nil && parsed <= 0 {
		err = strconv.ErrRange
	}
	if err != nil {
		e.invalid(key, v, err)
		return
	}
	*dst = parsed
}
