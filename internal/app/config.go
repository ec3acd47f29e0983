package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Драйверы хранилища.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// Драйверы публикации чеков на кухню.
const (
	PublisherLog      = "log"
	PublisherKafka    = "kafka"
	PublisherRabbitMQ = "rabbitmq"
)

// Config описывает настройки запуска сервиса.
type Config struct {
	GRPCAddr    string
	HTTPAddr    string
	MetricsAddr string
	LogLevel    string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool

	Publisher     string
	KafkaBrokers  []string
	KafkaTopic    string
	KafkaDLQTopic string
	RabbitMQURL   string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration
	OutboxMaxAge       time.Duration

	IdempotencyTTL              time.Duration
	IdempotencyCleanupInterval  time.Duration
	IdempotencyCleanupBatchSize int

	CartIdleTTL       time.Duration
	CartSweepInterval time.Duration

	HTTPRateLimit float64
	HTTPRateBurst int

	ShutdownTimeout time.Duration
}

// DefaultConfig возвращает конфигурацию для локального запуска без внешних зависимостей.
func DefaultConfig() Config {
	return Config{
		GRPCAddr:    ":50051",
		HTTPAddr:    ":8080",
		MetricsAddr: ":9090",
		LogLevel:    "info",

		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,

		Publisher:     PublisherLog,
		KafkaTopic:    "concessions.receipts",
		KafkaDLQTopic: "concessions.receipts.dlq",

		OutboxPollInterval: time.Second,
		OutboxBatchSize:    100,
		OutboxMaxAttempts:  3,
		OutboxRetryDelay:   50 * time.Millisecond,
		OutboxMaxAge:       5 * time.Minute,

		IdempotencyTTL:              24 * time.Hour,
		IdempotencyCleanupInterval:  10 * time.Minute,
		IdempotencyCleanupBatchSize: 500,

		CartIdleTTL:       2 * time.Hour,
		CartSweepInterval: 5 * time.Minute,

		HTTPRateLimit: 20,
		HTTPRateBurst: 40,

		ShutdownTimeout: 5 * time.Second,
	}
}

// LoadConfig читает .env (если есть) и переменные окружения поверх DefaultConfig.
func LoadConfig(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return ConfigFromEnv(os.Getenv)
}

// ConfigFromEnv применяет переменные окружения CONCESSIONS_* и KAFKA_BROKERS.
func ConfigFromEnv(getenv func(string) string) (Config, error) {
	cfg := DefaultConfig()
	env := envReader{getenv: getenv}

	env.str("CONCESSIONS_GRPC_ADDR", &cfg.GRPCAddr)
	env.str("CONCESSIONS_HTTP_ADDR", &cfg.HTTPAddr)
	env.str("CONCESSIONS_METRICS_ADDR", &cfg.MetricsAddr)
	env.str("CONCESSIONS_LOG_LEVEL", &cfg.LogLevel)

	env.str("CONCESSIONS_STORAGE_DRIVER", &cfg.StorageDriver)
	env.str("CONCESSIONS_POSTGRES_DSN", &cfg.PostgresDSN)
	env.boolean("CONCESSIONS_POSTGRES_AUTO_MIGRATE", &cfg.PostgresAutoMigrate)

	if brokers := env.get("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitList(brokers)
		cfg.Publisher = PublisherKafka
	}
	env.str("CONCESSIONS_RABBITMQ_URL", &cfg.RabbitMQURL)
	if cfg.RabbitMQURL != "" && len(cfg.KafkaBrokers) == 0 {
		cfg.Publisher = PublisherRabbitMQ
	}
	env.str("CONCESSIONS_PUBLISHER", &cfg.Publisher)
	env.str("CONCESSIONS_KAFKA_TOPIC", &cfg.KafkaTopic)
	env.str("CONCESSIONS_KAFKA_DLQ_TOPIC", &cfg.KafkaDLQTopic)

	env.duration("CONCESSIONS_OUTBOX_POLL_INTERVAL", &cfg.OutboxPollInterval)
	env.integer("CONCESSIONS_OUTBOX_BATCH_SIZE", &cfg.OutboxBatchSize)
	env.integer("CONCESSIONS_OUTBOX_MAX_ATTEMPTS", &cfg.OutboxMaxAttempts)
	env.duration("CONCESSIONS_OUTBOX_RETRY_DELAY", &cfg.OutboxRetryDelay)
	env.duration("CONCESSIONS_OUTBOX_MAX_AGE", &cfg.OutboxMaxAge)

	env.duration("CONCESSIONS_IDEMPOTENCY_TTL", &cfg.IdempotencyTTL)
	env.duration("CONCESSIONS_IDEMPOTENCY_CLEANUP_INTERVAL", &cfg.IdempotencyCleanupInterval)
	env.integer("CONCESSIONS_IDEMPOTENCY_CLEANUP_BATCH_SIZE", &cfg.IdempotencyCleanupBatchSize)

	env.duration("CONCESSIONS_CART_IDLE_TTL", &cfg.CartIdleTTL)
	env.duration("CONCESSIONS_CART_SWEEP_INTERVAL", &cfg.CartSweepInterval)

	env.float("CONCESSIONS_HTTP_RATE_LIMIT", &cfg.HTTPRateLimit)
	env.integer("CONCESSIONS_HTTP_RATE_BURST", &cfg.HTTPRateBurst)

	env.duration("CONCESSIONS_SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout)

	if len(env.errs) > 0 {
		return Config{}, errors.Join(env.errs...)
	}
	return cfg, cfg.Validate()
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.GRPCAddr) == "" {
		errs = append(errs, errors.New("grpc address is required"))
	}
	if strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, errors.New("http address is required"))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}

	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			errs = append(errs, errors.New("CONCESSIONS_POSTGRES_DSN is required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage driver %q", c.StorageDriver))
	}

	switch c.Publisher {
	case PublisherLog:
	case PublisherKafka:
		if len(c.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required for kafka publisher"))
		}
		if c.KafkaTopic == "" {
			errs = append(errs, errors.New("kafka topic is required"))
		}
	case PublisherRabbitMQ:
		if strings.TrimSpace(c.RabbitMQURL) == "" {
			errs = append(errs, errors.New("CONCESSIONS_RABBITMQ_URL is required for rabbitmq publisher"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported publisher %q", c.Publisher))
	}

	if c.OutboxPollInterval <= 0 {
		errs = append(errs, errors.New("outbox poll interval must be positive"))
	}
	if c.OutboxBatchSize <= 0 {
		errs = append(errs, errors.New("outbox batch size must be positive"))
	}
	if c.OutboxMaxAttempts <= 0 {
		errs = append(errs, errors.New("outbox max attempts must be positive"))
	}
	if c.OutboxRetryDelay < 0 {
		errs = append(errs, errors.New("outbox retry delay must not be negative"))
	}
	if c.IdempotencyTTL <= 0 || c.IdempotencyCleanupInterval <= 0 || c.IdempotencyCleanupBatchSize <= 0 {
		errs = append(errs, errors.New("idempotency ttl, cleanup interval and batch size must be positive"))
	}
	if c.CartIdleTTL <= 0 || c.CartSweepInterval <= 0 {
		errs = append(errs, errors.New("cart idle ttl and sweep interval must be positive"))
	}
	if c.HTTPRateLimit < 0 {
		errs = append(errs, errors.New("http rate limit must not be negative"))
	}

	return errors.Join(errs...)
}

type envReader struct {
	getenv func(string) string
	errs   []error
}

func (r *envReader) get(key string) string {
	return strings.TrimSpace(r.getenv(key))
}

func (r *envReader) str(key string, dst *string) {
	if v := r.get(key); v != "" {
		*dst = v
	}
}

func (r *envReader) boolean(key string, dst *bool) {
	v := r.get(key)
	if v == "" {
		return
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = parsed
}

func (r *envReader) integer(key string, dst *int) {
	v := r.get(key)
	if v == "" {
		return
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = parsed
}

func (r *envReader) float(key string, dst *float64) {
	v := r.get(key)
	if v == "" {
		return
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = parsed
}

func (r *envReader) duration(key string, dst *time.Duration) {
	v := r.get(key)
	if v == "" {
		return
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = parsed
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
