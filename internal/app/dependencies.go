package app

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/concessions/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/concessions/internal/health"
	"github.com/vladislavdragonenkov/concessions/internal/messaging"
	"github.com/vladislavdragonenkov/concessions/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/concessions/internal/messaging/rabbitmq"
	"github.com/vladislavdragonenkov/concessions/internal/storage/memory"
	"github.com/vladislavdragonenkov/concessions/internal/storage/postgres"
)

// runtimeDependencies — хранилища, выбранные по StorageDriver.
type runtimeDependencies struct {
	catalog         *domain.Catalog
	cartRepo        domain.CartRepository
	outboxRepo      domain.OutboxRepository
	idempotencyRepo domain.IdempotencyRepository
	storageChecker  healthcheck.Checker
	closeFn         func() error
}

// initRuntimeDependencies открывает хранилище и загружает каталог.
// Корзины всегда живут в памяти процесса: это сессии конкретных зрителей.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	deps := &runtimeDependencies{cartRepo: memory.NewCartRepository()}

	var source domain.CatalogSource
	switch cfg.StorageDriver {
	case StorageDriverMemory, "":
		source = memory.NewCatalogSource(nil)
		deps.outboxRepo = memory.NewOutboxRepository()
		deps.idempotencyRepo = memory.NewIdempotencyRepository()
		deps.storageChecker = healthcheck.NewSimpleChecker("storage", func(context.Context) error { return nil })
	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, errors.New("postgres dsn is required for postgres storage driver")
		}
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
			logger.Info("postgres schema is up to date")
		}
		source = postgres.NewCatalogRepository(store)
		deps.outboxRepo = postgres.NewOutboxRepository(store)
		deps.idempotencyRepo = postgres.NewIdempotencyRepository(store)
		deps.storageChecker = healthcheck.NewPingChecker("storage", store)
		deps.closeFn = store.Close
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}

	catalog, err := source.LoadCatalog()
	if err != nil {
		if deps.closeFn != nil {
			_ = deps.closeFn()
		}
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	deps.catalog = catalog

	logger.WithFields(log.Fields{
		"storage":    cfg.StorageDriver,
		"menu_items": catalog.Len(),
	}).Info("storage initialized")
	return deps, nil
}

// publishers — основной и dead-letter издатели outbox для выбранного брокера.
type publishers struct {
	main          domain.OutboxPublisher
	deadLetter    domain.OutboxPublisher
	brokerChecker healthcheck.Checker
	closeFn       func() error
}

func initPublishers(cfg Config, logger *log.Entry) (*publishers, error) {
	switch cfg.Publisher {
	case PublisherLog, "":
		return &publishers{main: messaging.NewLogPublisher(logger.WithField("publisher", "log"))}, nil
	case PublisherKafka:
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, kafka.WithClientID("concessions-service"))
		if err != nil {
			return nil, fmt.Errorf("create kafka producer: %w", err)
		}
		logger.WithField("brokers", cfg.KafkaBrokers).Info("kafka producer initialized")
		return &publishers{
			main:       kafka.NewOutboxPublisher(producer, cfg.KafkaTopic),
			deadLetter: kafka.NewOutboxPublisher(producer, cfg.KafkaDLQTopic),
			closeFn:    producer.Close,
		}, nil
	case PublisherRabbitMQ:
		client, err := rabbitmq.Dial(cfg.RabbitMQURL)
		if err != nil {
			return nil, err
		}
		if err := client.DeclareTopology(); err != nil {
			_ = client.Close()
			return nil, err
		}
		logger.Info("rabbitmq publisher initialized")
		return &publishers{
			main:          rabbitmq.NewOutboxPublisher(client),
			deadLetter:    rabbitmq.NewDeadLetterPublisher(client),
			brokerChecker: healthcheck.NewPingChecker("broker", client),
			closeFn:       client.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported publisher %q", cfg.Publisher)
	}
}

func (p *publishers) close(logger *log.Entry) {
	if p == nil || p.closeFn == nil {
		return
	}
	if err := p.closeFn(); err != nil {
		logger.WithError(err).Warn("failed to close publisher")
		return
	}
	logger.Info("publisher closed")
}

func (d *runtimeDependencies) close(logger *log.Entry) {
	if d == nil || d.closeFn == nil {
		return
	}
	if err := d.closeFn(); err != nil {
		logger.WithError(err).Warn("failed to close storage")
	}
}
