package domain

import "time"

// CatalogSource загружает каталог при старте сервиса.
type CatalogSource interface {
	LoadCatalog() (*Catalog, error)
}

// CartRepository хранит корзины активных сессий.
type CartRepository interface {
	// Create сохраняет новую корзину. Возвращает ErrCartVersionConflict, если ID уже занят.
	Create(cart *Cart) error
	// Get возвращает копию корзины или ErrCartNotFound.
	Get(id string) (*Cart, error)
	// Save применяет изменения с учётом optimistic locking и увеличивает Version.
	Save(cart *Cart) error
	// Delete удаляет корзину; ErrCartNotFound, если её нет.
	Delete(id string) error
	// DeleteIdle удаляет корзины, не менявшиеся с before, не более limit за вызов.
	DeleteIdle(before time.Time, limit int) (int, error)
	// Count возвращает число активных корзин.
	Count() (int, error)
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
type IdempotencyRepository interface {
	CreateProcessing(key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	Get(key string) (IdempotencyRecord, error)
	MarkDone(key string, responseBody []byte, httpStatus int) error
	MarkFailed(key string, responseBody []byte, httpStatus int) error
	// Delete освобождает ключ, чтобы повтор запроса выполнился заново.
	Delete(key string) error
	DeleteExpired(before time.Time, limit int) (int, error)
}

// Константы outbox-сообщений с чеками.
const (
	AggregateTypeCart      = "cart"
	EventTypeReceiptIssued = "receipt.issued"
)

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
