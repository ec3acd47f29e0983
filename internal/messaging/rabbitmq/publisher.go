package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/vladislavdragonenkov/concessions/internal/domain"
)

const defaultPublishTimeout = 5 * time.Second

// Header с ID корзины.
const HeaderAggregateID = "x-aggregate-id"

// Sender — минимальный контракт отправки, реализуемый Client.
type Sender interface {
	Publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error
}

// OutboxPublisher публикует чеки из outbox в exchange с фиксированным routing key.
type OutboxPublisher struct {
	sender     Sender
	exchange   string
	routingKey string
	timeout    time.Duration
	now        func() time.Time
}

// NewOutboxPublisher создаёт publisher для основного потока чеков.
func NewOutboxPublisher(sender Sender) *OutboxPublisher {
	return newPublisher(sender, RoutingKeyReceipt)
}

// NewDeadLetterPublisher создаёт publisher недоставленных чеков.
func NewDeadLetterPublisher(sender Sender) *OutboxPublisher {
	return newPublisher(sender, RoutingKeyDead)
}

func newPublisher(sender Sender, routingKey string) *OutboxPublisher {
	return &OutboxPublisher{
		sender:     sender,
		exchange:   ExchangeConcessions,
		routingKey: routingKey,
		timeout:    defaultPublishTimeout,
		now:        time.Now,
	}
}

// RoutingKey возвращает routing key публикаций.
func (p *OutboxPublisher) RoutingKey() string {
	return p.routingKey
}

func (p *OutboxPublisher) Publish(event domain.OutboxMessage) error {
	if p == nil || p.sender == nil {
		return fmt.Errorf("rabbitmq outbox publisher is not initialized")
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	return p.sender.Publish(ctx, p.exchange, p.routingKey, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Type:         event.EventType,
		Timestamp:    p.now().UTC(),
		Headers:      amqp.Table{HeaderAggregateID: event.AggregateID},
		Body:         event.Payload,
	})
}

var _ domain.OutboxPublisher = (*OutboxPublisher)(nil)
var _ Sender = (*Client)(nil)
