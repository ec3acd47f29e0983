// Package rabbitmq передаёт чеки кухне через topic exchange RabbitMQ.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

// Топология обмена с кухней.
const (
	ExchangeConcessions = "concessions"
	RoutingKeyReceipt   = "kitchen.receipt.issued"
	RoutingKeyDead      = "kitchen.receipt.dead"
	QueueKitchen        = "kitchen.receipts"
	QueueKitchenDead    = "kitchen.receipts.dead"
)

// ErrNacked — брокер отклонил публикацию.
var ErrNacked = errors.New("publish NACK from broker")

// Client держит соединение и канал с publisher confirms.
type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel

	acks   <-chan amqp.Confirmation
	mu     sync.Mutex // confirms приходят по порядку, поэтому публикации сериализованы
	logger *log.Entry
}

// Dial подключается к брокеру по AMQP URL и включает publisher confirms.
func Dial(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("enable publisher confirms: %w", err)
	}

	return &Client{
		conn:   conn,
		ch:     ch,
		acks:   ch.NotifyPublish(make(chan amqp.Confirmation, 1)),
		logger: log.WithField("component", "rabbitmq-client"),
	}, nil
}

// DeclareTopology объявляет exchange и очереди кухни.
func (c *Client) DeclareTopology() error {
	if c == nil || c.ch == nil {
		return errors.New("rabbitmq channel is not initialized")
	}

	if err := c.ch.ExchangeDeclare(ExchangeConcessions, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", ExchangeConcessions, err)
	}

	bindings := []struct {
		queue string
		key   string
	}{
		{queue: QueueKitchen, key: RoutingKeyReceipt},
		{queue: QueueKitchenDead, key: RoutingKeyDead},
	}
	for _, b := range bindings {
		if _, err := c.ch.QueueDeclare(b.queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", b.queue, err)
		}
		if err := c.ch.QueueBind(b.queue, b.key, ExchangeConcessions, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", b.queue, err)
		}
	}
	return nil
}

// Publish публикует сообщение и ждёт ack/nack от брокера.
func (c *Client) Publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ch.PublishWithContext(ctx, exchange, key, false, false, msg); err != nil {
		return fmt.Errorf("publish to %s/%s: %w", exchange, key, err)
	}

	select {
	case conf, ok := <-c.acks:
		if !ok {
			return errors.New("rabbitmq confirm channel closed")
		}
		if !conf.Ack {
			return ErrNacked
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ping проверяет, что соединение открыто.
func (c *Client) Ping(context.Context) error {
	if c == nil || c.conn == nil || c.conn.IsClosed() {
		return errors.New("rabbitmq connection is closed")
	}
	return nil
}

// Close закрывает канал и соединение.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.ch != nil {
		errs = append(errs, c.ch.Close())
	}
	if c.conn != nil {
		errs = append(errs, c.conn.Close())
	}
	if err := errors.Join(errs...); err != nil {
		c.logger.WithError(err).Warn("failed to close rabbitmq client cleanly")
		return err
	}
	return nil
}
