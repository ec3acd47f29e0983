// Package cart управляет сессиями корзин витрины: открытие, изменения,
// checkout с передачей чека на кухню через outbox.
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/concessions/internal/domain"
	"github.com/vladislavdragonenkov/concessions/internal/metrics"
)

const defaultMaxConflictRetries = 3

// Options задаёт необязательные зависимости сервиса.
type Options struct {
	Logger             *log.Entry
	Metrics            *metrics.CartMetrics
	Clock              func() time.Time
	MaxConflictRetries int
}

// Option настраивает Service.
type Option func(*Options)

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) { opts.Logger = logger }
}

// WithMetrics подключает метрики корзин.
func WithMetrics(m *metrics.CartMetrics) Option {
	return func(opts *Options) { opts.Metrics = m }
}

// WithClock подменяет источник времени (тесты).
func WithClock(clock func() time.Time) Option {
	return func(opts *Options) { opts.Clock = clock }
}

// WithMaxConflictRetries ограничивает число повторов при конфликте версий.
func WithMaxConflictRetries(n int) Option {
	return func(opts *Options) { opts.MaxConflictRetries = n }
}

// Service хранит корзины сессий и применяет к ним операции домена.
type Service struct {
	catalog  *domain.Catalog
	carts    domain.CartRepository
	receipts domain.OutboxRepository

	logger     *log.Entry
	metrics    *metrics.CartMetrics
	now        func() time.Time
	maxRetries int
}

// NewService создаёт сервис корзин. receipts — очередь чеков для кухни.
func NewService(catalog *domain.Catalog, carts domain.CartRepository, receipts domain.OutboxRepository, options ...Option) (*Service, error) {
	switch {
	case catalog == nil:
		return nil, errors.New("cart service: catalog is required")
	case carts == nil:
		return nil, errors.New("cart service: cart repository is required")
	case receipts == nil:
		return nil, errors.New("cart service: receipt outbox is required")
	}

	opts := Options{MaxConflictRetries: defaultMaxConflictRetries}
	for _, option := range options {
		option(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = log.WithField("component", "cart-service")
	}
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return time.Now().UTC() }
	}
	if opts.MaxConflictRetries < 0 {
		opts.MaxConflictRetries = 0
	}

	return &Service{
		catalog:    catalog,
		carts:      carts,
		receipts:   receipts,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		now:        opts.Clock,
		maxRetries: opts.MaxConflictRetries,
	}, nil
}

// Menu возвращает позиции каталога в порядке отображения.
func (s *Service) Menu() []domain.MenuItem {
	return s.catalog.Items()
}

// Open создаёт пустую корзину новой сессии.
func (s *Service) Open(ctx context.Context) (*domain.Cart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cart := domain.NewCart(uuid.NewString(), s.now())
	if err := s.carts.Create(cart); err != nil {
		s.logger.WithError(err).Error("failed to create cart")
		return nil, fmt.Errorf("create cart: %w", err)
	}

	s.metrics.CartOpened()
	s.logger.WithField("cart_id", cart.ID).Debug("cart opened")
	return cart, nil
}

// Get возвращает текущее состояние корзины.
func (s *Service) Get(ctx context.Context, cartID string) (*domain.Cart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.carts.Get(cartID)
}

// AddItem находит позицию в каталоге и добавляет её в конец корзины.
func (s *Service) AddItem(ctx context.Context, cartID string, menuItemID int64) (*domain.Cart, error) {
	item, err := s.catalog.Lookup(menuItemID)
	if err != nil {
		return nil, err
	}

	cart, err := s.mutate(ctx, "add_item", cartID, func(c *domain.Cart) error {
		c.AddItem(item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ItemAdded()
	return cart, nil
}

// RemoveItem удаляет запись по индексу.
func (s *Service) RemoveItem(ctx context.Context, cartID string, index int) (*domain.Cart, error) {
	cart, err := s.mutate(ctx, "remove_item", cartID, func(c *domain.Cart) error {
		_, err := c.RemoveItem(index)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ItemRemoved()
	return cart, nil
}

// SetSeatNumber сохраняет номер места как есть.
func (s *Service) SetSeatNumber(ctx context.Context, cartID, seat string) (*domain.Cart, error) {
	return s.mutate(ctx, "set_seat", cartID, func(c *domain.Cart) error {
		c.SetSeatNumber(seat)
		return nil
	})
}

// Checkout выдаёт чек, сбрасывает корзину и ставит чек в очередь на кухню.
//
// Если постановка в очередь не удалась, корзина возвращается в состояние до checkout,
// а вызов завершается ошибкой ErrOutboxPublish.
func (s *Service) Checkout(ctx context.Context, cartID string) (domain.Receipt, error) {
	started := time.Now()
	defer func() { s.metrics.ObserveOperation("checkout", time.Since(started)) }()

	var (
		receipt domain.Receipt
		before  *domain.Cart
	)
	after, err := s.mutate(ctx, "checkout", cartID, func(c *domain.Cart) error {
		before = c.Clone()
		r, err := c.Checkout()
		if err != nil {
			return err
		}
		receipt = r
		return nil
	})
	if err != nil {
		s.metrics.CheckoutFailed(domain.ErrorCode(err))
		return domain.Receipt{}, err
	}

	receipt.ID = uuid.NewString()
	receipt.IssuedAt = after.UpdatedAt

	if err := s.enqueueReceipt(receipt); err != nil {
		s.restore(ctx, before)
		s.metrics.CheckoutFailed("outbox")
		return domain.Receipt{}, err
	}

	s.metrics.CheckoutSucceeded(receipt.Total, len(receipt.Lines))
	s.logger.WithFields(log.Fields{
		"cart_id":    cartID,
		"receipt_id": receipt.ID,
		"total":      receipt.Total.StringFixed(2),
		"seat":       receipt.SeatNumber,
	}).Info("receipt issued")
	return receipt, nil
}

// Close удаляет корзину сессии.
func (s *Service) Close(ctx context.Context, cartID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.carts.Delete(cartID); err != nil {
		return err
	}
	s.metrics.CartsClosed("explicit", 1)
	return nil
}

// ActiveCarts возвращает число открытых корзин.
func (s *Service) ActiveCarts() (int, error) {
	return s.carts.Count()
}

// mutate выполняет load-mutate-save. При конфликте версий операция повторяется
// на свежем состоянии, не более maxRetries раз. Ошибка fn прерывает цикл без сохранения.
func (s *Service) mutate(ctx context.Context, op, cartID string, fn func(*domain.Cart) error) (*domain.Cart, error) {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cart, err := s.carts.Get(cartID)
		if err != nil {
			return nil, err
		}
		if err := fn(cart); err != nil {
			return nil, err
		}
		cart.UpdatedAt = s.now()

		err = s.carts.Save(cart)
		if err == nil {
			return cart, nil
		}
		if !domain.IsVersionConflict(err) || attempt >= s.maxRetries {
			return nil, err
		}

		s.metrics.VersionConflict()
		s.logger.WithFields(log.Fields{
			"operation": op,
			"cart_id":   cartID,
			"attempt":   attempt + 1,
		}).Debug("cart version conflict, retrying")
	}
}

func (s *Service) enqueueReceipt(receipt domain.Receipt) error {
	payload, err := domain.MarshalReceipt(receipt)
	if err != nil {
		return fmt.Errorf("encode receipt: %w", err)
	}

	_, err = s.receipts.Enqueue(domain.OutboxMessage{
		ID:            receipt.ID,
		AggregateType: domain.AggregateTypeCart,
		AggregateID:   receipt.CartID,
		EventType:     domain.EventTypeReceiptIssued,
		Payload:       payload,
	})
	if err != nil {
		s.logger.WithError(err).WithField("cart_id", receipt.CartID).Error("failed to enqueue receipt")
		return fmt.Errorf("%w: %v", domain.ErrOutboxPublish, err)
	}
	return nil
}

// restore откатывает сброс корзины после неудачной передачи чека. Снимок применяется
// через mutate, поэтому запись, успевшая лечь в корзину после сброса, не теряется.
func (s *Service) restore(ctx context.Context, before *domain.Cart) {
	if before == nil {
		return
	}
	_, err := s.mutate(context.WithoutCancel(ctx), "checkout_restore", before.ID, func(c *domain.Cart) error {
		c.Reinstate(before)
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithField("cart_id", before.ID).Error("failed to restore cart after receipt hand-off failure")
	}
}
