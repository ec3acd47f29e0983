package cart

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/concessions/internal/domain"
	"github.com/vladislavdragonenkov/concessions/internal/metrics"
	"github.com/vladislavdragonenkov/concessions/internal/storage/memory"
)

func loggerForTests() *log.Entry {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return log.NewEntry(logger)
}

type failingOutbox struct {
	*memory.OutboxRepository
	err error
}

func (f *failingOutbox) Enqueue(domain.OutboxMessage) (domain.OutboxMessage, error) {
	return domain.OutboxMessage{}, f.err
}

// conflictingCarts отдаёт ErrCartVersionConflict на первых conflicts вызовах Save.
type conflictingCarts struct {
	domain.CartRepository
	conflicts int
	saves     int
}

func (c *conflictingCarts) Save(cart *domain.Cart) error {
	c.saves++
	if c.conflicts > 0 {
		c.conflicts--
		return domain.ErrCartVersionConflict
	}
	return c.CartRepository.Save(cart)
}

type fixture struct {
	svc    *Service
	carts  domain.CartRepository
	outbox *memory.OutboxRepository
}

func newFixture(t *testing.T, opts ...Option) fixture {
	t.Helper()

	catalog, err := memory.NewCatalogSource(nil).LoadCatalog()
	require.NoError(t, err)

	carts := memory.NewCartRepository()
	outbox := memory.NewOutboxRepository()
	opts = append([]Option{WithLogger(loggerForTests())}, opts...)

	svc, err := NewService(catalog, carts, outbox, opts...)
	require.NoError(t, err)
	return fixture{svc: svc, carts: carts, outbox: outbox}
}

func TestNewService_RequiresDependencies(t *testing.T) {
	catalog, err := memory.NewCatalogSource(nil).LoadCatalog()
	require.NoError(t, err)

	_, err = NewService(nil, memory.NewCartRepository(), memory.NewOutboxRepository())
	assert.Error(t, err)
	_, err = NewService(catalog, nil, memory.NewOutboxRepository())
	assert.Error(t, err)
	_, err = NewService(catalog, memory.NewCartRepository(), nil)
	assert.Error(t, err)
}

func TestService_AddRemoveAndTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cart, err := f.svc.Open(ctx)
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, cart.ID, 1) // Hot Dog 5.99
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, cart.ID, 2) // Cotton Candy 4.99
	require.NoError(t, err)
	updated, err := f.svc.AddItem(ctx, cart.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, 3, updated.Len())
	assert.True(t, updated.Total().Equal(decimal.RequireFromString("16.97")))

	updated, err = f.svc.RemoveItem(ctx, cart.ID, 0)
	require.NoError(t, err)
	entries := updated.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Cotton Candy", entries[0].Item.Name)
	assert.True(t, updated.Total().Equal(decimal.RequireFromString("10.98")))

	stored, err := f.svc.Get(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Len())
	assert.Equal(t, int64(4), stored.Version)
}

func TestService_RejectedOperationsLeaveCartUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cart, err := f.svc.Open(ctx)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, cart.ID, 6)
	require.NoError(t, err)

	_, err = f.svc.RemoveItem(ctx, cart.ID, 5)
	assert.ErrorIs(t, err, domain.ErrInvalidIndex)
	_, err = f.svc.RemoveItem(ctx, cart.ID, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidIndex)
	_, err = f.svc.AddItem(ctx, cart.ID, 404)
	assert.ErrorIs(t, err, domain.ErrMenuItemNotFound)

	_, err = f.svc.SetSeatNumber(ctx, cart.ID, "   ")
	require.NoError(t, err)
	_, err = f.svc.Checkout(ctx, cart.ID)
	assert.ErrorIs(t, err, domain.ErrMissingSeatNumber)

	stored, err := f.svc.Get(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Len())
	assert.Equal(t, "   ", stored.SeatNumber())
	assert.Empty(t, f.outbox.AllPending())
}

func TestService_CheckoutEnqueuesReceiptAndResets(t *testing.T) {
	issuedAt := time.Date(2026, 10, 17, 19, 5, 0, 0, time.UTC)
	f := newFixture(t, WithClock(func() time.Time { return issuedAt }))
	ctx := context.Background()

	cart, err := f.svc.Open(ctx)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, cart.ID, 7) // Peanuts 4.50
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, cart.ID, 8) // Nachos 6.99
	require.NoError(t, err)
	_, err = f.svc.SetSeatNumber(ctx, cart.ID, "  Sec 104 Row F Seat 9 ")
	require.NoError(t, err)

	receipt, err := f.svc.Checkout(ctx, cart.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.ID)
	assert.Equal(t, cart.ID, receipt.CartID)
	assert.Equal(t, "Sec 104 Row F Seat 9", receipt.SeatNumber)
	assert.Equal(t, "11.49", receipt.Total.StringFixed(2))
	assert.True(t, receipt.IssuedAt.Equal(issuedAt))
	require.Len(t, receipt.Lines, 2)
	assert.Equal(t, "Peanuts", receipt.Lines[0].Name)

	stored, err := f.svc.Get(ctx, cart.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.Len())
	assert.Empty(t, stored.SeatNumber())
	assert.True(t, stored.Total().IsZero())

	pending := f.outbox.AllPending()
	require.Len(t, pending, 1)
	assert.Equal(t, receipt.ID, pending[0].ID)
	assert.Equal(t, domain.EventTypeReceiptIssued, pending[0].EventType)
	assert.Equal(t, cart.ID, pending[0].AggregateID)

	decoded, err := domain.UnmarshalReceipt(pending[0].Payload)
	require.NoError(t, err)
	assert.True(t, decoded.Total.Equal(receipt.Total))
	assert.Equal(t, receipt.SeatNumber, decoded.SeatNumber)
}

func TestService_CheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cart, err := f.svc.Open(ctx)
	require.NoError(t, err)
	_, err = f.svc.SetSeatNumber(ctx, cart.ID, "B2")
	require.NoError(t, err)

	receipt, err := f.svc.Checkout(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, "0.00", receipt.Total.StringFixed(2))
	assert.Empty(t, receipt.Lines)
}

func TestService_CheckoutRestoresCartWhenHandOffFails(t *testing.T) {
	catalog, err := memory.NewCatalogSource(nil).LoadCatalog()
	require.NoError(t, err)
	carts := memory.NewCartRepository()
	outbox := &failingOutbox{OutboxRepository: memory.NewOutboxRepository(), err: errors.New("disk full")}

	svc, err := NewService(catalog, carts, outbox, WithLogger(loggerForTests()))
	require.NoError(t, err)
	ctx := context.Background()

	cart, err := svc.Open(ctx)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, cart.ID, 3)
	require.NoError(t, err)
	_, err = svc.SetSeatNumber(ctx, cart.ID, "C9")
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, cart.ID)
	require.ErrorIs(t, err, domain.ErrOutboxPublish)

	stored, err := svc.Get(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Len(), "entries must be restored")
	assert.Equal(t, "C9", stored.SeatNumber())
}

// racingOutbox перед отказом успевает изменить корзину, как параллельный клиент.
type racingOutbox struct {
	*memory.OutboxRepository
	race func()
}

func (r *racingOutbox) Enqueue(domain.OutboxMessage) (domain.OutboxMessage, error) {
	r.race()
	return domain.OutboxMessage{}, errors.New("disk full")
}

func TestService_CheckoutRestoresCartAfterConcurrentWrite(t *testing.T) {
	catalog, err := memory.NewCatalogSource(nil).LoadCatalog()
	require.NoError(t, err)
	carts := memory.NewCartRepository()
	outbox := &racingOutbox{OutboxRepository: memory.NewOutboxRepository()}

	svc, err := NewService(catalog, carts, outbox, WithLogger(loggerForTests()))
	require.NoError(t, err)
	ctx := context.Background()

	cart, err := svc.Open(ctx)
	require.NoError(t, err)
	for _, id := range []int64{1, 6} {
		_, err = svc.AddItem(ctx, cart.ID, id)
		require.NoError(t, err)
	}
	_, err = svc.SetSeatNumber(ctx, cart.ID, "A1")
	require.NoError(t, err)

	outbox.race = func() {
		_, raceErr := svc.SetSeatNumber(ctx, cart.ID, "C9")
		require.NoError(t, raceErr)
	}

	_, err = svc.Checkout(ctx, cart.ID)
	require.ErrorIs(t, err, domain.ErrOutboxPublish)

	stored, err := svc.Get(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Len(), "entries must survive a failed hand-off")
	assert.Equal(t, "9.98", stored.Total().StringFixed(2))
	assert.Equal(t, "C9", stored.SeatNumber())
	assert.Empty(t, outbox.AllPending())
}

func TestService_RetriesVersionConflicts(t *testing.T) {
	catalog, err := memory.NewCatalogSource(nil).LoadCatalog()
	require.NoError(t, err)
	carts := &conflictingCarts{CartRepository: memory.NewCartRepository()}
	cm := metrics.NewCartMetricsWithRegisterer(prometheus.NewRegistry())

	svc, err := NewService(catalog, carts, memory.NewOutboxRepository(),
		WithLogger(loggerForTests()),
		WithMetrics(cm),
		WithMaxConflictRetries(2),
	)
	require.NoError(t, err)
	ctx := context.Background()

	cart, err := svc.Open(ctx)
	require.NoError(t, err)

	carts.conflicts = 2
	updated, err := svc.AddItem(ctx, cart.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Len(), "retries must not duplicate the entry")
	assert.Equal(t, 3, carts.saves)

	carts.conflicts = 3
	carts.saves = 0
	_, err = svc.AddItem(ctx, cart.ID, 5)
	assert.True(t, domain.IsVersionConflict(err))
	assert.Equal(t, 3, carts.saves)

	stored, err := svc.Get(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Len())
}

func TestService_UnknownCartAndClose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "missing", 1)
	assert.ErrorIs(t, err, domain.ErrCartNotFound)
	_, err = f.svc.Checkout(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrCartNotFound)
	assert.ErrorIs(t, f.svc.Close(ctx, "missing"), domain.ErrCartNotFound)

	cart, err := f.svc.Open(ctx)
	require.NoError(t, err)
	active, err := f.svc.ActiveCarts()
	require.NoError(t, err)
	assert.Equal(t, 1, active)

	require.NoError(t, f.svc.Close(ctx, cart.ID))
	_, err = f.svc.Get(ctx, cart.ID)
	assert.ErrorIs(t, err, domain.ErrCartNotFound)
}

func TestService_CanceledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Open(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = f.svc.SetSeatNumber(ctx, "any", "A1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_MenuIsCatalogOrder(t *testing.T) {
	f := newFixture(t)

	menu := f.svc.Menu()
	require.Len(t, menu, 8)
	assert.Equal(t, "Hot Dog", menu[0].Name)
	assert.Equal(t, "Nachos", menu[7].Name)
}
