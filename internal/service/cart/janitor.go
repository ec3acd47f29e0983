package cart

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/concessions/internal/domain"
	"github.com/vladislavdragonenkov/concessions/internal/metrics"
)

const (
	defaultIdleTTL       = 2 * time.Hour
	defaultSweepInterval = 5 * time.Minute
	defaultSweepBatch    = 200
)

// JanitorOptions задаёт параметры очистки брошенных корзин.
type JanitorOptions struct {
	Logger    *log.Entry
	Metrics   *metrics.CartMetrics
	IdleTTL   time.Duration
	Interval  time.Duration
	BatchSize int
}

// JanitorOption настраивает Janitor.
type JanitorOption func(*JanitorOptions)

// WithJanitorLogger задаёт logger.
func WithJanitorLogger(logger *log.Entry) JanitorOption {
	return func(opts *JanitorOptions) { opts.Logger = logger }
}

// WithJanitorMetrics подключает метрики корзин.
func WithJanitorMetrics(m *metrics.CartMetrics) JanitorOption {
	return func(opts *JanitorOptions) { opts.Metrics = m }
}

// WithIdleTTL задаёт время бездействия, после которого корзина удаляется.
func WithIdleTTL(ttl time.Duration) JanitorOption {
	return func(opts *JanitorOptions) { opts.IdleTTL = ttl }
}

// WithSweepInterval задаёт период между проходами.
func WithSweepInterval(interval time.Duration) JanitorOption {
	return func(opts *JanitorOptions) { opts.Interval = interval }
}

// WithSweepBatchSize задаёт размер пачки удаления.
func WithSweepBatchSize(size int) JanitorOption {
	return func(opts *JanitorOptions) { opts.BatchSize = size }
}

// Janitor удаляет корзины, которые не менялись дольше IdleTTL.
type Janitor struct {
	carts     domain.CartRepository
	logger    *log.Entry
	metrics   *metrics.CartMetrics
	idleTTL   time.Duration
	interval  time.Duration
	batchSize int
}

// NewJanitor создаёт очистку брошенных корзин.
func NewJanitor(carts domain.CartRepository, options ...JanitorOption) *Janitor {
	opts := JanitorOptions{
		IdleTTL:   defaultIdleTTL,
		Interval:  defaultSweepInterval,
		BatchSize: defaultSweepBatch,
	}
	for _, option := range options {
		option(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = log.WithField("component", "cart-janitor")
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = defaultIdleTTL
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultSweepInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultSweepBatch
	}

	return &Janitor{
		carts:     carts,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		idleTTL:   opts.IdleTTL,
		interval:  opts.Interval,
		batchSize: opts.BatchSize,
	}
}

// Run выполняет проходы до отмены ctx.
func (j *Janitor) Run(ctx context.Context) {
	if j.carts == nil {
		j.logger.Warn("cart janitor is disabled: repository is nil")
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweep(ctx, time.Now().UTC())
		}
	}
}

func (j *Janitor) sweep(ctx context.Context, now time.Time) {
	removed, err := j.Sweep(ctx, now)
	if err != nil && !errors.Is(err, context.Canceled) {
		j.logger.WithError(err).Warn("idle cart sweep failed")
	}
	if removed > 0 {
		j.logger.WithField("removed", removed).Info("idle carts removed")
	}

	if count, err := j.carts.Count(); err == nil {
		j.metrics.SetActiveCarts(count)
	}
}

// Sweep удаляет все корзины, не менявшиеся с now-IdleTTL, пачками BatchSize.
func (j *Janitor) Sweep(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-j.idleTTL)

	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		removed, err := j.carts.DeleteIdle(cutoff, j.batchSize)
		if err != nil {
			return total, err
		}
		total += removed
		j.metrics.CartsClosed("idle", removed)

		if removed < j.batchSize {
			return total, nil
		}
	}
}
