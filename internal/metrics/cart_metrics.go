package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// CartMetrics содержит метрики корзин витрины.
// Nil-указатель допустим: все методы становятся no-op.
type CartMetrics struct {
	opened       prometheus.Counter
	closed       *prometheus.CounterVec
	itemsAdded   prometheus.Counter
	itemsRemoved prometheus.Counter
	checkouts    *prometheus.CounterVec
	conflicts    prometheus.Counter
	activeCarts  prometheus.Gauge

	receiptTotal    prometheus.Histogram
	receiptLines    prometheus.Histogram
	operationTiming *prometheus.HistogramVec
}

// NewCartMetrics регистрирует метрики в глобальном реестре.
func NewCartMetrics() *CartMetrics {
	return NewCartMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewCartMetricsWithRegisterer регистрирует метрики в указанном реестре.
// Повторная регистрация возвращает уже существующие коллекторы.
func NewCartMetricsWithRegisterer(registerer prometheus.Registerer) *CartMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CartMetrics{
		opened: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "concessions_carts_opened_total",
			Help: "Total number of cart sessions opened",
		})),
		closed: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "concessions_carts_closed_total",
			Help: "Total number of cart sessions closed, by reason",
		}, []string{"reason"})),
		itemsAdded: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "concessions_cart_items_added_total",
			Help: "Total number of menu items added to carts",
		})),
		itemsRemoved: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "concessions_cart_items_removed_total",
			Help: "Total number of entries removed from carts",
		})),
		checkouts: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "concessions_checkouts_total",
			Help: "Checkout attempts by result",
		}, []string{"result"})),
		conflicts: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "concessions_cart_version_conflicts_total",
			Help: "Optimistic locking conflicts retried by the cart service",
		})),
		activeCarts: register(registerer, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "concessions_active_carts",
			Help: "Number of carts currently held by the service",
		})),
		receiptTotal: register(registerer, prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "concessions_receipt_total_amount",
			Help:    "Receipt totals in currency units",
			Buckets: []float64{0, 5, 10, 15, 20, 30, 50, 75, 100},
		})),
		receiptLines: register(registerer, prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "concessions_receipt_lines",
			Help:    "Number of lines per issued receipt",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		})),
		operationTiming: register(registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "concessions_cart_operation_duration_seconds",
			Help:    "Duration of cart service operations",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"operation"})),
	}
}

func register[T prometheus.Collector](registerer prometheus.Registerer, collector T) T {
	err := registerer.Register(collector)
	if err == nil {
		return collector
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		existing, ok := already.ExistingCollector.(T)
		if !ok {
			panic(fmt.Sprintf("collector already registered with unexpected type %T", already.ExistingCollector))
		}
		return existing
	}
	panic(fmt.Sprintf("register collector: %v", err))
}

// CartOpened фиксирует новую сессию.
func (m *CartMetrics) CartOpened() {
	if m == nil {
		return
	}
	m.opened.Inc()
	m.activeCarts.Inc()
}

// CartsClosed фиксирует закрытие count корзин по причине reason (explicit, idle).
func (m *CartMetrics) CartsClosed(reason string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.closed.WithLabelValues(reason).Add(float64(count))
	m.activeCarts.Sub(float64(count))
}

// SetActiveCarts синхронизирует gauge с репозиторием.
func (m *CartMetrics) SetActiveCarts(count int) {
	if m == nil {
		return
	}
	m.activeCarts.Set(float64(count))
}

// ItemAdded увеличивает счётчик добавлений.
func (m *CartMetrics) ItemAdded() {
	if m == nil {
		return
	}
	m.itemsAdded.Inc()
}

// ItemRemoved увеличивает счётчик удалений.
func (m *CartMetrics) ItemRemoved() {
	if m == nil {
		return
	}
	m.itemsRemoved.Inc()
}

// CheckoutSucceeded учитывает выданный чек.
func (m *CartMetrics) CheckoutSucceeded(total decimal.Decimal, lines int) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues("ok").Inc()
	m.receiptTotal.Observe(total.InexactFloat64())
	m.receiptLines.Observe(float64(lines))
}

// CheckoutFailed учитывает отклонённый checkout; reason — код ошибки.
func (m *CartMetrics) CheckoutFailed(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "internal"
	}
	m.checkouts.WithLabelValues(reason).Inc()
}

// VersionConflict учитывает повтор операции после конфликта версий.
func (m *CartMetrics) VersionConflict() {
	if m == nil {
		return
	}
	m.conflicts.Inc()
}

// ObserveOperation записывает длительность операции сервиса.
func (m *CartMetrics) ObserveOperation(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.operationTiming.WithLabelValues(operation).Observe(duration.Seconds())
}
