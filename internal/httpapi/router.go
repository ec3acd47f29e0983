// Package httpapi — REST API витрины поверх того же сервиса корзин, что и gRPC.
package httpapi

import (
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/concessions/internal/service/cart"
	"github.com/vladislavdragonenkov/concessions/internal/service/idempotency"
)

// IdempotencyKeyHeader — заголовок с ключом идемпотентности checkout.
const IdempotencyKeyHeader = "Idempotency-Key"

const basePath = "/api/v1"

type options struct {
	logger  *log.Entry
	limiter *ClientLimiter
}

// Option настраивает роутер.
type Option func(*options)

// WithLogger задаёт logger для журналирования запросов.
func WithLogger(logger *log.Entry) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRateLimit включает ограничение запросов на клиента. rps <= 0 отключает лимит.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) {
		if rps <= 0 {
			o.limiter = nil
			return
		}
		o.limiter = NewClientLimiter(rps, burst)
	}
}

// NewRouter собирает gin.Engine с маршрутами /api/v1.
func NewRouter(carts *cart.Service, guard *idempotency.Guard, opts ...Option) *gin.Engine {
	cfg := options{logger: log.WithField("component", "http-api")}
	for _, opt := range opts {
		opt(&cfg)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(cfg.logger))

	h := &handler{carts: carts, guard: guard, logger: cfg.logger}
	register(router, h, cfg.limiter)
	return router
}

// register монтирует маршруты API.
func register(router gin.IRouter, h *handler, limiter *ClientLimiter) {
	api := router.Group(basePath)
	if limiter != nil {
		api.Use(limiter.Middleware())
	}

	api.GET("/menu", h.listMenu)

	carts := api.Group("/carts")
	carts.POST("", h.openCart)
	carts.GET("/:id", h.getCart)
	carts.DELETE("/:id", h.closeCart)
	carts.POST("/:id/items", h.addItem)
	carts.DELETE("/:id/items/:index", h.removeItem)
	carts.PUT("/:id/seat", h.setSeatNumber)
	carts.POST("/:id/checkout", h.checkout)
}
