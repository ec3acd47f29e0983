// Package grpcsvc реализует concessions.v1.ConcessionsService поверх сервиса корзин.
package grpcsvc

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/concessions/internal/domain"
	"github.com/vladislavdragonenkov/concessions/internal/presenter"
	"github.com/vladislavdragonenkov/concessions/internal/service/cart"
	"github.com/vladislavdragonenkov/concessions/internal/service/idempotency"
	concessionsv1 "github.com/vladislavdragonenkov/concessions/proto/concessions/v1"
)

// IdempotencyKeyHeader — ключ metadata с ключом идемпотентности checkout.
const IdempotencyKeyHeader = "idempotency-key"

// ConcessionsService реализует gRPC API витрины.
type ConcessionsService struct {
	concessionsv1.UnimplementedConcessionsServiceServer

	carts  *cart.Service
	guard  *idempotency.Guard
	logger *log.Entry
}

// NewConcessionsService конструирует сервис. guard может быть nil — тогда checkout не дедуплицируется.
func NewConcessionsService(carts *cart.Service, guard *idempotency.Guard, logger *log.Entry) *ConcessionsService {
	if logger == nil {
		logger = log.New().WithField("component", "concessions-grpc")
	}
	return &ConcessionsService{
		carts:  carts,
		guard:  guard,
		logger: logger,
	}
}

// ListMenu возвращает каталог.
func (s *ConcessionsService) ListMenu(context.Context, *concessionsv1.ListMenuRequest) (*concessionsv1.ListMenuResponse, error) {
	return &concessionsv1.ListMenuResponse{Items: presenter.Menu(s.carts.Menu())}, nil
}

// OpenCart открывает пустую корзину.
func (s *ConcessionsService) OpenCart(ctx context.Context, _ *concessionsv1.OpenCartRequest) (*concessionsv1.OpenCartResponse, error) {
	c, err := s.carts.Open(ctx)
	if err != nil {
		return nil, s.toStatus("OpenCart", err)
	}
	return &concessionsv1.OpenCartResponse{Cart: presenter.Cart(c)}, nil
}

// GetCart возвращает корзину.
func (s *ConcessionsService) GetCart(ctx context.Context, req *concessionsv1.GetCartRequest) (*concessionsv1.GetCartResponse, error) {
	cartID, err := requireCartID(req.GetCartId())
	if err != nil {
		return nil, err
	}
	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, s.toStatus("GetCart", err)
	}
	return &concessionsv1.GetCartResponse{Cart: presenter.Cart(c)}, nil
}

// AddItem добавляет позицию каталога.
func (s *ConcessionsService) AddItem(ctx context.Context, req *concessionsv1.AddItemRequest) (*concessionsv1.AddItemResponse, error) {
	cartID, err := requireCartID(req.GetCartId())
	if err != nil {
		return nil, err
	}
	c, err := s.carts.AddItem(ctx, cartID, req.MenuItemId)
	if err != nil {
		return nil, s.toStatus("AddItem", err)
	}
	return &concessionsv1.AddItemResponse{Cart: presenter.Cart(c)}, nil
}

// RemoveItem удаляет запись по индексу.
func (s *ConcessionsService) RemoveItem(ctx context.Context, req *concessionsv1.RemoveItemRequest) (*concessionsv1.RemoveItemResponse, error) {
	cartID, err := requireCartID(req.GetCartId())
	if err != nil {
		return nil, err
	}
	c, err := s.carts.RemoveItem(ctx, cartID, int(req.Index))
	if err != nil {
		return nil, s.toStatus("RemoveItem", err)
	}
	return &concessionsv1.RemoveItemResponse{Cart: presenter.Cart(c)}, nil
}

// SetSeatNumber сохраняет номер места.
func (s *ConcessionsService) SetSeatNumber(ctx context.Context, req *concessionsv1.SetSeatNumberRequest) (*concessionsv1.SetSeatNumberResponse, error) {
	cartID, err := requireCartID(req.GetCartId())
	if err != nil {
		return nil, err
	}
	c, err := s.carts.SetSeatNumber(ctx, cartID, req.SeatNumber)
	if err != nil {
		return nil, s.toStatus("SetSeatNumber", err)
	}
	return &concessionsv1.SetSeatNumberResponse{Cart: presenter.Cart(c)}, nil
}

// Checkout выдаёт чек. С metadata idempotency-key повтор возвращает первый результат.
func (s *ConcessionsService) Checkout(ctx context.Context, req *concessionsv1.CheckoutRequest) (*concessionsv1.CheckoutResponse, error) {
	cartID, err := requireCartID(req.GetCartId())
	if err != nil {
		return nil, err
	}

	resp, err := idempotency.Do(ctx, s.guard, concessionsv1.ConcessionsService_Checkout_FullMethodName, readIdempotencyKey(ctx), req,
		func(ctx context.Context) (*concessionsv1.CheckoutResponse, error) {
			receipt, err := s.carts.Checkout(ctx, cartID)
			if err != nil {
				return nil, err
			}
			out := &concessionsv1.CheckoutResponse{Receipt: presenter.Receipt(receipt)}
			if c, getErr := s.carts.Get(ctx, cartID); getErr == nil {
				out.Cart = presenter.Cart(c)
			}
			return out, nil
		})
	if err != nil {
		return nil, s.toStatus("Checkout", err)
	}
	return resp, nil
}

// CloseCart закрывает сессию.
func (s *ConcessionsService) CloseCart(ctx context.Context, req *concessionsv1.CloseCartRequest) (*concessionsv1.CloseCartResponse, error) {
	cartID, err := requireCartID(req.GetCartId())
	if err != nil {
		return nil, err
	}
	if err := s.carts.Close(ctx, cartID); err != nil {
		return nil, s.toStatus("CloseCart", err)
	}
	return &concessionsv1.CloseCartResponse{}, nil
}

func requireCartID(cartID string) (string, error) {
	cartID = strings.TrimSpace(cartID)
	if cartID == "" {
		return "", status.Error(codes.InvalidArgument, "cart_id is required")
	}
	return cartID, nil
}

func readIdempotencyKey(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, value := range md.Get(IdempotencyKeyHeader) {
		if key := strings.TrimSpace(value); key != "" {
			return key
		}
	}
	return ""
}

// StatusCode сопоставляет доменную ошибку коду gRPC.
func StatusCode(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, domain.ErrInvalidIndex):
		return codes.InvalidArgument
	case errors.Is(err, domain.ErrMissingSeatNumber):
		return codes.FailedPrecondition
	case errors.Is(err, domain.ErrCartNotFound), errors.Is(err, domain.ErrMenuItemNotFound):
		return codes.NotFound
	case errors.Is(err, domain.ErrCartVersionConflict), errors.Is(err, domain.ErrIdempotencyInProgress):
		return codes.Aborted
	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		return codes.AlreadyExists
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	default:
		return codes.Internal
	}
}

func (s *ConcessionsService) toStatus(method string, err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}

	code := StatusCode(err)
	if code == codes.Internal {
		s.logger.WithError(err).WithField("method", method).Error("request failed")
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, err.Error())
}
