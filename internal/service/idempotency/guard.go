// Package idempotency защищает checkout от повторной обработки: результат первого
// запроса с ключом сохраняется и выдаётся повторно.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/concessions/internal/domain"
)

const defaultTTL = 24 * time.Hour

// FailurePayload — сохранённое описание ошибки первого запроса.
type FailurePayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ReplayedError возвращается при повторе запроса, первая попытка которого завершилась ошибкой.
// Unwrap отдаёт доменный sentinel по коду, поэтому errors.Is работает как для исходной ошибки.
type ReplayedError struct {
	Code    string
	Message string
}

func (e *ReplayedError) Error() string {
	if e.Message == "" {
		return "previous request with the same idempotency key failed"
	}
	return e.Message
}

// Unwrap возвращает sentinel по коду ошибки или nil, если код неизвестен.
func (e *ReplayedError) Unwrap() error {
	if err, ok := domain.ErrorForCode(e.Code); ok {
		return err
	}
	return nil
}

// Guard оборачивает обработчики запросов ключом идемпотентности.
type Guard struct {
	repo   domain.IdempotencyRepository
	ttl    time.Duration
	logger *log.Entry
	now    func() time.Time
}

// GuardOption настраивает Guard.
type GuardOption func(*Guard)

// WithTTL задаёт срок жизни ключа.
func WithTTL(ttl time.Duration) GuardOption {
	return func(g *Guard) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

// WithGuardLogger задаёт logger.
func WithGuardLogger(logger *log.Entry) GuardOption {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGuard создаёт Guard. Nil repo отключает идемпотентность.
func NewGuard(repo domain.IdempotencyRepository, options ...GuardOption) *Guard {
	g := &Guard{
		repo:   repo,
		ttl:    defaultTTL,
		logger: log.WithField("component", "idempotency-guard"),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(g)
	}
	return g
}

// RequestHash строит отпечаток запроса: sha256(scope + ":" + JSON(request)).
func RequestHash(scope string, request any) (string, error) {
	data, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("encode request for idempotency hash: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(scope))
	h.Write([]byte{':'})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Do выполняет handler не более одного раза для ключа key.
//
// Пустой key или Guard без репозитория — обычный вызов handler.
// Повтор с тем же запросом возвращает сохранённый результат; с другим запросом —
// ErrIdempotencyHashMismatch; пока первый запрос выполняется — ErrIdempotencyInProgress.
// Ошибки без доменного кода, конфликты версий и отсутствие номера места не сохраняются:
// ключ освобождается, и следующий повтор выполнится заново.
func Do[T any](ctx context.Context, g *Guard, scope, key string, request any, handler func(context.Context) (T, error)) (T, error) {
	var zero T

	key = strings.TrimSpace(key)
	if g == nil || g.repo == nil || key == "" {
		return handler(ctx)
	}

	hash, err := RequestHash(scope, request)
	if err != nil {
		return zero, err
	}

	record, err := g.repo.CreateProcessing(key, hash, g.now().Add(g.ttl))
	if err != nil {
		return replay[T](g, key, record, err)
	}

	result, runErr := handler(ctx)
	if runErr != nil {
		g.recordFailure(key, runErr)
		return zero, runErr
	}

	body, err := json.Marshal(result)
	if err != nil {
		g.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to encode idempotent response")
		g.release(key)
		return result, nil
	}
	if err := g.repo.MarkDone(key, body, 0); err != nil {
		g.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to store idempotent response")
	}
	return result, nil
}

func replay[T any](g *Guard, key string, record domain.IdempotencyRecord, createErr error) (T, error) {
	var zero T

	switch {
	case errors.Is(createErr, domain.ErrIdempotencyHashMismatch):
		return zero, domain.ErrIdempotencyHashMismatch
	case !errors.Is(createErr, domain.ErrIdempotencyKeyAlreadyExists):
		g.logger.WithError(createErr).WithField("idempotency_key", key).Error("failed to reserve idempotency key")
		return zero, fmt.Errorf("reserve idempotency key: %w", createErr)
	}

	switch record.Status {
	case domain.IdempotencyStatusProcessing:
		return zero, domain.ErrIdempotencyInProgress
	case domain.IdempotencyStatusDone:
		var result T
		if err := json.Unmarshal(record.ResponseBody, &result); err != nil {
			return zero, fmt.Errorf("decode cached idempotent response: %w", err)
		}
		return result, nil
	case domain.IdempotencyStatusFailed:
		var payload FailurePayload
		if len(record.ResponseBody) > 0 {
			_ = json.Unmarshal(record.ResponseBody, &payload)
		}
		return zero, &ReplayedError{Code: payload.Code, Message: payload.Message}
	default:
		return zero, fmt.Errorf("unknown idempotency status %q", record.Status)
	}
}

func (g *Guard) recordFailure(key string, runErr error) {
	if releasable(runErr) {
		g.release(key)
		return
	}
	code := domain.ErrorCode(runErr)

	body, err := json.Marshal(FailurePayload{Code: code, Message: runErr.Error()})
	if err != nil {
		g.release(key)
		return
	}
	if err := g.repo.MarkFailed(key, body, 0); err != nil {
		g.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to store idempotent failure")
	}
}

// releasable сообщает, что ошибка зависит от текущего состояния корзины или инфраструктуры
// и повтор с тем же ключом должен выполниться заново: после ввода места checkout пройдёт.
func releasable(err error) bool {
	switch domain.ErrorCode(err) {
	case "", domain.CodeCartVersionConflict, domain.CodeMissingSeatNumber:
		return true
	default:
		return false
	}
}

func (g *Guard) release(key string) {
	if err := g.repo.Delete(key); err != nil {
		g.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to release idempotency key")
	}
}
