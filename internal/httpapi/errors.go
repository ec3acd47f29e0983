package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/concessions/internal/domain"
)

const (
	codeBadRequest          = "bad_request"
	codeRateLimited         = "rate_limited"
	codeIdempotencyMismatch = "idempotency_key_mismatch"
	codeIdempotencyBusy     = "idempotency_in_progress"
	codeInternal            = "internal"
)

// ErrorBody — тело ответа с ошибкой.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorBody{Error: ErrorDetail{Code: code, Message: message}})
}

// statusFor сопоставляет ошибку HTTP-статусу и коду тела ответа.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidIndex):
		return http.StatusBadRequest, domain.CodeInvalidIndex
	case errors.Is(err, domain.ErrMissingSeatNumber):
		return http.StatusUnprocessableEntity, domain.CodeMissingSeatNumber
	case errors.Is(err, domain.ErrCartNotFound):
		return http.StatusNotFound, domain.CodeCartNotFound
	case errors.Is(err, domain.ErrMenuItemNotFound):
		return http.StatusNotFound, domain.CodeMenuItemNotFound
	case errors.Is(err, domain.ErrCartVersionConflict):
		return http.StatusConflict, domain.CodeCartVersionConflict
	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		return http.StatusConflict, codeIdempotencyMismatch
	case errors.Is(err, domain.ErrIdempotencyInProgress):
		return http.StatusConflict, codeIdempotencyBusy
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, codeInternal
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

func (h *handler) fail(c *gin.Context, err error) {
	status, code := statusFor(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		message = "internal error"
	}
	abortWithError(c, status, code, message)
}
