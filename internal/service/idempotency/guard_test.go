package idempotency

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/concessions/internal/domain"
	"github.com/vladislavdragonenkov/concessions/internal/storage/memory"
)

type checkoutRequest struct {
	CartID string `json:"cart_id"`
}

type checkoutResult struct {
	ReceiptID string `json:"receipt_id"`
	Total     string `json:"total"`
}

func countingHandler(calls *int, result checkoutResult, err error) func(context.Context) (checkoutResult, error) {
	return func(context.Context) (checkoutResult, error) {
		*calls++
		if err != nil {
			return checkoutResult{}, err
		}
		return result, nil
	}
}

func TestDo_ReplaysSuccess(t *testing.T) {
	guard := NewGuard(memory.NewIdempotencyRepository())
	ctx := context.Background()
	req := checkoutRequest{CartID: "cart-1"}
	calls := 0
	handler := countingHandler(&calls, checkoutResult{ReceiptID: "r-1", Total: "12.50"}, nil)

	first, err := Do(ctx, guard, "checkout", "key-1", req, handler)
	require.NoError(t, err)
	second, err := Do(ctx, guard, "checkout", "key-1", req, handler)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestDo_ReplaysDomainFailure(t *testing.T) {
	guard := NewGuard(memory.NewIdempotencyRepository())
	ctx := context.Background()
	req := checkoutRequest{CartID: "cart-2"}
	calls := 0
	handler := countingHandler(&calls, checkoutResult{}, fmt.Errorf("checkout: %w", domain.ErrCartNotFound))

	_, err := Do(ctx, guard, "checkout", "key-2", req, handler)
	require.ErrorIs(t, err, domain.ErrCartNotFound)

	_, err = Do(ctx, guard, "checkout", "key-2", req, handler)
	require.ErrorIs(t, err, domain.ErrCartNotFound)
	var replayed *ReplayedError
	require.ErrorAs(t, err, &replayed)
	assert.Equal(t, domain.CodeCartNotFound, replayed.Code)
	assert.Contains(t, replayed.Error(), "cart not found")
	assert.Equal(t, 1, calls)
}

func TestDo_MissingSeatIsRetriedAfterSeatIsSet(t *testing.T) {
	repo := memory.NewIdempotencyRepository()
	guard := NewGuard(repo)
	ctx := context.Background()
	req := checkoutRequest{CartID: "cart-seat"}

	calls := 0
	_, err := Do(ctx, guard, "checkout", "key-seat", req, countingHandler(&calls, checkoutResult{}, domain.ErrMissingSeatNumber))
	require.ErrorIs(t, err, domain.ErrMissingSeatNumber)

	_, err = repo.Get("key-seat")
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyNotFound)

	result, err := Do(ctx, guard, "checkout", "key-seat", req, countingHandler(&calls, checkoutResult{ReceiptID: "r-seat"}, nil))
	require.NoError(t, err)
	assert.Equal(t, "r-seat", result.ReceiptID)
	assert.Equal(t, 2, calls)
}

func TestDo_ReleasesKeyOnTransientFailure(t *testing.T) {
	guard := NewGuard(memory.NewIdempotencyRepository())
	ctx := context.Background()
	req := checkoutRequest{CartID: "cart-3"}

	calls := 0
	_, err := Do(ctx, guard, "checkout", "key-3", req, countingHandler(&calls, checkoutResult{}, domain.ErrOutboxPublish))
	require.ErrorIs(t, err, domain.ErrOutboxPublish)

	result, err := Do(ctx, guard, "checkout", "key-3", req, countingHandler(&calls, checkoutResult{ReceiptID: "r-3"}, nil))
	require.NoError(t, err)
	assert.Equal(t, "r-3", result.ReceiptID)
	assert.Equal(t, 2, calls)
}

func TestDo_HashMismatchAndInProgress(t *testing.T) {
	repo := memory.NewIdempotencyRepository()
	guard := NewGuard(repo)
	ctx := context.Background()

	calls := 0
	_, err := Do(ctx, guard, "checkout", "key-4", checkoutRequest{CartID: "a"}, countingHandler(&calls, checkoutResult{ReceiptID: "r"}, nil))
	require.NoError(t, err)

	_, err = Do(ctx, guard, "checkout", "key-4", checkoutRequest{CartID: "b"}, countingHandler(&calls, checkoutResult{}, nil))
	assert.ErrorIs(t, err, domain.ErrIdempotencyHashMismatch)

	// Тот же ключ в другой области — другой hash.
	_, err = Do(ctx, guard, "other", "key-4", checkoutRequest{CartID: "a"}, countingHandler(&calls, checkoutResult{}, nil))
	assert.ErrorIs(t, err, domain.ErrIdempotencyHashMismatch)

	hash, err := RequestHash("checkout", checkoutRequest{CartID: "busy"})
	require.NoError(t, err)
	_, err = repo.CreateProcessing("key-5", hash, guard.now().Add(guard.ttl))
	require.NoError(t, err)

	_, err = Do(ctx, guard, "checkout", "key-5", checkoutRequest{CartID: "busy"}, countingHandler(&calls, checkoutResult{}, nil))
	assert.ErrorIs(t, err, domain.ErrIdempotencyInProgress)
	assert.Equal(t, 1, calls)
}

func TestDo_WithoutKeyOrRepository(t *testing.T) {
	ctx := context.Background()
	calls := 0
	handler := countingHandler(&calls, checkoutResult{ReceiptID: "r"}, nil)

	_, err := Do(ctx, NewGuard(memory.NewIdempotencyRepository()), "checkout", "  ", checkoutRequest{}, handler)
	require.NoError(t, err)
	_, err = Do(ctx, NewGuard(nil), "checkout", "key", checkoutRequest{}, handler)
	require.NoError(t, err)
	_, err = Do[checkoutResult](ctx, nil, "checkout", "key", checkoutRequest{}, handler)
	require.NoError(t, err)

	assert.Equal(t, 3, calls)
}

func TestRequestHash_Deterministic(t *testing.T) {
	a, err := RequestHash("checkout", checkoutRequest{CartID: "x"})
	require.NoError(t, err)
	b, err := RequestHash("checkout", checkoutRequest{CartID: "x"})
	require.NoError(t, err)
	c, err := RequestHash("checkout", checkoutRequest{CartID: "y"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)

	_, err = RequestHash("checkout", func() {})
	assert.Error(t, err)
}

func TestReplayedError_UnknownCode(t *testing.T) {
	err := &ReplayedError{Code: "weird"}
	assert.Nil(t, errors.Unwrap(err))
	assert.NotEmpty(t, err.Error())
}
