package domain

import "errors"

var (
	// ErrInvalidIndex — удаление позиции по индексу, которого нет в корзине.
	ErrInvalidIndex = errors.New("cart entry index out of range")
	// ErrMissingSeatNumber — checkout без номера места (пусто или одни пробелы).
	ErrMissingSeatNumber = errors.New("seat number is required")
	// ErrCartNotFound возвращается, если корзина не найдена в репозитории.
	ErrCartNotFound = errors.New("cart not found")
	// ErrCartVersionConflict сигнализирует о конфликте версий при сохранении корзины.
	ErrCartVersionConflict = errors.New("cart version conflict")
	// ErrMenuItemNotFound — позиции с таким id нет в каталоге.
	ErrMenuItemNotFound = errors.New("menu item not found")

	// Ошибки валидации каталога.
	ErrCatalogEmpty          = errors.New("catalog must contain at least one item")
	ErrMenuItemIDInvalid     = errors.New("menu item id must be positive")
	ErrMenuItemIDDuplicate   = errors.New("menu item id must be unique")
	ErrMenuItemNameRequired  = errors.New("menu item name is required")
	ErrMenuItemPriceNegative = errors.New("menu item price must be non-negative")
	ErrMenuItemPriceScale    = errors.New("menu item price must have at most two decimal places")

	// Ошибки идемпотентности.
	ErrIdempotencyKeyRequired         = errors.New("idempotency key is required")
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	ErrIdempotencyKeyAlreadyExists    = errors.New("idempotency key already exists")
	ErrIdempotencyHashMismatch        = errors.New("idempotency key reused with different request")
	ErrIdempotencyKeyNotFound         = errors.New("idempotency key not found")
	ErrIdempotencyInProgress          = errors.New("request with the same idempotency key is in progress")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий корзины.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrCartVersionConflict)
}

// IsIdempotencyConflict проверяет, что ключ идемпотентности уже занят.
func IsIdempotencyConflict(err error) bool {
	return errors.Is(err, ErrIdempotencyKeyAlreadyExists) || errors.Is(err, ErrIdempotencyHashMismatch)
}

// Коды ошибок, переживающие сериализацию (idempotency replay, HTTP-ответы).
const (
	CodeInvalidIndex        = "invalid_index"
	CodeMissingSeatNumber   = "missing_seat_number"
	CodeCartNotFound        = "cart_not_found"
	CodeMenuItemNotFound    = "menu_item_not_found"
	CodeCartVersionConflict = "cart_version_conflict"
)

var errorCodes = []struct {
	code string
	err  error
}{
	{CodeInvalidIndex, ErrInvalidIndex},
	{CodeMissingSeatNumber, ErrMissingSeatNumber},
	{CodeCartNotFound, ErrCartNotFound},
	{CodeMenuItemNotFound, ErrMenuItemNotFound},
	{CodeCartVersionConflict, ErrCartVersionConflict},
}

// ErrorCode возвращает стабильный код доменной ошибки или "" для прочих ошибок.
func ErrorCode(err error) string {
	for _, entry := range errorCodes {
		if errors.Is(err, entry.err) {
			return entry.code
		}
	}
	return ""
}

// ErrorForCode возвращает sentinel по коду из ErrorCode.
func ErrorForCode(code string) (error, bool) {
	for _, entry := range errorCodes {
		if entry.code == code {
			return entry.err, true
		}
	}
	return nil, false
}
