package domain

import "time"

// IdempotencyStatus — стадия ключа checkout.
//
// Ключ создаётся в processing при первом запросе и переходит в done (чек выдан)
// или failed (отказ, который нужно повторять клиенту). Отказы, зависящие от
// состояния корзины, в failed не попадают: ключ удаляется и повтор выполняется заново.
type IdempotencyStatus string

const (
	IdempotencyStatusProcessing IdempotencyStatus = "processing"
	IdempotencyStatusDone       IdempotencyStatus = "done"
	IdempotencyStatusFailed     IdempotencyStatus = "failed"
)

// Valid проверяет значение, прочитанное из хранилища.
func (s IdempotencyStatus) Valid() bool {
	switch s {
	case IdempotencyStatusProcessing, IdempotencyStatusDone, IdempotencyStatusFailed:
		return true
	default:
		return false
	}
}

// IdempotencyRecord — ключ checkout с отпечатком запроса и сохранённым ответом.
type IdempotencyRecord struct {
	Key string
	// RequestHash — sha256 от области вызова и тела запроса; другой запрос с тем же ключом отклоняется.
	RequestHash string
	// ResponseBody — JSON ответа checkout для done или описание отказа для failed.
	ResponseBody []byte
	// HTTPStatus Guard оставляет нулевым: статус ответа выводится из кода ошибки при повторе.
	HTTPStatus int
	Status     IdempotencyStatus
	// TTLAt — момент, после которого запись удаляет cleanup worker.
	TTLAt     time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
