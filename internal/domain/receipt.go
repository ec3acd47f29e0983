package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptLine — строка чека.
type ReceiptLine struct {
	MenuItemID int64
	Name       string
	Price      decimal.Decimal
}

// Receipt — неизменяемый результат успешного checkout.
type Receipt struct {
	ID         string
	CartID     string
	Total      decimal.Decimal
	SeatNumber string
	Lines      []ReceiptLine
	IssuedAt   time.Time
}

// ReceiptPayload — JSON-представление чека в outbox и брокере.
type ReceiptPayload struct {
	ReceiptID  string               `json:"receipt_id"`
	CartID     string               `json:"cart_id"`
	Total      string               `json:"total"`
	SeatNumber string               `json:"seat_number"`
	Lines      []ReceiptLinePayload `json:"lines"`
	IssuedAt   time.Time            `json:"issued_at"`
}

// ReceiptLinePayload — строка чека в JSON.
type ReceiptLinePayload struct {
	MenuItemID int64  `json:"menu_item_id"`
	Name       string `json:"name"`
	Price      string `json:"price"`
}

// MarshalReceipt кодирует чек для outbox.
func MarshalReceipt(r Receipt) ([]byte, error) {
	payload := ReceiptPayload{
		ReceiptID:  r.ID,
		CartID:     r.CartID,
		Total:      r.Total.StringFixed(2),
		SeatNumber: r.SeatNumber,
		Lines:      make([]ReceiptLinePayload, 0, len(r.Lines)),
		IssuedAt:   r.IssuedAt.UTC(),
	}
	for _, line := range r.Lines {
		payload.Lines = append(payload.Lines, ReceiptLinePayload{
			MenuItemID: line.MenuItemID,
			Name:       line.Name,
			Price:      line.Price.StringFixed(2),
		})
	}
	return json.Marshal(payload)
}

// UnmarshalReceipt разбирает чек из JSON, записанного MarshalReceipt.
func UnmarshalReceipt(data []byte) (Receipt, error) {
	var payload ReceiptPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Receipt{}, fmt.Errorf("decode receipt payload: %w", err)
	}

	total, err := decimal.NewFromString(payload.Total)
	if err != nil {
		return Receipt{}, fmt.Errorf("decode receipt total %q: %w", payload.Total, err)
	}

	receipt := Receipt{
		ID:         payload.ReceiptID,
		CartID:     payload.CartID,
		Total:      total,
		SeatNumber: payload.SeatNumber,
		Lines:      make([]ReceiptLine, 0, len(payload.Lines)),
		IssuedAt:   payload.IssuedAt,
	}
	for idx, line := range payload.Lines {
		price, err := decimal.NewFromString(line.Price)
		if err != nil {
			return Receipt{}, fmt.Errorf("decode receipt line[%d] price %q: %w", idx, line.Price, err)
		}
		receipt.Lines = append(receipt.Lines, ReceiptLine{
			MenuItemID: line.MenuItemID,
			Name:       line.Name,
			Price:      price,
		})
	}

	return receipt, nil
}
