package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CartEntry — позиция меню, добавленная в корзину. Дубликаты хранятся отдельными записями.
type CartEntry struct {
	Item MenuItem
}

// Cart — состояние заказа одной сессии витрины.
//
// Сумма корзины нигде не хранится: Total всегда пересчитывается из entries.
// Поля entries и seatNumber закрыты, изменять их можно только операциями корзины.
type Cart struct {
	ID string
	// Version увеличивается репозиторием при каждом сохранении (optimistic locking).
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time

	entries    []CartEntry
	seatNumber string
}

// NewCart создаёт пустую корзину.
func NewCart(id string, now time.Time) *Cart {
	return &Cart{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddItem добавляет позицию в конец корзины. Операция не может завершиться ошибкой.
func (c *Cart) AddItem(item MenuItem) {
	c.entries = append(c.entries, CartEntry{Item: item})
}

// RemoveItem удаляет запись по индексу; последующие записи сдвигаются на одну позицию.
// Для индекса вне [0, len) возвращает ErrInvalidIndex и не меняет корзину.
func (c *Cart) RemoveItem(index int) (CartEntry, error) {
	if index < 0 || index >= len(c.entries) {
		return CartEntry{}, fmt.Errorf("%w: index %d, cart has %d entries", ErrInvalidIndex, index, len(c.entries))
	}

	removed := c.entries[index]
	next := make([]CartEntry, 0, len(c.entries)-1)
	next = append(next, c.entries[:index]...)
	next = append(next, c.entries[index+1:]...)
	c.entries = next

	return removed, nil
}

// SetSeatNumber сохраняет ввод без валидации; trim и проверка выполняются в Checkout.
func (c *Cart) SetSeatNumber(value string) {
	c.seatNumber = value
}

// SeatNumber возвращает номер места в том виде, в каком его ввели.
func (c *Cart) SeatNumber() string {
	return c.seatNumber
}

// Entries возвращает копию записей в порядке добавления.
func (c *Cart) Entries() []CartEntry {
	result := make([]CartEntry, len(c.entries))
	copy(result, c.entries)
	return result
}

// Len возвращает количество записей.
func (c *Cart) Len() int {
	return len(c.entries)
}

// Total возвращает сумму цен всех записей.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, entry := range c.entries {
		total = total.Add(entry.Item.Price)
	}
	return total
}

// Checkout формирует чек и сбрасывает корзину.
// Без номера места возвращает ErrMissingSeatNumber, состояние при этом не меняется.
func (c *Cart) Checkout() (Receipt, error) {
	seat := strings.TrimSpace(c.seatNumber)
	if seat == "" {
		return Receipt{}, ErrMissingSeatNumber
	}

	lines := make([]ReceiptLine, 0, len(c.entries))
	for _, entry := range c.entries {
		lines = append(lines, ReceiptLine{
			MenuItemID: entry.Item.ID,
			Name:       entry.Item.Name,
			Price:      entry.Item.Price,
		})
	}

	receipt := Receipt{
		CartID:     c.ID,
		Total:      c.Total().Round(2),
		SeatNumber: seat,
		Lines:      lines,
	}

	c.entries = nil
	c.seatNumber = ""

	return receipt, nil
}

// Reinstate возвращает в корзину записи и номер места снимка snapshot, сделанного до checkout.
// Записи снимка встают перед записями, добавленными после него; номер места,
// введённый после снимка, сохраняется.
func (c *Cart) Reinstate(snapshot *Cart) {
	if snapshot == nil {
		return
	}
	entries := make([]CartEntry, 0, len(snapshot.entries)+len(c.entries))
	entries = append(entries, snapshot.entries...)
	entries = append(entries, c.entries...)
	c.entries = entries

	if strings.TrimSpace(c.seatNumber) == "" {
		c.seatNumber = snapshot.seatNumber
	}
}

// Clone возвращает независимую копию корзины.
func (c *Cart) Clone() *Cart {
	clone := *c
	clone.entries = c.Entries()
	return &clone
}
