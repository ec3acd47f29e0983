package presenter

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/concessions/internal/domain"
)

func TestCart_DerivesTotalAndIndexes(t *testing.T) {
	cart := domain.NewCart("cart-1", time.Now())
	cart.AddItem(domain.MenuItem{ID: 1, Name: "Hot Dog", Price: decimal.RequireFromString("5.99")})
	cart.AddItem(domain.MenuItem{ID: 1, Name: "Hot Dog", Price: decimal.RequireFromString("5.99")})
	cart.AddItem(domain.MenuItem{ID: 6, Name: "Soda", Price: decimal.RequireFromString("3.99")})
	cart.SetSeatNumber(" B-4 ")
	cart.Version = 3

	view := Cart(cart)
	require.Len(t, view.Entries, 3)
	assert.Equal(t, "15.97", view.Total)
	assert.Equal(t, " B-4 ", view.SeatNumber)
	assert.Equal(t, int64(3), view.Version)
	for idx, entry := range view.Entries {
		assert.Equal(t, int32(idx), entry.Index)
	}
	assert.Equal(t, "3.99", view.Entries[2].Price)

	assert.Nil(t, Cart(nil))
}

func TestEmptyCartTotal(t *testing.T) {
	view := Cart(domain.NewCart("cart-2", time.Now()))
	assert.Equal(t, "0.00", view.Total)
	assert.NotNil(t, view.Entries)
}

func TestReceiptAndMenu(t *testing.T) {
	issued := time.Date(2026, 5, 1, 19, 5, 0, 0, time.UTC)
	view := Receipt(domain.Receipt{
		ID:         "r-1",
		CartID:     "cart-1",
		Total:      decimal.RequireFromString("4.5"),
		SeatNumber: "A-1",
		Lines:      []domain.ReceiptLine{{MenuItemID: 7, Name: "Peanuts", Price: decimal.RequireFromString("4.5")}},
		IssuedAt:   issued,
	})
	assert.Equal(t, "4.50", view.Total)
	assert.Equal(t, "2026-05-01T19:05:00Z", view.IssuedAt)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "4.50", view.Lines[0].Price)

	menu := Menu([]domain.MenuItem{{ID: 2, Name: "Cotton Candy", Price: decimal.RequireFromString("4.99"), Image: "cottoncandy.jpg"}})
	require.Len(t, menu, 1)
	assert.Equal(t, "4.99", menu[0].Price)
	assert.Equal(t, "cottoncandy.jpg", menu[0].Image)
}
