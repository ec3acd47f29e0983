// Package presenter переводит доменные типы в сообщения concessions.v1.
// Используется обоими транспортами: gRPC и HTTP.
package presenter

import (
	"time"

	"github.com/vladislavdragonenkov/concessions/internal/domain"
	concessionsv1 "github.com/vladislavdragonenkov/concessions/proto/concessions/v1"
)

const moneyPlaces = 2

// MenuItem конвертирует позицию каталога.
func MenuItem(item domain.MenuItem) *concessionsv1.MenuItem {
	return &concessionsv1.MenuItem{
		Id:          item.ID,
		Name:        item.Name,
		Price:       item.Price.StringFixed(moneyPlaces),
		Description: item.Description,
		Image:       item.Image,
	}
}

// Menu конвертирует каталог.
func Menu(items []domain.MenuItem) []*concessionsv1.MenuItem {
	out := make([]*concessionsv1.MenuItem, 0, len(items))
	for _, item := range items {
		out = append(out, MenuItem(item))
	}
	return out
}

// Cart строит представление корзины; Total вычисляется заново из позиций.
func Cart(cart *domain.Cart) *concessionsv1.Cart {
	if cart == nil {
		return nil
	}

	entries := cart.Entries()
	view := &concessionsv1.Cart{
		Id:         cart.ID,
		Entries:    make([]*concessionsv1.CartEntry, 0, len(entries)),
		Total:      cart.Total().StringFixed(moneyPlaces),
		SeatNumber: cart.SeatNumber(),
		Version:    cart.Version,
	}
	for idx, entry := range entries {
		view.Entries = append(view.Entries, &concessionsv1.CartEntry{
			Index:      int32(idx), //nolint:gosec // корзина одной сессии не приближается к MaxInt32
			MenuItemId: entry.Item.ID,
			Name:       entry.Item.Name,
			Price:      entry.Item.Price.StringFixed(moneyPlaces),
		})
	}
	return view
}

// Receipt конвертирует чек.
func Receipt(receipt domain.Receipt) *concessionsv1.Receipt {
	view := &concessionsv1.Receipt{
		Id:         receipt.ID,
		CartId:     receipt.CartID,
		Total:      receipt.Total.StringFixed(moneyPlaces),
		SeatNumber: receipt.SeatNumber,
		Lines:      make([]*concessionsv1.ReceiptLine, 0, len(receipt.Lines)),
		IssuedAt:   receipt.IssuedAt.UTC().Format(time.RFC3339),
	}
	for _, line := range receipt.Lines {
		view.Lines = append(view.Lines, &concessionsv1.ReceiptLine{
			MenuItemId: line.MenuItemID,
			Name:       line.Name,
			Price:      line.Price.StringFixed(moneyPlaces),
		})
	}
	return view
}
