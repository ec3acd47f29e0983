package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MenuItem — позиция меню. Значения неизменяемы после загрузки каталога.
type MenuItem struct {
	ID          int64
	Name        string
	Price       decimal.Decimal
	Description string
	// Image — непрозрачная ссылка на картинку для витрины.
	Image string
}

// Validate проверяет инварианты отдельной позиции.
func (m MenuItem) Validate() []error {
	var errs []error

	if m.ID <= 0 {
		errs = append(errs, ErrMenuItemIDInvalid)
	}
	if m.Name == "" {
		errs = append(errs, ErrMenuItemNameRequired)
	}
	if m.Price.IsNegative() {
		errs = append(errs, ErrMenuItemPriceNegative)
	}
	if !m.Price.Equal(m.Price.Round(2)) {
		errs = append(errs, ErrMenuItemPriceScale)
	}

	return errs
}

// Catalog — фиксированный набор позиций меню на время жизни процесса.
type Catalog struct {
	items []MenuItem
	byID  map[int64]int
}

// NewCatalog проверяет позиции и собирает неизменяемый каталог.
func NewCatalog(items []MenuItem) (*Catalog, error) {
	if len(items) == 0 {
		return nil, ErrCatalogEmpty
	}

	c := &Catalog{
		items: make([]MenuItem, len(items)),
		byID:  make(map[int64]int, len(items)),
	}
	copy(c.items, items)

	for idx, item := range c.items {
		if errs := item.Validate(); len(errs) > 0 {
			return nil, fmt.Errorf("menu item %d (%q): %w", item.ID, item.Name, errs[0])
		}
		if _, exists := c.byID[item.ID]; exists {
			return nil, fmt.Errorf("menu item %d: %w", item.ID, ErrMenuItemIDDuplicate)
		}
		c.byID[item.ID] = idx
	}

	return c, nil
}

// Items возвращает копию позиций в порядке каталога.
func (c *Catalog) Items() []MenuItem {
	result := make([]MenuItem, len(c.items))
	copy(result, c.items)
	return result
}

// Lookup возвращает позицию по id или ErrMenuItemNotFound.
func (c *Catalog) Lookup(id int64) (MenuItem, error) {
	idx, ok := c.byID[id]
	if !ok {
		return MenuItem{}, fmt.Errorf("menu item %d: %w", id, ErrMenuItemNotFound)
	}
	return c.items[idx], nil
}

// Len возвращает количество позиций.
func (c *Catalog) Len() int {
	return len(c.items)
}
