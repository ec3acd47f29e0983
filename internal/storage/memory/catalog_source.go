package memory

import (
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/concessions/internal/domain"
)

// DefaultMenu — меню стадиона, которое используется без внешнего хранилища.
func DefaultMenu() []domain.MenuItem {
	return []domain.MenuItem{
		{ID: 1, Name: "Hot Dog", Price: decimal.RequireFromString("5.99"), Description: "Classic ballpark frank on a toasted bun", Image: "hotdog.jpg"},
		{ID: 2, Name: "Cotton Candy", Price: decimal.RequireFromString("4.99"), Description: "Freshly spun pink and blue sugar", Image: "cottoncandy.jpg"},
		{ID: 3, Name: "Popcorn", Price: decimal.RequireFromString("6.99"), Description: "Buttered popcorn in a souvenir bucket", Image: "popcorn.jpg"},
		{ID: 4, Name: "Pizza Slice", Price: decimal.RequireFromString("7.99"), Description: "Pepperoni slice, served hot", Image: "pizza.jpg"},
		{ID: 5, Name: "Hamburger", Price: decimal.RequireFromString("8.99"), Description: "Quarter-pound burger with cheese", Image: "hamburger.jpg"},
		{ID: 6, Name: "Soda", Price: decimal.RequireFromString("3.99"), Description: "Large fountain drink", Image: "soda.jpg"},
		{ID: 7, Name: "Peanuts", Price: decimal.RequireFromString("4.50"), Description: "Roasted peanuts in the shell", Image: "peanuts.jpg"},
		{ID: 8, Name: "Nachos", Price: decimal.RequireFromString("6.99"), Description: "Tortilla chips with warm cheese sauce", Image: "nachos.jpg"},
	}
}

// CatalogSource отдаёт фиксированный список позиций.
type CatalogSource struct {
	items []domain.MenuItem
}

// NewCatalogSource создаёт источник каталога; пустой items означает DefaultMenu.
func NewCatalogSource(items []domain.MenuItem) *CatalogSource {
	if len(items) == 0 {
		items = DefaultMenu()
	}
	return &CatalogSource{items: append([]domain.MenuItem(nil), items...)}
}

// LoadCatalog валидирует позиции и строит каталог.
func (s *CatalogSource) LoadCatalog() (*domain.Catalog, error) {
	return domain.NewCatalog(s.items)
}

var _ domain.CatalogSource = (*CatalogSource)(nil)
