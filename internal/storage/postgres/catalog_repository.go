package postgres

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/concessions/internal/domain"
)

// CatalogRepository читает активные позиции меню из таблицы menu_items.
type CatalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository создаёт PostgreSQL-источник каталога.
func NewCatalogRepository(store *Store) *CatalogRepository {
	return &CatalogRepository{db: store.DB()}
}

// LoadCatalog загружает активные позиции в порядке position, id.
func (r *CatalogRepository) LoadCatalog() (*domain.Catalog, error) {
	ctx, cancel := withTimeout()
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, price::text, description, image
		FROM menu_items
		WHERE active
		ORDER BY position, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query menu items: %w", err)
	}
	defer rows.Close()

	var items []domain.MenuItem
	for rows.Next() {
		var (
			item     domain.MenuItem
			priceRaw string
		)
		if err := rows.Scan(&item.ID, &item.Name, &priceRaw, &item.Description, &item.Image); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		item.Price, err = decimal.NewFromString(priceRaw)
		if err != nil {
			return nil, fmt.Errorf("parse price of menu item %d: %w", item.ID, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate menu items: %w", err)
	}

	return domain.NewCatalog(items)
}

var _ domain.CatalogSource = (*CatalogRepository)(nil)
