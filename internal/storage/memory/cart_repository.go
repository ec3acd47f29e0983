package memory

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/concessions/internal/domain"
)

// cartRepositoryInMemory хранит корзины активных сессий в памяти процесса.
type cartRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]*domain.Cart
}

// NewCartRepository возвращает in-memory репозиторий корзин.
func NewCartRepository() domain.CartRepository {
	return &cartRepositoryInMemory{
		items: make(map[string]*domain.Cart),
	}
}

// Create сохраняет новую корзину, если ID ещё не занят.
func (r *cartRepositoryInMemory) Create(cart *domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[cart.ID]; exists {
		return domain.ErrCartVersionConflict
	}
	// Храним копию: вызывающий код продолжает работать со своим экземпляром.
	r.items[cart.ID] = cart.Clone()
	return nil
}

// Get возвращает копию корзины или ErrCartNotFound.
func (r *cartRepositoryInMemory) Get(id string) (*domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.items[id]
	if !ok {
		return nil, domain.ErrCartNotFound
	}
	return cart.Clone(), nil
}

// Save перезаписывает корзину, проверяя версию.
func (r *cartRepositoryInMemory) Save(cart *domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[cart.ID]
	if !ok {
		return domain.ErrCartNotFound
	}
	if current.Version != cart.Version {
		return domain.ErrCartVersionConflict
	}

	cart.Version++
	r.items[cart.ID] = cart.Clone()
	return nil
}

// Delete удаляет корзину.
func (r *cartRepositoryInMemory) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrCartNotFound
	}
	delete(r.items, id)
	return nil
}

// DeleteIdle удаляет корзины с UpdatedAt не позже before.
func (r *cartRepositoryInMemory) DeleteIdle(before time.Time, limit int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, cart := range r.items {
		if cart.UpdatedAt.After(before) {
			continue
		}
		delete(r.items, id)
		removed++
		if limit > 0 && removed >= limit {
			break
		}
	}
	return removed, nil
}

// Count возвращает количество корзин.
func (r *cartRepositoryInMemory) Count() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items), nil
}

var _ domain.CartRepository = (*cartRepositoryInMemory)(nil)
