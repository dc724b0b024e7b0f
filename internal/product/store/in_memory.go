package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	perrors "github.com/loja/cadastroprodutos/internal/product/errors"
)

// InMemoryStore implements ProductStore using a map guarded by a mutex.
type InMemoryStore struct {
	mu       sync.RWMutex
	products map[int64]Product
	lastID   int64
	now      func() time.Time
}

// NewInMemoryStore creates an empty store. IDs start at 1.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		products: make(map[int64]Product),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *InMemoryStore) Create(_ context.Context, product Product) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	now := s.now()
	product.ID = s.lastID
	product.CreatedAt = now
	product.UpdatedAt = now
	s.products[product.ID] = product

	return &product, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id int64) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, perrors.ErrProductNotFound
	}
	return &p, nil
}

func (s *InMemoryStore) FindByIDs(_ context.Context, ids []int64) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	list := make([]Product, 0, len(sorted))
	for _, id := range sorted {
		if p, ok := s.products[id]; ok {
			list = append(list, p)
		}
	}
	return list, nil
}

func (s *InMemoryStore) FindAll(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sorted(), nil
}

func (s *InMemoryStore) FindPage(_ context.Context, offset, limit int) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.sorted()
	if offset >= len(all) {
		return []Product{}, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}

func (s *InMemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.products)), nil
}

func (s *InMemoryStore) UpdateQuantity(_ context.Context, id int64, quantity int32) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, perrors.ErrProductNotFound
	}
	p.Quantity = quantity
	p.UpdatedAt = s.now()
	s.products[id] = p
	return &p, nil
}

func (s *InMemoryStore) DeleteByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return perrors.ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *InMemoryStore) Ping(context.Context) error {
	return nil
}

// sorted returns all products ordered by id. Callers hold the lock.
func (s *InMemoryStore) sorted() []Product {
	list := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		list = append(list, p)
	}
	slices.SortFunc(list, func(a, b Product) int { return cmp.Compare(a.ID, b.ID) })
	return list
}
