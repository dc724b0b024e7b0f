// Package store persists products.
package store

import (
	"context"
	"time"
)

// Product is a persisted catalog record. ID and timestamps are assigned by the store.
type Product struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Price       float64   `db:"price"`
	Quantity    int32     `db:"quantity"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// ProductStore defines the methods for managing products in the data store.
type ProductStore interface {
	// Create saves a new product. ID, CreatedAt and UpdatedAt of the argument are ignored.
	Create(ctx context.Context, product Product) (*Product, error)

	// FindByID returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int64) (*Product, error)

	// FindByIDs returns the products that exist among ids, ordered by id.
	FindByIDs(ctx context.Context, ids []int64) ([]Product, error)

	// FindAll returns every product ordered by id.
	FindAll(ctx context.Context) ([]Product, error)

	// FindPage returns at most limit products ordered by id, skipping the first offset.
	FindPage(ctx context.Context, offset, limit int) ([]Product, error)

	// Count returns the number of stored products.
	Count(ctx context.Context) (int64, error)

	// UpdateQuantity overwrites the quantity and refreshes UpdatedAt.
	// Returns ErrProductNotFound if no product exists with the given ID.
	UpdateQuantity(ctx context.Context, id int64, quantity int32) (*Product, error)

	// DeleteByID returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id int64) error

	// Ping reports whether the store can serve requests.
	Ping(ctx context.Context) error
}
