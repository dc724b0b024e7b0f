package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	perrors "github.com/loja/cadastroprodutos/internal/product/errors"
)

const productColumns = "id, name, description, price, quantity, created_at, updated_at"

const (
	createQuery = `INSERT INTO products (name, description, price, quantity)
VALUES ($1, $2, $3, $4)
RETURNING ` + productColumns

	findByIDQuery  = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	findByIDsQuery = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1) ORDER BY id`
	findAllQuery   = `SELECT ` + productColumns + ` FROM products ORDER BY id`
	findPageQuery  = `SELECT ` + productColumns + ` FROM products ORDER BY id LIMIT $1 OFFSET $2`
	countQuery     = `SELECT count(*) FROM products`

	updateQuantityQuery = `UPDATE products SET quantity = $2, updated_at = now()
WHERE id = $1
RETURNING ` + productColumns

	deleteQuery = `DELETE FROM products WHERE id = $1`
)

// PgStore implements ProductStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of ProductStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

func (p *PgStore) Create(ctx context.Context, product Product) (*Product, error) {
	rows, _ := p.db.Query(ctx, createQuery, product.Name, product.Description, product.Price, product.Quantity)
	created, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Product])
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &created, nil
}

func (p *PgStore) FindByID(ctx context.Context, id int64) (*Product, error) {
	rows, _ := p.db.Query(ctx, findByIDQuery, id)
	product, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Product])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return &product, nil
}

func (p *PgStore) FindByIDs(ctx context.Context, ids []int64) ([]Product, error) {
	return p.collect(ctx, "failed to find products by IDs", findByIDsQuery, ids)
}

func (p *PgStore) FindAll(ctx context.Context) ([]Product, error) {
	return p.collect(ctx, "failed to find all products", findAllQuery)
}

func (p *PgStore) FindPage(ctx context.Context, offset, limit int) ([]Product, error) {
	return p.collect(ctx, "failed to find products page", findPageQuery, limit, offset)
}

func (p *PgStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := p.db.QueryRow(ctx, countQuery).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

func (p *PgStore) UpdateQuantity(ctx context.Context, id int64, quantity int32) (*Product, error) {
	rows, _ := p.db.Query(ctx, updateQuantityQuery, id, quantity)
	product, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Product])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product quantity: %w", err)
	}
	return &product, nil
}

func (p *PgStore) DeleteByID(ctx context.Context, id int64) error {
	tag, err := p.db.Exec(ctx, deleteQuery, id)
	if err != nil {
		return fmt.Errorf("failed to delete product by ID: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return perrors.ErrProductNotFound
	}
	return nil
}

func (p *PgStore) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

// collect runs a multi-row query. The result is never nil.
func (p *PgStore) collect(ctx context.Context, errMsg, query string, args ...any) ([]Product, error) {
	rows, _ := p.db.Query(ctx, query, args...)
	products, err := pgx.CollectRows(rows, pgx.RowToStructByName[Product])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errMsg, err)
	}
	return products, nil
}
