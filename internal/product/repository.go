package product

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"recogym/internal/apperr"
	"recogym/internal/db"
)

const productColumns = `id, name, price, active, created_at`

type Repository interface {
	WithTx(tx *sqlx.Tx) Repository
	Create(ctx context.Context, p *Product) (*Product, error)
	Get(ctx context.Context, id int) (*Product, error)
	List(ctx context.Context, includeInactive bool) ([]Product, error)
	Update(ctx context.Context, p *Product) (*Product, error)
}

type repository struct {
	q db.Querier
}

func NewRepository(conn *sqlx.DB) Repository {
	return &repository{q: conn}
}

func (r *repository) WithTx(tx *sqlx.Tx) Repository {
	if tx == nil {
		return r
	}
	return &repository{q: tx}
}

func (r *repository) Create(ctx context.Context, p *Product) (*Product, error) {
	query := `
		INSERT INTO products (name, price, active)
		VALUES ($1, $2, $3)
		RETURNING ` + productColumns

	var created Product
	if err := r.q.QueryRowxContext(ctx, query, p.Name, p.Price, p.Active).StructScan(&created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) Get(ctx context.Context, id int) (*Product, error) {
	var p Product
	err := r.q.GetContext(ctx, &p, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("product %d not found", id)
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) List(ctx context.Context, includeInactive bool) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE ($1 OR active) ORDER BY name, id`

	products := []Product{}
	if err := r.q.SelectContext(ctx, &products, query, includeInactive); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) Update(ctx context.Context, p *Product) (*Product, error) {
	query := `
		UPDATE products SET name = $2, price = $3, active = $4
		WHERE id = $1
		RETURNING ` + productColumns

	var updated Product
	if err := r.q.QueryRowxContext(ctx, query, p.ID, p.Name, p.Price, p.Active).StructScan(&updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("product %d not found", p.ID)
		}
		return nil, err
	}
	return &updated, nil
}
