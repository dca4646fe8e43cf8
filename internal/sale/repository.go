package sale

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"recogym/internal/apperr"
	"recogym/internal/db"
)

const saleColumns = `id, payment_method, client_name, observation, total, created_at`

type Repository interface {
	WithTx(tx *sqlx.Tx) Repository
	Insert(ctx context.Context, s *Sale) (*Sale, error)
	InsertItem(ctx context.Context, item *Item) (*Item, error)
	Get(ctx context.Context, id int) (*Sale, error)
	Items(ctx context.Context, saleID int) ([]Item, error)
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

func (r *repository) Insert(ctx context.Context, s *Sale) (*Sale, error) {
	query := `
		INSERT INTO sales (payment_method, client_name, observation, total)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + saleColumns

	var created Sale
	err := r.q.QueryRowxContext(ctx, query, s.PaymentMethod, s.ClientName, s.Observation, s.Total).StructScan(&created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) InsertItem(ctx context.Context, item *Item) (*Item, error) {
	query := `
		INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	created := *item
	err := r.q.QueryRowxContext(ctx, query,
		item.SaleID, item.ProductID, item.Quantity, item.UnitPrice, item.Subtotal,
	).Scan(&created.ID)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) Get(ctx context.Context, id int) (*Sale, error) {
	var s Sale
	if err := r.q.GetContext(ctx, &s, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("sale %d not found", id)
		}
		return nil, err
	}
	return &s, nil
}

func (r *repository) Items(ctx context.Context, saleID int) ([]Item, error) {
	query := `
		SELECT i.id, i.sale_id, i.product_id, p.name AS product_name,
		       i.quantity, i.unit_price, i.subtotal
		FROM sale_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.sale_id = $1
		ORDER BY i.id
	`

	items := []Item{}
	if err := r.q.SelectContext(ctx, &items, query, saleID); err != nil {
		return nil, err
	}
	return items, nil
}
