package member

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"recogym/internal/apperr"
	"recogym/internal/db"
	"recogym/internal/validate"
)

const memberColumns = `id, code, first_name, last_name, phone, email, address, type, status, user_id, registered_at`

type Repository interface {
	WithTx(tx *sqlx.Tx) Repository
	Create(ctx context.Context, m *Member) (*Member, error)
	Get(ctx context.Context, id int) (*Member, error)
	GetByCode(ctx context.Context, code string) (*Member, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	List(ctx context.Context, f Filter) ([]Member, error)
	Update(ctx context.Context, m *Member) (*Member, error)
	UpdateType(ctx context.Context, id int, t Type) error
	UpdateStatus(ctx context.Context, id int, status Status) error
	Delete(ctx context.Context, id int) error
	HasActiveSubscription(ctx context.Context, memberID int, today time.Time) (bool, error)
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

func (r *repository) Create(ctx context.Context, m *Member) (*Member, error) {
	query := `
		INSERT INTO members (code, first_name, last_name, phone, email, address, type, status, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + memberColumns

	var created Member
	err := r.q.QueryRowxContext(ctx, query,
		m.Code, m.FirstName, m.LastName, m.Phone, m.Email, m.Address,
		string(m.Type), string(m.Status), m.UserID,
	).StructScan(&created)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apperr.Validation("member code %q is already in use", m.Code)
		}
		return nil, err
	}
	return &created, nil
}

func (r *repository) Get(ctx context.Context, id int) (*Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`

	var m Member
	if err := r.q.GetContext(ctx, &m, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("member %d not found", id)
		}
		return nil, err
	}
	return &m, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE code = $1`

	var m Member
	if err := r.q.GetContext(ctx, &m, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("member %s not found", code)
		}
		return nil, err
	}
	return &m, nil
}

func (r *repository) CodeExists(ctx context.Context, code string) (bool, error) {
	return db.Exists(ctx, r.q, `SELECT EXISTS(SELECT 1 FROM members WHERE code = $1)`, code)
}

func (r *repository) List(ctx context.Context, f Filter) ([]Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM members
		WHERE ($1 = '' OR code ILIKE $2 OR first_name ILIKE $2 OR last_name ILIKE $2)
		  AND ($3 = '' OR type = $3)
		ORDER BY last_name, first_name, id
	`

	members := []Member{}
	err := r.q.SelectContext(ctx, &members, query, f.Search, "%"+f.Search+"%", string(f.Type))
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repository) Update(ctx context.Context, m *Member) (*Member, error) {
	query := `
		UPDATE members
		SET first_name = $2, last_name = $3, phone = $4, email = $5, address = $6
		WHERE id = $1
		RETURNING ` + memberColumns

	var updated Member
	err := r.q.QueryRowxContext(ctx, query,
		m.ID, m.FirstName, m.LastName, m.Phone, m.Email, m.Address,
	).StructScan(&updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("member %d not found", m.ID)
		}
		return nil, err
	}
	return &updated, nil
}

func (r *repository) UpdateType(ctx context.Context, id int, t Type) error {
	res, err := r.q.ExecContext(ctx, `UPDATE members SET type = $2 WHERE id = $1`, id, string(t))
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

func (r *repository) UpdateStatus(ctx context.Context, id int, status Status) error {
	res, err := r.q.ExecContext(ctx, `UPDATE members SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

// Delete removes the member. Subscriptions and enrollments go with it.
func (r *repository) Delete(ctx context.Context, id int) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

// HasActiveSubscription reports whether the member holds an active
// subscription that has not expired on today.
func (r *repository) HasActiveSubscription(ctx context.Context, memberID int, today time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM subscriptions
			WHERE member_id = $1 AND active AND end_date >= $2::date
		)
	`
	return db.Exists(ctx, r.q, query, memberID, today.Format(validate.DateLayout))
}

func requireRow(res sql.Result, id int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("member %d not found", id)
	}
	return nil
}
