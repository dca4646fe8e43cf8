package subscription

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"recogym/internal/apperr"
	"recogym/internal/db"
	"recogym/internal/validate"
)

const subscriptionColumns = `id, member_id, plan, start_date, end_date, active, amount, created_at`

type Repository interface {
	WithTx(tx *sqlx.Tx) Repository
	Insert(ctx context.Context, s *Subscription) (*Subscription, error)
	Get(ctx context.Context, id int) (*Subscription, error)
	List(ctx context.Context, memberID *int) ([]Subscription, error)
	DeactivateAll(ctx context.Context, memberID int) (int64, error)
	SetActive(ctx context.Context, id int, active bool) error
	UpdateTerms(ctx context.Context, id int, plan Plan, endDate time.Time, amount decimal.Decimal) (*Subscription, error)
	Delete(ctx context.Context, id int) error
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

var errActiveExists = apperr.Validation("member already has an active subscription")

func (r *repository) Insert(ctx context.Context, s *Subscription) (*Subscription, error) {
	query := `
		INSERT INTO subscriptions (member_id, plan, start_date, end_date, active, amount)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + subscriptionColumns

	var created Subscription
	err := r.q.QueryRowxContext(ctx, query,
		s.MemberID, string(s.Plan),
		s.StartDate.Format(validate.DateLayout), s.EndDate.Format(validate.DateLayout),
		s.Active, s.Amount,
	).StructScan(&created)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, errActiveExists
		}
		return nil, err
	}
	return &created, nil
}

func (r *repository) Get(ctx context.Context, id int) (*Subscription, error) {
	var s Subscription
	err := r.q.GetContext(ctx, &s, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("subscription %d not found", id)
		}
		return nil, err
	}
	return &s, nil
}

func (r *repository) List(ctx context.Context, memberID *int) ([]Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE ($1::int IS NULL OR member_id = $1)
		ORDER BY start_date DESC, id DESC
	`

	subs := []Subscription{}
	if err := r.q.SelectContext(ctx, &subs, query, memberID); err != nil {
		return nil, err
	}
	return subs, nil
}

// DeactivateAll clears the active flag of every subscription of the member.
func (r *repository) DeactivateAll(ctx context.Context, memberID int) (int64, error) {
	res, err := r.q.ExecContext(ctx, `UPDATE subscriptions SET active = FALSE WHERE member_id = $1 AND active`, memberID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repository) SetActive(ctx context.Context, id int, active bool) error {
	res, err := r.q.ExecContext(ctx, `UPDATE subscriptions SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return errActiveExists
		}
		return err
	}
	return requireRow(res, id)
}

func (r *repository) UpdateTerms(ctx context.Context, id int, plan Plan, endDate time.Time, amount decimal.Decimal) (*Subscription, error) {
	query := `
		UPDATE subscriptions
		SET plan = $2, end_date = $3, amount = $4
		WHERE id = $1
		RETURNING ` + subscriptionColumns

	var updated Subscription
	err := r.q.QueryRowxContext(ctx, query, id, string(plan), endDate.Format(validate.DateLayout), amount).StructScan(&updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("subscription %d not found", id)
		}
		return nil, err
	}
	return &updated, nil
}

// Delete removes the subscription. Its ledger entry stays with
// subscription_id set to NULL.
func (r *repository) Delete(ctx context.Context, id int) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("subscription %d not found", id)
	}
	return nil
}
