package ledger

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"recogym/internal/apperr"
	"recogym/internal/db"
)

const entryColumns = `id, type, payment_method, amount, description, created_at,
	sale_id, member_id, subscription_id, enrollment_id`

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

func (r *repository) Insert(ctx context.Context, e NewEntry) (*Entry, error) {
	query := `
		INSERT INTO ledger_entries (type, payment_method, amount, description, sale_id, member_id, subscription_id, enrollment_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + entryColumns

	var entry Entry
	err := r.q.QueryRowxContext(ctx, query,
		string(e.Type), e.PaymentMethod, e.Amount, e.Description,
		e.SaleID, e.MemberID, e.SubscriptionID, e.EnrollmentID,
	).StructScan(&entry)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) LinkEnrollment(ctx context.Context, entryID, enrollmentID int) error {
	query := `UPDATE ledger_entries SET enrollment_id = $2 WHERE id = $1`

	res, err := r.q.ExecContext(ctx, query, entryID, enrollmentID)
	if err != nil {
		return err
	}
	return requireRow(res, "ledger entry %d not found", entryID)
}

func (r *repository) Delete(ctx context.Context, id int) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM ledger_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "ledger entry %d not found", id)
}

func (r *repository) TotalBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_entries
		WHERE created_at >= $1 AND created_at < $2
	`

	var total decimal.Decimal
	if err := r.q.GetContext(ctx, &total, query, from, to); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r *repository) ListBetween(ctx context.Context, from, to time.Time) ([]Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC, id DESC
	`

	entries := []Entry{}
	if err := r.q.SelectContext(ctx, &entries, query, from, to); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) SummaryBetween(ctx context.Context, from, to time.Time) ([]SummaryRow, error) {
	query := `
		SELECT type, payment_method, COUNT(*) AS entries, COALESCE(SUM(amount), 0) AS total
		FROM ledger_entries
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY type, payment_method
		ORDER BY type, payment_method
	`

	rows := []SummaryRow{}
	if err := r.q.SelectContext(ctx, &rows, query, from, to); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) HasMemberEntrySince(ctx context.Context, memberID int, since time.Time) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM ledger_entries WHERE member_id = $1 AND created_at >= $2)`
	return db.Exists(ctx, r.q, query, memberID, since)
}

// DetachMember clears every link from ledger rows to the member and to the
// member's subscriptions and enrollments. Amounts and types stay untouched.
func (r *repository) DetachMember(ctx context.Context, memberID int) (int64, error) {
	query := `
		UPDATE ledger_entries
		SET member_id = NULL, subscription_id = NULL, enrollment_id = NULL
		WHERE member_id = $1
		   OR subscription_id IN (SELECT id FROM subscriptions WHERE member_id = $1)
		   OR enrollment_id IN (SELECT id FROM enrollments WHERE member_id = $1)
	`

	res, err := r.q.ExecContext(ctx, query, memberID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowsAffected interface {
	RowsAffected() (int64, error)
}

func requireRow(res rowsAffected, format string, args ...interface{}) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound(format, args...)
	}
	return nil
}
