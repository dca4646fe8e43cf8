package enrollment

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"recogym/internal/apperr"
	"recogym/internal/db"
)

const enrollmentColumns = `id, member_id, class_id, ledger_entry_id, enrolled_at`

type Repository interface {
	WithTx(tx *sqlx.Tx) Repository
	Insert(ctx context.Context, memberID, classID int, ledgerEntryID *int) (*Enrollment, error)
	Exists(ctx context.Context, memberID, classID int) (bool, error)
	Get(ctx context.Context, memberID, classID int) (*Enrollment, error)
	Delete(ctx context.Context, id int) error
	ListByClass(ctx context.Context, classID int) ([]Detail, error)
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

func (r *repository) Insert(ctx context.Context, memberID, classID int, ledgerEntryID *int) (*Enrollment, error) {
	query := `
		INSERT INTO enrollments (member_id, class_id, ledger_entry_id)
		VALUES ($1, $2, $3)
		RETURNING ` + enrollmentColumns

	var e Enrollment
	if err := r.q.QueryRowxContext(ctx, query, memberID, classID, ledgerEntryID).StructScan(&e); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apperr.DuplicateEnrollment("member %d is already enrolled in class %d", memberID, classID)
		}
		return nil, err
	}
	return &e, nil
}

func (r *repository) Exists(ctx context.Context, memberID, classID int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM enrollments WHERE member_id = $1 AND class_id = $2)`
	return db.Exists(ctx, r.q, query, memberID, classID)
}

func (r *repository) Get(ctx context.Context, memberID, classID int) (*Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE member_id = $1 AND class_id = $2`

	var e Enrollment
	if err := r.q.GetContext(ctx, &e, query, memberID, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("member %d is not enrolled in class %d", memberID, classID)
		}
		return nil, err
	}
	return &e, nil
}

func (r *repository) Delete(ctx context.Context, id int) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM enrollments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("enrollment %d not found", id)
	}
	return nil
}

func (r *repository) ListByClass(ctx context.Context, classID int) ([]Detail, error) {
	query := `
		SELECT e.id, e.member_id, e.class_id, e.ledger_entry_id, e.enrolled_at,
		       m.code AS member_code, m.first_name, m.last_name, m.type AS member_type
		FROM enrollments e
		JOIN members m ON m.id = e.member_id
		WHERE e.class_id = $1
		ORDER BY e.enrolled_at, e.id
	`

	details := []Detail{}
	if err := r.q.SelectContext(ctx, &details, query, classID); err != nil {
		return nil, err
	}
	return details, nil
}
