package gymclass

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"recogym/internal/apperr"
	"recogym/internal/db"
)

const classColumns = `c.id, c.code, c.name, c.description, c.trainer_id, c.starts_at,
	c.duration_minutes, c.max_participants, c.price, c.created_at`

const enrolledCount = `(SELECT COUNT(*) FROM enrollments e WHERE e.class_id = c.id) AS enrolled_count`

type Repository interface {
	WithTx(tx *sqlx.Tx) Repository
	Create(ctx context.Context, c *Class) (*Class, error)
	Get(ctx context.Context, id int) (*Class, error)
	List(ctx context.Context, f Filter) ([]Class, error)
	Update(ctx context.Context, c *Class) (*Class, error)
	Delete(ctx context.Context, id int) error
	LockForUpdate(ctx context.Context, id int) (*Class, error)
	CountEnrolled(ctx context.Context, classID int) (int, error)
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

func (r *repository) Create(ctx context.Context, c *Class) (*Class, error) {
	query := `
		INSERT INTO classes AS c (code, name, description, trainer_id, starts_at, duration_minutes, max_participants, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + classColumns

	var created Class
	err := r.q.QueryRowxContext(ctx, query,
		c.Code, c.Name, c.Description, c.TrainerID, c.StartsAt,
		c.DurationMinutes, c.MaxParticipants, c.Price,
	).StructScan(&created)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apperr.Validation("class code %q is already in use", c.Code)
		}
		return nil, err
	}
	return &created, nil
}

func (r *repository) Get(ctx context.Context, id int) (*Class, error) {
	query := `SELECT ` + classColumns + `, ` + enrolledCount + ` FROM classes c WHERE c.id = $1`

	var c Class
	if err := r.q.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("class %d not found", id)
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) List(ctx context.Context, f Filter) ([]Class, error) {
	query := `
		SELECT ` + classColumns + `, ` + enrolledCount + `
		FROM classes c
		WHERE ($1::int IS NULL OR c.trainer_id = $1)
		ORDER BY c.starts_at, c.id
	`

	classes := []Class{}
	if err := r.q.SelectContext(ctx, &classes, query, f.TrainerID); err != nil {
		return nil, err
	}
	return classes, nil
}

func (r *repository) Update(ctx context.Context, c *Class) (*Class, error) {
	query := `
		UPDATE classes AS c
		SET code = $2, name = $3, description = $4, trainer_id = $5, starts_at = $6,
		    duration_minutes = $7, max_participants = $8, price = $9
		WHERE c.id = $1
		RETURNING ` + classColumns

	var updated Class
	err := r.q.QueryRowxContext(ctx, query,
		c.ID, c.Code, c.Name, c.Description, c.TrainerID, c.StartsAt,
		c.DurationMinutes, c.MaxParticipants, c.Price,
	).StructScan(&updated)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, apperr.NotFound("class %d not found", c.ID)
		case db.IsUniqueViolation(err):
			return nil, apperr.Validation("class code %q is already in use", c.Code)
		}
		return nil, err
	}
	return &updated, nil
}

// Delete removes the class and its enrollments. Ledger rows of those
// enrollments keep their amounts with enrollment_id set to NULL.
func (r *repository) Delete(ctx context.Context, id int) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("class %d not found", id)
	}
	return nil
}

// LockForUpdate reads the class row with a row lock held until the
// transaction ends. EnrolledCount is not filled.
func (r *repository) LockForUpdate(ctx context.Context, id int) (*Class, error) {
	query := `SELECT ` + classColumns + ` FROM classes c WHERE c.id = $1 FOR UPDATE`

	var c Class
	if err := r.q.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("class %d not found", id)
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) CountEnrolled(ctx context.Context, classID int) (int, error) {
	var n int
	err := r.q.GetContext(ctx, &n, `SELECT COUNT(*) FROM enrollments WHERE class_id = $1`, classID)
	return n, err
}
