package trainer

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"recogym/internal/apperr"
	"recogym/internal/db"
)

const trainerColumns = `id, code, name, specialty, phone, hired_on, salary, created_at`

type Repository interface {
	Create(ctx context.Context, t *Trainer) (*Trainer, error)
	Get(ctx context.Context, id int) (*Trainer, error)
	List(ctx context.Context) ([]Trainer, error)
	Update(ctx context.Context, t *Trainer) (*Trainer, error)
	Delete(ctx context.Context, id int) error
}

type repository struct {
	q db.Querier
}

func NewRepository(conn *sqlx.DB) Repository {
	return &repository{q: conn}
}

func (r *repository) Create(ctx context.Context, t *Trainer) (*Trainer, error) {
	query := `
		INSERT INTO trainers (code, name, specialty, phone, hired_on, salary)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + trainerColumns

	var created Trainer
	err := r.q.QueryRowxContext(ctx, query,
		t.Code, t.Name, t.Specialty, t.Phone, t.HiredOn, t.Salary,
	).StructScan(&created)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apperr.Validation("trainer code %q is already in use", t.Code)
		}
		return nil, err
	}
	return &created, nil
}

func (r *repository) Get(ctx context.Context, id int) (*Trainer, error) {
	var t Trainer
	err := r.q.GetContext(ctx, &t, `SELECT `+trainerColumns+` FROM trainers WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("trainer %d not found", id)
		}
		return nil, err
	}
	return &t, nil
}

func (r *repository) List(ctx context.Context) ([]Trainer, error) {
	trainers := []Trainer{}
	if err := r.q.SelectContext(ctx, &trainers, `SELECT `+trainerColumns+` FROM trainers ORDER BY name, id`); err != nil {
		return nil, err
	}
	return trainers, nil
}

func (r *repository) Update(ctx context.Context, t *Trainer) (*Trainer, error) {
	query := `
		UPDATE trainers
		SET code = $2, name = $3, specialty = $4, phone = $5, hired_on = $6, salary = $7
		WHERE id = $1
		RETURNING ` + trainerColumns

	var updated Trainer
	err := r.q.QueryRowxContext(ctx, query,
		t.ID, t.Code, t.Name, t.Specialty, t.Phone, t.HiredOn, t.Salary,
	).StructScan(&updated)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, apperr.NotFound("trainer %d not found", t.ID)
		case db.IsUniqueViolation(err):
			return nil, apperr.Validation("trainer code %q is already in use", t.Code)
		}
		return nil, err
	}
	return &updated, nil
}

// Delete removes the trainer. Its classes stay without a trainer.
func (r *repository) Delete(ctx context.Context, id int) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM trainers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("trainer %d not found", id)
	}
	return nil
}
