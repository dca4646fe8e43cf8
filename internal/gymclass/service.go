package gymclass

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"recogym/internal/apperr"
	"recogym/internal/db"
	"recogym/internal/logger"
	"recogym/internal/trainer"
	"recogym/internal/validate"
)

type Service interface {
	Create(ctx context.Context, req ClassRequest) (*Class, error)
	Get(ctx context.Context, id int) (*Class, error)
	List(ctx context.Context, f Filter) ([]Class, error)
	Update(ctx context.Context, id int, req ClassRequest) (*Class, error)
	Delete(ctx context.Context, id int) error
}

type service struct {
	tx       db.Transactor
	repo     Repository
	trainers trainer.Repository
}

func NewService(tx db.Transactor, repo Repository, trainers trainer.Repository) Service {
	return &service{tx: tx, repo: repo, trainers: trainers}
}

func (s *service) fromRequest(ctx context.Context, req ClassRequest) (*Class, error) {
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.StartsAt.IsZero() {
		return nil, apperr.Validation("starts_at is required")
	}
	if req.Price.IsNegative() {
		return nil, apperr.Validation("price must not be negative")
	}

	if req.TrainerID != nil {
		if _, err := s.trainers.Get(ctx, *req.TrainerID); err != nil {
			return nil, err
		}
	}

	c := &Class{
		Code:            req.Code,
		Name:            validate.Text(req.Name),
		Description:     validate.Text(req.Description),
		TrainerID:       req.TrainerID,
		StartsAt:        req.StartsAt,
		DurationMinutes: req.DurationMinutes,
		MaxParticipants: req.MaxParticipants,
		Price:           req.Price.Round(2),
	}
	if c.DurationMinutes == 0 {
		c.DurationMinutes = defaultDurationMinutes
	}
	if c.MaxParticipants == 0 {
		c.MaxParticipants = defaultMaxParticipants
	}
	return c, nil
}

func (s *service) Create(ctx context.Context, req ClassRequest) (*Class, error) {
	c, err := s.fromRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, err
	}
	logger.Info("class created", "class_id", created.ID, "code", created.Code, "max_participants", created.MaxParticipants)
	return created, nil
}

func (s *service) Get(ctx context.Context, id int) (*Class, error) {
	return s.repo.Get(ctx, id)
}

func (s *service) List(ctx context.Context, f Filter) ([]Class, error) {
	return s.repo.List(ctx, f)
}

// Update rewrites the class. Capacity cannot drop below the current number
// of enrolled members; the class row is locked so no enrollment slips in.
func (s *service) Update(ctx context.Context, id int, req ClassRequest) (*Class, error) {
	c, err := s.fromRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	c.ID = id

	var updated *Class
	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.LockForUpdate(ctx, id); err != nil {
			return err
		}
		enrolled, err := repo.CountEnrolled(ctx, id)
		if err != nil {
			return err
		}
		if c.MaxParticipants < enrolled {
			return apperr.Validation("max_participants cannot be lower than the %d enrolled members", enrolled)
		}

		updated, err = repo.Update(ctx, c)
		if err != nil {
			return err
		}
		updated.EnrolledCount = enrolled
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info("class deleted", "class_id", id)
	return nil
}
