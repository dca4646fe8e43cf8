package trainer

import (
	"context"
	"strings"

	"recogym/internal/apperr"
	"recogym/internal/logger"
	"recogym/internal/validate"
)

type Service interface {
	Create(ctx context.Context, req TrainerRequest) (*Trainer, error)
	Get(ctx context.Context, id int) (*Trainer, error)
	List(ctx context.Context) ([]Trainer, error)
	Update(ctx context.Context, id int, req TrainerRequest) (*Trainer, error)
	Delete(ctx context.Context, id int) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func fromRequest(req TrainerRequest) (*Trainer, error) {
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.Salary.IsNegative() {
		return nil, apperr.Validation("salary must not be negative")
	}
	hiredOn, err := validate.Date("hired_on", req.HiredOn)
	if err != nil {
		return nil, err
	}

	return &Trainer{
		Code:      req.Code,
		Name:      validate.Text(req.Name),
		Specialty: validate.Text(req.Specialty),
		Phone:     strings.TrimSpace(req.Phone),
		HiredOn:   hiredOn,
		Salary:    req.Salary.Round(2),
	}, nil
}

func (s *service) Create(ctx context.Context, req TrainerRequest) (*Trainer, error) {
	t, err := fromRequest(req)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, t)
	if err != nil {
		return nil, err
	}
	logger.Info("trainer created", "trainer_id", created.ID, "code", created.Code)
	return created, nil
}

func (s *service) Get(ctx context.Context, id int) (*Trainer, error) {
	return s.repo.Get(ctx, id)
}

func (s *service) List(ctx context.Context) ([]Trainer, error) {
	return s.repo.List(ctx)
}

func (s *service) Update(ctx context.Context, id int, req TrainerRequest) (*Trainer, error) {
	t, err := fromRequest(req)
	if err != nil {
		return nil, err
	}
	t.ID = id
	return s.repo.Update(ctx, t)
}

func (s *service) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info("trainer deleted", "trainer_id", id)
	return nil
}
