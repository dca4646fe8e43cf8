// Package product is the catalogue sold at the front desk.
package product

import (
	"context"

	"recogym/internal/apperr"
	"recogym/internal/logger"
	"recogym/internal/validate"
)

type Service interface {
	Create(ctx context.Context, req ProductRequest) (*Product, error)
	Get(ctx context.Context, id int) (*Product, error)
	List(ctx context.Context, includeInactive bool) ([]Product, error)
	Update(ctx context.Context, id int, req ProductRequest) (*Product, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func fromRequest(req ProductRequest) (*Product, error) {
	req.Name = validate.Text(req.Name)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, apperr.Validation("price must not be negative")
	}

	p := &Product{Name: req.Name, Price: req.Price.Round(2), Active: true}
	if req.Active != nil {
		p.Active = *req.Active
	}
	return p, nil
}

func (s *service) Create(ctx context.Context, req ProductRequest) (*Product, error) {
	p, err := fromRequest(req)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	logger.Info("product created", "product_id", created.ID, "name", created.Name)
	return created, nil
}

func (s *service) Get(ctx context.Context, id int) (*Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *service) List(ctx context.Context, includeInactive bool) ([]Product, error) {
	return s.repo.List(ctx, includeInactive)
}

func (s *service) Update(ctx context.Context, id int, req ProductRequest) (*Product, error) {
	p, err := fromRequest(req)
	if err != nil {
		return nil, err
	}
	p.ID = id
	return s.repo.Update(ctx, p)
}
