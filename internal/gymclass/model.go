package gymclass

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultDurationMinutes = 60
	defaultMaxParticipants = 20
)

type Class struct {
	ID              int             `db:"id" json:"id"`
	Code            string          `db:"code" json:"code"`
	Name            string          `db:"name" json:"name"`
	Description     string          `db:"description" json:"description"`
	TrainerID       *int            `db:"trainer_id" json:"trainer_id,omitempty"`
	StartsAt        time.Time       `db:"starts_at" json:"starts_at"`
	DurationMinutes int             `db:"duration_minutes" json:"duration_minutes"`
	MaxParticipants int             `db:"max_participants" json:"max_participants"`
	Price           decimal.Decimal `db:"price" json:"price"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	EnrolledCount   int             `db:"enrolled_count" json:"enrolled_count"`
}

// SeatsLeft is never negative.
func (c *Class) SeatsLeft() int {
	if c.EnrolledCount >= c.MaxParticipants {
		return 0
	}
	return c.MaxParticipants - c.EnrolledCount
}

func (c *Class) EndsAt() time.Time {
	return c.StartsAt.Add(time.Duration(c.DurationMinutes) * time.Minute)
}

type ClassRequest struct {
	Code            string          `json:"code" validate:"required,code"`
	Name            string          `json:"name" validate:"required,max=100"`
	Description     string          `json:"description" validate:"max=1000"`
	TrainerID       *int            `json:"trainer_id" validate:"omitempty,gt=0"`
	StartsAt        time.Time       `json:"starts_at" validate:"required"`
	DurationMinutes int             `json:"duration_minutes" validate:"gte=0"`
	MaxParticipants int             `json:"max_participants" validate:"gte=0"`
	Price           decimal.Decimal `json:"price"`
}

type Filter struct {
	TrainerID *int
}
