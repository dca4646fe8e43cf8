package trainer

import (
	"time"

	"github.com/shopspring/decimal"
)

type Trainer struct {
	ID        int             `db:"id" json:"id"`
	Code      string          `db:"code" json:"code"`
	Name      string          `db:"name" json:"name"`
	Specialty string          `db:"specialty" json:"specialty"`
	Phone     string          `db:"phone" json:"phone"`
	HiredOn   time.Time       `db:"hired_on" json:"hired_on"`
	Salary    decimal.Decimal `db:"salary" json:"salary"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// TrainerRequest is the body of create and update. HiredOn is YYYY-MM-DD.
type TrainerRequest struct {
	Code      string          `json:"code" validate:"required,code"`
	Name      string          `json:"name" validate:"required,max=100"`
	Specialty string          `json:"specialty" validate:"max=50"`
	Phone     string          `json:"phone" validate:"phone"`
	HiredOn   string          `json:"hired_on" validate:"required"`
	Salary    decimal.Decimal `json:"salary"`
}
