package product

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        int             `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Active    bool            `db:"active" json:"active"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

type ProductRequest struct {
	Name   string          `json:"name" validate:"required,max=100"`
	Price  decimal.Decimal `json:"price"`
	Active *bool           `json:"active"`
}
