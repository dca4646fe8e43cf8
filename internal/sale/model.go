package sale

import (
	"time"

	"github.com/shopspring/decimal"

	"recogym/internal/ledger"
)

type Sale struct {
	ID            int             `db:"id" json:"id"`
	PaymentMethod string          `db:"payment_method" json:"payment_method"`
	ClientName    string          `db:"client_name" json:"client_name"`
	Observation   string          `db:"observation" json:"observation"`
	Total         decimal.Decimal `db:"total" json:"total"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	Items         []Item          `db:"-" json:"items"`
}

type Item struct {
	ID          int             `db:"id" json:"id"`
	SaleID      int             `db:"sale_id" json:"sale_id"`
	ProductID   int             `db:"product_id" json:"product_id"`
	ProductName string          `db:"product_name" json:"product_name"`
	Quantity    int             `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	Subtotal    decimal.Decimal `db:"subtotal" json:"subtotal"`
}

// RegisterRequest is the front-desk sale payload.
type RegisterRequest struct {
	PaymentMethod string        `json:"metodo_pago" validate:"required,max=20"`
	ClientName    string        `json:"cliente" validate:"max=100"`
	Observation   string        `json:"observacion" validate:"max=1000"`
	Items         []ItemRequest `json:"items"`
}

// ItemRequest is one requested line. A missing unit price falls back to
// the catalogue price.
type ItemRequest struct {
	ProductID *int             `json:"producto_id"`
	Quantity  int              `json:"cantidad"`
	UnitPrice *decimal.Decimal `json:"precio_unitario"`
}

// usable reports whether the line takes part in the sale.
func (r ItemRequest) usable() bool {
	if r.ProductID == nil || *r.ProductID <= 0 || r.Quantity <= 0 {
		return false
	}
	return r.UnitPrice == nil || !r.UnitPrice.IsNegative()
}

type Receipt struct {
	Sale        *Sale         `json:"sale"`
	LedgerEntry *ledger.Entry `json:"ledger_entry"`
}

type RegisterResponse struct {
	Success bool `json:"success"`
	SaleID  int  `json:"venta_id"`
}
