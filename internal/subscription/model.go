package subscription

import (
	"time"

	"github.com/shopspring/decimal"

	"recogym/internal/ledger"
)

// Subscription is a paid membership period of an internal member. EndDate
// and Amount are derived from the plan when the row is created and only
// recomputed by an explicit plan change.
type Subscription struct {
	ID        int             `db:"id" json:"id"`
	MemberID  int             `db:"member_id" json:"member_id"`
	Plan      Plan            `db:"plan" json:"plan"`
	StartDate time.Time       `db:"start_date" json:"start_date"`
	EndDate   time.Time       `db:"end_date" json:"end_date"`
	Active    bool            `db:"active" json:"active"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// SubscribeRequest is the body of a paid subscription. MemberID may come
// from the path instead.
type SubscribeRequest struct {
	MemberID      int    `json:"socio_id"`
	Plan          Plan   `json:"plan" validate:"required"`
	StartDate     string `json:"fecha_inicio" validate:"required"`
	PaymentMethod string `json:"metodo_pago" validate:"required,max=20"`
}

type UpdateRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type ChangePlanRequest struct {
	Plan Plan `json:"plan" binding:"required"`
}

// Payment is a subscription together with the ledger entry that paid for it.
type Payment struct {
	Subscription *Subscription `json:"subscription"`
	LedgerEntry  *ledger.Entry `json:"ledger_entry"`
}
