package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

type EntryType string

const (
	TypeProductSale EntryType = "product_sale"
	TypeMembership  EntryType = "membership"
	TypeClassFee    EntryType = "class_fee"
	TypeOther       EntryType = "other"
)

func (t EntryType) Valid() bool {
	switch t {
	case TypeProductSale, TypeMembership, TypeClassFee, TypeOther:
		return true
	}
	return false
}

// Entry is one cash-register movement. Rows are never edited after insert;
// the only mutation is the enrollment back-link set in the creating transaction.
type Entry struct {
	ID             int             `db:"id" json:"id"`
	Type           EntryType       `db:"type" json:"type"`
	PaymentMethod  string          `db:"payment_method" json:"payment_method"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	Description    string          `db:"description" json:"description"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	SaleID         *int            `db:"sale_id" json:"sale_id,omitempty"`
	MemberID       *int            `db:"member_id" json:"member_id,omitempty"`
	SubscriptionID *int            `db:"subscription_id" json:"subscription_id,omitempty"`
	EnrollmentID   *int            `db:"enrollment_id" json:"enrollment_id,omitempty"`
}

type NewEntry struct {
	Type           EntryType
	Amount         decimal.Decimal
	PaymentMethod  string
	Description    string
	SaleID         *int
	MemberID       *int
	SubscriptionID *int
	EnrollmentID   *int
}

type Day struct {
	Date    string          `json:"fecha"`
	Total   decimal.Decimal `json:"total"`
	Entries []Entry         `json:"entries"`
}

// SummaryRow is one (type, payment method) bucket of a period.
type SummaryRow struct {
	Type          EntryType       `db:"type" json:"type"`
	PaymentMethod string          `db:"payment_method" json:"payment_method"`
	Entries       int             `db:"entries" json:"entries"`
	Total         decimal.Decimal `db:"total" json:"total"`
}

// Summary is the cash-register closing view of one day.
type Summary struct {
	Date            string                        `json:"fecha"`
	Entries         int                           `json:"entries"`
	Total           decimal.Decimal               `json:"total"`
	ByPaymentMethod map[string]decimal.Decimal    `json:"by_payment_method"`
	ByType          map[EntryType]decimal.Decimal `json:"by_type"`
}

type CreateManualEntryRequest struct {
	Amount        decimal.Decimal `json:"monto"`
	PaymentMethod string          `json:"metodo_pago" validate:"required,max=20"`
	Description   string          `json:"descripcion" validate:"max=1000"`
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
