package enrollment

import (
	"time"

	"recogym/internal/ledger"
)

type Enrollment struct {
	ID            int       `db:"id" json:"id"`
	MemberID      int       `db:"member_id" json:"member_id"`
	ClassID       int       `db:"class_id" json:"class_id"`
	LedgerEntryID *int      `db:"ledger_entry_id" json:"ledger_entry_id,omitempty"`
	EnrolledAt    time.Time `db:"enrolled_at" json:"enrolled_at"`
}

// Detail is an enrollment with the member's identity, for class rosters.
type Detail struct {
	Enrollment
	MemberCode string `db:"member_code" json:"member_code"`
	FirstName  string `db:"first_name" json:"first_name"`
	LastName   string `db:"last_name" json:"last_name"`
	MemberType string `db:"member_type" json:"member_type"`
}

type EnrollRequest struct {
	MemberID      int    `json:"socio_id" validate:"required,gt=0"`
	PaymentMethod string `json:"metodo_pago" validate:"required,max=20"`
}

// Receipt is the result of a paid enrollment.
type Receipt struct {
	Enrollment  *Enrollment   `json:"enrollment"`
	LedgerEntry *ledger.Entry `json:"ledger_entry"`
	SeatsLeft   int           `json:"seats_left"`
}
