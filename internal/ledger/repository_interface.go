package ledger

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type Repository interface {
	WithTx(tx *sqlx.Tx) Repository
	Insert(ctx context.Context, e NewEntry) (*Entry, error)
	LinkEnrollment(ctx context.Context, entryID, enrollmentID int) error
	Delete(ctx context.Context, id int) error
	TotalBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]Entry, error)
	SummaryBetween(ctx context.Context, from, to time.Time) ([]SummaryRow, error)
	HasMemberEntrySince(ctx context.Context, memberID int, since time.Time) (bool, error)
	DetachMember(ctx context.Context, memberID int) (int64, error)
}
