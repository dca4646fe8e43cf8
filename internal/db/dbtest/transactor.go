// Package dbtest holds test doubles for the db package.
package dbtest

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Transactor runs fn with a nil transaction. Repository mocks ignore the tx.
type Transactor struct {
	Calls int
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	t.Calls++
	return fn(nil)
}
