package member

import (
	"context"
	"time"

	"recogym/internal/ledger"
)

// ExternalActivityDays is how far back a ledger payment keeps an external
// member displayed as active.
const ExternalActivityDays = 30

// Today truncates now to the start of its calendar day.
func Today(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// EligibleForClass reports whether m may enroll in a class on today. External
// members pay per class and are always eligible; internal members need an
// active, unexpired subscription.
func EligibleForClass(ctx context.Context, repo Repository, m *Member, today time.Time) (bool, error) {
	if m.Type == TypeExternal {
		return true, nil
	}
	return repo.HasActiveSubscription(ctx, m.ID, Today(today))
}

// DeriveStatus computes the display status of m from its subscriptions
// (internal) or its recent ledger activity (external).
func DeriveStatus(ctx context.Context, repo Repository, entries ledger.Repository, m *Member, now time.Time) (Status, error) {
	var active bool
	var err error

	if m.Type == TypeInternal {
		active, err = repo.HasActiveSubscription(ctx, m.ID, Today(now))
	} else {
		since := Today(now).AddDate(0, 0, -ExternalActivityDays)
		active, err = entries.HasMemberEntrySince(ctx, m.ID, since)
	}
	if err != nil {
		return "", err
	}

	if active {
		return StatusActive, nil
	}
	return StatusInactive, nil
}

// Reconcile re-derives the status of m and stores it when it changed.
// m.Status is updated in place.
func Reconcile(ctx context.Context, repo Repository, entries ledger.Repository, m *Member, now time.Time) error {
	status, err := DeriveStatus(ctx, repo, entries, m, now)
	if err != nil {
		return err
	}
	if status == m.Status {
		return nil
	}
	if err := repo.UpdateStatus(ctx, m.ID, status); err != nil {
		return err
	}
	m.Status = status
	return nil
}
