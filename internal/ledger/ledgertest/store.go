// Package ledgertest provides an in-memory ledger repository for tests of
// the services that write into the cash ledger.
package ledgertest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"recogym/internal/apperr"
	"recogym/internal/ledger"
)

type Store struct {
	mu      sync.Mutex
	nextID  int
	entries []ledger.Entry
	now     func() time.Time

	// SubscriptionOwner and EnrollmentOwner map linked ids to their member,
	// mirroring the subqueries of the SQL DetachMember.
	SubscriptionOwner map[int]int
	EnrollmentOwner   map[int]int

	// InsertErr, when set, is returned by the next Insert.
	InsertErr error
}

func NewStore() *Store {
	return &Store{
		now:               time.Now,
		SubscriptionOwner: map[int]int{},
		EnrollmentOwner:   map[int]int{},
	}
}

var _ ledger.Repository = (*Store)(nil)

func (s *Store) WithTx(tx *sqlx.Tx) ledger.Repository {
	return s
}

func (s *Store) Insert(ctx context.Context, e ledger.NewEntry) (*ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.InsertErr != nil {
		err := s.InsertErr
		s.InsertErr = nil
		return nil, err
	}

	s.nextID++
	entry := ledger.Entry{
		ID:             s.nextID,
		Type:           e.Type,
		PaymentMethod:  e.PaymentMethod,
		Amount:         e.Amount,
		Description:    e.Description,
		CreatedAt:      s.now(),
		SaleID:         copyID(e.SaleID),
		MemberID:       copyID(e.MemberID),
		SubscriptionID: copyID(e.SubscriptionID),
		EnrollmentID:   copyID(e.EnrollmentID),
	}
	s.entries = append(s.entries, entry)
	out := entry
	return &out, nil
}

func (s *Store) LinkEnrollment(ctx context.Context, entryID, enrollmentID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].ID == entryID {
			s.entries[i].EnrollmentID = copyID(&enrollmentID)
			return nil
		}
	}
	return apperr.NotFound("ledger entry %d not found", entryID)
}

func (s *Store) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("ledger entry %d not found", id)
}

func (s *Store) TotalBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	entries, _ := s.ListBetween(ctx, from, to)
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total, nil
}

func (s *Store) ListBetween(ctx context.Context, from, to time.Time) ([]ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []ledger.Entry{}
	for _, e := range s.entries {
		if !e.CreatedAt.Before(from) && e.CreatedAt.Before(to) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) SummaryBetween(ctx context.Context, from, to time.Time) ([]ledger.SummaryRow, error) {
	entries, _ := s.ListBetween(ctx, from, to)

	type key struct {
		t ledger.EntryType
		m string
	}
	buckets := map[key]*ledger.SummaryRow{}
	var keys []key
	for _, e := range entries {
		k := key{e.Type, e.PaymentMethod}
		row, ok := buckets[k]
		if !ok {
			row = &ledger.SummaryRow{Type: e.Type, PaymentMethod: e.PaymentMethod, Total: decimal.Zero}
			buckets[k] = row
			keys = append(keys, k)
		}
		row.Entries++
		row.Total = row.Total.Add(e.Amount)
	}

	out := make([]ledger.SummaryRow, 0, len(keys))
	for _, k := range keys {
		out = append(out, *buckets[k])
	}
	return out, nil
}

func (s *Store) HasMemberEntrySince(ctx context.Context, memberID int, since time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.MemberID != nil && *e.MemberID == memberID && !e.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) DetachMember(ctx context.Context, memberID int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for i := range s.entries {
		e := &s.entries[i]
		owned := e.MemberID != nil && *e.MemberID == memberID
		if e.SubscriptionID != nil && s.SubscriptionOwner[*e.SubscriptionID] == memberID {
			owned = true
		}
		if e.EnrollmentID != nil && s.EnrollmentOwner[*e.EnrollmentID] == memberID {
			owned = true
		}
		if owned {
			e.MemberID, e.SubscriptionID, e.EnrollmentID = nil, nil, nil
			n++
		}
	}
	return n, nil
}

// SetClock replaces the timestamp source of new entries.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// Entries returns a copy of every stored entry in insertion order.
func (s *Store) Entries() []ledger.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ledger.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func copyID(id *int) *int {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
