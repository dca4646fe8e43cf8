package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"recogym/internal/apperr"
	"recogym/internal/logger"
	"recogym/internal/metrics"
	"recogym/internal/validate"
)

type Service interface {
	Record(ctx context.Context, e NewEntry) (*Entry, error)
	RecordManual(ctx context.Context, req CreateManualEntryRequest) (*Entry, error)
	TotalForDate(ctx context.Context, date time.Time) (decimal.Decimal, error)
	ListForDate(ctx context.Context, date time.Time) ([]Entry, error)
	Day(ctx context.Context, date time.Time) (*Day, error)
	ListRange(ctx context.Context, from, to time.Time) ([]Entry, error)
	DailySummary(ctx context.Context, date time.Time) (*Summary, error)
	ExportXLSX(ctx context.Context, from, to time.Time) ([]byte, error)
	ExportCSV(ctx context.Context, from, to time.Time) ([]byte, error)
}

type service struct {
	repo Repository
	loc  *time.Location
}

func NewService(repo Repository) Service {
	return &service{repo: repo, loc: time.Local}
}

// Validate checks an entry before it is appended.
func Validate(e NewEntry) error {
	if !e.Type.Valid() {
		return apperr.Validation("unknown ledger entry type %q", e.Type)
	}
	if e.Amount.IsNegative() {
		return apperr.Validation("amount must not be negative")
	}
	if strings.TrimSpace(e.PaymentMethod) == "" {
		return apperr.Validation("payment method is required")
	}
	return nil
}

// Append validates e and inserts it through repo. Callers that write inside a
// transaction pass repo.WithTx(tx) and call Observe once the transaction commits.
func Append(ctx context.Context, repo Repository, e NewEntry) (*Entry, error) {
	if err := Validate(e); err != nil {
		return nil, err
	}
	e.PaymentMethod = strings.TrimSpace(e.PaymentMethod)
	e.Description = validate.Text(e.Description)
	e.Amount = e.Amount.Round(2)

	return repo.Insert(ctx, e)
}

// Observe logs and counts a committed entry.
func Observe(e *Entry) {
	if e == nil {
		return
	}
	metrics.RecordLedgerEntry(string(e.Type), e.PaymentMethod, e.Amount.InexactFloat64())
	logger.Info("ledger entry recorded",
		"entry_id", e.ID,
		"type", e.Type,
		"payment_method", e.PaymentMethod,
		"amount", e.Amount.StringFixed(2),
	)
}

func (s *service) Record(ctx context.Context, e NewEntry) (*Entry, error) {
	entry, err := Append(ctx, s.repo, e)
	if err != nil {
		return nil, err
	}
	Observe(entry)
	return entry, nil
}

func (s *service) RecordManual(ctx context.Context, req CreateManualEntryRequest) (*Entry, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	return s.Record(ctx, NewEntry{
		Type:          TypeOther,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Description:   req.Description,
	})
}

// dayBounds returns [start of date, start of next day) in the service location.
func (s *service) dayBounds(date time.Time) (time.Time, time.Time) {
	d := date.In(s.loc)
	from := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, s.loc)
	return from, from.AddDate(0, 0, 1)
}

func (s *service) rangeBounds(from, to time.Time) (time.Time, time.Time, error) {
	start, _ := s.dayBounds(from)
	_, end := s.dayBounds(to)
	if !end.After(start) {
		return time.Time{}, time.Time{}, apperr.Validation("from must not be after to")
	}
	return start, end, nil
}

func (s *service) TotalForDate(ctx context.Context, date time.Time) (decimal.Decimal, error) {
	from, to := s.dayBounds(date)
	return s.repo.TotalBetween(ctx, from, to)
}

func (s *service) ListForDate(ctx context.Context, date time.Time) ([]Entry, error) {
	from, to := s.dayBounds(date)
	return s.repo.ListBetween(ctx, from, to)
}

func (s *service) Day(ctx context.Context, date time.Time) (*Day, error) {
	total, err := s.TotalForDate(ctx, date)
	if err != nil {
		return nil, err
	}
	entries, err := s.ListForDate(ctx, date)
	if err != nil {
		return nil, err
	}
	return &Day{
		Date:    date.In(s.loc).Format(validate.DateLayout),
		Total:   total,
		Entries: entries,
	}, nil
}

func (s *service) ListRange(ctx context.Context, from, to time.Time) ([]Entry, error) {
	start, end, err := s.rangeBounds(from, to)
	if err != nil {
		return nil, err
	}
	return s.repo.ListBetween(ctx, start, end)
}

func (s *service) DailySummary(ctx context.Context, date time.Time) (*Summary, error) {
	from, to := s.dayBounds(date)
	rows, err := s.repo.SummaryBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Date:            from.Format(validate.DateLayout),
		Total:           decimal.Zero,
		ByPaymentMethod: map[string]decimal.Decimal{},
		ByType:          map[EntryType]decimal.Decimal{},
	}
	for _, row := range rows {
		summary.Entries += row.Entries
		summary.Total = summary.Total.Add(row.Total)
		summary.ByPaymentMethod[row.PaymentMethod] = summary.ByPaymentMethod[row.PaymentMethod].Add(row.Total)
		summary.ByType[row.Type] = summary.ByType[row.Type].Add(row.Total)
	}
	return summary, nil
}
