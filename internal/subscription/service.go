package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"recogym/internal/apperr"
	"recogym/internal/db"
	"recogym/internal/ledger"
	"recogym/internal/logger"
	"recogym/internal/member"
	"recogym/internal/metrics"
	"recogym/internal/notify"
	"recogym/internal/validate"
)

type Service interface {
	Subscribe(ctx context.Context, memberID int, req SubscribeRequest) (*Payment, error)
	ChangePlan(ctx context.Context, id int, plan Plan) (*Subscription, error)
	Update(ctx context.Context, id int, active bool) (*Subscription, error)
	Deactivate(ctx context.Context, id int) (*Subscription, error)
	Get(ctx context.Context, id int) (*Subscription, error)
	List(ctx context.Context, memberID *int) ([]Subscription, error)
	Delete(ctx context.Context, id int) error
}

type service struct {
	tx       db.Transactor
	repo     Repository
	members  member.Repository
	entries  ledger.Repository
	notifier notify.Notifier
	now      func() time.Time
}

func NewService(tx db.Transactor, repo Repository, members member.Repository, entries ledger.Repository, notifier notify.Notifier) Service {
	return &service{
		tx:       tx,
		repo:     repo,
		members:  members,
		entries:  entries,
		notifier: notifier,
		now:      time.Now,
	}
}

// Create derives the plan terms and stores a new active subscription for m.
// It writes no ledger entry; callers pair it with one in the same transaction.
func Create(ctx context.Context, repo Repository, m *member.Member, plan Plan, start time.Time) (*Subscription, error) {
	if m.Type != member.TypeInternal {
		return nil, apperr.Validation("member %s is external; only internal members can subscribe", m.Code)
	}

	endDate, amount, err := Derive(plan, start)
	if err != nil {
		return nil, err
	}

	return repo.Insert(ctx, &Subscription{
		MemberID:  m.ID,
		Plan:      plan,
		StartDate: start,
		EndDate:   endDate,
		Active:    true,
		Amount:    amount,
	})
}

// Subscribe replaces the member's active subscription with a new one and
// records its payment in the cash ledger, all in one transaction.
func (s *service) Subscribe(ctx context.Context, memberID int, req SubscribeRequest) (*Payment, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if _, err := TermsOf(req.Plan); err != nil {
		return nil, err
	}
	start, err := validate.Date("fecha_inicio", req.StartDate)
	if err != nil {
		return nil, err
	}

	var m *member.Member
	payment := &Payment{}
	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		members := s.members.WithTx(tx)
		repo := s.repo.WithTx(tx)
		entries := s.entries.WithTx(tx)

		var err error
		m, err = members.Get(ctx, memberID)
		if err != nil {
			return err
		}

		if m.Type == member.TypeInternal {
			if _, err := repo.DeactivateAll(ctx, m.ID); err != nil {
				return err
			}
		}

		payment.Subscription, err = Create(ctx, repo, m, req.Plan, start)
		if err != nil {
			return err
		}

		payment.LedgerEntry, err = ledger.Append(ctx, entries, ledger.NewEntry{
			Type:           ledger.TypeMembership,
			Amount:         payment.Subscription.Amount,
			PaymentMethod:  req.PaymentMethod,
			Description:    fmt.Sprintf("Suscripción %s %s", payment.Subscription.Plan, m.Code),
			MemberID:       ledger.IntPtr(m.ID),
			SubscriptionID: ledger.IntPtr(payment.Subscription.ID),
		})
		if err != nil {
			return err
		}

		return member.Reconcile(ctx, members, entries, m, s.now())
	})
	if err != nil {
		return nil, err
	}

	ledger.Observe(payment.LedgerEntry)
	metrics.RecordSubscription(string(payment.Subscription.Plan))
	logger.Info("subscription created",
		"subscription_id", payment.Subscription.ID,
		"member_id", m.ID,
		"plan", payment.Subscription.Plan,
		"end_date", payment.Subscription.EndDate.Format(validate.DateLayout),
	)

	if err := s.notifier.SendSubscriptionReceipt(ctx, m.Email, m.FullName(), string(payment.Subscription.Plan),
		payment.Subscription.EndDate, payment.Subscription.Amount); err != nil {
		logger.Warn("subscription receipt not queued", "subscription_id", payment.Subscription.ID, "error", err)
	}

	return payment, nil
}

// ChangePlan switches the plan and recomputes end date and amount from the
// stored start date. The ledger entry of the original payment is untouched.
func (s *service) ChangePlan(ctx context.Context, id int, plan Plan) (*Subscription, error) {
	if _, err := TermsOf(plan); err != nil {
		return nil, err
	}

	var updated *Subscription
	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}

		endDate, amount, err := Derive(plan, current.StartDate)
		if err != nil {
			return err
		}

		updated, err = repo.UpdateTerms(ctx, id, plan, endDate, amount)
		if err != nil {
			return err
		}
		return s.reconcile(ctx, tx, updated.MemberID)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("subscription plan changed", "subscription_id", id, "plan", plan, "amount", updated.Amount.StringFixed(2))
	return updated, nil
}

// Update sets the active flag only. Activating a subscription deactivates
// the member's others first.
func (s *service) Update(ctx context.Context, id int, active bool) (*Subscription, error) {
	var updated *Subscription
	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}

		if current.Active != active {
			if active {
				if _, err := repo.DeactivateAll(ctx, current.MemberID); err != nil {
					return err
				}
			}
			if err := repo.SetActive(ctx, id, active); err != nil {
				return err
			}
			current.Active = active
		}
		updated = current
		return s.reconcile(ctx, tx, current.MemberID)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Deactivate(ctx context.Context, id int) (*Subscription, error) {
	return s.Update(ctx, id, false)
}

func (s *service) Get(ctx context.Context, id int) (*Subscription, error) {
	return s.repo.Get(ctx, id)
}

func (s *service) List(ctx context.Context, memberID *int) ([]Subscription, error) {
	return s.repo.List(ctx, memberID)
}

func (s *service) Delete(ctx context.Context, id int) error {
	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		return s.reconcile(ctx, tx, current.MemberID)
	})
	if err != nil {
		return err
	}

	logger.Info("subscription deleted", "subscription_id", id)
	return nil
}

func (s *service) reconcile(ctx context.Context, tx *sqlx.Tx, memberID int) error {
	members := s.members.WithTx(tx)
	m, err := members.Get(ctx, memberID)
	if err != nil {
		return err
	}
	return member.Reconcile(ctx, members, s.entries.WithTx(tx), m, s.now())
}
